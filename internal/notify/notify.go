package notify

import (
	"fmt"
	"log"
	"os/exec"

	"trackme/internal/activity"
)

// Notifier delivers check-in prompts to the user. Delivery is one-way;
// responses come back through the IPC surface.
type Notifier interface {
	Notify(prompt activity.PromptData)
}

// LogNotifier writes prompts to the daemon log only.
type LogNotifier struct{}

func (LogNotifier) Notify(prompt activity.PromptData) {
	log.Printf("Check-in prompt: type=%s gap=%dm (%s - %s), %d suggestions",
		prompt.Type, prompt.GapMinutes,
		prompt.GapStart.Format("15:04"), prompt.GapEnd.Format("15:04"),
		len(prompt.Suggestions))
}

// DesktopNotifier sends a popup via notify-send in addition to logging.
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(prompt activity.PromptData) {
	LogNotifier{}.Notify(prompt)

	body := fmt.Sprintf("You were away for %d minutes (%s - %s). What were you doing?\nRespond with: trackme-cli checkin submit",
		prompt.GapMinutes,
		prompt.GapStart.Format("15:04"), prompt.GapEnd.Format("15:04"))
	cmd := exec.Command("notify-send", "-a", "trackme", "-u", "normal", "Activity check-in", body)
	if err := cmd.Start(); err != nil {
		log.Printf("Warning: failed to send desktop notification: %v", err)
		return
	}
	// Reap in the background so the child doesn't linger as a zombie.
	go func() { _ = cmd.Wait() }()
}

// ForMethod maps a configured notification method to a notifier.
func ForMethod(method string) Notifier {
	if method == "desktop" {
		return DesktopNotifier{}
	}
	return LogNotifier{}
}
