package ipc

import "trackme/internal/activity"

const SocketPath = "/tmp/trackme.sock"

// Command is a request sent over the control socket.
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response is sent back for every command.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Command names ---

const (
	CmdPing          = "ping"
	CmdPause         = "pause"
	CmdResume        = "resume"
	CmdStatus        = "status"
	CmdStats         = "stats"
	CmdCheckInSubmit = "checkin_submit"
	CmdCheckInSnooze = "checkin_snooze"
	CmdCheckInSkip   = "checkin_skip"
	CmdRuleAdd       = "rule_add"
)

// --- Command argument structs ---

type CheckInSubmitArgs struct {
	ActivityType string `json:"activity_type"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	DurationMin  int    `json:"duration_minutes,omitempty"`
	IsMeeting    bool   `json:"is_meeting,omitempty"`
}

type CheckInSnoozeArgs struct {
	Minutes int `json:"minutes"` // 0 uses the configured snooze duration
}

type RuleAddArgs struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// --- Response data ---

type StatusData struct {
	Paused        bool                 `json:"paused"`
	PendingPrompt *activity.PromptData `json:"pending_prompt,omitempty"`
}
