package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"trackme/internal/activity"
	"trackme/internal/ipc"
	"trackme/internal/storage"

	sqlitestore "trackme/internal/storage/sqlite"
)

var (
	dbPath string
	userID string
)

var rootCmd = &cobra.Command{
	Use:   "trackme-cli",
	Short: "CLI tool to interact with the TrackMe daemon",
	Long:  `A command-line interface to control the running TrackMe daemon (pause tracking, answer check-in prompts, inspect today's stats) via its Unix socket, and to query recorded data directly from the database.`,
}

// --- Client Helper Function ---
func sendCommand(cmd ipc.Command) {
	conn, err := net.DialTimeout("unix", ipc.SocketPath, 2*time.Second)
	if err != nil {
		log.Fatalf("Error connecting to daemon socket (%s): %v\nIs the TrackMe daemon running?", ipc.SocketPath, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	if err := encoder.Encode(cmd); err != nil {
		log.Fatalf("Error sending command: %v", err)
	}

	var resp ipc.Response
	if err := decoder.Decode(&resp); err != nil {
		log.Fatalf("Error receiving response: %v", err)
	}

	if resp.Success {
		fmt.Println("Success:", resp.Message)
		if resp.Data != nil {
			prettyData, err := json.MarshalIndent(resp.Data, "", "  ")
			if err == nil {
				fmt.Println("Data:")
				fmt.Println(string(prettyData))
			} else {
				fmt.Println("Data (raw):", resp.Data)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Message)
		os.Exit(1)
	}
}

// --- Command Definitions ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the TrackMe daemon is running",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPing})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause session tracking (closes the open session)",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPause})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume session tracking",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdResume})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status (paused flag, pending check-in prompt)",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdStatus})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's tracked time and session count",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdStats})
	},
}

// Check-in Command Group
var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Answer or manage check-in prompts",
}

var checkinSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Answer the pending check-in prompt",
	Run: func(cmd *cobra.Command, args []string) {
		activityType, _ := cmd.Flags().GetString("activity")
		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		duration, _ := cmd.Flags().GetInt("duration")
		isMeeting, _ := cmd.Flags().GetBool("meeting")

		if activityType == "" {
			log.Fatal("Error: --activity flag is required (e.g., 'Lunch Break')")
		}

		sendCommand(ipc.Command{
			Name: ipc.CmdCheckInSubmit,
			Args: ipc.CheckInSubmitArgs{
				ActivityType: activityType,
				Description:  description,
				Category:     category,
				DurationMin:  duration,
				IsMeeting:    isMeeting,
			},
		})
	},
}

var checkinSnoozeCmd = &cobra.Command{
	Use:   "snooze",
	Short: "Snooze check-in prompts for a while",
	Run: func(cmd *cobra.Command, args []string) {
		minutes, _ := cmd.Flags().GetInt("minutes")
		sendCommand(ipc.Command{
			Name: ipc.CmdCheckInSnooze,
			Args: ipc.CheckInSnoozeArgs{Minutes: minutes},
		})
	},
}

var checkinSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Dismiss the pending check-in prompt without recording anything",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdCheckInSkip})
	},
}

// Rule Command Group
var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage categorization rules",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Teach the daemon a new app-name rule",
	Run: func(cmd *cobra.Command, args []string) {
		pattern, _ := cmd.Flags().GetString("pattern")
		category, _ := cmd.Flags().GetString("category")
		score, _ := cmd.Flags().GetInt("score")

		sendCommand(ipc.Command{
			Name: ipc.CmdRuleAdd,
			Args: ipc.RuleAddArgs{
				Pattern:  pattern,
				Category: category,
				Score:    score,
			},
		})
	},
}

// --- Direct Database Queries ---

func openStore() (storage.Store, context.Context, context.CancelFunc) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("Error: Database file not found at %s. Ensure the trackme daemon has run or specify path with --db.", dbPath)
	}

	store := sqlitestore.NewSQLiteStore(dbPath)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Init(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to initialize storage connection: %v", err)
	}
	return store, ctx, cancel
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded activity sessions from the database",
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("days")
		end := time.Now()
		start := end.AddDate(0, 0, -days)

		store, ctx, cancel := openStore()
		defer cancel()
		defer store.Close()

		sessions, err := store.GetSessions(ctx, userID, start, end)
		if err != nil {
			log.Fatalf("Failed to fetch sessions: %v", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found for the specified period.")
			return
		}

		for _, s := range sessions {
			line := fmt.Sprintf("%s  %-28s %-16s %s",
				s.StartTime.Format("2006-01-02 15:04"),
				truncate(s.AppName, 28),
				s.Category,
				activity.FormatDuration(time.Duration(s.DurationSec)*time.Second))
			if s.Project != "" {
				line += fmt.Sprintf("  [%s]", s.Project)
			}
			fmt.Println(line)
		}
		fmt.Printf("\n%d sessions.\n", len(sessions))
	},
}

var checkinsCmd = &cobra.Command{
	Use:   "checkins",
	Short: "List recorded check-ins from the database",
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("days")
		end := time.Now()
		start := end.AddDate(0, 0, -days)

		store, ctx, cancel := openStore()
		defer cancel()
		defer store.Close()

		checkins, err := store.GetCheckIns(ctx, userID, start, end)
		if err != nil {
			log.Fatalf("Failed to fetch check-ins: %v", err)
		}
		if len(checkins) == 0 {
			fmt.Println("No check-ins found for the specified period.")
			return
		}

		for _, c := range checkins {
			fmt.Printf("%s  %-24s %-16s %dm  (%s)\n",
				c.StartTime.Format("2006-01-02 15:04"),
				truncate(c.ActivityType, 24),
				c.Category,
				c.DurationMin,
				c.TriggeredBy)
		}
		fmt.Printf("\n%d check-ins.\n", len(checkins))
	},
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "trackme.db", "Path to the TrackMe database file (direct query commands only)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "local", "User id to query (direct query commands only)")

	// --- Check-in Commands ---
	checkinSubmitCmd.Flags().StringP("activity", "a", "", "Activity type, e.g. 'Team Meeting' or 'Lunch Break' (required)")
	checkinSubmitCmd.Flags().StringP("description", "n", "", "Optional free-text description")
	checkinSubmitCmd.Flags().StringP("category", "c", "", "Category override (defaults from the activity template)")
	checkinSubmitCmd.Flags().IntP("duration", "t", 0, "Duration in minutes (defaults to the detected gap)")
	checkinSubmitCmd.Flags().BoolP("meeting", "m", false, "Mark the check-in as a meeting")
	checkinSubmitCmd.MarkFlagRequired("activity")
	checkinSnoozeCmd.Flags().IntP("minutes", "t", 0, "Snooze duration in minutes (0 uses the configured default)")
	checkinCmd.AddCommand(checkinSubmitCmd)
	checkinCmd.AddCommand(checkinSnoozeCmd)
	checkinCmd.AddCommand(checkinSkipCmd)
	rootCmd.AddCommand(checkinCmd)

	// --- Rule Commands ---
	ruleAddCmd.Flags().StringP("pattern", "p", "", "Regular expression matched against the app name (required)")
	ruleAddCmd.Flags().StringP("category", "c", "", "Category to assign on match (required)")
	ruleAddCmd.Flags().IntP("score", "s", 50, "Productivity score 0-100")
	ruleAddCmd.MarkFlagRequired("pattern")
	ruleAddCmd.MarkFlagRequired("category")
	ruleCmd.AddCommand(ruleAddCmd)
	rootCmd.AddCommand(ruleCmd)

	// --- Query Commands ---
	sessionsCmd.Flags().IntP("days", "d", 1, "Number of past days to include")
	checkinsCmd.Flags().IntP("days", "d", 7, "Number of past days to include")
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(checkinsCmd)

	// --- Other Commands ---
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
