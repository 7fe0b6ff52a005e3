package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"trackme/internal/activity"
	"trackme/internal/category"
	"trackme/internal/checkin"
	"trackme/internal/config"
	"trackme/internal/ipc"
	"trackme/internal/notify"
	"trackme/internal/probe/x11"
	"trackme/internal/storage"
	"trackme/internal/syncer"
	"trackme/internal/tracker"

	sqlitestore "trackme/internal/storage/sqlite"
)

const (
	probeTimeout    = 2 * time.Second
	flushTimeout    = 20 * time.Second
	checkinTick     = 30 * time.Second
	checkinTimeout  = 10 * time.Second
	shutdownGrace   = 5 * time.Second
	commandDeadline = 5 * time.Second
)

type App struct {
	cfg    *config.Config
	store  storage.Store
	engine *category.Engine
	prober *x11.Prober

	track      *tracker.Tracker
	dispatcher *syncer.Dispatcher
	scheduler  *checkin.Scheduler

	socketPath string
	listener   *net.UnixListener

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		socketPath: ipc.SocketPath,
		ctx:        ctx,
		cancel:     cancel,
	}

	a.store = sqlitestore.NewSQLiteStore(cfg.DatabasePath)
	if err := a.store.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine, err := category.NewEngine(cfg.WorkHours.Start, cfg.WorkHours.End)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build categorization engine: %w", err)
	}
	a.engine = engine

	// Without a display the daemon still runs: check-ins and the CLI
	// surface stay up, only window tracking is off.
	a.prober, err = x11.New()
	if err != nil {
		log.Printf("Warning: Failed to initialize X11 window probe: %v. Session tracking disabled.", err)
		a.prober = nil
	}

	if a.prober != nil {
		a.track = tracker.New(tracker.Config{
			UserID:        cfg.UserID,
			DeviceID:      tracker.DeviceID(),
			PollInterval:  cfg.PollInterval(),
			IdleThreshold: cfg.IdleThreshold(),
			ProbeTimeout:  probeTimeout,
			BufferCap:     cfg.BufferCap,
		}, a.prober, a.engine)
		a.dispatcher = syncer.New(a.store, a.track.Buffer(), cfg.SyncInterval(), flushTimeout)
	}

	a.scheduler, err = checkin.New(checkin.Config{
		UserID:       cfg.UserID,
		TickInterval: checkinTick,
		StoreTimeout: checkinTimeout,
		WorkStart:    cfg.WorkHours.Start,
		WorkEnd:      cfg.WorkHours.End,
	}, cfg.CheckIn, a.store, notify.ForMethod(cfg.CheckIn.NotificationMethod))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build check-in scheduler: %w", err)
	}

	return a, nil
}

// setupSocket checks for an existing socket and creates the listener.
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		// Socket file exists; a live connection means another instance.
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}

	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

func (a *App) listenForCommands() {
	defer a.wg.Done()
	defer log.Println("Socket command listener stopped.")

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return // Expected error on shutdown
			default:
				log.Printf("Failed to accept connection: %v", err)
				if ne, ok := err.(net.Error); ok && !ne.Timeout() {
					log.Println("Non-recoverable accept error, stopping listener.")
					return
				}
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}
		a.wg.Add(1)
		go a.handleConnection(conn)
	}
}

func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()
	defer a.wg.Done()

	conn.SetReadDeadline(time.Now().Add(commandDeadline))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Now().Add(commandDeadline))

	log.Printf("Received command: %s", cmd.Name)

	if err := encoder.Encode(a.processCommand(cmd)); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// processCommand routes a decoded command to the owning component.
func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdPause:
		if a.track == nil {
			return ipc.Response{Success: false, Message: "Session tracking is disabled (no display)"}
		}
		a.track.Pause()
		return ipc.Response{Success: true, Message: "Tracking paused"}

	case ipc.CmdResume:
		if a.track == nil {
			return ipc.Response{Success: false, Message: "Session tracking is disabled (no display)"}
		}
		a.track.Resume()
		return ipc.Response{Success: true, Message: "Tracking resumed"}

	case ipc.CmdStatus:
		status := ipc.StatusData{
			PendingPrompt: a.scheduler.Pending(),
		}
		if a.track != nil {
			status.Paused = a.track.IsPaused()
		}
		return ipc.Response{Success: true, Data: status}

	case ipc.CmdStats:
		if a.track == nil {
			return ipc.Response{Success: false, Message: "Session tracking is disabled (no display)"}
		}
		return ipc.Response{Success: true, Data: a.track.TodayStats(time.Now())}

	case ipc.CmdCheckInSubmit:
		var args ipc.CheckInSubmitArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.ActivityType == "" {
			return ipc.Response{Success: false, Message: "Activity type cannot be empty"}
		}
		err := a.scheduler.Submit(activity.CheckInResponse{
			ActivityType: args.ActivityType,
			Description:  args.Description,
			Category:     args.Category,
			DurationMin:  args.DurationMin,
			IsMeeting:    args.IsMeeting,
		})
		if errors.Is(err, checkin.ErrNoPendingPrompt) {
			return ipc.Response{Success: false, Message: "No pending check-in prompt"}
		}
		if err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Failed to save check-in: %v", err)}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Check-in recorded: %s", args.ActivityType)}

	case ipc.CmdCheckInSnooze:
		var args ipc.CheckInSnoozeArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		a.scheduler.Snooze(args.Minutes)
		return ipc.Response{Success: true, Message: "Check-ins snoozed"}

	case ipc.CmdCheckInSkip:
		a.scheduler.Skip()
		return ipc.Response{Success: true, Message: "Check-in prompt skipped"}

	case ipc.CmdRuleAdd:
		var args ipc.RuleAddArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.Pattern == "" || args.Category == "" {
			return ipc.Response{Success: false, Message: "Rule pattern and category cannot be empty"}
		}
		if err := a.engine.AddRule(args.Pattern, args.Category, args.Score); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid rule: %v", err)}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Rule added: %s -> %s", args.Pattern, args.Category)}

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// mapToStruct round-trips decoded JSON args into a typed struct.
func mapToStruct(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal args map: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal args into struct: %w", err)
	}
	return nil
}

func (a *App) Run() error {
	defer a.cleanup()

	log.Println("Starting TrackMe daemon...")
	if a.track == nil {
		log.Println("Window session tracking: DISABLED")
	} else {
		log.Println("Window session tracking: ENABLED")
	}

	if err := a.setupSocket(); err != nil {
		return err
	}

	a.handleSignals()

	if a.track != nil {
		a.track.Start()
		a.dispatcher.Start()
	}
	a.scheduler.Start()

	config.Watch(func(cfg *config.Config) {
		a.scheduler.UpdateSettings(cfg.CheckIn)
	})

	a.wg.Add(1)
	go a.listenForCommands()

	log.Println("TrackMe daemon running. Send commands via trackme-cli or socket.")
	<-a.ctx.Done()

	log.Println("Shutdown signal received, waiting for components...")

	// Close the listener before waiting so pending Accept calls return.
	if a.listener != nil {
		if err := a.listener.Close(); err != nil {
			log.Printf("Error closing socket listener: %v", err)
		}
	}

	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All application goroutines finished.")
	case <-time.After(shutdownGrace):
		log.Println("Warning: Timeout waiting for application goroutines to stop.")
	}

	log.Println("TrackMe daemon finished.")
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v. Initiating shutdown...", sig)
		a.cancel()
	}()
}

// cleanup stops components in dependency order: the tracker closes its
// open session first so the final flush can carry it out.
func (a *App) cleanup() {
	log.Println("Running cleanup...")

	if a.track != nil {
		a.track.Stop()
		// The flush loop goes down first so the final drain is the only
		// flusher touching the buffer.
		a.dispatcher.Stop()
		if err := a.dispatcher.FlushNow(); err != nil {
			log.Printf("Warning: Final flush failed, %d sessions unsynced: %v",
				a.track.Buffer().Len(), err)
		}
	}
	a.scheduler.Stop()

	if a.prober != nil {
		if err := a.prober.Close(); err != nil {
			log.Printf("Error closing X11 probe: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	}

	if _, err := os.Stat(a.socketPath); err == nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			log.Printf("Warning: Failed to remove socket file %s: %v", a.socketPath, err)
		}
	}

	log.Println("Cleanup finished.")
}
