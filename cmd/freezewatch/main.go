package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"codeberg.org/mutker/freezewatch/internal/config"
	"codeberg.org/mutker/freezewatch/internal/debugger"
	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/journal"
	"codeberg.org/mutker/freezewatch/internal/lifecycle"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/mainloop"
	"codeberg.org/mutker/freezewatch/internal/monitor"
	"codeberg.org/mutker/freezewatch/internal/pid"
	"codeberg.org/mutker/freezewatch/internal/snapshot"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
)

const recentEvents = 10

func init() {
	// The monitored loop runs on the main goroutine; keep it on the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel.String())
	logger.Init(level, logger.IsService())
	logger.Debug().Str("file", cfg.ConfigFile).Msg("Config loaded")

	if err := run(cfg); err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			logger.ErrorWithCode(coded).Msg("freezewatch failed")
		} else {
			logger.Error().Err(err).Msg("freezewatch failed")
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	pidPath := pid.DefaultPath()
	if err := pid.Write(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(pidPath); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	sink, err := journal.NewService(cfg.Journal, logger.New("journal"))
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close journal")
		}
	}()

	whitelist, err := watchdog.CompileWhitelist(cfg.Whitelist)
	if err != nil {
		return err
	}

	loop := mainloop.New(logger.New("mainloop"))
	dispatcher := lifecycle.NewDispatcher(logger.New("lifecycle"))

	mon := monitor.New(monitor.Options{
		Owner:     loop,
		Lifecycle: dispatcher,
		Watchdog: watchdog.Collaborators{
			Scheduler: loop,
			Capturer:  snapshot.NewCapturer(loop),
			Listener: watchdog.MultiListener{
				watchdog.NewLogListener(logger.New("watchdog")),
				sink,
			},
			Debugger:  debugger.Proc(),
			Whitelist: whitelist,
		},
		Logger: logger.New("monitor"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initErr is only touched by tasks on the loop and after Run returns.
	var initErr error
	loop.Post(func() {
		if err := mon.Init(cfg.Watchdog); err != nil {
			initErr = err
			cancel()
			return
		}
		logger.Info().
			Dur("anr_threshold", cfg.Watchdog.ANRThreshold).
			Dur("jank_threshold", cfg.Watchdog.JankThreshold).
			Dur("polling_interval", cfg.Watchdog.PollingInterval).
			Int("loop_goroutine", loop.GoroutineID()).
			Msg("Monitoring main loop")
	})

	go dispatcher.WatchSignals(ctx)
	go handleSignals(ctx, loop, mon, cancel)
	go runWorkload(ctx, loop, cfg.Workload)

	if err := loop.Run(ctx); err != nil {
		return err
	}
	if initErr != nil {
		return initErr
	}

	logRecentEvents(sink)
	logger.Info().Msg("Exiting...")

	return nil
}

// handleSignals shuts the watchdog down on the loop before stopping it.
func handleSignals(ctx context.Context, loop *mainloop.Loop, mon *monitor.Monitor, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-ctx.Done():
		return
	case <-sigs:
	}

	logger.Info().Msg("Received termination signal.")
	loop.Post(func() {
		if err := mon.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop watchdog")
		}
		cancel()
	})
}

// runWorkload posts a task every interval. Every StallEvery-th task blocks
// the loop for StallDuration.
func runWorkload(ctx context.Context, loop *mainloop.Loop, w config.Workload) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if w.StallEvery > 0 && n%w.StallEvery == 0 {
			d := w.StallDuration
			loop.Post(func() { stall(d) })
			continue
		}
		loop.Post(render)
	}
}

func render() {
	time.Sleep(time.Millisecond)
}

func stall(d time.Duration) {
	logger.Debug().Dur("duration", d).Msg("Stalling main loop")
	time.Sleep(d)
}

func logRecentEvents(sink journal.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := sink.Events(ctx, recentEvents)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read journal")
		return
	}

	for _, event := range events {
		logger.Info().
			Str("id", event.ID.String()).
			Str("severity", event.Severity.String()).
			Dur("duration", event.Duration).
			Str("task", event.TaskDescription).
			Time("detected_at", event.DetectedAt).
			Msg("Recorded freeze")
	}
}
