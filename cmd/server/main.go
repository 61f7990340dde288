package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/config"
	httpapi "github.com/hperssn/blastemst/internal/http"
	"github.com/hperssn/blastemst/internal/logging"
	"github.com/hperssn/blastemst/internal/playback"
	"github.com/hperssn/blastemst/internal/reminder"
	"github.com/hperssn/blastemst/internal/runner"
	"github.com/hperssn/blastemst/internal/version"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Starting blast-emst", "version", info.Version, "commit", info.Commit, "env", cfg.AppEnv)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := clockwork.NewRealClock()

	open, err := bridge.StorageOpener(cfg.DBDriver, clock)
	if err != nil {
		return err
	}
	native := bridge.NewNative(open, clock, loc)
	defer native.Close()

	backend := playback.LogBackend{Haptics: cfg.Haptics}
	player := playback.NewController(backend, backend, backend)

	notifier := reminder.PermissionGate{
		Allowed: func() bool { return cfg.NotificationsAllowed },
		Next:    reminder.LogNotifier{},
	}
	queue := reminder.NewWorkQueue(clock, reminder.NewInactivityWorker(native, notifier), reminder.NewSettingsDueStore(native))
	defer queue.Stop()

	manager := runner.NewSessionManager(native, queue, player, clock, runner.Config{
		DatabasePath: cfg.DatabaseTarget(),
		AppVersion:   info.Version,
		Policy:       cfg.ReminderPolicy(),
		Location:     loc,
	})
	defer manager.Close(cfg.ShutdownTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the queue persists through the bridge, so restore only once it is open
	manager.Load()
	manager.Wait()
	queue.Restore(ctx)

	var opts []httpapi.Option
	if cfg.ProxyAuth {
		opts = append(opts, httpapi.WithProxyAuth())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(manager, opts...),
		ReadHeaderTimeout: 10 * time.Second,
		// SSE streams end when the signal context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
