package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/httpapi"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/otel"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
)

const (
	startWait    = 2 * time.Second
	stopWait     = 15 * time.Second
	shutdownWait = 15 * time.Second
)

// StartForeground runs the server and background jobs in this process until ctx is cancelled.
func StartForeground(ctx context.Context, opts StartOptions) error {
	if opts.Home == "" {
		return errors.New("home is required")
	}
	opts = opts.withDefaults()

	files := runFilesFor(opts.Home)
	if err := files.ensureDir(); err != nil {
		return err
	}
	lock, err := acquireLock(files.lock)
	if err != nil {
		return err
	}
	defer lock.release()

	stopPprof := startPprof(opts.PprofAddr)
	defer stopPprof(context.Background())

	// Postgres migrates on connect.
	if opts.DBDriver != "postgres" {
		if err := store.EnsureSchema(opts.Home); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf("0.0.0.0:%d", opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use: %w", opts.Port, err)
	}
	defer func() { _ = ln.Close() }()

	srvOpts := httpapi.ServerOptions{
		Home:           opts.Home,
		Addr:           addr,
		Dev:            opts.Dev,
		APIKey:         opts.APIKey,
		DBDriver:       opts.DBDriver,
		DBURL:          opts.DBURL,
		WebhookURL:     opts.WebhookURL,
		WebhookChannel: opts.WebhookChannel,
		WebhookActions: opts.WebhookActions,
	}
	if opts.EnableOtel {
		provider, err := otel.Setup(ctx, "jet", opts.Version)
		if err != nil {
			slog.Warn("otel init failed, using plain metrics", "err", err)
		} else {
			defer func() { _ = provider.Shutdown(context.Background()) }()
			srvOpts.MetricsHandler = provider.Handler
			srvOpts.UseOtelHTTP = true
		}
	}
	app, err := httpapi.NewApp(srvOpts)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	if srvOpts.MetricsHandler != nil {
		if err := otel.InitMetricsWithCardCount(ctx, app.Board.CardCounts); err != nil {
			slog.Warn("otel card gauges unavailable", "err", err)
		}
	}

	sched, err := startScheduler(ctx, jobConfig{
		Board:              app.Board,
		Chat:               app.Chat,
		StatusSyncInterval: opts.StatusSyncInterval,
		ChatIdleTimeout:    opts.ChatIdleTimeout,
		ChatPruneInterval:  opts.ChatPruneInterval,
	})
	if err != nil {
		return err
	}
	defer func() { _ = sched.Shutdown() }()

	if err := files.publish(os.Getpid(), addr); err != nil {
		return err
	}
	defer files.clear()

	slog.Info("daemon starting", "addr", addr, "home", opts.Home, "db", app.Store.Driver())
	return serve(ctx, app.Server, ln)
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// StartBackground re-executes the current binary as "jet daemon" detached from the terminal and
// returns its pid once the pid file appears.
func StartBackground(ctx context.Context, opts StartOptions) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}
	opts = opts.withDefaults()

	files := runFilesFor(opts.Home)
	if err := files.ensureDir(); err != nil {
		return 0, err
	}
	if st, _ := Status(ctx, opts.Home); st.Running {
		return 0, fmt.Errorf("jet already running (pid %d)", st.PID)
	}

	// Left open for the child's lifetime.
	logFile, err := os.OpenFile(files.log, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(exe, opts.childArgs()...)
	cmd.Env = opts.childEnv(os.Environ())
	cmd.Stdout = io.Discard
	cmd.Stderr = logFile
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return 0, err
	}

	var pid int
	if waitFor(startWait, 50*time.Millisecond, func() bool {
		st, _ := Status(ctx, opts.Home)
		pid = st.PID
		return st.Running
	}) {
		return pid, nil
	}
	// Still starting; report the child we launched.
	return cmd.Process.Pid, nil
}

// Stop sends SIGTERM to the running daemon and waits for it to exit, killing it after 15s.
func Stop(ctx context.Context, home string) (bool, error) {
	st, err := Status(ctx, home)
	if err != nil || !st.Running {
		return false, err
	}
	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return false, err
	}
	if err := signalTerm(proc); err != nil {
		return false, err
	}
	if !waitFor(stopWait, 100*time.Millisecond, func() bool {
		st, _ := Status(ctx, home)
		return !st.Running
	}) {
		_ = proc.Kill()
	}
	return true, nil
}

// Status reports whether a daemon is running for home. A pid file left by a dead process is removed.
func Status(ctx context.Context, home string) (StatusInfo, error) {
	files := runFilesFor(home)
	pid, ok := files.readPID()
	if !ok {
		return StatusInfo{}, nil
	}
	if !processExists(pid) {
		files.clear()
		return StatusInfo{}, nil
	}
	addr := files.readAddr()
	if addr == "" {
		addr = "unknown"
	}
	return StatusInfo{Running: true, PID: pid, Addr: addr}, nil
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(timeout, every time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(every)
	}
}
