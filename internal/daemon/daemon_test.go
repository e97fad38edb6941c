package daemon

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/chat"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
)

func TestStartForeground_emptyHome(t *testing.T) {
	ctx := context.Background()
	err := StartForeground(ctx, StartOptions{Home: ""})
	if err == nil {
		t.Fatal("StartForeground empty home: expected error")
	}
}

func testBoard(t *testing.T) (*dashboard.Board, store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "home"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	b, err := dashboard.New(context.Background(), st, dashboard.Options{})
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	return b, st
}

// eventually fails the test when cond does not hold within 3s.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestScheduler_statusSyncAndChatPrune(t *testing.T) {
	board, st := testBoard(t)
	hub := chat.New(chat.Options{Recorder: board})
	ctx := context.Background()
	if _, err := hub.Send(ctx, "general", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	s, err := startScheduler(ctx, jobConfig{
		Board:              board,
		Chat:               hub,
		StatusSyncInterval: 20 * time.Millisecond,
		ChatIdleTimeout:    time.Millisecond,
		ChatPruneInterval:  20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("startScheduler: %v", err)
	}
	defer func() { _ = s.Shutdown() }()

	names := []string{}
	for _, j := range s.Jobs() {
		names = append(names, j.Name())
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{jobChatPrune, jobStatusSync}) {
		t.Fatalf("jobs = %v", names)
	}

	eventually(t, "status row", func() bool {
		row, err := st.LoadStatus(ctx)
		return err == nil && row != nil
	})
	eventually(t, "idle chat session pruned", func() bool {
		return len(hub.Sessions()) == 0
	})
	if got := board.GetStatus().Status; got != "Idle" {
		t.Fatalf("status sync should keep the state, got %q", got)
	}
}

func TestScheduler_zeroIntervalsDisableJobs(t *testing.T) {
	board, _ := testBoard(t)
	s, err := startScheduler(context.Background(), jobConfig{Board: board, Chat: chat.New(chat.Options{})})
	if err != nil {
		t.Fatalf("startScheduler: %v", err)
	}
	defer func() { _ = s.Shutdown() }()
	if n := len(s.Jobs()); n != 0 {
		t.Fatalf("jobs = %d, want 0", n)
	}
}

func TestOptionsFromSettings(t *testing.T) {
	s := config.Defaults()
	s.Port = 4001
	s.WebhookURL = "https://hooks.example/x"
	s.Otel = true
	opts := OptionsFromSettings("/tmp/jet", s)
	if opts.Home != "/tmp/jet" || opts.Port != 4001 || !opts.EnableOtel || opts.WebhookURL != s.WebhookURL {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.StatusSyncInterval != s.StatusSyncInterval || opts.ChatIdleTimeout != s.ChatIdleTimeout {
		t.Fatalf("intervals not carried: %+v", opts)
	}
}

func TestStatus_notRunning(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()
	st, err := Status(ctx, home)
	if err != nil || st.Running {
		t.Fatalf("Status(empty home) = %+v, %v", st, err)
	}

	files := runFilesFor(home)
	if err := files.ensureDir(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(files.pid, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err = Status(ctx, home)
	if err != nil || st.Running {
		t.Fatalf("Status(garbage pid) = %+v, %v", st, err)
	}

	stopped, err := Stop(ctx, home)
	if err != nil || stopped {
		t.Fatalf("Stop(not running) = %v, %v", stopped, err)
	}
}

func TestStartForeground_portInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	home := t.TempDir()
	err = StartForeground(context.Background(), StartOptions{Home: home, Port: port})
	if err == nil || !strings.Contains(err.Error(), "already in use") {
		t.Fatalf("StartForeground on busy port: %v", err)
	}
	if _, ok := runFilesFor(home).readPID(); ok {
		t.Fatal("no pid file should be left behind")
	}
}

func TestChildArgsAndEnv(t *testing.T) {
	t.Parallel()
	o := StartOptions{Home: "/h", Dev: true, PprofAddr: "localhost:6060", DBDriver: "postgres", DBURL: "postgres://x", APIKey: "k"}.withDefaults()
	want := []string{"daemon", "--home", "/h", "--port", "3548", "--dev", "--pprof", "localhost:6060", "--otel=false"}
	if got := o.childArgs(); !slices.Equal(got, want) {
		t.Fatalf("childArgs = %q, want %q", got, want)
	}
	for _, arg := range o.childArgs() {
		if strings.Contains(arg, "postgres://") || arg == "k" {
			t.Fatalf("secret leaked into args: %q", arg)
		}
	}

	base := make([]string, 1, 4)
	base[0] = "PATH=/bin"
	env := o.childEnv(base)
	wantEnv := []string{"PATH=/bin", "JET_DB_DRIVER=postgres", "JET_DB_URL=postgres://x", "JET_API_KEY=k"}
	if !slices.Equal(env, wantEnv) {
		t.Fatalf("childEnv = %q", env)
	}
	if len(base[:cap(base)][1]) != 0 {
		t.Fatal("childEnv must not write into the caller's backing array")
	}
}

func TestWaitFor(t *testing.T) {
	t.Parallel()
	n := 0
	if !waitFor(time.Second, time.Millisecond, func() bool { n++; return n == 3 }) {
		t.Fatal("condition should be met")
	}
	if waitFor(10*time.Millisecond, time.Millisecond, func() bool { return false }) {
		t.Fatal("condition never holds")
	}
}

func TestAcquireLock_isExclusive(t *testing.T) {
	path := runFilesFor(t.TempDir()).lock
	l, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	defer l.release()
	if _, err := acquireLock(path); err == nil {
		t.Fatal("second acquireLock should fail while the first is held")
	}
}

func TestRunFiles_publishAndStatus(t *testing.T) {
	home := t.TempDir()
	files := runFilesFor(home)
	if err := files.ensureDir(); err != nil {
		t.Fatal(err)
	}
	if err := files.publish(os.Getpid(), "0.0.0.0:3548"); err != nil {
		t.Fatal(err)
	}
	if pid, ok := files.readPID(); !ok || pid != os.Getpid() {
		t.Fatalf("readPID = %d, %v", pid, ok)
	}
	st, err := Status(context.Background(), home)
	if err != nil || !st.Running || st.PID != os.Getpid() || st.Addr != "0.0.0.0:3548" {
		t.Fatalf("Status = %+v, %v", st, err)
	}
	files.clear()
	if _, ok := files.readPID(); ok {
		t.Fatal("pid file should be gone after clear")
	}
}

func TestStartPprof(t *testing.T) {
	startPprof("")(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	stop := startPprof(addr)
	defer stop(context.Background())
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get("http://" + addr + "/debug/pprof/cmdline"); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("pprof not reachable: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pprof status = %d", resp.StatusCode)
	}
}
