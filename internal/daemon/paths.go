package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
)

// runFiles are the files a running daemon keeps under <home>/protected.
type runFiles struct {
	dir  string
	pid  string
	lock string
	addr string
	log  string
}

func runFilesFor(home string) runFiles {
	dir := config.ProtectedDir(home)
	return runFiles{
		dir:  dir,
		pid:  filepath.Join(dir, "daemon.pid"),
		lock: filepath.Join(dir, "daemon.lock"),
		addr: filepath.Join(dir, "daemon.addr"),
		log:  filepath.Join(dir, "daemon.log"),
	}
}

func (f runFiles) ensureDir() error {
	return os.MkdirAll(f.dir, 0o755)
}

// publish records this process as the daemon serving addr.
func (f runFiles) publish(pid int, addr string) error {
	if err := os.WriteFile(f.pid, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return err
	}
	_ = os.WriteFile(f.addr, []byte(addr+"\n"), 0o644)
	return nil
}

func (f runFiles) clear() {
	_ = os.Remove(f.pid)
	_ = os.Remove(f.addr)
}

// readPID returns the recorded pid; ok is false when there is no usable pid file.
func (f runFiles) readPID() (pid int, ok bool) {
	b, err := os.ReadFile(f.pid)
	if err != nil {
		return 0, false
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func (f runFiles) readAddr() string {
	b, err := os.ReadFile(f.addr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
