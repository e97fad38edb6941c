//go:build windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// detach is a no-op: the child keeps running after the parent console exits.
func detach(cmd *exec.Cmd) {}

// processExists cannot probe a pid without x/sys/windows, so a recorded pid is assumed alive.
func processExists(pid int) bool {
	return pid > 0
}

func signalTerm(proc *os.Process) error {
	return proc.Kill()
}

// daemonLock is an exclusively created file removed on release.
type daemonLock struct {
	f    *os.File
	path string
}

func acquireLock(path string) (*daemonLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("jet is already running (%s exists)", path)
		}
		return nil, err
	}
	return &daemonLock{f: f, path: path}, nil
}

func (l *daemonLock) release() {
	if l == nil || l.f == nil {
		return
	}
	_ = l.f.Close()
	_ = os.Remove(l.path)
}
