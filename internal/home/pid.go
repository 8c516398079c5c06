package home

import (
	"os"
	"strconv"
	"strings"
	"syscall"
)

// WritePid records the calling process as the home's running server.
func (d *Dir) WritePid() error {
	return os.WriteFile(d.PidPath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// RemovePid forgets the running server.
func (d *Dir) RemovePid() {
	_ = os.Remove(d.PidPath())
}

// RunningServer returns the pid of another live server using this home.
// A missing or garbled pid file, a dead process and the caller's own pid
// all count as no server.
func (d *Dir) RunningServer() (int, bool) {
	data, err := os.ReadFile(d.PidPath())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	// Signal 0 probes for existence without delivering anything.
	if proc.Signal(syscall.Signal(0)) != nil {
		return 0, false
	}
	return pid, true
}
