// Package i3block signals a running i3blocks process whenever the
// displayed lyric line changes, so a status-bar block refreshes without
// its own polling interval.
package i3block

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Controller tracks the PID of a running i3blocks process and signals it
// on demand. Unlike a fixed-interval poller, Notify is meant to be
// called once per lyric line change; the PID is only refreshed lazily,
// the first time it's needed or after a signal send fails.
type Controller struct {
	pidMu sync.Mutex
	pid   int
}

// NewController creates an i3blocks controller with no PID resolved yet.
func NewController() *Controller {
	return &Controller{pid: -1}
}

// Notify refreshes the PID if necessary and sends SIGUSR1 to it. Call
// this when the displayed line changes, not on every tick.
func (c *Controller) Notify() error {
	c.pidMu.Lock()
	pid := c.pid
	c.pidMu.Unlock()

	if pid <= 0 {
		var err error
		pid, err = findI3blocksPID()
		if err != nil {
			return err
		}
		c.pidMu.Lock()
		c.pid = pid
		c.pidMu.Unlock()
	}

	if err := signal(pid, syscall.SIGUSR1); err != nil {
		// The cached PID may be stale (i3blocks restarted); refresh once.
		refreshed, findErr := findI3blocksPID()
		if findErr != nil {
			return err
		}
		c.pidMu.Lock()
		c.pid = refreshed
		c.pidMu.Unlock()
		return signal(refreshed, syscall.SIGUSR1)
	}
	return nil
}

// GetPID returns the last resolved PID, or -1 if none has been found yet.
func (c *Controller) GetPID() int {
	c.pidMu.Lock()
	defer c.pidMu.Unlock()
	return c.pid
}

func signal(pid int, sig syscall.Signal) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(sig); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}

func findI3blocksPID() (int, error) {
	output, err := exec.Command("pgrep", "-f", "i3blocks").Output()
	if err != nil {
		return -1, fmt.Errorf("i3blocks process not found: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return -1, fmt.Errorf("i3blocks process not found")
	}

	pid, err := strconv.Atoi(lines[0])
	if err != nil {
		return -1, fmt.Errorf("failed to parse PID: %w", err)
	}

	log.Debug().Int("pid", pid).Msg("i3blocks PID resolved")
	return pid, nil
}
