// Package lockfile guards the agent's state directory against concurrent
// processes. Two collection-agent instances sharing one SQLite database and
// session store would break the one-turn-per-session guarantee, so startup
// takes an exclusive flock on a lock file inside the state directory. The
// kernel releases the lock when the process exits, cleanly or not.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName is the lock file created in the state directory.
const LockFileName = "collectagent.lock"

// Lock is an acquired state-directory lock.
type Lock struct {
	file     *os.File
	path     string
	acquired bool
}

// Acquire takes an exclusive lock on the state directory. It fails
// immediately, without blocking, when another agent instance holds the lock,
// returning a *LockError describing the conflicting process.
func Acquire(stateDir string) (*Lock, error) {
	lockPath := filepath.Join(stateDir, LockFileName)
	slog.Debug("lockfile acquiring", "path", lockPath)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", stateDir, err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		holder := describeHolder(lockPath)
		slog.Error("lockfile held by another agent instance", "error", err, "path", lockPath, "holder", holder)
		return nil, &LockError{LockPath: lockPath, Holder: holder, Cause: err}
	}

	if _, err := fmt.Fprintf(file, "pid=%d\n", os.Getpid()); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("write lock file %s: %w", lockPath, err)
	}
	if err := file.Sync(); err != nil {
		slog.Warn("lockfile sync failed", "error", err, "path", lockPath)
	}

	slog.Info("lockfile acquired", "path", lockPath, "pid", os.Getpid())
	return &Lock{file: file, path: lockPath, acquired: true}, nil
}

// Release drops the lock and removes the lock file. Safe to call more than
// once.
func (l *Lock) Release() error {
	if !l.acquired || l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Error("lockfile unlock failed", "error", err, "path", l.path)
	}
	if err := l.file.Close(); err != nil {
		slog.Error("lockfile close failed", "error", err, "path", l.path)
	}
	if err := os.Remove(l.path); err != nil {
		// Not critical, the flock itself is gone.
		slog.Warn("lockfile remove failed", "error", err, "path", l.path)
	}

	l.acquired = false
	l.file = nil
	slog.Info("lockfile released", "path", l.path)
	return nil
}

// LockError reports that another agent instance holds the state directory.
type LockError struct {
	LockPath string
	Holder   string
	Cause    error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another collection-agent instance is using this state directory (lock file: %s", e.LockPath)
	if e.Holder != "" {
		msg += ", held by " + e.Holder
	}
	msg += "). If no other instance is running the lock is stale and can be removed with: rm " + e.LockPath
	return msg
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// describeHolder reads the existing lock file and reports the holding
// process, noting whether it is still alive.
func describeHolder(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil || len(data) == 0 {
		return ""
	}
	pid := extractPID(string(data))
	if pid <= 0 {
		return strings.TrimSpace(string(data))
	}
	if isProcessRunning(pid) {
		return fmt.Sprintf("PID %d (running)", pid)
	}
	return fmt.Sprintf("PID %d (not running, stale lock)", pid)
}

// extractPID pulls the PID out of "pid=NNNN" lock file content.
func extractPID(content string) int {
	const prefix = "pid="
	idx := strings.Index(content, prefix)
	if idx < 0 {
		return 0
	}
	start := idx + len(prefix)
	end := start
	for end < len(content) && content[end] >= '0' && content[end] <= '9' {
		end++
	}
	pid, err := strconv.Atoi(content[start:end])
	if err != nil {
		return 0
	}
	return pid
}

// isProcessRunning probes a PID with signal 0.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
