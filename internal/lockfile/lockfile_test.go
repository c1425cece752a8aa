package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireWritesPID(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	content, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	want := fmt.Sprintf("pid=%d\n", os.Getpid())
	if string(content) != want {
		t.Errorf("lock file content = %q, want %q", content, want)
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	second, err := Acquire(dir)
	if err == nil {
		second.Release()
		t.Fatal("second Acquire should have failed")
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockError, got %T", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "another collection-agent instance") || !strings.Contains(msg, dir) {
		t.Errorf("error message missing detail: %s", msg)
	}
}

func TestReleaseRemovesFileAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
		t.Error("lock file should be removed after release")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release should be a no-op: %v", err)
	}

	// The directory is free again after release.
	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("re-Acquire after release failed: %v", err)
	}
	again.Release()
}

func TestAcquireCreatesStateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire should create the directory: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state directory not created: %v", err)
	}
}

func TestExtractPID(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"valid pid", "pid=12345\n", 12345},
		{"pid with extra content", "pid=67890\nother=info", 67890},
		{"no pid", "other=info", 0},
		{"empty content", "", 0},
		{"invalid pid", "pid=abc", 0},
		{"no equals", "pid12345", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractPID(tc.content); got != tc.want {
				t.Errorf("extractPID(%q) = %d, want %d", tc.content, got, tc.want)
			}
		})
	}
}

func TestIsProcessRunning(t *testing.T) {
	if !isProcessRunning(os.Getpid()) {
		t.Error("our own process should be detected as running")
	}
}
