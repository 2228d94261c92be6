package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-tool.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunnerStreamsLinesInOrder(t *testing.T) {
	script := writeScript(t, `
printf 'line one\n' >&2
printf 'time=00:00:01.00\rtime=00:00:02.00\r' >&2
printf 'line last\n' >&2
exit 0
`)

	var lines []string
	err := NewRunner().Run(context.Background(), []string{script}, func(line string) {
		if line != "" {
			lines = append(lines, line)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"line one", "time=00:00:01.00", "time=00:00:02.00", "line last"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunnerNonZeroExitCarriesDiagnosticTail(t *testing.T) {
	script := writeScript(t, `
printf 'something broke badly\n' >&2
exit 1
`)

	err := NewRunner().Run(context.Background(), []string{script}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "something broke badly") {
		t.Errorf("expected diagnostic tail in error, got: %v", err)
	}
}

func TestRunnerDiagnosticTailIsTruncated(t *testing.T) {
	script := writeScript(t, `
i=0
while [ $i -lt 100 ]; do
  printf 'AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n' >&2
  i=$((i+1))
done
exit 1
`)

	err := NewRunner().Run(context.Background(), []string{script}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if len(err.Error()) > 700 {
		t.Errorf("diagnostic should be truncated to roughly %d bytes, got %d", diagnosticTailBytes, len(err.Error()))
	}
}

func TestRunnerCancelKillsProcess(t *testing.T) {
	script := writeScript(t, `
printf 'started\n' >&2
exec sleep 30
`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := NewRunner().Run(ctx, []string{script}, nil)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not terminate the subprocess promptly")
	}
}

func TestRunnerEmptyCommand(t *testing.T) {
	if err := NewRunner().Run(context.Background(), nil, nil); err == nil {
		t.Error("expected error for empty command")
	}
}
