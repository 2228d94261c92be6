package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// diagnosticTailBytes bounds the error excerpt kept from a failed run.
const diagnosticTailBytes = 500

// Runner executes a prepared argument vector and streams its diagnostic
// output line by line. args[0] is the binary.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

// Run spawns the command and invokes onLine for every line ffmpeg writes to
// stderr, in emission order. Canceling ctx kills the subprocess. A non-zero
// exit returns an error carrying the tail of the diagnostic stream.
func (r *Runner) Run(ctx context.Context, args []string, onLine func(string)) error {
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", args[0], err)
	}

	var tail []byte
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := scanner.Text()
		tail = appendTail(tail, line)
		if onLine != nil {
			onLine(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s exited: %w: %s", args[0], err, string(tail))
	}
	return nil
}

// appendTail keeps the last diagnosticTailBytes of the stream for error
// reporting.
func appendTail(tail []byte, line string) []byte {
	tail = append(tail, line...)
	tail = append(tail, '\n')
	if over := len(tail) - diagnosticTailBytes; over > 0 {
		tail = tail[over:]
	}
	return tail
}

// scanProgressLines splits on LF or CR. ffmpeg rewrites its progress line
// with bare carriage returns, so a newline-only scanner would sit on one
// giant token until the process exits.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
