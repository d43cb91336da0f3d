// Package picker drives the external fzf process: it streams cached path
// lists into fzf's stdin and parses the key + selection fzf prints back.
package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Action keys bound via --expect. Enter reports an empty key.
const (
	KeyOpen   = ""      // enter: open with default application
	KeyCopy   = "alt-c" // copy path to clipboard
	KeyReveal = "alt-e" // reveal in file manager
	KeyUpdate = "alt-u" // refresh caches and search again
)

// abortExitCode is fzf's exit status when the user presses esc or ctrl-c.
const abortExitCode = 130

// ErrFzfNotFound indicates the fzf binary is not on PATH.
var ErrFzfNotFound = errors.New(
	"fzf was not found on PATH; download it from https://github.com/junegunn/fzf/releases")

// fzfBinary is the executable looked up on PATH. Overridable in tests.
var fzfBinary = "fzf"

// Options configures one picker run.
type Options struct {
	// HistoryPath is the fzf --history file, shared across runs.
	HistoryPath string
	// Preview enables the preview window.
	Preview bool
	// PreviewCommand is the command fzf runs for the preview window, with
	// {} as the selection placeholder. Required when Preview is set.
	PreviewCommand string
}

// Result is the outcome of a picker run.
type Result struct {
	// Key is the expect-key the user pressed (KeyOpen for plain enter).
	Key string
	// Path is the selected entry.
	Path string
	// Aborted is set when the user cancelled without selecting.
	Aborted bool
}

// header is the key legend shown above the prompt.
const header = "enter=open, alt-c=copy path, alt-e=reveal, ctrl+p/n=history, alt-u=update, esc=abort"

func buildArgs(opts Options) []string {
	args := []string{
		"--read0",
		"--print0",
		"--expect", strings.Join([]string{KeyUpdate, KeyCopy, KeyReveal}, ","),
		"--header", header,
		"--bind", "shift-up:preview-page-up,shift-down:preview-page-down",
	}
	if opts.HistoryPath != "" {
		args = append(args, "--history", opts.HistoryPath)
	}
	if opts.Preview {
		args = append(args, "--preview", opts.PreviewCommand, "--preview-window", "up,30%")
	}
	return args
}

// Run starts fzf, invokes feed with its stdin, and returns the parsed
// selection. feed may stop early with a pipe error once the user has
// picked; that is not a failure. A user abort returns Result.Aborted, not
// an error.
func Run(ctx context.Context, opts Options, feed func(w io.Writer) error) (*Result, error) {
	path, err := exec.LookPath(fzfBinary)
	if err != nil {
		return nil, ErrFzfNotFound
	}

	cmd := exec.CommandContext(ctx, path, buildArgs(opts)...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open fzf stdin: %w", err)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start fzf: %w", err)
	}

	feedErr := feed(stdin)
	stdin.Close()

	waitErr := cmd.Wait()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			switch exitErr.ExitCode() {
			case 1: // no match
				return &Result{Aborted: true}, nil
			case abortExitCode:
				return &Result{Aborted: true}, nil
			}
		}
		return nil, fmt.Errorf("fzf: %w", waitErr)
	}

	if feedErr != nil && !isPipeError(feedErr) {
		return nil, fmt.Errorf("feed fzf: %w", feedErr)
	}

	return parseOutput(stdout.Bytes())
}

// isPipeError reports whether err is the expected result of fzf closing
// its stdin after an early selection.
func isPipeError(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// parseOutput splits fzf's --print0 output: expect-key NUL selection NUL.
func parseOutput(output []byte) (*Result, error) {
	if len(output) == 0 {
		return &Result{Aborted: true}, nil
	}

	fields := bytes.Split(output, []byte{0})
	if len(fields) < 2 {
		return nil, fmt.Errorf("unexpected fzf output: %q", output)
	}
	return &Result{
		Key:  string(fields[0]),
		Path: string(fields[1]),
	}, nil
}
