// Package actions performs the quick actions on a picked file: open with
// the default application, copy the path to the clipboard, and reveal the
// file in the platform file manager.
package actions

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/atotto/clipboard"
)

// runCommand executes an external opener. Replaced in tests.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// goos is the platform being dispatched on. Replaced in tests.
var goos = runtime.GOOS

// Open launches path with its associated default application.
func Open(ctx context.Context, path string) error {
	var err error
	switch goos {
	case "windows":
		err = runCommand(ctx, "rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		err = runCommand(ctx, "open", path)
	default:
		err = runCommand(ctx, "xdg-open", path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// CopyPath places path on the system clipboard.
func CopyPath(path string) error {
	if err := clipboard.WriteAll(path); err != nil {
		return fmt.Errorf("copy path to clipboard: %w", err)
	}
	return nil
}

// Reveal shows path in the file manager, selecting it where the platform
// supports selection and opening the parent directory otherwise.
func Reveal(ctx context.Context, path string) error {
	var err error
	switch goos {
	case "windows":
		// explorer exits non-zero even on success; ignore its status.
		runCommand(ctx, "explorer", "/select,"+path)
	case "darwin":
		err = runCommand(ctx, "open", "-R", path)
	default:
		err = runCommand(ctx, "xdg-open", filepath.Dir(path))
	}
	if err != nil {
		return fmt.Errorf("reveal %s: %w", path, err)
	}
	return nil
}
