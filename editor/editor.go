// Package editor opens files in the user's configured terminal editor,
// resolving the path -> edit shortcuts kept in the store.
package editor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cabinetctl/cabinet/store"
)

type Editor struct {
	command string
	store   store.Store
}

func New(command string, s store.Store) *Editor {
	if command == "" {
		command = "vim"
	}
	return &Editor{command: command, store: s}
}

// ResolveShortcut maps a short name to its configured target file via
// path -> edit -> <name> -> value. Unknown names pass through unchanged.
func (e *Editor) ResolveShortcut(path string) string {
	if e.store == nil {
		return path
	}
	value, err := e.store.Get("path", "edit", path, "value")
	if err != nil {
		return path
	}
	if target, ok := value.(string); ok && target != "" {
		return target
	}
	return path
}

// Open runs the editor attached to the terminal and reports whether the
// file content changed.
func (e *Editor) Open(path string, createIfMissing bool) (bool, error) {
	path = e.ResolveShortcut(path)

	before, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if !createIfMissing {
			return false, fmt.Errorf("file does not exist: %s", path)
		}
		if writeErr := os.WriteFile(path, nil, 0o644); writeErr != nil {
			return false, fmt.Errorf("create file: %w", writeErr)
		}
		before = nil
	} else if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}

	parts := strings.Fields(e.command)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("run editor %q: %w", e.command, err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reread file: %w", err)
	}
	return !bytes.Equal(before, after), nil
}
