// Package hook runs a user supplied command after a stream completes.
//
// The command line is a mustache template rendered with the stream's
// attributes and run with "sh -c":
//
//	srle encode big.log -o big.log.srle --on-complete 'echo {{input}}: {{in}} -> {{out}}'
package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/cbroglie/mustache"
	"github.com/epithet-ssh/srle/pkg/srle"
)

// Attrs describes a finished stream.
type Attrs struct {
	Op        string // "encode" or "decode"
	Input     string
	Output    string
	Escape    byte
	Stats     srle.Stats
	Truncated bool
}

// Map returns the template variables for a.
func (a Attrs) Map() map[string]any {
	return map[string]any{
		"op":        a.Op,
		"input":     a.Input,
		"output":    a.Output,
		"escape":    fmt.Sprintf("%#02x", a.Escape),
		"in":        a.Stats.In,
		"out":       a.Stats.Out,
		"ratio":     fmt.Sprintf("%.3f", a.Stats.Ratio()),
		"truncated": a.Truncated,
	}
}

// Hook represents a configured hook
type Hook struct {
	cmdLine string
	lock    sync.Mutex
}

// New creates a hook from an unrendered command line.
func New(cmdLine string) *Hook {
	return &Hook{cmdLine: cmdLine}
}

// Render returns the command line with attrs substituted.
func (h *Hook) Render(attrs Attrs) (string, error) {
	return mustache.Render(h.cmdLine, attrs.Map())
}

// Run the hook and return its standard output. If the command exits
// non-zero its standard error is returned as the error.
func (h *Hook) Run(ctx context.Context, attrs Attrs) (string, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	line, err := h.Render(attrs)
	if err != nil {
		return "", fmt.Errorf("failed to render hook: %w", err)
	}

	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}

	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", errors.New(msg)
	}

	return stdout.String(), nil
}
