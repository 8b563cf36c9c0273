package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnavailable = errors.New("no audio player command available")

type command struct {
	name string
	args []string
}

// Player plays audio files through an external command.
type Player struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func New() *Player {
	return &Player{goos: runtime.GOOS, lookPath: exec.LookPath, run: runCommand}
}

// Play blocks until playback of path finishes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("audio path is required")
	}

	cmd, err := p.detect()
	if err != nil {
		return err
	}

	args := append(append([]string{}, cmd.args...), path)
	if err := p.run(ctx, cmd.name, args...); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("playback interrupted: %w", ctx.Err())
		}
		return fmt.Errorf("play %s with %s: %w", path, cmd.name, err)
	}
	return nil
}

// Name reports which command Play would use.
func (p *Player) Name() (string, error) {
	cmd, err := p.detect()
	if err != nil {
		return "", err
	}
	return cmd.name, nil
}

func (p *Player) detect() (command, error) {
	for _, candidate := range candidates(p.goos) {
		if _, err := p.lookPath(candidate.name); err == nil {
			return candidate, nil
		}
	}
	return command{}, ErrUnavailable
}

func candidates(goos string) []command {
	ffplay := command{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "error"}}
	switch goos {
	case "darwin":
		return []command{{name: "afplay"}, ffplay}
	case "linux":
		return []command{ffplay, {name: "pw-play"}, {name: "paplay"}, {name: "aplay", args: []string{"-q"}}}
	default:
		return []command{ffplay}
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w (%s)", err, msg)
		}
		return err
	}
	return nil
}
