package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeLookPath(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestPlayUsesFirstAvailableCommand(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string
	p := &Player{
		goos:     "linux",
		lookPath: fakeLookPath("paplay", "aplay"),
		run: func(_ context.Context, name string, args ...string) error {
			gotName = name
			gotArgs = args
			return nil
		},
	}

	require.NoError(t, p.Play(context.Background(), "/tmp/clone.wav"))
	require.Equal(t, "paplay", gotName)
	require.Equal(t, []string{"/tmp/clone.wav"}, gotArgs)
}

func TestPlayPassesPlayerArgs(t *testing.T) {
	t.Parallel()

	var gotArgs []string
	p := &Player{
		goos:     "linux",
		lookPath: fakeLookPath("ffplay"),
		run: func(_ context.Context, _ string, args ...string) error {
			gotArgs = args
			return nil
		},
	}

	require.NoError(t, p.Play(context.Background(), "/tmp/clone.mp3"))
	require.Equal(t, []string{"-nodisp", "-autoexit", "-loglevel", "error", "/tmp/clone.mp3"}, gotArgs)
}

func TestPlayPrefersAfplayOnMacOS(t *testing.T) {
	t.Parallel()

	p := &Player{goos: "darwin", lookPath: fakeLookPath("ffplay", "afplay")}
	name, err := p.Name()
	require.NoError(t, err)
	require.Equal(t, "afplay", name)
}

func TestPlayUnavailable(t *testing.T) {
	t.Parallel()

	p := &Player{goos: "linux", lookPath: fakeLookPath()}
	err := p.Play(context.Background(), "/tmp/clone.wav")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPlayWrapsCommandFailure(t *testing.T) {
	t.Parallel()

	p := &Player{
		goos:     "linux",
		lookPath: fakeLookPath("aplay"),
		run: func(context.Context, string, ...string) error {
			return errors.New("exit status 1")
		},
	}

	err := p.Play(context.Background(), "/tmp/clone.wav")
	require.Error(t, err)
	require.Contains(t, err.Error(), "with aplay")
}

func TestPlayRequiresPath(t *testing.T) {
	t.Parallel()

	require.Error(t, New().Play(context.Background(), " "))
}
