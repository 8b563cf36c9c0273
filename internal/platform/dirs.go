package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "voxclone"

// Env carries the inputs used to resolve per-user directories.
type Env struct {
	GOOS          string
	HomeDir       string
	XDGConfigHome string
	XDGDataHome   string
}

func CurrentEnv() (Env, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("resolve user home: %w", err)
	}
	return Env{
		GOOS:          runtime.GOOS,
		HomeDir:       homeDir,
		XDGConfigHome: os.Getenv("XDG_CONFIG_HOME"),
		XDGDataHome:   os.Getenv("XDG_DATA_HOME"),
	}, nil
}

// ConfigDir is where config.yaml, config.toml and .env are looked up.
func (e Env) ConfigDir() (string, error) {
	if e.HomeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch e.GOOS {
	case "linux":
		if e.XDGConfigHome != "" {
			return filepath.Join(e.XDGConfigHome, appName), nil
		}
		return filepath.Join(e.HomeDir, ".config", appName), nil
	case "darwin":
		return filepath.Join(e.HomeDir, "Library", "Application Support", appName), nil
	case "windows":
		return filepath.Join(e.HomeDir, "AppData", "Roaming", appName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", e.GOOS)
	}
}

// OutputDir is where converted audio is stored by default.
func (e Env) OutputDir() (string, error) {
	if e.HomeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch e.GOOS {
	case "linux":
		if e.XDGDataHome != "" {
			return filepath.Join(e.XDGDataHome, appName, "clones"), nil
		}
		return filepath.Join(e.HomeDir, ".local", "share", appName, "clones"), nil
	case "darwin":
		return filepath.Join(e.HomeDir, "Library", "Application Support", appName, "clones"), nil
	case "windows":
		return filepath.Join(e.HomeDir, "AppData", "Local", appName, "clones"), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", e.GOOS)
	}
}

// ResolveOutputDir prefers override and falls back to the per-OS default.
func ResolveOutputDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	env, err := CurrentEnv()
	if err != nil {
		return "", err
	}
	return env.OutputDir()
}
