package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const logsDir = "logs"

// LogPath returns the path of a named log file under the target directory's
// logs/ subdirectory, creating the subdirectory if needed.
func (m *Manager) LogPath(overrideDir, name string) (string, error) {
	if name == "" {
		return "", errors.New("log file name is empty")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	logDir := filepath.Join(dir, logsDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("creating log directory %s: %w", logDir, err)
	}

	return filepath.Join(logDir, name), nil
}

// OpenLog opens a named log file for appending. The caller closes it.
func (m *Manager) OpenLog(overrideDir, name string) (*os.File, error) {
	path, err := m.LogPath(overrideDir, name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	return f, nil
}
