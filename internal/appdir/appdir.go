// Package appdir provides constants and helpers for the .todo directory structure.
package appdir

import (
	"os"
	"path/filepath"
)

const (
	// Dir is the name of the todo state directory under the home directory.
	Dir = ".todo"

	// ConfigFile is the config file name.
	ConfigFile = "todo.toml"

	// HiddenConfigFile is the alternative project config file name.
	HiddenConfigFile = ".todo.toml"

	// DataDir holds the file storage backend's values.
	DataDir = "data"

	// LogsDir holds one log file per interactive run.
	LogsDir = "logs"
)

// Home returns ~/.todo.
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, Dir), nil
}

// DirPath returns the .todo directory within base. An empty base means "~".
func DirPath(base string) string {
	if base == "" || base == "~" {
		return "~" + string(filepath.Separator) + Dir
	}
	return filepath.Join(base, Dir)
}

// ConfigPath returns the config file path within base.
func ConfigPath(base string) string {
	return joinPath(base, ConfigFile)
}

// DataPath returns the data directory within base.
func DataPath(base string) string {
	return joinPath(base, DataDir)
}

// LogsPath returns the logs directory within base.
func LogsPath(base string) string {
	return joinPath(base, LogsDir)
}

func joinPath(base, name string) string {
	return DirPath(base) + string(filepath.Separator) + name
}
