// Package logger provides file-based structured logging so CLI output
// stays clean while diagnostics go to a JSON log.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const logFileName = "winclean.log"

var (
	configDir = defaultConfigDir()
	logFile   *os.File
	Log       = slog.New(slog.NewJSONHandler(io.Discard, nil))
)

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "winclean")
	}
	return filepath.Join(home, ".config", "winclean")
}

// Init opens the log file and installs the handler.
// - debug=true: logs all levels (DEBUG+)
// - debug=false: logs WARN/ERROR only
func Init(debug bool) error {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	logPath := filepath.Join(configDir, logFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	logFile = f

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	Log = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return nil
}

func Debug(msg string, args ...any) { Log.Debug(msg, args...) }
func Info(msg string, args ...any)  { Log.Info(msg, args...) }
func Warn(msg string, args ...any)  { Log.Warn(msg, args...) }
func Error(msg string, args ...any) { Log.Error(msg, args...) }

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
