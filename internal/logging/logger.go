package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SessionLogger pairs a configured logger with the session log file it
// writes to.
type SessionLogger struct {
	Logger zerolog.Logger
	Path   string
	file   *os.File
}

// DefaultDir returns the well-known directory session logs are written
// to when no override is configured.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cardcopy-logs"
	}
	return filepath.Join(home, "Documents", "CardCopyLogs")
}

// NewSession opens one append-only log file for a backup or scan session.
// Records are line oriented: "timestamp - LEVEL - message". The file is
// purely diagnostic and never read back.
func NewSession(dir, sessionID string, verbose bool) (*SessionLogger, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := fmt.Sprintf("backup_%s_%s.log", time.Now().Format("20060102_150405"), sessionID)
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fileWriter := zerolog.ConsoleWriter{
		Out:          file,
		NoColor:      true,
		TimeFormat:   "2006-01-02 15:04:05",
		FormatLevel:  func(i interface{}) string { return fmt.Sprintf("- %v -", i) },
		PartsOrder:   []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatCaller: func(interface{}) string { return "" },
	}

	var writer io.Writer = fileWriter
	if verbose {
		console := zerolog.ConsoleWriter{Out: os.Stderr}
		writer = zerolog.MultiLevelWriter(fileWriter, console)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger()
	return &SessionLogger{Logger: logger, Path: path, file: file}, nil
}

// Nop returns a logger that discards everything, for tests and callers
// that do not want a session file.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func (s *SessionLogger) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
