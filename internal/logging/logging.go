// Package logging configures the process-wide phuslu logger.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"

	"docsum/internal/config"
)

// New builds a logger from cfg. When a file is configured all output goes
// there so an interactive terminal UI is not overwritten.
func New(cfg config.LogConfig) *log.Logger {
	l := &log.Logger{
		Level:      log.ParseLevel(cfg.Level),
		TimeFormat: "15:04:05",
	}
	switch {
	case cfg.File != "":
		l.Writer = &log.FileWriter{
			Filename:   cfg.File,
			MaxBackups: 3,
			MaxSize:    10 << 20,
		}
	case cfg.Format == "json":
		l.Writer = &log.IOWriter{Writer: os.Stderr}
	default:
		l.Writer = &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: log.IsTerminal(os.Stderr.Fd()),
		}
	}
	return l
}

// Setup installs the logger built from cfg as log.DefaultLogger.
func Setup(cfg config.LogConfig) {
	log.DefaultLogger = *New(cfg)
}

// Discard silences the default logger, for tests and quiet commands.
func Discard() {
	log.DefaultLogger = log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}
