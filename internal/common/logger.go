package common

import (
	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}
}

// InitLogger builds a console logger at the given level.
func InitLogger(level string) arbor.ILogger {
	logger := arbor.NewLogger().WithConsoleWriter(consoleWriter())
	if level != "" {
		logger = logger.WithLevelFromString(level)
	}
	return logger
}

// NopLogger returns a logger with a private writer that drops every event.
// A plain arbor.NewLogger() would fall back to the globally registered writers.
func NopLogger() arbor.ILogger {
	return arbor.NewLogger().WithWriters([]writers.IWriter{discard{}})
}

type discard struct{}

func (d discard) WithLevel(log.Level) writers.IWriter { return d }
func (discard) Write(p []byte) (int, error)          { return len(p), nil }
func (discard) GetFilePath() string                  { return "" }
func (discard) Close() error                         { return nil }
