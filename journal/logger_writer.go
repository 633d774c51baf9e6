package journal

import (
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/log"
)

const loggerPrefixLoggerWriter = "journal"

// LoggerWriter logs every entry
type LoggerWriter struct {
	logger *logrus.Entry
}

func NewLoggerWriter() *LoggerWriter {
	return &LoggerWriter{logger: log.PrefixedLog(loggerPrefixLoggerWriter)}
}

func (d *LoggerWriter) Write(entry *LogEntry) {
	d.logger.WithFields(
		logrus.Fields{
			"zone":     entry.Zone,
			"key_type": entry.KeyType,
			"key_tag":  entry.KeyTag,
			"from":     entry.FromState,
			"to":       entry.ToState,
			"retries":  entry.Retries,
			"message":  entry.Message,
		},
	).Info(entry.Event)
}

func (d *LoggerWriter) CleanUp() {
	// Nothing to do
}
