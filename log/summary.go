package log

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// SummaryHook remembers the most severe message of a run and keeps a transcript of all
// messages, so the run can be summarized (e.g. mailed) after all zones were processed.
type SummaryHook struct {
	mu sync.Mutex

	lastError   string
	lastWarning string
	verbose     strings.Builder
	debug       strings.Builder
}

// NewSummaryHook creates a hook and attaches it to the global logger
func NewSummaryHook() *SummaryHook {
	h := &SummaryHook{}

	logger.AddHook(h)

	return h
}

// Levels implements `logrus.Hook`.
func (h *SummaryHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements `logrus.Hook`.
func (h *SummaryHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := entry.Message
	if prefix, ok := entry.Data["prefix"].(string); ok {
		msg = prefix + ": " + msg
	}

	switch {
	case entry.Level <= logrus.ErrorLevel:
		h.lastError = msg
		h.debug.WriteString("?" + msg + "\n")
	case entry.Level == logrus.WarnLevel:
		h.lastWarning = msg
		h.verbose.WriteString("%" + msg + "\n")
		h.debug.WriteString("%" + msg + "\n")
	case entry.Level == logrus.InfoLevel:
		h.verbose.WriteString("[" + msg + "]\n")
		h.debug.WriteString("[" + msg + "]\n")
	default:
		h.debug.WriteString("[" + msg + "]\n")
	}

	return nil
}

// Worst returns the most severe level seen: error beats warning.
// ok is false if neither errors nor warnings were logged.
func (h *SummaryHook) Worst() (level logrus.Level, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.lastError != "":
		return logrus.ErrorLevel, true
	case h.lastWarning != "":
		return logrus.WarnLevel, true
	}

	return logrus.InfoLevel, false
}

// Summary returns subject and body of the run summary. After an error the subject is the last
// error and the body contains all messages, after a warning the subject is the last warning and
// the body omits debug messages.
func (h *SummaryHook) Summary() (subject, body string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.lastError != "":
		return h.lastError, h.debug.String(), true
	case h.lastWarning != "":
		return h.lastWarning, h.verbose.String(), true
	}

	return "", "", false
}

// Close detaches the hook from the global logger
func (h *SummaryHook) Close() {
	hooks := make(logrus.LevelHooks)

	for level, levelHooks := range logger.Hooks {
		for _, hook := range levelHooks {
			if hook != h {
				hooks[level] = append(hooks[level], hook)
			}
		}
	}

	logger.ReplaceHooks(hooks)
}
