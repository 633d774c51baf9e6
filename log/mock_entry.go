package log

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
)

// NewMockEntry returns an entry of a null logger at trace level whose messages are recorded by the hook
func NewMockEntry() (*logrus.Entry, *MockLoggerHook) {
	logger, _ := test.NewNullLogger()
	logger.Level = logrus.TraceLevel

	entry := logrus.NewEntry(logger)
	hook := &MockLoggerHook{}

	logger.AddHook(hook)

	hook.On("Fire", mock.Anything).Return(nil)

	return entry, hook
}

// MockLoggerHook records the messages of all levels
type MockLoggerHook struct {
	mock.Mock

	Messages []string
	mu       sync.Mutex
}

// Levels implements `logrus.Hook`.
func (h *MockLoggerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements `logrus.Hook`.
func (h *MockLoggerHook) Fire(entry *logrus.Entry) error {
	_ = h.Called(entry.Level)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.Messages = append(h.Messages, entry.Message)

	return nil
}

// Logged returns true if a message containing s was recorded
func (h *MockLoggerHook) Logged(s string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.Messages {
		if strings.Contains(m, s) {
			return true
		}
	}

	return false
}

// Reset clears the recorded messages
func (h *MockLoggerHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Messages = nil
}
