package audit

import "context"

// MultiLogger fans entries out to several loggers. Logging continues past
// individual failures; the first error is returned.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a fan-out logger.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log writes the entry to every configured logger.
func (m *MultiLogger) Log(ctx context.Context, entry Entry) error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Log(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every logger, returning the first error.
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
