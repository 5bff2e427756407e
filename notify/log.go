package notify

import "go.uber.org/zap"

// Log writes reminders to a zap logger.
type Log struct {
	logger *zap.SugaredLogger
}

// NewLog returns a Log sink; a nil logger selects the global one.
func NewLog(logger *zap.SugaredLogger) *Log {
	if logger == nil {
		logger = zap.S()
	}
	return &Log{logger: logger}
}

// Post implements Sink.
func (l *Log) Post(id int, title, body string, count int) error {
	l.logger.Infow("reminder posted", "id", id, "title", title, "body", body, "count", count)
	return nil
}

// Cancel implements Sink.
func (l *Log) Cancel(id int) error {
	l.logger.Debugw("reminder cancelled", "id", id)
	return nil
}
