package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink receives audit entries. Implementations may fail; the Logger absorbs the failure.
type Sink interface {
	Record(ctx context.Context, entry *Entry) error
}

// Logger is the audit collaborator used by the billing services.
// LogAction never fails the calling operation.
type Logger struct {
	sinks []Sink
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewLogger creates an audit logger writing to the given sinks
func NewLogger(log logrus.FieldLogger, sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, log: log, now: time.Now}
}

// Nop returns a logger that records nothing
func Nop() *Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return &Logger{log: l, now: time.Now}
}

// LogAction records an action on every sink. Sink errors and panics are logged and dropped.
func (l *Logger) LogAction(ctx context.Context, action Action, actorID string, details Details) {
	if l == nil {
		return
	}

	entry := &Entry{
		Action:      action,
		ActorID:     actorID,
		EntityID:    details.EntityID,
		Description: details.Description,
		Changes:     details.Changes,
		CreatedAt:   l.now().UTC(),
	}

	for _, sink := range l.sinks {
		l.record(ctx, sink, entry)
	}
}

func (l *Logger) record(ctx context.Context, sink Sink, entry *Entry) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithFields(logrus.Fields{
				"module": "audit",
				"action": entry.Action,
				"entity": entry.EntityID,
			}).Errorf("audit sink panicked: %v", r)
		}
	}()

	if err := sink.Record(ctx, entry); err != nil {
		l.log.WithFields(logrus.Fields{
			"module": "audit",
			"action": entry.Action,
			"entity": entry.EntityID,
		}).WithError(err).Warn("failed to write audit entry")
	}
}

// LogSink writes audit entries as structured log lines
type LogSink struct {
	log logrus.FieldLogger
}

// NewLogSink creates a sink that writes to log
func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{log: log}
}

// Record implements Sink
func (s *LogSink) Record(ctx context.Context, entry *Entry) error {
	s.log.WithFields(logrus.Fields{
		"module":  "audit",
		"action":  entry.Action,
		"actor":   entry.ActorID,
		"entity":  entry.EntityID,
		"changes": entry.Changes,
	}).Info(entry.Description)
	return nil
}
