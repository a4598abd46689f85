package logging

import "context"

var _ Logger = (*NullLogger)(nil)

// NullLogger drops every record. Components fall back to it when they are
// built without a logger, so they never need a nil check.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(context.Context, string, Fields)        {}
func (l *NullLogger) Info(context.Context, string, Fields)         {}
func (l *NullLogger) Warn(context.Context, string, Fields)         {}
func (l *NullLogger) Error(context.Context, string, error, Fields) {}

// WithFields returns l; there is nothing to attach fields to
func (l *NullLogger) WithFields(Fields) Logger {
	return l
}

func (l *NullLogger) Close() error {
	return nil
}
