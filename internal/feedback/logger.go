package feedback

// Logger receives the service's key/value log lines: inbox lifecycle events
// keyed by "id", and rejected edits or posts with the caller's "signature" or
// "signed" flag and the "reason" error. The HTTP layer writes its request
// lines through the same interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger drops every line.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}
