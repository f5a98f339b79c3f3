package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// LogFileName is the log file created inside log_dir.
const LogFileName = "feedback.log"

// feedbackHandler writes one tab separated line per record, with the instance
// id as the third column so lines from several feedback servers sharing a log
// collector can be told apart:
//
//	2024-06-15T14:30:45Z	INFO	node-a	request	method=POST	path=/inboxes	status=201	duration=1.2ms	request_id=host/abc-000001
//
// Service lines carry inbox keys such as id, signed and reason instead.
// Each line is emitted with a single Write so concurrent requests never
// interleave within a line.
type feedbackHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	instanceID string
	attrs      []slog.Attr
}

func newFeedbackHandler(w io.Writer, instanceID string) *feedbackHandler {
	return &feedbackHandler{mu: &sync.Mutex{}, w: w, instanceID: instanceID}
}

func (h *feedbackHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *feedbackHandler) Handle(_ context.Context, r slog.Record) error {
	var line bytes.Buffer
	fmt.Fprintf(&line, "%s\t%s\t%s\t%s",
		r.Time.UTC().Format("2006-01-02T15:04:05Z"), r.Level, h.instanceID, r.Message)
	for _, a := range h.attrs {
		writeAttr(&line, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&line, a)
		return true
	})
	line.WriteByte('\n')

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	_, err := h.w.Write(line.Bytes())
	return err
}

func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	fmt.Fprintf(buf, "\t%s=%v", a.Key, a.Value)
}

// WithAttrs returns a handler that prefixes every line's attrs with attrs.
// The copy shares the writer lock.
func (h *feedbackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &feedbackHandler{
		mu:         h.mu,
		w:          h.w,
		instanceID: h.instanceID,
		attrs:      append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// Groups are flattened; keys are already unique across the service.
func (h *feedbackHandler) WithGroup(string) slog.Handler { return h }

// newLogger builds the server logger. Lines go to stderr and, when logDir is
// set, are also appended to logDir/feedback.log; the caller closes the file.
func newLogger(logDir string, instanceID string) (*slog.Logger, *os.File, error) {
	if logDir == "" {
		return slog.New(newFeedbackHandler(os.Stderr, instanceID)), nil, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(newFeedbackHandler(io.MultiWriter(f, os.Stderr), instanceID)), f, nil
}

// slogAdapter hands the server logger to the feedback service and the HTTP
// layer, which only depend on feedback.Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
