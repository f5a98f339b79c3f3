package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"feedback-go/internal/config"
	"feedback-go/internal/database"
	"feedback-go/internal/feedback"
	"feedback-go/internal/httpapi"
)

// FeedbackApp is the application layer between the CLI and FeedbackService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw credentials, and manages the DB lifecycle on Close.
type FeedbackApp struct {
	cfg     *config.Config
	db      database.Store
	service *feedback.FeedbackService
	metrics *httpapi.Metrics
	logger  *slog.Logger
	logFile *os.File
}

// NewFeedbackApp creates a fully wired FeedbackApp from the given config.
// The caller must call Close when done.
func NewFeedbackApp(cfg *config.Config) (*FeedbackApp, error) {
	return newFeedbackApp(cfg, feedback.RealClock{}, feedback.UUIDGenerator{})
}

func newFeedbackApp(cfg *config.Config, clock feedback.Clock, idgen feedback.IDGenerator) (*FeedbackApp, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
	} else if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, cfg.InstanceID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	policy := feedback.Policy{
		SignatureSeparator: cfg.Inbox.SignatureSeparator,
		MaxExpiresInHours:  cfg.Inbox.MaxExpiresInHours,
	}
	svc := feedback.NewFeedbackService(db, policy, &slogAdapter{l: logger}, clock, idgen)

	var metrics *httpapi.Metrics
	if cfg.Metrics.Enabled {
		metrics = httpapi.NewMetrics()
	}

	return &FeedbackApp{
		cfg:     cfg,
		db:      db,
		service: svc,
		metrics: metrics,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Handler returns the HTTP handler for the configured server.
func (a *FeedbackApp) Handler() http.Handler {
	opts := httpapi.Options{
		DefaultExpiresInHours: a.cfg.Inbox.DefaultExpiresInHours,
		MaxBodyBytes:          a.cfg.Server.MaxBodyBytes,
		RequestTimeout:        a.cfg.Server.RequestTimeout.Duration,
		MetricsPath:           a.cfg.Metrics.Path,
	}
	return httpapi.NewServer(a.service, &slogAdapter{l: a.logger}, a.metrics, opts).Handler()
}

// Serve listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (a *FeedbackApp) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Server.ListenAddr, err)
	}
	return a.serve(ctx, ln)
}

func (a *FeedbackApp) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.logger.Info("server started", "addr", ln.Addr().String(), "database", a.cfg.Database.Type)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// CreateInbox creates an inbox owned by username/secret.
func (a *FeedbackApp) CreateInbox(ctx context.Context, topic, username, secret string, requiresSignature bool, expiresInHours int) (*feedback.InboxView, error) {
	if expiresInHours == 0 {
		expiresInHours = a.cfg.Inbox.DefaultExpiresInHours
	}
	return a.service.CreateInbox(ctx, topic, a.service.Identify(username, secret), requiresSignature, expiresInHours)
}

// ListInboxes lists inboxes for the caller; scope is "", "owned" or "all".
func (a *FeedbackApp) ListInboxes(ctx context.Context, username, secret, scope string) ([]*feedback.InboxView, error) {
	s, err := feedback.ParseListScope(scope)
	if err != nil {
		return nil, err
	}
	return a.service.ListInboxes(ctx, a.service.Identify(username, secret), s)
}

// ReadInbox returns the view of one inbox for the caller.
func (a *FeedbackApp) ReadInbox(ctx context.Context, id, username, secret string) (*feedback.InboxView, error) {
	return a.service.ReadInbox(ctx, id, a.service.Identify(username, secret))
}

// PostMessage posts body to inbox id, signed when credentials are given.
func (a *FeedbackApp) PostMessage(ctx context.Context, id, body, username, secret string) (feedback.Message, error) {
	return a.service.PostMessage(ctx, id, body, a.service.Identify(username, secret))
}

// EditInboxTopic changes the topic of an empty inbox owned by the caller.
func (a *FeedbackApp) EditInboxTopic(ctx context.Context, id, topic, username, secret string) (*feedback.InboxView, error) {
	return a.service.EditInboxTopic(ctx, id, topic, a.service.Identify(username, secret))
}

// Now returns the service clock's time, for rendering expiry.
func (a *FeedbackApp) Now() time.Time {
	return a.service.Now()
}

// Close closes the database and the log file.
func (a *FeedbackApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
