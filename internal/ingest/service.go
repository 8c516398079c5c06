// Package ingest runs a submission end to end: extract a record from the
// email, persist it, and tell the submitter what happened.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Cank256/market-mail/internal/extract"
	"github.com/Cank256/market-mail/internal/market"
	"github.com/Cank256/market-mail/internal/metrics"
	"github.com/Cank256/market-mail/internal/notify"
	"github.com/Cank256/market-mail/internal/parser"
	"github.com/Cank256/market-mail/internal/prices"
)

// Source names where a submission arrived from.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourceIMAP    Source = "imap"
	SourceFile    Source = "file"
)

const (
	internalErrorMessage    = "An internal error occurred while saving your submission. Please try again later."
	unavailableErrorMessage = "We could not read your submission right now. Please try again later."
	unreadableErrorMessage  = "We could not read the prices in your email. " +
		"Include a line like \"Market: Kampala Central Market\" and one line per product like \"Tomatoes (kg): 3000\"."
)

// Saver persists a validated record.
type Saver interface {
	Save(ctx context.Context, in prices.SaveInput) (*prices.Submission, error)
}

// Settings is the reloadable part of the service configuration.
type Settings struct {
	Orchestrator   *extract.Orchestrator
	DefaultCountry string
	// Notify sends confirmation and failure mail to submitters.
	Notify bool
}

// Config wires a Service.
type Config struct {
	Settings  Settings
	Store     Saver
	Formatter *notify.Formatter
	Sender    notify.Sender
	Metrics   *metrics.Registry
	Logger    *slog.Logger
}

// Service is safe for concurrent use. Settings may be swapped while
// requests are in flight; each request sees one snapshot.
type Service struct {
	settings  atomic.Pointer[Settings]
	store     Saver
	formatter *notify.Formatter
	sender    notify.Sender
	metrics   *metrics.Registry
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates an ingest service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Formatter == nil {
		cfg.Formatter = &notify.Formatter{}
	}
	if cfg.Sender == nil {
		cfg.Sender = notify.LogSender{Logger: cfg.Logger}
	}
	s := &Service{
		store:     cfg.Store,
		formatter: cfg.Formatter,
		sender:    cfg.Sender,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	s.Reconfigure(cfg.Settings)
	return s
}

// Reconfigure swaps the settings used by subsequent requests.
func (s *Service) Reconfigure(st Settings) {
	if st.Orchestrator == nil {
		st.Orchestrator = extract.NewOrchestrator(nil, nil, extract.Options{}, s.logger)
	}
	s.settings.Store(&st)
}

// Settings returns the current settings snapshot.
func (s *Service) Settings() Settings {
	return *s.settings.Load()
}

// Preview is an extraction result that has not been persisted.
type Preview struct {
	Record   *market.MarketData `json:"record"`
	Strategy extract.Strategy   `json:"strategy"`
	Country  string             `json:"country,omitempty"`
}

// Outcome is a saved submission.
type Outcome struct {
	Submission *prices.Submission
	Strategy   extract.Strategy
	Notified   bool
}

// Extract runs extraction only. Nothing is stored and nobody is notified.
func (s *Service) Extract(ctx context.Context, p market.Payload) (*Preview, error) {
	st := s.settings.Load()
	res, err := st.Orchestrator.Extract(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Preview{Record: res.Record, Strategy: res.Strategy, Country: country(p.Body, st.DefaultCountry)}, nil
}

// Process extracts, saves and confirms a submission. On failure the
// submitter is sent the error and the expected format, and the error is
// returned. Notification failures are logged and never change the result.
func (s *Service) Process(ctx context.Context, src Source, p market.Payload) (*Outcome, error) {
	st := s.settings.Load()
	start := s.now()
	log := s.logger.With("source", string(src), "sender", p.SenderEmail, "message_id", p.MessageID)

	res, err := st.Orchestrator.Extract(ctx, p)
	if err != nil {
		s.observe(src, "", metrics.OutcomeRejected, 0, start)
		log.Info("submission rejected", "error", err)
		s.notifyFailure(ctx, st, log, p.SenderEmail, UserMessage(err))
		return nil, err
	}

	rec := res.Record
	sub, err := s.store.Save(ctx, prices.SaveInput{
		Record:   rec,
		Strategy: string(res.Strategy),
		Country:  country(p.Body, st.DefaultCountry),
	})
	if err != nil {
		s.observe(src, string(res.Strategy), metrics.OutcomeFailed, 0, start)
		log.Error("failed to save submission", "market", rec.Market, "error", err)
		s.notifyFailure(ctx, st, log, p.SenderEmail, internalErrorMessage)
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.observe(src, string(res.Strategy), metrics.OutcomeSaved, len(rec.PriceItems), start)
	log.Info("submission saved",
		"id", sub.ID, "market", sub.Market, "strategy", res.Strategy, "items", len(rec.PriceItems))

	out := &Outcome{Submission: sub, Strategy: res.Strategy}
	if st.Notify {
		out.Notified = s.notifyConfirmation(ctx, log, sub, rec)
	}
	return out, nil
}

func (s *Service) notifyConfirmation(ctx context.Context, log *slog.Logger, sub *prices.Submission, rec *market.MarketData) bool {
	msg, err := s.formatter.Confirmation(notify.Confirmation{
		To:           rec.SubmitterEmail,
		Market:       sub.Market,
		Country:      sub.Country,
		Date:         sub.Date,
		Items:        rec.PriceItems,
		SubmissionID: sub.ID,
	})
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if s.metrics != nil {
		s.metrics.ObserveNotification("confirmation", err)
	}
	if err != nil {
		log.Warn("failed to send confirmation", "error", err)
		return false
	}
	return true
}

func (s *Service) notifyFailure(ctx context.Context, st *Settings, log *slog.Logger, to, reason string) {
	if !st.Notify || strings.TrimSpace(to) == "" {
		return
	}
	msg, err := s.formatter.Failure(to, reason)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if s.metrics != nil {
		s.metrics.ObserveNotification("failure", err)
	}
	if err != nil {
		log.Warn("failed to send failure notification", "error", err)
	}
}

func (s *Service) observe(src Source, strategy, outcome string, items int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSubmission(string(src), strategy, outcome, items, s.now().Sub(start))
}

func country(body, fallback string) string {
	if c, ok := parser.Label(body, parser.CountryLabel); ok {
		return c
	}
	return fallback
}

var sentinelPrefixes = []string{
	"failed to parse email: ",
	market.ErrInvalidPayload.Error() + ": ",
	market.ErrParse.Error() + ": ",
}

// UserMessage returns the part of err that is meant for the submitter.
// Errors that are not the submitter's fault get a generic message.
func UserMessage(err error) string {
	var ve *market.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	switch {
	case errors.Is(err, market.ErrModelUnavailable):
		return unavailableErrorMessage
	case errors.Is(err, market.ErrExtraction):
		return unreadableErrorMessage
	case !market.IsUserError(err):
		return internalErrorMessage
	}
	msg := err.Error()
	for trimmed := true; trimmed; {
		trimmed = false
		for _, p := range sentinelPrefixes {
			if strings.HasPrefix(msg, p) {
				msg = strings.TrimPrefix(msg, p)
				trimmed = true
			}
		}
	}
	return msg
}
