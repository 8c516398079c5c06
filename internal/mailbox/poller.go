// Package mailbox polls an IMAP folder for price submissions on a cron
// schedule and hands each unseen message to the ingest pipeline.
package mailbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Cank256/market-mail/internal/inbound"
	"github.com/Cank256/market-mail/internal/market"
)

const (
	DefaultSchedule  = "@every 2m"
	DefaultFolder    = "INBOX"
	DefaultBatchSize = 50
)

// ErrDisabled is returned by Start when the poller is not configured.
var ErrDisabled = errors.New("mailbox polling disabled")

// Config configures a Poller.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Folder    string
	TLS       bool
	Schedule  string
	BatchSize int
	Timeout   time.Duration
}

func (c *Config) applyDefaults() {
	if c.Folder == "" {
		c.Folder = DefaultFolder
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Port == 0 {
		if c.TLS {
			c.Port = 993
		} else {
			c.Port = 143
		}
	}
}

// HandlerFunc processes one parsed message. A returned error is logged;
// the message is still marked seen because the submitter was notified.
type HandlerFunc func(ctx context.Context, p market.Payload) error

// PollerConfig wires a Poller.
type PollerConfig struct {
	Mailbox Config
	Handler HandlerFunc

	// Dial defaults to DialIMAP.
	Dial   Dialer
	// OnPoll, when set, is called after every cycle.
	OnPoll func(err error)
	Logger *slog.Logger
}

// PollResult summarizes one poll cycle.
type PollResult struct {
	Fetched   int
	Processed int
	Failed    int
	Unparsed  int
}

// Poller fetches unseen messages on a schedule. Cycles never overlap.
type Poller struct {
	cfg     Config
	handler HandlerFunc
	dial    Dialer
	onPoll  func(error)
	logger  *slog.Logger

	cycle sync.Mutex

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	lastRun time.Time
	lastErr error
}

// NewPoller creates a poller.
func NewPoller(cfg PollerConfig) *Poller {
	cfg.Mailbox.applyDefaults()
	if cfg.Dial == nil {
		cfg.Dial = DialIMAP
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg.Mailbox,
		handler: cfg.Handler,
		dial:    cfg.Dial,
		onPoll:  cfg.OnPoll,
		logger:  cfg.Logger.With("component", "mailbox", "folder", cfg.Mailbox.Folder),
	}
}

// ValidateSchedule reports whether spec is a usable cron schedule.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", spec, err)
	}
	return nil
}

// Start schedules poll cycles until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Host == "" || p.handler == nil {
		return ErrDisabled
	}
	if err := ValidateSchedule(p.cfg.Schedule); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(p.cfg.Schedule, p.run); err != nil {
		p.cancel()
		return fmt.Errorf("failed to schedule mailbox poll: %w", err)
	}
	c.Start()
	p.cron = c

	p.logger.Info("mailbox poller started", "host", p.cfg.Host, "schedule", p.cfg.Schedule)
	return nil
}

// Stop cancels the running cycle and waits for it to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	c, cancel := p.cron, p.cancel
	p.cron = nil
	p.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	p.logger.Info("mailbox poller stopped")
}

// Status reports when the last cycle ran and how it ended.
func (p *Poller) Status() (lastRun time.Time, lastErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun, p.lastErr
}

func (p *Poller) run() {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if _, err := p.Poll(ctx); err != nil {
		p.logger.Error("mailbox poll failed", "error", err)
	}
}

// Poll runs one cycle: fetch unseen messages, process each independently,
// then mark the batch seen.
func (p *Poller) Poll(ctx context.Context) (res PollResult, err error) {
	p.cycle.Lock()
	defer p.cycle.Unlock()

	defer func() {
		p.mu.Lock()
		p.lastRun, p.lastErr = time.Now(), err
		p.mu.Unlock()
		if p.onPoll != nil {
			p.onPoll(err)
		}
	}()

	mb, err := p.dial(ctx, p.cfg)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := mb.Close(); cerr != nil {
			p.logger.Debug("mailbox close failed", "error", cerr)
		}
	}()

	msgs, err := mb.Unseen(ctx, p.cfg.BatchSize)
	if err != nil {
		return res, err
	}
	res.Fetched = len(msgs)
	if len(msgs) == 0 {
		return res, nil
	}

	seen := make([]uint32, 0, len(msgs))
	for _, m := range msgs {
		if ctx.Err() != nil {
			break
		}
		seen = append(seen, m.UID)

		payload, perr := inbound.ParseMIME(bytes.NewReader(m.Raw))
		if perr != nil {
			res.Unparsed++
			p.logger.Warn("skipping unreadable message", "uid", m.UID, "error", perr)
			continue
		}
		if herr := p.handler(ctx, payload); herr != nil {
			res.Failed++
			p.logger.Info("message not ingested",
				"uid", m.UID, "sender", payload.SenderEmail, "message_id", payload.MessageID, "error", herr)
			continue
		}
		res.Processed++
	}

	if err := mb.MarkSeen(ctx, seen); err != nil {
		return res, err
	}
	p.logger.Info("mailbox poll complete",
		"fetched", res.Fetched, "processed", res.Processed, "failed", res.Failed, "unparsed", res.Unparsed)
	return res, ctx.Err()
}
