package defra

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// OpType is the kind of write operation.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// WriteOp is a single write queued on a Sink.
type WriteOp struct {
	Collection string
	Document   map[string]any
	DocID      string // updates and deletes
	Op         OpType
	result     chan<- WriteResult
}

// WriteResult is the outcome of a write.
type WriteResult struct {
	DocID string
	Err   error
}

// SinkConfig configures the write sink.
type SinkConfig struct {
	Client        *Client
	BatchSize     int           // flush after N ops (default 100)
	FlushInterval time.Duration // or after this long (default 5s)
	QueueSize     int           // buffered ops (default 1000)
	Logger        *slog.Logger
}

// SinkStats counts sink activity since start.
type SinkStats struct {
	Queued  int64 `json:"queued"`
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// Sink batches fire-and-forget writes to DefraDB. Creates for the same
// collection are sent as a single mutation.
type Sink struct {
	client        *Client
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration

	queue   chan WriteOp
	flushCh chan struct{}

	mu     sync.RWMutex
	closed bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	queued, written, failed, dropped atomic.Int64
}

// NewSink creates a write sink. Call Start before sending.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sink{
		client:        cfg.Client,
		logger:        cfg.Logger,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		queue:         make(chan WriteOp, cfg.QueueSize),
		flushCh:       make(chan struct{}, 1),
	}
}

// Start runs the batcher until Stop is called.
func (s *Sink) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop drains the queue, flushes what remains and waits for it to finish.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()

		s.wg.Wait()
		if s.cancel != nil {
			s.cancel()
		}
		s.logger.Info("sink stopped",
			"written", s.written.Load(),
			"failed", s.failed.Load(),
			"dropped", s.dropped.Load())
	})
}

// Send queues op without waiting. Ops sent after Stop, or while the queue
// is full, are dropped and logged.
func (s *Sink) Send(op WriteOp) {
	op.result = nil
	if !s.enqueue(op, false) {
		s.dropped.Add(1)
		s.logger.Warn("sink unavailable, dropping write op",
			"collection", op.Collection,
			"op", op.Op)
	}
}

// SendSync queues op and waits for its result.
func (s *Sink) SendSync(ctx context.Context, op WriteOp) (WriteResult, error) {
	resultCh := make(chan WriteResult, 1)
	op.result = resultCh
	if !s.enqueue(op, true) {
		return WriteResult{}, ErrSinkClosed
	}

	select {
	case result := <-resultCh:
		return result, result.Err
	case <-ctx.Done():
		return WriteResult{}, ctx.Err()
	}
}

func (s *Sink) enqueue(op WriteOp, block bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	if block {
		select {
		case s.queue <- op:
		case <-s.ctx.Done():
			return false
		}
	} else {
		select {
		case s.queue <- op:
		default:
			return false
		}
	}
	s.queued.Add(1)
	return true
}

// Flush asks the batcher to write the current batch now.
func (s *Sink) Flush() {
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// Stats returns activity counters.
func (s *Sink) Stats() SinkStats {
	return SinkStats{
		Queued:  s.queued.Load(),
		Written: s.written.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
	}
}

func (s *Sink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]WriteOp, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.write(batch)
		batch = make([]WriteOp, 0, s.batchSize)
	}

	for {
		select {
		case op, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, op)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.flushCh:
			flush()
		}
	}
}

type groupKey struct {
	collection string
	op         OpType
}

func (s *Sink) write(ops []WriteOp) {
	s.logger.Debug("flushing batch", "count", len(ops))

	groups := make(map[groupKey][]WriteOp)
	var order []groupKey
	for _, op := range ops {
		key := groupKey{op.Collection, op.Op}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], op)
	}

	// Writes use a background context so a cancelled parent still drains.
	ctx := context.WithoutCancel(s.ctx)
	for _, key := range order {
		group := groups[key]
		switch key.op {
		case OpCreate:
			s.creates(ctx, key.collection, group)
		case OpUpdate:
			for _, op := range group {
				s.finish(op, WriteResult{DocID: op.DocID, Err: s.client.Update(ctx, op.Collection, op.DocID, op.Document)})
			}
		case OpDelete:
			for _, op := range group {
				s.finish(op, WriteResult{DocID: op.DocID, Err: s.client.Delete(ctx, op.Collection, op.DocID)})
			}
		}
	}
}

// creates sends fire-and-forget creates as one mutation. Synchronous
// creates go one at a time so each caller gets its own _docID.
func (s *Sink) creates(ctx context.Context, collection string, ops []WriteOp) {
	var bulk []WriteOp
	for _, op := range ops {
		if op.result != nil {
			id, err := s.client.Create(ctx, collection, op.Document)
			s.finish(op, WriteResult{DocID: id, Err: err})
			continue
		}
		bulk = append(bulk, op)
	}
	if len(bulk) == 0 {
		return
	}

	docs := make([]map[string]any, len(bulk))
	for i, op := range bulk {
		docs[i] = op.Document
	}
	if _, err := s.client.CreateMany(ctx, collection, docs); err != nil {
		s.failed.Add(int64(len(bulk)))
		s.logger.Error("batch create failed", "collection", collection, "count", len(bulk), "error", err)
		return
	}
	s.written.Add(int64(len(bulk)))
}

func (s *Sink) finish(op WriteOp, result WriteResult) {
	if result.Err != nil {
		s.failed.Add(1)
		s.logger.Error("write failed",
			"collection", op.Collection,
			"op", op.Op,
			"docID", op.DocID,
			"error", result.Err)
	} else {
		s.written.Add(1)
	}
	if op.result != nil {
		op.result <- result
		close(op.result)
	}
}
