package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"watchpost/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	InsertBatch(ctx context.Context, entries []Entry) error
}

type EventPublisher interface {
	PublishBatch(ctx context.Context, bodies [][]byte) error
}

// Recorder buffers audit entries off the hot path and flushes them in
// batches. Admission is a channel send, so evaluation and dispatch are
// never blocked on storage; flushing retries until the batch lands
// (at-least-once), and only an exhausted retry budget is dropped to the
// error log.
type Recorder struct {
	ctx       context.Context
	entries   chan Entry
	store     Store
	publisher EventPublisher // nil disables the analytics fanout

	batchSize     int
	flushInterval time.Duration
	// retrySleep is the base backoff between failed flush attempts.
	// Tests shrink it.
	retrySleep time.Duration

	wg     sync.WaitGroup
	logger *zerolog.Logger
}

func NewRecorder(ctx context.Context, store Store, publisher EventPublisher, cfg *config.AuditConfig, logger *zerolog.Logger) *Recorder {
	return &Recorder{
		ctx:           ctx,
		entries:       make(chan Entry, cfg.BufferSize),
		store:         store,
		publisher:     publisher,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		retrySleep:    100 * time.Millisecond,
		logger:        logger,
	}
}

func (rec *Recorder) Run() {
	rec.wg.Add(1)
	go rec.loop()
}

// Record enqueues one entry. When the buffer is full the send blocks:
// stalling a worker briefly beats losing the record.
func (rec *Recorder) Record(kind EventKind, monitorID uuid.UUID, metadata map[string]string) {
	e := Entry{
		ID:        uuid.New(),
		Kind:      kind,
		MonitorID: monitorID,
		Metadata:  metadata,
		At:        time.Now(),
	}

	select {
	case rec.entries <- e:
	default:
		rec.logger.Warn().Str("kind", string(kind)).Msg("audit buffer full, blocking producer")
		rec.entries <- e
	}
}

func (rec *Recorder) loop() {
	defer rec.wg.Done()

	ticker := time.NewTicker(rec.flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, rec.batchSize)

	for {
		select {
		case e, ok := <-rec.entries:
			if !ok {
				rec.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= rec.batchSize {
				rec.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			rec.flush(batch)
			batch = batch[:0]
		}
	}
}

func (rec *Recorder) flush(batch []Entry) {
	if len(batch) == 0 {
		return
	}

	var err error
	for attempt := 0; attempt < 5; attempt++ {
		// flushing survives engine shutdown, so not rec.ctx
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rec.store.InsertBatch(ctx, batch)
		cancel()
		if err == nil {
			break
		}
		time.Sleep(rec.retrySleep << attempt)
	}
	if err != nil {
		// last resort: spill every entry to the log as JSON so the
		// batch stays replayable instead of vanishing
		rec.logger.Error().Err(err).Int("count", len(batch)).Msg("audit flush failed after retries, spilling batch to log")
		for i := range batch {
			body, merr := json.Marshal(&batch[i])
			if merr != nil {
				continue
			}
			rec.logger.Error().RawJSON("entry", body).Msg("unflushed audit entry")
		}
		return
	}

	rec.publish(batch)
}

// analytics fanout is best effort, failures are logged only
func (rec *Recorder) publish(batch []Entry) {
	if rec.publisher == nil {
		return
	}

	bodies := make([][]byte, 0, len(batch))
	for i := range batch {
		body, err := json.Marshal(&batch[i])
		if err != nil {
			rec.logger.Error().Err(err).Msg("failed to marshal audit entry for publish")
			continue
		}
		bodies = append(bodies, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rec.publisher.PublishBatch(ctx, bodies); err != nil {
		rec.logger.Error().Err(err).Msg("failed to publish audit events")
	}
}

// Close drains the buffer and flushes whatever is pending. No Record
// calls may happen after Close.
func (rec *Recorder) Close() {
	close(rec.entries)
	rec.wg.Wait()
}
