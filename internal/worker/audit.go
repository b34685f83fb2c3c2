package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/audit"
	"github.com/treegar/admin-console/internal/kafka"
	"github.com/treegar/admin-console/internal/metrics"
	"github.com/treegar/admin-console/internal/model"
)

// Source yields broker messages and acknowledges them once persisted.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

type BatchWriter interface {
	InsertBatch(ctx context.Context, events []model.AuditEvent) error
}

// AuditDrain moves audit events from the broker into the SQL store:
//   - fetches messages from Kafka,
//   - buffers decoded events and flushes by size or time,
//   - commits offsets only after the batch is stored (at-least-once; the
//     store ignores duplicate ids).
type AuditDrain struct {
	Source Source
	Store  BatchWriter
	Log    *zap.Logger

	BatchSize int           // max buffered messages per flush
	BatchWait time.Duration // max time a message waits before flush
	RetryWait time.Duration // pause between failed flush attempts
}

func NewAuditDrain(src Source, store BatchWriter, log *zap.Logger) *AuditDrain {
	return &AuditDrain{
		Source:    src,
		Store:     store,
		Log:       log,
		BatchSize: 200,
		BatchWait: 500 * time.Millisecond,
		RetryWait: time.Second,
	}
}

// Run blocks until ctx is cancelled, then flushes what it holds.
func (w *AuditDrain) Run(ctx context.Context) error {
	if w.Source == nil || w.Store == nil {
		return errors.New("audit drain: source and store are required")
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 200
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 500 * time.Millisecond
	}
	if w.RetryWait <= 0 {
		w.RetryWait = time.Second
	}

	msgs := make(chan kafka.Message, w.BatchSize*2)
	go w.fetchLoop(ctx, msgs)

	w.runBatchWriter(ctx, msgs)
	return nil
}

func (w *AuditDrain) fetchLoop(ctx context.Context, out chan<- kafka.Message) {
	defer close(out)
	for {
		m, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Log.Warn("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}

func (w *AuditDrain) runBatchWriter(ctx context.Context, in <-chan kafka.Message) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var (
		events  []model.AuditEvent
		pending []kafka.Message
	)

	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		for {
			err := w.Store.InsertBatch(ctx, events)
			if err == nil {
				break
			}
			metrics.AuditEventsTotal.WithLabelValues("drain", "failed").Add(float64(len(events)))
			w.Log.Warn("audit batch insert failed", zap.Int("events", len(events)), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.RetryWait):
			}
		}
		if err := w.Source.Commit(ctx, pending...); err != nil {
			w.Log.Warn("kafka commit failed", zap.Error(err))
		}
		metrics.AuditEventsTotal.WithLabelValues("drain", "ok").Add(float64(len(events)))
		w.Log.Debug("audit batch flushed", zap.Int("events", len(events)), zap.Int("messages", len(pending)))
		events = events[:0]
		pending = pending[:0]
	}

	final := func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		flush(fctx)
	}

	for {
		select {
		case <-ctx.Done():
			final()
			return

		case m, ok := <-in:
			if !ok {
				final()
				return
			}
			pending = append(pending, m)
			e, err := audit.Decode(m.Value)
			if err != nil {
				// poison: committed with the batch, never stored
				w.Log.Warn("bad audit event", zap.Int64("offset", m.Offset), zap.Error(err))
			} else {
				events = append(events, e)
			}
			if len(pending) >= w.BatchSize {
				flush(ctx)
			}

		case <-tick.C:
			flush(ctx)
		}
	}
}
