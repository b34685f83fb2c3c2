// Package audit records every back-office mutation attempt and fans the
// events out to the configured sinks (log, Kafka, SQL).
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/metrics"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/repository"
)

type Sink interface {
	Name() string
	Write(ctx context.Context, events ...model.AuditEvent) error
}

// Multi writes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Write(ctx context.Context, events ...model.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, events...); err != nil {
			metrics.AuditEventsTotal.WithLabelValues(s.Name(), "failed").Add(float64(len(events)))
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
			continue
		}
		metrics.AuditEventsTotal.WithLabelValues(s.Name(), "ok").Add(float64(len(events)))
	}
	return errors.Join(errs...)
}

type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log.Named("audit")} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(_ context.Context, events ...model.AuditEvent) error {
	for _, e := range events {
		fields := []zap.Field{
			zap.String("id", e.ID),
			zap.String("actor", e.Actor),
			zap.String("action", e.Action),
			zap.String("resource", e.Resource),
			zap.String("resource_id", e.ResourceID),
			zap.String("outcome", string(e.Outcome)),
			zap.String("request_id", e.RequestID),
		}
		if e.Outcome == model.AuditFailed {
			s.log.Warn("admin action failed", append(fields, zap.String("error", e.Error))...)
			continue
		}
		s.log.Info("admin action", fields...)
	}
	return nil
}

// Publisher is the write side of a message broker.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaSink publishes events as JSON, keyed by resource so one resource's
// history stays ordered within a partition.
type KafkaSink struct {
	pub Publisher
}

func NewKafkaSink(pub Publisher) *KafkaSink { return &KafkaSink{pub: pub} }

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, events ...model.AuditEvent) error {
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := s.pub.Publish(ctx, e.Resource+"/"+e.ResourceID, b); err != nil {
			return err
		}
	}
	return nil
}

type SQLSink struct {
	repo repository.AuditRepository
}

func NewSQLSink(repo repository.AuditRepository) *SQLSink { return &SQLSink{repo: repo} }

func (s *SQLSink) Name() string { return "sql" }

func (s *SQLSink) Write(ctx context.Context, events ...model.AuditEvent) error {
	return s.repo.InsertBatch(ctx, events)
}

// MemorySink keeps events in memory; handy for tests and dry runs.
type MemorySink struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Write(_ context.Context, events ...model.AuditEvent) error {
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Events() []model.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditEvent(nil), s.events...)
}

// Decode parses one published event.
func Decode(b []byte) (model.AuditEvent, error) {
	var e model.AuditEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return e, err
	}
	if e.ID == "" {
		return e, errors.New("audit event without id")
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return e, nil
}
