package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/treegar/admin-console/internal/kafka"
	"github.com/treegar/admin-console/internal/model"
)

type chanSource struct {
	ch        chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-s.ch:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(_ context.Context, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.committed = append(s.committed, m.Offset)
	}
	return nil
}

func (s *chanSource) Committed() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.committed...)
}

type memStore struct {
	mu       sync.Mutex
	failures int
	events   []model.AuditEvent
}

func (s *memStore) InsertBatch(_ context.Context, events []model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("db unavailable")
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *memStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func eventMsg(t *testing.T, offset int64, id string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(model.AuditEvent{ID: id, Action: "company.approve", Outcome: model.AuditSucceeded, At: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Offset: offset, Value: b}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func runDrain(t *testing.T, src *chanSource, store *memStore) (cancel func()) {
	t.Helper()
	w := NewAuditDrain(src, store, nil)
	w.BatchSize = 2
	w.BatchWait = 10 * time.Millisecond
	w.RetryWait = 5 * time.Millisecond

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		stop()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	}
}

func TestAuditDrainStoresAndCommits(t *testing.T) {
	src := &chanSource{ch: make(chan kafka.Message, 8)}
	store := &memStore{}
	src.ch <- eventMsg(t, 1, "01A")
	src.ch <- kafka.Message{Offset: 2, Value: []byte("not json")}
	src.ch <- eventMsg(t, 3, "01B")
	src.ch <- eventMsg(t, 4, "01C")
	src.ch <- eventMsg(t, 5, "01D")

	stop := runDrain(t, src, store)
	waitFor(t, func() bool { return len(src.Committed()) == 5 })
	stop()

	if store.Len() != 4 {
		t.Fatalf("stored %d events, want 4", store.Len())
	}
}

func TestAuditDrainCommitsOnlyAfterStore(t *testing.T) {
	src := &chanSource{ch: make(chan kafka.Message, 8)}
	store := &memStore{failures: 3}
	src.ch <- eventMsg(t, 1, "01A")

	stop := runDrain(t, src, store)
	waitFor(t, func() bool { return len(src.Committed()) == 1 })
	stop()

	if store.Len() != 1 {
		t.Fatalf("stored %d events, want 1", store.Len())
	}
}

func TestAuditDrainRequiresDeps(t *testing.T) {
	if err := (&AuditDrain{}).Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
