package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/model"
)

type fakePublisher struct {
	keys   []string
	values [][]byte
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func actor(context.Context) string { return "ops@treegar.com" }

func TestRecorderFansOut(t *testing.T) {
	mem := &MemorySink{}
	pub := &fakePublisher{}
	rec := NewRecorder(zap.NewNop(), actor, mem, NewKafkaSink(pub), NewLogSink(zap.NewNop()))

	ctx := apiclient.WithRequestID(context.Background(), "req-1")
	e := rec.Record(ctx, "company.approve", "companies", "c-1", nil)

	if e.ID == "" || e.Outcome != model.AuditSucceeded || e.Actor != "ops@treegar.com" || e.RequestID != "req-1" {
		t.Fatalf("event = %+v", e)
	}
	if got := mem.Events(); len(got) != 1 || got[0].ID != e.ID {
		t.Fatalf("memory sink = %+v", got)
	}
	if len(pub.keys) != 1 || pub.keys[0] != "companies/c-1" {
		t.Fatalf("kafka keys = %v", pub.keys)
	}
	decoded, err := Decode(pub.values[0])
	if err != nil || decoded.ID != e.ID || decoded.Action != "company.approve" {
		t.Fatalf("decoded = %+v, %v", decoded, err)
	}
}

func TestRecorderFailedOutcome(t *testing.T) {
	mem := &MemorySink{}
	rec := NewRecorder(nil, nil, mem)
	e := rec.Record(context.Background(), "transfer.approve", "transfers", "t-9", errors.New("status 500"))
	if e.Outcome != model.AuditFailed || e.Error != "status 500" {
		t.Fatalf("event = %+v", e)
	}
}

func TestSinkFailureDoesNotStopOthers(t *testing.T) {
	mem := &MemorySink{}
	broken := NewKafkaSink(&fakePublisher{err: errors.New("broker down")})
	err := Multi{broken, mem}.Write(context.Background(), model.AuditEvent{ID: "1"})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(mem.Events()) != 1 {
		t.Fatal("memory sink skipped after kafka failure")
	}

	rec := NewRecorder(nil, actor, broken, mem)
	rec.Record(context.Background(), "user.create", "users", "u-1", nil)
	if len(mem.Events()) != 2 {
		t.Fatal("recorder dropped event")
	}
}

func TestDecodeRejectsMissingID(t *testing.T) {
	b, _ := json.Marshal(model.AuditEvent{Action: "x"})
	if _, err := Decode(b); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatal("expected json error")
	}
}
