package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/util"
)

// ActorFunc names who is acting, typically the signed-in user's email.
type ActorFunc func(ctx context.Context) string

// Recorder builds events and hands them to a sink. Sink failures are
// logged and never fail the mutation being audited.
type Recorder struct {
	sink  Sink
	actor ActorFunc
	log   *zap.Logger
	Now   func() time.Time
}

func NewRecorder(log *zap.Logger, actor ActorFunc, sinks ...Sink) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if actor == nil {
		actor = func(context.Context) string { return "" }
	}
	return &Recorder{sink: Multi(sinks), actor: actor, log: log, Now: time.Now}
}

// Record stores the outcome of action on resource/id; err == nil means success.
func (r *Recorder) Record(ctx context.Context, action, resource, id string, err error) model.AuditEvent {
	e := model.AuditEvent{
		ID:         util.NewID(),
		Actor:      r.actor(ctx),
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Outcome:    model.AuditSucceeded,
		RequestID:  apiclient.RequestIDFrom(ctx),
		At:         r.Now().UTC(),
	}
	if err != nil {
		e.Outcome = model.AuditFailed
		e.Error = err.Error()
	}

	// a cancelled caller still gets its attempt recorded
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if werr := r.sink.Write(wctx, e); werr != nil {
		r.log.Warn("audit write failed", zap.String("action", action), zap.Error(werr))
	}
	return e
}
