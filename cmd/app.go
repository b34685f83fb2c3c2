package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/audit"
	"github.com/treegar/admin-console/internal/config"
	"github.com/treegar/admin-console/internal/db"
	"github.com/treegar/admin-console/internal/kafka"
	"github.com/treegar/admin-console/internal/logger"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/repository"
	"github.com/treegar/admin-console/internal/service/admin"
	"github.com/treegar/admin-console/internal/service/auth"
	"github.com/treegar/admin-console/internal/session"
)

// app is everything a console command needs, built once per invocation.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	sess  *session.Manager
	cache *query.Cache
	auth  *auth.Service
	admin *admin.Services

	closers []func() error
}

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.Init(cfg.Log.Level, cfg.Log.Encoding), nil
}

func newApp() (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	if err := a.openSession(); err != nil {
		a.Close()
		return nil, err
	}

	baseURL, err := cfg.API.BaseURL()
	if err != nil {
		a.Close()
		return nil, err
	}
	opts := apiclient.Options{
		BaseURL: baseURL,
		APIKey:  cfg.API.Key,
		Timeout: cfg.API.Timeout,
		Tokens:  a.sess,
		Logger:  log,
	}
	if cfg.API.Breaker.FailThreshold > 0 {
		opts.Breaker = apiclient.NewBreaker(cfg.API.Breaker.FailThreshold, cfg.API.Breaker.OpenFor)
	}
	client, err := apiclient.New(opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cache = query.New(query.Options{
		StaleTime:      cfg.Query.StaleTime,
		GCTime:         cfg.Query.GCTime,
		Retries:        cfg.Query.Retries,
		RetryBaseDelay: cfg.Query.RetryBaseDelay,
		RetryMaxDelay:  cfg.Query.RetryMaxDelay,
		Logger:         log,
	})

	sinks, err := a.auditSinks()
	if err != nil {
		a.Close()
		return nil, err
	}
	rec := audit.NewRecorder(log, a.actor, sinks...)

	a.auth = auth.New(client, a.sess, a.cache, log)
	a.admin = admin.New(admin.Deps{API: client, Cache: a.cache, Audit: rec, PageSize: cfg.Query.PageSize, Log: log})
	return a, nil
}

func (a *app) openSession() error {
	c := a.cfg.Session
	switch strings.ToLower(c.Backend) {
	case "", "file":
		durable := c.FilePath
		if durable == "" {
			durable = session.DefaultFilePath("session.json")
		}
		scoped := c.ScopedPath
		if scoped == "" {
			scoped = filepath.Join(os.TempDir(), "treegar-admin-"+strconv.Itoa(os.Getuid())+".json")
		}
		a.sess = session.NewManager(session.NewFileStore(durable), session.NewFileStore(scoped), c.HandshakeTTL)
	case "redis":
		rdb, err := db.NewRedisClient(a.cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.sess = session.NewManager(
			session.NewRedisStore(rdb, c.KeyPrefix),
			session.NewRedisStore(rdb, c.KeyPrefix+"scoped:"),
			c.HandshakeTTL,
		)
	default:
		return fmt.Errorf("unknown session backend %q", c.Backend)
	}
	return nil
}

func (a *app) auditSinks() ([]audit.Sink, error) {
	var sinks []audit.Sink
	c := a.cfg.Audit
	if c.HasSink("log") {
		sinks = append(sinks, audit.NewLogSink(a.log))
	}
	if c.HasSink("kafka") {
		p := kafka.NewProducer(kafka.ProducerConfig{Brokers: a.cfg.Kafka.Brokers, Topic: c.Topic})
		a.closers = append(a.closers, p.Close)
		sinks = append(sinks, audit.NewKafkaSink(p))
	}
	if c.HasSink("sql") {
		dbx, err := db.Open(c.Driver, a.cfg)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		a.closers = append(a.closers, dbx.Close)
		repo, err := repository.NewAuditRepository(dbx, c.Driver)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, audit.NewSQLSink(repo))
	}
	return sinks, nil
}

func (a *app) actor(ctx context.Context) string {
	u, err := a.sess.User(ctx)
	if err != nil || u == nil {
		return ""
	}
	return u.Email
}

// requireView fails unless the session guard lets v render.
func (a *app) requireView(ctx context.Context, v session.View) error {
	d, err := a.sess.Check(ctx, v)
	if err != nil {
		return err
	}
	switch d {
	case session.Allow:
		return nil
	case session.RedirectHome:
		return fmt.Errorf("already signed in; run \"treegar-admin logout\" first")
	}
	if v == session.ViewTwoFactor {
		return fmt.Errorf("no login awaiting a code; run \"treegar-admin login\"")
	}
	return fmt.Errorf("not signed in; run \"treegar-admin login\"")
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
