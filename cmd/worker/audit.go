package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/config"
	"github.com/treegar/admin-console/internal/db"
	"github.com/treegar/admin-console/internal/kafka"
	"github.com/treegar/admin-console/internal/logger"
	"github.com/treegar/admin-console/internal/metrics"
	"github.com/treegar/admin-console/internal/repository"
	"github.com/treegar/admin-console/internal/worker"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Drain the audit topic into the SQL store",
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	// 1) config + logger
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) SQL store
	dbx, err := db.Open(cfg.Audit.Driver, cfg)
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Audit.Driver, err)
	}
	defer dbx.Close()

	repo, err := repository.NewAuditRepository(dbx, cfg.Audit.Driver)
	if err != nil {
		return err
	}

	// 3) kafka consumer
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "treegar-audit"
	}
	consumer := kafka.NewConsumer(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Audit.Topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewAuditDrain(consumer, repo, log)
	if cfg.Audit.BatchSize > 0 {
		w.BatchSize = cfg.Audit.BatchSize
	}
	if cfg.Audit.BatchWait > 0 {
		w.BatchWait = cfg.Audit.BatchWait
	}

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("audit drain started",
		zap.String("topic", cfg.Audit.Topic),
		zap.String("group", groupID),
		zap.String("driver", cfg.Audit.Driver),
		zap.Int("batch_size", w.BatchSize),
		zap.Duration("batch_wait", w.BatchWait))

	return w.Run(ctx)
}
