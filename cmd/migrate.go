package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treegar/admin-console/internal/db"
	"github.com/treegar/admin-console/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the audit tables for the configured SQL driver",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		stmts, err := migrations.Statements(cfg.Audit.Driver)
		if err != nil {
			return err
		}

		dbx, err := db.Open(cfg.Audit.Driver, cfg)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer dbx.Close()

		for i, stmt := range stmts {
			if _, err := dbx.ExecContext(cmd.Context(), stmt); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}

		log.Sugar().Infof("migration complete: %d statements on %s", len(stmts), cfg.Audit.Driver)
		return nil
	},
}
