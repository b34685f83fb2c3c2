package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/treegar/admin-console/internal/db"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/repository"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit trail",
}

var auditListFlags struct {
	actor, resource, outcome string
	since, until             string
	page, size               int
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events from the SQL store, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		f := auditListFlags
		filter := model.AuditFilter{Actor: f.actor, Resource: f.resource, Outcome: model.AuditOutcome(f.outcome)}
		if filter.Since, err = parseWhen(f.since); err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		if filter.Until, err = parseWhen(f.until); err != nil {
			return fmt.Errorf("--until: %w", err)
		}

		dbx, err := db.Open(cfg.Audit.Driver, cfg)
		if err != nil {
			return fmt.Errorf("audit store: %w", err)
		}
		defer dbx.Close()

		repo, err := repository.NewAuditRepository(dbx, cfg.Audit.Driver)
		if err != nil {
			return err
		}
		p, err := repo.List(cmd.Context(), filter, model.PageRequest{Number: f.page, Size: f.size})
		if err != nil {
			return err
		}
		return printPage(cmd, p)
	},
}

// parseWhen accepts RFC3339 or a bare date.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func init() {
	fl := auditListCmd.Flags()
	fl.StringVar(&auditListFlags.actor, "actor", "", "operator email")
	fl.StringVar(&auditListFlags.resource, "resource", "", "resource, e.g. transfers")
	fl.StringVar(&auditListFlags.outcome, "outcome", "", "succeeded | failed")
	fl.StringVar(&auditListFlags.since, "since", "", "earliest time (RFC3339 or YYYY-MM-DD)")
	fl.StringVar(&auditListFlags.until, "until", "", "latest time, exclusive")
	fl.IntVar(&auditListFlags.page, "page", 1, "page number")
	fl.IntVar(&auditListFlags.size, "page-size", 50, "rows per page")
	auditCmd.AddCommand(auditListCmd)
}
