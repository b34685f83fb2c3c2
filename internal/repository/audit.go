package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/treegar/admin-console/internal/model"
)

// AuditRepository persists and lists audit events.
type AuditRepository interface {
	// InsertBatch writes events; re-delivered ids are ignored.
	InsertBatch(ctx context.Context, events []model.AuditEvent) error
	List(ctx context.Context, f model.AuditFilter, page model.PageRequest) (model.Page[model.AuditEvent], error)
}

const auditColumns = "id, actor, action, resource, resource_id, outcome, error_message, request_id, at"

// NewAuditRepository picks the dialect for driver ("mysql" or "clickhouse").
func NewAuditRepository(db *sqlx.DB, driver string) (AuditRepository, error) {
	switch driver {
	case "mysql":
		return &mysqlAuditRepository{db: db}, nil
	case "clickhouse":
		return &chAuditRepository{db: db}, nil
	}
	return nil, fmt.Errorf("audit repository: unsupported driver %q", driver)
}

type mysqlAuditRepository struct {
	db *sqlx.DB
}

func (r *mysqlAuditRepository) InsertBatch(ctx context.Context, events []model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	const q = `
		INSERT IGNORE INTO audit_events (` + auditColumns + `)
		VALUES (:id, :actor, :action, :resource, :resource_id, :outcome, :error_message, :request_id, :at)
	`
	_, err := r.db.NamedExecContext(ctx, q, events)
	return err
}

func (r *mysqlAuditRepository) List(ctx context.Context, f model.AuditFilter, page model.PageRequest) (model.Page[model.AuditEvent], error) {
	return listAudit(ctx, r.db, "audit_events", f, page)
}

// chAuditRepository writes to a ReplacingMergeTree keyed by id, so duplicates
// collapse on merge and reads use FINAL.
type chAuditRepository struct {
	db *sqlx.DB
}

func (r *chAuditRepository) InsertBatch(ctx context.Context, events []model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO audit_events ("+auditColumns+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Actor, e.Action, e.Resource, e.ResourceID,
			string(e.Outcome), e.Error, e.RequestID, e.At.UTC(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *chAuditRepository) List(ctx context.Context, f model.AuditFilter, page model.PageRequest) (model.Page[model.AuditEvent], error) {
	return listAudit(ctx, r.db, "audit_events FINAL", f, page)
}

func listAudit(ctx context.Context, db *sqlx.DB, from string, f model.AuditFilter, page model.PageRequest) (model.Page[model.AuditEvent], error) {
	page = page.Normalize(50)
	if page.Size > 1000 {
		page.Size = 1000
	}

	where, args := auditWhere(f)

	var total int64
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+from+where, args...); err != nil {
		return model.Page[model.AuditEvent]{}, fmt.Errorf("count audit events: %w", err)
	}

	q := "SELECT " + auditColumns + " FROM " + from + where + " ORDER BY at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, page.Size, (page.Number-1)*page.Size)

	var rows []model.AuditEvent
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return model.Page[model.AuditEvent]{}, fmt.Errorf("select audit events: %w", err)
	}

	return model.Page[model.AuditEvent]{
		Items:      rows,
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalCount: int(total),
	}.Normalize(page), nil
}

func auditWhere(f model.AuditFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Actor != "" {
		conds = append(conds, "actor = ?")
		args = append(args, f.Actor)
	}
	if f.Resource != "" {
		conds = append(conds, "resource = ?")
		args = append(args, f.Resource)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if !f.Since.IsZero() {
		conds = append(conds, "at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "at < ?")
		args = append(args, f.Until.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
