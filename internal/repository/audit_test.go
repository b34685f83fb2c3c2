package repository

import (
	"testing"
	"time"

	"github.com/treegar/admin-console/internal/model"
)

func TestAuditWhere(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args := auditWhere(model.AuditFilter{Actor: "ops@treegar.com", Outcome: model.AuditFailed, Since: since})

	want := " WHERE actor = ? AND outcome = ? AND at >= ?"
	if where != want {
		t.Fatalf("where = %q, want %q", where, want)
	}
	if len(args) != 3 || args[0] != "ops@treegar.com" || args[1] != "failed" || args[2] != since {
		t.Fatalf("args = %v", args)
	}

	if where, args := auditWhere(model.AuditFilter{}); where != "" || args != nil {
		t.Fatalf("empty filter = %q %v", where, args)
	}
}

func TestNewAuditRepositoryRejectsUnknownDriver(t *testing.T) {
	if _, err := NewAuditRepository(nil, "postgres"); err == nil {
		t.Fatal("expected error")
	}
}
