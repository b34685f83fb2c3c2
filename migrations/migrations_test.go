package migrations

import (
	"strings"
	"testing"
)

func TestStatements(t *testing.T) {
	for _, driver := range []string{"mysql", "clickhouse"} {
		stmts, err := Statements(driver)
		if err != nil {
			t.Fatalf("%s: %v", driver, err)
		}
		if len(stmts) != 1 || !strings.Contains(stmts[0], "audit_events") {
			t.Fatalf("%s: statements = %q", driver, stmts)
		}
	}
	if _, err := Statements("sqlite"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
