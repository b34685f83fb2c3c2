package model

import "time"

type AuditOutcome string

const (
	AuditSucceeded AuditOutcome = "succeeded"
	AuditFailed    AuditOutcome = "failed"
)

// AuditEvent records one back-office mutation attempt.
type AuditEvent struct {
	ID         string       `json:"id" db:"id"`
	Actor      string       `json:"actor" db:"actor"`
	Action     string       `json:"action" db:"action"` // e.g. company.approve
	Resource   string       `json:"resource" db:"resource"`
	ResourceID string       `json:"resourceId" db:"resource_id"`
	Outcome    AuditOutcome `json:"outcome" db:"outcome"`
	Error      string       `json:"error,omitempty" db:"error_message"`
	RequestID  string       `json:"requestId,omitempty" db:"request_id"`
	At         time.Time    `json:"at" db:"at"`
}

// AuditFilter narrows an audit listing; empty fields match everything.
type AuditFilter struct {
	Actor    string
	Resource string
	Outcome  AuditOutcome
	Since    time.Time
	Until    time.Time
}
