package model

import (
	"time"

	"github.com/treegar/admin-console/internal/validation"
)

type Transaction struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	CompanyID  string    `json:"companyId,omitempty"`
	CustomerID string    `json:"customerId,omitempty"`
	Type       string    `json:"type"` // credit | debit
	Channel    string    `json:"channel,omitempty"`
	Amount     float64   `json:"amount"`
	Fee        float64   `json:"fee"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	Narration  string    `json:"narration,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferApproved TransferStatus = "approved"
	TransferRejected TransferStatus = "rejected"
)

func (s TransferStatus) Valid() bool {
	return s == TransferPending || s == TransferApproved || s == TransferRejected
}

// Transfer is an outbound transfer waiting in (or past) the approval queue.
type Transfer struct {
	ID                 string         `json:"id"`
	Reference          string         `json:"reference"`
	CompanyID          string         `json:"companyId,omitempty"`
	CustomerID         string         `json:"customerId,omitempty"`
	SourceAccount      string         `json:"sourceAccount"`
	BeneficiaryAccount string         `json:"beneficiaryAccount"`
	BeneficiaryBank    string         `json:"beneficiaryBank"`
	BeneficiaryName    string         `json:"beneficiaryName"`
	Amount             float64        `json:"amount"`
	Currency           string         `json:"currency"`
	Status             TransferStatus `json:"status"`
	Narration          string         `json:"narration,omitempty"`
	RejectionReason    string         `json:"rejectionReason,omitempty"`
	ReviewedBy         string         `json:"reviewedBy,omitempty"`
	RequestedAt        time.Time      `json:"requestedAt"`
	ReviewedAt         *time.Time     `json:"reviewedAt,omitempty"`
}

type ApproveTransferRequest struct {
	Comment string `json:"comment,omitempty"`
}

type RejectTransferRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

func (r RejectTransferRequest) Validate() error { return validation.Struct(r) }

type DashboardStats struct {
	TotalCompanies    int     `json:"totalCompanies"`
	PendingCompanies  int     `json:"pendingCompanies"`
	TotalCustomers    int     `json:"totalCustomers"`
	TotalUsers        int     `json:"totalUsers"`
	TransactionCount  int     `json:"transactionCount"`
	TransactionVolume float64 `json:"transactionVolume"`
	PendingTransfers  int     `json:"pendingTransfers"`
}
