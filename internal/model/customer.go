package model

import (
	"time"

	"github.com/treegar/admin-console/internal/validation"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

type Customer struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"companyId,omitempty"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	Balance       float64   `json:"balance"`
	KYCStatus     KYCStatus `json:"kycStatus"`
	KYCLevel      int       `json:"kycLevel"`
	Status        string    `json:"status,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

type KYCDocument struct {
	ID              string         `json:"id"`
	CustomerID      string         `json:"customerId"`
	Type            string         `json:"type"`
	URL             string         `json:"url,omitempty"`
	Status          DocumentStatus `json:"status"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	UploadedAt      time.Time      `json:"uploadedAt"`
	ReviewedAt      *time.Time     `json:"reviewedAt,omitempty"`
}

type RejectDocumentRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

func (r RejectDocumentRequest) Validate() error { return validation.Struct(r) }

type KYCRequirement struct {
	ID            string   `json:"id"`
	Level         int      `json:"level"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	DocumentTypes []string `json:"documentTypes"`
	DailyLimit    float64  `json:"dailyLimit"`
}

type UpdateKYCRequirementRequest struct {
	Description   string   `json:"description,omitempty"`
	DocumentTypes []string `json:"documentTypes" validate:"required,min=1"`
	DailyLimit    float64  `json:"dailyLimit" validate:"gt=0"`
}

func (r UpdateKYCRequirementRequest) Validate() error { return validation.Struct(r) }
