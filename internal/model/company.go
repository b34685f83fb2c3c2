package model

import (
	"time"

	"github.com/treegar/admin-console/internal/validation"
)

type CompanyStatus string

const (
	CompanyPending  CompanyStatus = "pending"
	CompanyApproved CompanyStatus = "approved"
	CompanyDenied   CompanyStatus = "denied"
)

func (s CompanyStatus) Valid() bool {
	return s == CompanyPending || s == CompanyApproved || s == CompanyDenied
}

type Company struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Phone              string        `json:"phone,omitempty"`
	RegistrationNumber string        `json:"registrationNumber,omitempty"`
	ExternalReference  string        `json:"externalReference,omitempty"`
	Industry           string        `json:"industry,omitempty"`
	Status             CompanyStatus `json:"status"`
	DenialReason       string        `json:"denialReason,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	ReviewedAt         *time.Time    `json:"reviewedAt,omitempty"`
}

type CompanyStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Denied   int `json:"denied"`
}

type CreateCompanyRequest struct {
	Name               string `json:"name" validate:"required,min=2"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone,omitempty"`
	RegistrationNumber string `json:"registrationNumber" validate:"required,min=5"`
	ExternalReference  string `json:"externalReference" validate:"required,treegarref"`
	Industry           string `json:"industry,omitempty"`
}

func (r CreateCompanyRequest) Validate() error { return validation.Struct(r) }

type DenyCompanyRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

func (r DenyCompanyRequest) Validate() error { return validation.Struct(r) }
