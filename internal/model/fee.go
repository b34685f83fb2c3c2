package model

import (
	"time"

	"github.com/treegar/admin-console/internal/validation"
)

type FeeType string

const (
	FeeFlat       FeeType = "flat"
	FeePercentage FeeType = "percentage"
)

// InflowFee is charged on money arriving into a company's accounts.
type InflowFee struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Type      FeeType   `json:"type"`
	Value     float64   `json:"value"`
	Cap       float64   `json:"cap,omitempty"`
	MinAmount float64   `json:"minAmount,omitempty"`
	MaxAmount float64   `json:"maxAmount,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateInflowFeeRequest struct {
	CompanyID string  `json:"companyId" validate:"required"`
	Name      string  `json:"name" validate:"required,min=3"`
	Type      FeeType `json:"type" validate:"required,oneof=flat percentage"`
	Value     float64 `json:"value" validate:"gt=0"`
	Cap       float64 `json:"cap,omitempty" validate:"gte=0"`
	MinAmount float64 `json:"minAmount,omitempty" validate:"gte=0"`
	MaxAmount float64 `json:"maxAmount,omitempty" validate:"gte=0"`
}

// Validate adds the cross-field rules the tags cannot express.
func (r CreateInflowFeeRequest) Validate() error {
	return validateFee(r, r.Type, r.Value, r.MinAmount, r.MaxAmount)
}

type UpdateInflowFeeRequest struct {
	Name      string  `json:"name" validate:"required,min=3"`
	Type      FeeType `json:"type" validate:"required,oneof=flat percentage"`
	Value     float64 `json:"value" validate:"gt=0"`
	Cap       float64 `json:"cap,omitempty" validate:"gte=0"`
	MinAmount float64 `json:"minAmount,omitempty" validate:"gte=0"`
	MaxAmount float64 `json:"maxAmount,omitempty" validate:"gte=0"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

func (r UpdateInflowFeeRequest) Validate() error {
	return validateFee(r, r.Type, r.Value, r.MinAmount, r.MaxAmount)
}

func validateFee(req any, typ FeeType, value, minAmount, maxAmount float64) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	fields := map[string]string{}
	if typ == FeePercentage && value > 100 {
		fields["value"] = "Value must be 100 or less for a percentage fee"
	}
	if maxAmount > 0 && minAmount > maxAmount {
		fields["maxAmount"] = "Max amount must be greater than min amount"
	}
	if len(fields) > 0 {
		return &validation.Error{Fields: fields}
	}
	return nil
}
