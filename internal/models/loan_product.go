// internal/models/loan_product.go
package models

import "github.com/shopspring/decimal"

type ClientType string

const ClientTypeStaff ClientType = "STAFF"

// ProductType selects the supporting documents a loan product requires.
// Values outside the declared set are legal and resolve to a default set.
type ProductType string

const (
	ProductPersonalLoan      ProductType = "PERSONAL_LOAN"
	ProductStaffGeneralLoan  ProductType = "STAFF_GENERAL_LOAN"
	ProductStaffSchoolFees   ProductType = "STAFF_SCHOOL_FEES_FACILITY"
	ProductStaffMotorVehicle ProductType = "STAFF_MOTOR_VEHICLE_LOAN"
	ProductStaffMortgages    ProductType = "STAFF_MORTGAGES"
	ProductPensionMortgages  ProductType = "PENSION_MORTGAGES"
)

// LoanProduct is immutable reference data.
type LoanProduct struct {
	ID           string          `json:"id" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description,omitempty"`
	ClientType   ClientType      `json:"clientType" validate:"required"`
	ProductType  ProductType     `json:"productType" validate:"required"`
	CurrencyCode string          `json:"currencyCode"`
	MinAmount    decimal.Decimal `json:"minAmount"`
	MaxAmount    decimal.Decimal `json:"maxAmount"`
}
