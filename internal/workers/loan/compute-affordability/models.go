// internal/workers/loan/compute-affordability/models.go
package computeaffordability

import "github.com/shopspring/decimal"

type Input struct {
	NetSalary      decimal.Decimal  `json:"netSalary" validate:"gte=0"`
	TenureDuration int              `json:"tenureDuration" validate:"gte=0,lte=600"`
	LoanAmount     *decimal.Decimal `json:"loanAmount,omitempty" validate:"omitempty,gte=0"`
}

type Output struct {
	MaxLoanAmount       decimal.Decimal `json:"maxLoanAmount"`
	MaxMonthlyRepayment decimal.Decimal `json:"maxMonthlyRepayment"`
	LoanAmount          decimal.Decimal `json:"loanAmount"`
	Clamped             bool            `json:"loanAmountClamped"`
}

const inputSchemaJSON = `{
	"type": "object",
	"required": ["netSalary", "tenureDuration"],
	"definitions": {
		"money": {
			"oneOf": [
				{"type": "number"},
				{"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"}
			]
		}
	},
	"properties": {
		"netSalary": {"$ref": "#/definitions/money"},
		"tenureDuration": {"type": "integer"},
		"loanAmount": {"$ref": "#/definitions/money"}
	}
}`
