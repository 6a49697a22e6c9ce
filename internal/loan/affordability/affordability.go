// Package affordability computes the largest principal a staff member can
// borrow so that the monthly instalment stays within 70% of net salary.
package affordability

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	AnnualRate     = 0.15
	RepaymentShare = 0.7
)

// AnnuityFactor is the present value of 1 paid monthly for tenure months at
// AnnualRate.
func AnnuityFactor(tenure int) float64 {
	i := AnnualRate / 12
	growth := math.Pow(1+i, float64(tenure))
	return (growth - 1) / (i * growth)
}

// Ceiling returns the affordability ceiling rounded to cents. ok is false when
// salary or tenure is not positive.
func Ceiling(netSalary decimal.Decimal, tenure int) (max decimal.Decimal, ok bool) {
	if !netSalary.IsPositive() || tenure <= 0 {
		return decimal.Zero, false
	}

	maxRepayment := netSalary.Mul(decimal.NewFromFloat(RepaymentShare))
	return maxRepayment.Mul(decimal.NewFromFloat(AnnuityFactor(tenure))).Round(2), true
}

// MaxMonthlyRepayment is the instalment cap for netSalary.
func MaxMonthlyRepayment(netSalary decimal.Decimal) decimal.Decimal {
	return netSalary.Mul(decimal.NewFromFloat(RepaymentShare)).Round(2)
}

// Clamp caps amount at the ceiling. Amounts are never rejected; when the
// ceiling is undefined the amount is returned unchanged.
func Clamp(amount, netSalary decimal.Decimal, tenure int) (decimal.Decimal, bool) {
	ceiling, ok := Ceiling(netSalary, tenure)
	if !ok || amount.LessThanOrEqual(ceiling) {
		return amount, false
	}
	return ceiling, true
}
