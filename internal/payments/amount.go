package payments

import "github.com/shopspring/decimal"

var half = decimal.NewFromFloat(0.5)

// ChargeAmountCents computes the charge for a booking total in major units.
// Deposits take half the total; both paths round half-up after shifting to
// minor units so a 200.00 deposit charges exactly 10000 cents.
func ChargeAmountCents(total decimal.Decimal, depositOnly bool) int64 {
	amount := total
	if depositOnly {
		amount = total.Mul(half)
	}
	return amount.Shift(2).Round(0).IntPart()
}
