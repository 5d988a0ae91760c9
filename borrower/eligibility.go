package borrower

const (
	escalationCreditFloor = 650
	escalationDebtRatio   = 0.8
)

// EscalationEligible reports whether a borrower may be sent to the credit
// committee: a credit score under 650, any AI flag, or existing debt above
// 80% of income. Zero income with outstanding debt counts as over the ratio.
func EscalationEligible(d Detail) bool {
	if d.CreditScore < escalationCreditFloor || len(d.AIFlags) > 0 {
		return true
	}
	if d.Income <= 0 {
		return d.ExistingLoan > 0
	}
	return float64(d.ExistingLoan)/float64(d.Income) > escalationDebtRatio
}
