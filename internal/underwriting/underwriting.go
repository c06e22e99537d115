// Package underwriting implements the loan approval decision logic. All
// functions are pure: no I/O, no clock, no store access.
package underwriting

import "math"

// monthlyRate is the fixed annual 5% rate applied monthly.
const monthlyRate = 0.05 / 12

// Decision is an underwriting outcome. Reason is empty when approved.
type Decision struct {
	Approved bool
	Reason   string
}

// Decline reasons, part of the client contract.
const (
	ReasonInvalidAmount     = "Invalid amount"
	ReasonInsufficientScore = "Insufficient credit score"
	ReasonAmountTooHigh     = "Amount too high for your credit score"
)

// tier pairs a minimum credit score with the largest amount it unlocks.
// The slice is ordered highest score first; the first matching tier decides,
// so a 820 score with a 90000 amount is judged by the 800 tier and never
// falls through to a lower one.
type tier struct {
	minScore  int
	maxAmount float64
}

var tiers = []tier{
	{800, 100000},
	{750, 75000},
	{700, 50000},
	{650, 25000},
	{600, 10000},
	{550, 5000},
	{500, 2000},
}

// smallLoanMaxAmount is the carve-out ceiling: below-floor credit scores can
// still borrow up to this amount.
const smallLoanMaxAmount = 1500

// creditScoreFloor is the minimum score considered at all.
const creditScoreFloor = 300

// Term returns the loan term in months for the requested amount. A
// non-positive or non-finite amount degenerates to the shortest term rather
// than an error.
func Term(amount float64) int {
	if !(amount > 0) {
		return 6
	}
	switch {
	case amount <= 1000:
		return 6
	case amount <= 5000:
		return 12
	case amount <= 10000:
		return 24
	case amount <= 25000:
		return 36
	case amount <= 50000:
		return 60
	default:
		return 72
	}
}

// MonthlyPayment computes the standard amortized payment for the amount over
// the given number of months at the fixed monthly rate. Returns 0 (never NaN
// or Inf) for non-positive inputs or degenerate math.
func MonthlyPayment(amount float64, months int) float64 {
	if !(amount > 0) || months <= 0 {
		return 0
	}
	denominator := 1 - math.Pow(1+monthlyRate, -float64(months))
	payment := amount * monthlyRate / denominator
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		return 0
	}
	return payment
}

// Evaluate runs the decision table top-down:
//
//  1. invalid amount declines outright
//  2. scores below the floor decline
//  3. small loans are approved even below the 500-score tier
//  4. the ordered tier list decides; the first tier whose score floor is met
//     and whose amount ceiling holds approves
//  5. anything left declines as too large for the score
func Evaluate(amount float64, creditScore int) Decision {
	if !(amount > 0) {
		return Decision{Reason: ReasonInvalidAmount}
	}
	if creditScore < creditScoreFloor {
		return Decision{Reason: ReasonInsufficientScore}
	}
	if creditScore < 500 && amount <= smallLoanMaxAmount {
		return Decision{Approved: true}
	}
	for _, t := range tiers {
		if creditScore >= t.minScore && amount <= t.maxAmount {
			return Decision{Approved: true}
		}
	}
	return Decision{Reason: ReasonAmountTooHigh}
}
