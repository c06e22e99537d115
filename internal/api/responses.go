package api

import (
	"time"

	"gitlab.com/nwaiyar/pocketbank/internal/bills"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
	"gitlab.com/nwaiyar/pocketbank/internal/money"
)

// Wire DTOs. Amounts travel as exact decimal strings plus a pre-formatted
// display variant so the clients never do money math or locale formatting.

type accountResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Nickname       string `json:"nickname"`
	Rewards        int    `json:"rewards"`
	Balance        string `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
	CustomerID     string `json:"customer_id"`
}

func toAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Type:           a.Type,
		Nickname:       a.Nickname,
		Rewards:        a.Rewards,
		Balance:        a.Balance.String(),
		BalanceDisplay: money.Format(a.Balance),
		CustomerID:     a.CustomerID,
	}
}

type billResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	Payee         string `json:"payee"`
	Nickname      string `json:"nickname,omitempty"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	PaymentDate   string `json:"payment_date,omitempty"`
	RecurringDate *int   `json:"recurring_date,omitempty"`
	PaidThisMonth bool   `json:"paid_this_month"`
}

func toBillResponse(b models.Bill, paidThisMonth bool) billResponse {
	return billResponse{
		ID:            b.ID,
		AccountID:     b.AccountID,
		Payee:         b.Payee,
		Nickname:      b.Nickname,
		Status:        string(b.Status),
		Amount:        b.PaymentAmount.String(),
		AmountDisplay: money.Format(b.PaymentAmount),
		PaymentDate:   b.PaymentDate,
		RecurringDate: b.RecurringDate,
		PaidThisMonth: paidThisMonth,
	}
}

func toBillResponses(annotated []bills.BillStatus) []billResponse {
	out := make([]billResponse, 0, len(annotated))
	for _, b := range annotated {
		out = append(out, toBillResponse(b.Bill, b.PaidThisMonth))
	}
	return out
}

type paymentResponse struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Month         int    `json:"month"`
	Year          int    `json:"year"`
	Payee         string `json:"payee"`
}

func toPaymentResponses(payments []models.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentResponse{
			ID:            p.ID,
			Date:          p.Date.Format(time.RFC3339),
			Amount:        p.Amount.String(),
			AmountDisplay: money.Format(p.Amount),
			Month:         p.Month,
			Year:          p.Year,
			Payee:         p.Payee,
		})
	}
	return out
}

type loanResponse struct {
	models.Loan
	// CreditLimitApplied is always false: approval does not yet move a
	// credit limit anywhere.
	CreditLimitApplied bool `json:"credit_limit_applied"`
}

func toLoanResponse(l models.Loan) loanResponse {
	return loanResponse{Loan: l, CreditLimitApplied: false}
}
