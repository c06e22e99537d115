// Package models defines the domain entities for the banking backend.
package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus represents the lifecycle state of a bill.
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusCompleted BillStatus = "completed"
	BillStatusCancelled BillStatus = "cancelled"
	BillStatusRecurring BillStatus = "recurring"
)

// Bill is a trackable obligation to pay a payee, one-time or recurring.
type Bill struct {
	ID            string
	AccountID     string
	Payee         string
	Nickname      string
	Status        BillStatus
	PaymentAmount decimal.Decimal
	// PaymentDate is a plain YYYY-MM-DD string built from local calendar
	// fields. Callers must reproduce this exact construction.
	PaymentDate   string
	RecurringDate *int
	CreationDate  string
}

// Payment is a single entry in a recurring payment ledger. Immutable once
// appended; cleanup only filters by retention window, never edits an entry.
type Payment struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Month  int             `json:"month"` // 0-based, January = 0
	Year   int             `json:"year"`
	Payee  string          `json:"payee"`
}

// NewPayment builds a payment entry dated at the given time. The ID is
// time-based so entries sort naturally even without the ledger ordering.
func NewPayment(amount decimal.Decimal, payee string, at time.Time) Payment {
	return Payment{
		ID:     strconv.FormatInt(at.UnixMilli(), 10),
		Date:   at,
		Amount: amount,
		Month:  int(at.Month()) - 1,
		Year:   at.Year(),
		Payee:  payee,
	}
}

// BillSnapshot carries the denormalized bill fields copied into a recurring
// payment record. Nil/empty fields are omitted from the stored document.
type BillSnapshot struct {
	Payee         string           `json:"payee,omitempty"`
	RecurringDate *int             `json:"recurringDate,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Nickname      string           `json:"nickname,omitempty"`
}

// RecurringPaymentRecord is the per-user-per-bill append-only payment ledger.
// At most one record exists per (user, bill) pair; the deterministic composite
// document key enforces that.
type RecurringPaymentRecord struct {
	UserID        string           `json:"userId"`
	BillID        string           `json:"billId"`
	Payee         string           `json:"payee,omitempty"`
	RecurringDate *int             `json:"recurringDate,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Nickname      string           `json:"nickname,omitempty"`
	// Payments is stored most-recent-first. The ordering is an invariant of
	// the stored array, not computed at read time.
	Payments        []Payment  `json:"payments"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// LoanType enumerates the products offered on the loans screen.
type LoanType string

const (
	LoanTypeHome          LoanType = "home"
	LoanTypeAuto          LoanType = "auto"
	LoanTypeSmallBusiness LoanType = "small business"
)

// ValidLoanType reports whether t is a known loan product.
func ValidLoanType(t LoanType) bool {
	switch t {
	case LoanTypeHome, LoanTypeAuto, LoanTypeSmallBusiness:
		return true
	}
	return false
}

// LoanStatus is the underwriting outcome.
type LoanStatus string

const (
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusDeclined LoanStatus = "declined"
)

// Loan is created once per request and immutable thereafter.
type Loan struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Type           LoanType   `json:"type"`
	Amount         int        `json:"amount"`
	MonthlyPayment int        `json:"monthlyPayment"`
	TermMonths     int        `json:"termMonths"`
	Status         LoanStatus `json:"status"`
	CreditScore    int        `json:"creditScore"`
	DeclineReason  *string    `json:"declineReason,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Account mirrors the remote account store's account object. The remote
// balance is authoritative; it is never cached across requests.
type Account struct {
	ID         string
	Type       string
	Nickname   string
	Rewards    int
	Balance    decimal.Decimal
	CustomerID string
}

// Address is a customer's mailing address.
type Address struct {
	StreetNumber string `json:"street_number"`
	StreetName   string `json:"street_name"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// Customer mirrors the remote account store's customer object.
type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Address   Address
}
