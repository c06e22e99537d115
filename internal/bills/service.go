// Package bills coordinates the bill lifecycle across the remote account
// store and the recurring payment tracker.
//
// State machine per bill: pending moves to completed (payment) or cancelled
// (manual cancel). Recurring bills never move to completed; they accumulate
// payment entries in the tracker while keeping their status. Cancelled is
// terminal short of permanent deletion.
package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.com/nwaiyar/pocketbank/internal/bankapi"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
	"gitlab.com/nwaiyar/pocketbank/internal/recurring"
)

// Validation and lifecycle errors.
var (
	ErrPayeeRequired        = errors.New("payee is required")
	ErrAccountRequired      = errors.New("an account must be selected")
	ErrInvalidAmount        = errors.New("payment amount must be a positive number")
	ErrAlreadyPaidThisMonth = errors.New("bill already paid this month")
	ErrBillFinal            = errors.New("bill is already completed or cancelled")

	// ErrOrphanedHistory reports that the bill was deleted from the account
	// store but its payment ledger could not be removed. The inconsistency is
	// recoverable: the ledger can be deleted on a later attempt.
	ErrOrphanedHistory = errors.New("bill deleted but payment history remains")
)

// AccountStore is the slice of the bank API this service needs.
type AccountStore interface {
	GetBill(ctx context.Context, billID string) (models.Bill, error)
	GetAccountBills(ctx context.Context, accountID string) ([]models.Bill, error)
	CreateBill(ctx context.Context, accountID string, req bankapi.BillRequest) (models.Bill, error)
	UpdateBill(ctx context.Context, billID string, update bankapi.BillUpdate) error
	DeleteBill(ctx context.Context, billID string) error
}

var _ AccountStore = (*bankapi.Client)(nil)

// Service is the bill lifecycle manager.
type Service struct {
	api     AccountStore
	tracker *recurring.Tracker
}

// NewService creates a bill service.
func NewService(api AccountStore, tracker *recurring.Tracker) *Service {
	return &Service{api: api, tracker: tracker}
}

// CreateInput is the user's bill creation form. Amount arrives as the raw
// string the user typed. The recurring day is taken verbatim; range checks on
// new input belong to the HTTP layer so migrated legacy values pass through.
type CreateInput struct {
	AccountID    string
	Payee        string
	Nickname     string
	Amount       string
	PaymentDate  string
	RecurringDay *int
	Recurring    bool
}

// Create validates the input, creates the bill in the account store and, for
// recurring bills, initializes the payment ledger.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (models.Bill, error) {
	if strings.TrimSpace(input.Payee) == "" {
		return models.Bill{}, ErrPayeeRequired
	}
	if input.AccountID == "" {
		return models.Bill{}, ErrAccountRequired
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(input.Amount))
	if err != nil || !amount.IsPositive() {
		return models.Bill{}, ErrInvalidAmount
	}

	status := models.BillStatusPending
	if input.Recurring {
		status = models.BillStatusRecurring
	}

	bill, err := s.api.CreateBill(ctx, input.AccountID, bankapi.BillRequest{
		Status:        status,
		Payee:         strings.TrimSpace(input.Payee),
		Nickname:      input.Nickname,
		PaymentDate:   input.PaymentDate,
		RecurringDate: input.RecurringDay,
		PaymentAmount: amount,
	})
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to create bill: %w", err)
	}

	if input.Recurring {
		_, err := s.tracker.Initialize(ctx, userID, bill.ID, models.BillSnapshot{
			Payee:         bill.Payee,
			RecurringDate: bill.RecurringDate,
			Amount:        &amount,
			Nickname:      bill.Nickname,
		})
		if err != nil {
			// The ledger is lazily created on first payment anyway; the bill
			// itself was created, so don't fail the whole operation.
			logger.Log.Warn().Err(err).
				Str("user", logger.HashID(userID)).
				Str("bill", bill.ID).
				Msg("Failed to initialize recurring ledger at creation")
		}
	}

	return bill, nil
}

// Pay registers a payment against a bill. Paying the same bill twice in one
// calendar month is rejected, not overwritten. Non-recurring bills move to
// completed; recurring bills keep their status and only grow their ledger.
func (s *Service) Pay(ctx context.Context, userID, billID string) (models.Payment, error) {
	bill, err := s.api.GetBill(ctx, billID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("failed to load bill: %w", err)
	}
	if bill.Status == models.BillStatusCompleted || bill.Status == models.BillStatusCancelled {
		return models.Payment{}, ErrBillFinal
	}

	if s.tracker.PaidThisMonth(ctx, userID, billID) {
		return models.Payment{}, ErrAlreadyPaidThisMonth
	}

	payment, err := s.tracker.AddPayment(ctx, userID, billID, models.Payment{
		Amount: bill.PaymentAmount,
		Payee:  bill.Payee,
	})
	if err != nil {
		return models.Payment{}, err
	}

	if bill.Status != models.BillStatusRecurring {
		completed := models.BillStatusCompleted
		if err := s.api.UpdateBill(ctx, billID, bankapi.BillUpdate{Status: &completed}); err != nil {
			return models.Payment{}, fmt.Errorf("payment recorded but status update failed: %w", err)
		}
	}

	return payment, nil
}

// Cancel moves a pending or recurring bill to cancelled.
func (s *Service) Cancel(ctx context.Context, billID string) error {
	bill, err := s.api.GetBill(ctx, billID)
	if err != nil {
		return fmt.Errorf("failed to load bill: %w", err)
	}
	if bill.Status == models.BillStatusCompleted || bill.Status == models.BillStatusCancelled {
		return ErrBillFinal
	}

	cancelled := models.BillStatusCancelled
	if err := s.api.UpdateBill(ctx, billID, bankapi.BillUpdate{Status: &cancelled}); err != nil {
		return fmt.Errorf("failed to cancel bill: %w", err)
	}
	return nil
}

// PermanentDelete removes the bill from the account store and its ledger from
// the document store. The two steps have no atomicity guarantee: when the
// second fails after the first succeeded, the caller gets ErrOrphanedHistory
// and can retry the ledger deletion later.
func (s *Service) PermanentDelete(ctx context.Context, userID, billID string) error {
	if err := s.api.DeleteBill(ctx, billID); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if err := s.tracker.Delete(ctx, userID, billID); err != nil {
		return fmt.Errorf("%w: %v", ErrOrphanedHistory, err)
	}
	return nil
}

// BillStatus is a bill annotated with its paid-this-month flag for display.
type BillStatus struct {
	models.Bill
	PaidThisMonth bool
}

// ListForAccount returns an account's bills annotated with whether each was
// already paid this month.
func (s *Service) ListForAccount(ctx context.Context, userID, accountID string) ([]BillStatus, error) {
	bills, err := s.api.GetAccountBills(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	annotated := make([]BillStatus, 0, len(bills))
	for _, bill := range bills {
		annotated = append(annotated, BillStatus{
			Bill:          bill,
			PaidThisMonth: s.tracker.PaidThisMonth(ctx, userID, bill.ID),
		})
	}
	return annotated, nil
}
