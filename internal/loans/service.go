// Package loans handles loan submission and retrieval. The underwriting
// decision itself lives in the underwriting package; this service persists
// the outcome.
package loans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/nwaiyar/pocketbank/internal/docstore"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
	"gitlab.com/nwaiyar/pocketbank/internal/underwriting"
)

// ErrInvalidLoanType is returned for an unknown loan product.
var ErrInvalidLoanType = errors.New("invalid loan type")

// SubmitRequest is a loan application.
type SubmitRequest struct {
	Type        models.LoanType
	Amount      float64
	CreditScore int
}

// Service persists loan applications and their underwriting outcomes.
type Service struct {
	store docstore.Store
}

// NewService creates a loan service over the given document store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func loanKey(userID, loanID string) string {
	return "loan_" + userID + "_" + loanID
}

func userPrefix(userID string) string {
	return "loan_" + userID + "_"
}

// Submit underwrites the application and persists the resulting loan record,
// approved or declined. Amount and monthly payment are stored truncated to
// whole currency units. The loan is immutable once stored.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (models.Loan, error) {
	if !models.ValidLoanType(req.Type) {
		return models.Loan{}, ErrInvalidLoanType
	}

	term := underwriting.Term(req.Amount)
	payment := underwriting.MonthlyPayment(req.Amount, term)
	decision := underwriting.Evaluate(req.Amount, req.CreditScore)

	now := time.Now()
	loan := models.Loan{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           req.Type,
		Amount:         int(req.Amount),
		MonthlyPayment: int(payment),
		TermMonths:     term,
		CreditScore:    req.CreditScore,
		CreatedAt:      now,
	}

	if decision.Approved {
		loan.Status = models.LoanStatusApproved
		loan.ApprovedAt = &now
	} else {
		loan.Status = models.LoanStatusDeclined
		reason := decision.Reason
		loan.DeclineReason = &reason
	}

	if err := s.store.Set(ctx, loanKey(userID, loan.ID), loan); err != nil {
		return models.Loan{}, fmt.Errorf("failed to store loan: %w", err)
	}

	if decision.Approved {
		s.applyCreditLimitIncrease(userID, loan)
	}

	return loan, nil
}

// applyCreditLimitIncrease is intentionally a no-op. The remote account store
// exposes no credit-limit mutation, so the increase shown on the cards screen
// has no persistence path yet. Logged so the gap stays visible.
func (s *Service) applyCreditLimitIncrease(userID string, loan models.Loan) {
	logger.Log.Warn().
		Str("user", logger.HashID(userID)).
		Str("loan", loan.ID).
		Int("amount", loan.Amount).
		Msg("Credit limit increase skipped: no remote persistence path")
}

// List returns all of a user's loans. Like other store reads, failures
// degrade to an empty result rather than surfacing to the caller.
func (s *Service) List(ctx context.Context, userID string) []models.Loan {
	docs, err := s.store.List(ctx, userPrefix(userID))
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("user", logger.HashID(userID)).
			Msg("Failed to list loans")
		return []models.Loan{}
	}

	loans := make([]models.Loan, 0, len(docs))
	for _, doc := range docs {
		var loan models.Loan
		if err := json.Unmarshal(doc.Data, &loan); err != nil {
			logger.Log.Warn().Err(err).Str("key", doc.Key).Msg("Skipping undecodable loan record")
			continue
		}
		loans = append(loans, loan)
	}
	return loans
}
