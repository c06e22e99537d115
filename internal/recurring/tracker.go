// Package recurring owns the per-(user, bill) payment ledgers backed by the
// document store.
//
// The ledger document is read, modified and written back whole; two
// concurrent writers for the same (user, bill) would race last-writer-wins
// and could drop an appended payment. Acceptable for the expected pattern of
// one user pressing one button on one device; revisit before introducing
// concurrent writers.
package recurring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/nwaiyar/pocketbank/internal/docstore"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
)

// DefaultRecentWindowMonths is the default window for RecentPayments.
const DefaultRecentWindowMonths = 12

// retentionMonths is how far back CleanupOldPayments keeps entries.
const retentionMonths = 24

// Tracker manages recurring payment records. Read operations fail soft
// (log and return an empty result); write operations propagate errors so the
// caller can retry or surface them.
type Tracker struct {
	store docstore.Store
}

// NewTracker creates a tracker over the given document store.
func NewTracker(store docstore.Store) *Tracker {
	return &Tracker{store: store}
}

// RecordKey is the deterministic composite key for a (user, bill) ledger.
// It is what enforces at-most-one record per pair.
func RecordKey(userID, billID string) string {
	return "recurring_" + userID + "_" + billID
}

func userPrefix(userID string) string {
	return "recurring_" + userID + "_"
}

// load fetches and decodes a record. found is false when no document exists.
func (t *Tracker) load(ctx context.Context, userID, billID string) (models.RecurringPaymentRecord, bool, error) {
	raw, err := t.store.Get(ctx, RecordKey(userID, billID))
	if errors.Is(err, docstore.ErrNotFound) {
		return models.RecurringPaymentRecord{}, false, nil
	}
	if err != nil {
		return models.RecurringPaymentRecord{}, false, err
	}

	var record models.RecurringPaymentRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.RecurringPaymentRecord{}, false, fmt.Errorf("failed to decode recurring record: %w", err)
	}
	return record, true, nil
}

// Initialize creates the ledger for a (user, bill) pair. It is idempotent:
// when a record already exists it is returned unchanged and the new snapshot
// is ignored. Only non-empty snapshot fields are copied in; absent fields are
// omitted from the document, never stored as null placeholders.
func (t *Tracker) Initialize(
	ctx context.Context,
	userID, billID string,
	snapshot models.BillSnapshot,
) (models.RecurringPaymentRecord, error) {
	existing, found, err := t.load(ctx, userID, billID)
	if err != nil {
		return models.RecurringPaymentRecord{}, fmt.Errorf("failed to initialize recurring record: %w", err)
	}
	if found {
		return existing, nil
	}

	now := time.Now()
	record := models.RecurringPaymentRecord{
		UserID:        userID,
		BillID:        billID,
		Payee:         snapshot.Payee,
		RecurringDate: snapshot.RecurringDate,
		Amount:        snapshot.Amount,
		Nickname:      snapshot.Nickname,
		Payments:      []models.Payment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := t.store.Set(ctx, RecordKey(userID, billID), record); err != nil {
		return models.RecurringPaymentRecord{}, fmt.Errorf("failed to store recurring record: %w", err)
	}
	return record, nil
}

// AddPayment prepends a payment entry to the ledger. When no record exists a
// minimal snapshot is synthesized from the payment itself and initialized
// first, so the call never fails for lack of a record. The stored payment is
// returned with its ID, month and year filled in.
func (t *Tracker) AddPayment(
	ctx context.Context,
	userID, billID string,
	payment models.Payment,
) (models.Payment, error) {
	record, found, err := t.load(ctx, userID, billID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("failed to add payment: %w", err)
	}
	if !found {
		amount := payment.Amount
		record, err = t.Initialize(ctx, userID, billID, models.BillSnapshot{
			Payee:  payment.Payee,
			Amount: &amount,
		})
		if err != nil {
			return models.Payment{}, err
		}
	}

	if payment.Date.IsZero() {
		payment.Date = time.Now()
	}
	if payment.ID == "" {
		payment.ID = strconv.FormatInt(payment.Date.UnixMilli(), 10)
	}
	payment.Month = int(payment.Date.Month()) - 1
	payment.Year = payment.Date.Year()

	// Most-recent-first is an invariant of the stored array.
	record.Payments = append([]models.Payment{payment}, record.Payments...)
	record.LastPaymentDate = &payment.Date
	record.UpdatedAt = time.Now()

	if err := t.store.Set(ctx, RecordKey(userID, billID), record); err != nil {
		return models.Payment{}, fmt.Errorf("failed to store payment: %w", err)
	}
	return payment, nil
}

// History returns the stored payment list verbatim. Lookup failures and
// missing records both yield an empty slice; callers must treat the two
// identically.
func (t *Tracker) History(ctx context.Context, userID, billID string) []models.Payment {
	record, found, err := t.load(ctx, userID, billID)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("user", logger.HashID(userID)).
			Str("bill", billID).
			Msg("Failed to load payment history")
		return []models.Payment{}
	}
	if !found || record.Payments == nil {
		return []models.Payment{}
	}
	return record.Payments
}

// PaidThisMonth reports whether any entry falls in the current calendar month
// and year, local to this process's clock. It is a month/year comparison, not
// a day-count window.
func (t *Tracker) PaidThisMonth(ctx context.Context, userID, billID string) bool {
	now := time.Now()
	for _, p := range t.History(ctx, userID, billID) {
		if p.Date.Year() == now.Year() && p.Date.Month() == now.Month() {
			return true
		}
	}
	return false
}

// RecentPayments filters the history to entries younger than monthsWindow
// months, where a month is approximated as 30 days. The approximation drifts
// near real month lengths of 28-31 days; kept to match the stored history's
// established semantics. A non-positive window defaults to 12.
func (t *Tracker) RecentPayments(ctx context.Context, userID, billID string, monthsWindow int) []models.Payment {
	if monthsWindow <= 0 {
		monthsWindow = DefaultRecentWindowMonths
	}

	now := time.Now()
	recent := []models.Payment{}
	for _, p := range t.History(ctx, userID, billID) {
		ageDays := now.Sub(p.Date).Hours() / 24
		if ageDays/30 <= float64(monthsWindow) {
			recent = append(recent, p)
		}
	}
	return recent
}

// UserRecurringBills returns all of a user's ledgers. No ordering is
// guaranteed. Fails soft like the other reads.
func (t *Tracker) UserRecurringBills(ctx context.Context, userID string) []models.RecurringPaymentRecord {
	docs, err := t.store.List(ctx, userPrefix(userID))
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("user", logger.HashID(userID)).
			Msg("Failed to list recurring records")
		return []models.RecurringPaymentRecord{}
	}

	records := make([]models.RecurringPaymentRecord, 0, len(docs))
	for _, doc := range docs {
		var record models.RecurringPaymentRecord
		if err := json.Unmarshal(doc.Data, &record); err != nil {
			logger.Log.Warn().Err(err).
				Str("key", doc.Key).
				Msg("Skipping undecodable recurring record")
			continue
		}
		records = append(records, record)
	}
	return records
}

// CleanupOldPayments drops entries older than exactly 24 calendar months.
// The record is only written back when the filter removed something.
func (t *Tracker) CleanupOldPayments(ctx context.Context, userID, billID string) error {
	record, found, err := t.load(ctx, userID, billID)
	if err != nil {
		return fmt.Errorf("failed to clean up payments: %w", err)
	}
	if !found {
		return nil
	}

	cutoff := time.Now().AddDate(0, -retentionMonths, 0)
	kept := make([]models.Payment, 0, len(record.Payments))
	for _, p := range record.Payments {
		if !p.Date.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(record.Payments) {
		return nil
	}

	record.Payments = kept
	record.UpdatedAt = time.Now()
	if err := t.store.Set(ctx, RecordKey(userID, billID), record); err != nil {
		return fmt.Errorf("failed to store cleaned record: %w", err)
	}
	return nil
}

// Delete removes the ledger. Deleting an absent record is a success.
func (t *Tracker) Delete(ctx context.Context, userID, billID string) error {
	if err := t.store.Delete(ctx, RecordKey(userID, billID)); err != nil {
		return fmt.Errorf("failed to delete recurring record: %w", err)
	}
	return nil
}
