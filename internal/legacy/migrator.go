// Package legacy backfills recurring payment ledgers from the flat-file
// history the old app versions kept on the device.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/nwaiyar/pocketbank/internal/docstore"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
	"gitlab.com/nwaiyar/pocketbank/internal/recurring"
)

// Defaults for legacy entries missing snapshot fields.
const (
	defaultPayee        = "Migrated Bill"
	defaultRecurringDay = 1
)

// BlobKey is the document key holding a user's legacy payment map.
func BlobKey(userID string) string {
	return "legacy_payments_" + userID
}

// entry is one payment-like record in the legacy blob.
type entry struct {
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Payee         string          `json:"payee"`
	Nickname      string          `json:"nickname"`
	RecurringDate *int            `json:"recurringDate"`
}

// Result summarizes a migration run.
type Result struct {
	MigratedBills int
	FailedBills   int
	Payments      int
}

// Migrator moves legacy history into the recurring tracker.
type Migrator struct {
	store   docstore.Store
	tracker *recurring.Tracker
}

// NewMigrator creates a migrator.
func NewMigrator(store docstore.Store, tracker *recurring.Tracker) *Migrator {
	return &Migrator{store: store, tracker: tracker}
}

// Run migrates a user's legacy blob, if present. The run is gated on the
// blob's existence, so repeated calls are no-ops once it has been consumed.
// Each legacy entry is replayed through the tracker's own AddPayment path so
// migrated history obeys the same invariants as native history. Per-bill
// failures are logged and skipped; when at least one bill migrated, the whole
// blob is deleted (there is no partial deletion of only the moved bills).
func (m *Migrator) Run(ctx context.Context, userID string) (Result, error) {
	raw, err := m.store.Get(ctx, BlobKey(userID))
	if errors.Is(err, docstore.ErrNotFound) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to read legacy blob: %w", err)
	}

	var blob map[string][]entry
	if err := json.Unmarshal(raw, &blob); err != nil {
		return Result{}, fmt.Errorf("failed to decode legacy blob: %w", err)
	}

	billIDs := make([]string, 0, len(blob))
	for billID := range blob {
		billIDs = append(billIDs, billID)
	}
	sort.Strings(billIDs)

	var result Result
	for _, billID := range billIDs {
		entries := blob[billID]
		if len(entries) == 0 {
			continue
		}

		moved, err := m.migrateBill(ctx, userID, billID, entries)
		result.Payments += moved
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("user", logger.HashID(userID)).
				Str("bill", billID).
				Msg("Failed to migrate legacy bill, continuing")
			result.FailedBills++
			continue
		}
		result.MigratedBills++
	}

	if result.MigratedBills > 0 {
		if err := m.store.Delete(ctx, BlobKey(userID)); err != nil {
			return result, fmt.Errorf("migration succeeded but legacy blob removal failed: %w", err)
		}
	}

	return result, nil
}

// migrateBill initializes the ledger from the first legacy entry and replays
// every entry as a live payment. Returns how many payments were appended.
func (m *Migrator) migrateBill(ctx context.Context, userID, billID string, entries []entry) (int, error) {
	first := entries[0]

	payee := first.Payee
	if payee == "" {
		payee = defaultPayee
	}
	day := defaultRecurringDay
	if first.RecurringDate != nil {
		day = *first.RecurringDate
	}
	amount := first.Amount

	_, err := m.tracker.Initialize(ctx, userID, billID, models.BillSnapshot{
		Payee:         payee,
		RecurringDate: &day,
		Amount:        &amount,
		Nickname:      first.Nickname,
	})
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, e := range entries {
		payment := models.Payment{
			Amount: e.Amount,
			Payee:  e.Payee,
		}
		if payment.Payee == "" {
			payment.Payee = payee
		}
		if e.Date != "" {
			date, parseErr := time.Parse(time.RFC3339, e.Date)
			if parseErr != nil {
				logger.Log.Warn().
					Str("bill", billID).
					Str("date", e.Date).
					Msg("Skipping legacy entry with unparseable date")
				continue
			}
			payment.Date = date
		}

		if _, err := m.tracker.AddPayment(ctx, userID, billID, payment); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
