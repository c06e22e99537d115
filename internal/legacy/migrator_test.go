package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/nwaiyar/pocketbank/internal/docstore"
	"gitlab.com/nwaiyar/pocketbank/internal/recurring"
)

func legacyBlob(bills, paymentsPerBill int) map[string][]map[string]any {
	blob := make(map[string][]map[string]any)
	for b := 0; b < bills; b++ {
		billID := fmt.Sprintf("bill-%d", b)
		for p := 0; p < paymentsPerBill; p++ {
			blob[billID] = append(blob[billID], map[string]any{
				"date":   time.Now().AddDate(0, -p, 0).Format(time.RFC3339),
				"amount": 25.50,
				"payee":  "Old Gym",
			})
		}
	}
	return blob
}

func setupMigrationTest(t *testing.T) (*Migrator, *docstore.Memory, *recurring.Tracker, context.Context) {
	t.Helper()
	store := docstore.NewMemory()
	tracker := recurring.NewTracker(store)
	return NewMigrator(store, tracker), store, tracker, context.Background()
}

func TestMigrator_Run(t *testing.T) {
	t.Run("round-trips N bills with M payments each", func(t *testing.T) {
		migrator, store, tracker, ctx := setupMigrationTest(t)

		require.NoError(t, store.Set(ctx, BlobKey("u1"), legacyBlob(3, 4)))

		result, err := migrator.Run(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, 3, result.MigratedBills)
		require.Equal(t, 12, result.Payments)
		require.Zero(t, result.FailedBills)

		records := tracker.UserRecurringBills(ctx, "u1")
		require.Len(t, records, 3)
		for _, record := range records {
			require.Len(t, record.Payments, 4)
		}

		_, err = store.Get(ctx, BlobKey("u1"))
		require.ErrorIs(t, err, docstore.ErrNotFound, "legacy blob must be gone")
	})

	t.Run("no blob means nothing to do", func(t *testing.T) {
		migrator, _, _, ctx := setupMigrationTest(t)

		result, err := migrator.Run(ctx, "u1")
		require.NoError(t, err)
		require.Zero(t, result.MigratedBills)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		migrator, store, tracker, ctx := setupMigrationTest(t)

		require.NoError(t, store.Set(ctx, BlobKey("u1"), legacyBlob(1, 2)))

		_, err := migrator.Run(ctx, "u1")
		require.NoError(t, err)

		result, err := migrator.Run(ctx, "u1")
		require.NoError(t, err)
		require.Zero(t, result.MigratedBills)

		records := tracker.UserRecurringBills(ctx, "u1")
		require.Len(t, records, 1)
		require.Len(t, records[0].Payments, 2, "history must not be duplicated")
	})

	t.Run("applies defaults for sparse first entries", func(t *testing.T) {
		migrator, store, tracker, ctx := setupMigrationTest(t)

		require.NoError(t, store.Set(ctx, BlobKey("u1"), map[string][]map[string]any{
			"bill-x": {{"date": time.Now().Format(time.RFC3339), "amount": 0}},
		}))

		_, err := migrator.Run(ctx, "u1")
		require.NoError(t, err)

		records := tracker.UserRecurringBills(ctx, "u1")
		require.Len(t, records, 1)
		require.Equal(t, "Migrated Bill", records[0].Payee)
		require.NotNil(t, records[0].RecurringDate)
		require.Equal(t, 1, *records[0].RecurringDate)
	})

	t.Run("migrated entries follow native history invariants", func(t *testing.T) {
		migrator, store, tracker, ctx := setupMigrationTest(t)

		require.NoError(t, store.Set(ctx, BlobKey("u1"), map[string][]map[string]any{
			"bill-x": {
				{"date": time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339), "amount": 10, "payee": "Old Gym"},
			},
		}))

		_, err := migrator.Run(ctx, "u1")
		require.NoError(t, err)

		history := tracker.History(ctx, "u1", "bill-x")
		require.Len(t, history, 1)
		require.Equal(t, 2, history[0].Month, "month derived 0-based like native payments")
		require.Equal(t, 2025, history[0].Year)
		require.NotEmpty(t, history[0].ID)
	})
}

// billFailingStore fails writes for keys mentioning a given bill.
type billFailingStore struct {
	docstore.Store
	failSubstring string
}

func (s billFailingStore) Set(ctx context.Context, key string, doc any) error {
	if strings.Contains(key, s.failSubstring) {
		return errors.New("write rejected")
	}
	return s.Store.Set(ctx, key, doc)
}

func TestMigrator_Run_PartialFailure(t *testing.T) {
	ctx := context.Background()
	memory := docstore.NewMemory()
	failing := billFailingStore{Store: memory, failSubstring: "bill-0"}
	tracker := recurring.NewTracker(failing)
	migrator := NewMigrator(failing, tracker)

	require.NoError(t, memory.Set(ctx, BlobKey("u1"), legacyBlob(3, 2)))

	result, err := migrator.Run(ctx, "u1")
	require.NoError(t, err, "per-bill failures must not abort the run")
	require.Equal(t, 2, result.MigratedBills)
	require.Equal(t, 1, result.FailedBills)

	// One success is enough to consume the whole blob.
	_, err = memory.Get(ctx, BlobKey("u1"))
	require.ErrorIs(t, err, docstore.ErrNotFound)
}
