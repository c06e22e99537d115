package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/nwaiyar/pocketbank/internal/bankapi"
	"gitlab.com/nwaiyar/pocketbank/internal/bills"
	"gitlab.com/nwaiyar/pocketbank/internal/docstore"
	"gitlab.com/nwaiyar/pocketbank/internal/legacy"
	"gitlab.com/nwaiyar/pocketbank/internal/loans"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
	"gitlab.com/nwaiyar/pocketbank/internal/recurring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBank stands in for the sandbox banking API across the router tests.
// It implements both the Bank interface and bills.AccountStore.
type fakeBank struct {
	accounts map[string]models.Account
	bills    map[string]models.Bill
	nextID   int
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		accounts: map[string]models.Account{
			"a1": {ID: "a1", Type: "Checking", Nickname: "Main", Balance: decimal.NewFromInt(500), CustomerID: "c1"},
		},
		bills: make(map[string]models.Bill),
	}
}

func (f *fakeBank) GetCustomerAccounts(_ context.Context, customerID string) ([]models.Account, error) {
	var out []models.Account
	for _, a := range f.accounts {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBank) GetAccount(_ context.Context, accountID string) (models.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok {
		return models.Account{}, bankapi.ErrNotFound
	}
	return a, nil
}

func (f *fakeBank) CreatePurchase(_ context.Context, _ string, req bankapi.PurchaseRequest) (bankapi.Purchase, error) {
	return bankapi.Purchase{ID: "p1", MerchantID: req.MerchantID, Amount: req.Amount}, nil
}

func (f *fakeBank) GetAccountPurchases(context.Context, string) ([]bankapi.Purchase, error) {
	return []bankapi.Purchase{}, nil
}

func (f *fakeBank) CreateDeposit(_ context.Context, accountID string, req bankapi.DepositRequest) (bankapi.Deposit, error) {
	a := f.accounts[accountID]
	a.Balance = a.Balance.Add(req.Amount)
	f.accounts[accountID] = a
	return bankapi.Deposit{ID: "d1", Amount: req.Amount}, nil
}

func (f *fakeBank) CreateTransfer(_ context.Context, payerID string, req bankapi.TransferRequest) (bankapi.Transfer, error) {
	a := f.accounts[payerID]
	a.Balance = a.Balance.Sub(req.Amount)
	f.accounts[payerID] = a
	return bankapi.Transfer{ID: "t1", PayeeID: req.PayeeID, Amount: req.Amount}, nil
}

func (f *fakeBank) GetAccountTransfers(context.Context, string) ([]bankapi.Transfer, error) {
	return []bankapi.Transfer{}, nil
}

func (f *fakeBank) PollBalance(ctx context.Context, accountID string, _ decimal.Decimal, _ int, _ time.Duration) (decimal.Decimal, error) {
	a, err := f.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance, nil
}

func (f *fakeBank) GetBill(_ context.Context, billID string) (models.Bill, error) {
	b, ok := f.bills[billID]
	if !ok {
		return models.Bill{}, bankapi.ErrNotFound
	}
	return b, nil
}

func (f *fakeBank) GetAccountBills(_ context.Context, accountID string) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range f.bills {
		if b.AccountID == accountID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBank) CreateBill(_ context.Context, accountID string, req bankapi.BillRequest) (models.Bill, error) {
	f.nextID++
	b := models.Bill{
		ID:            "bill-" + strconv.Itoa(f.nextID),
		AccountID:     accountID,
		Payee:         req.Payee,
		Nickname:      req.Nickname,
		Status:        req.Status,
		PaymentAmount: req.PaymentAmount,
		PaymentDate:   req.PaymentDate,
		RecurringDate: req.RecurringDate,
	}
	f.bills[b.ID] = b
	return b, nil
}

func (f *fakeBank) UpdateBill(_ context.Context, billID string, update bankapi.BillUpdate) error {
	b, ok := f.bills[billID]
	if !ok {
		return bankapi.ErrNotFound
	}
	if update.Status != nil {
		b.Status = *update.Status
	}
	f.bills[billID] = b
	return nil
}

func (f *fakeBank) DeleteBill(_ context.Context, billID string) error {
	delete(f.bills, billID)
	return nil
}

func setupRouter(t *testing.T) (*gin.Engine, *fakeBank, docstore.Store) {
	t.Helper()
	bank := newFakeBank()
	store := docstore.NewMemory()
	tracker := recurring.NewTracker(store)
	router := NewRouter(
		bank,
		bills.NewService(bank, tracker),
		tracker,
		loans.NewService(store),
		legacy.NewMigrator(store, tracker),
		Options{PollAttempts: 1, PollDelay: time.Millisecond},
	)
	return router, bank, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _, _ := setupRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, 200, rec.Code)
}

func TestCreateBill(t *testing.T) {
	t.Run("rejects recurring day outside 1-31", func(t *testing.T) {
		router, bank, _ := setupRouter(t)
		day := 32
		rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/bills", gin.H{
			"account_id": "a1", "payee": "Gym", "amount": "25", "recurring_day": day, "recurring": true,
		})
		require.Equal(t, 400, rec.Code)
		require.Empty(t, bank.bills)
	})

	t.Run("rejects missing payee before touching the store", func(t *testing.T) {
		router, bank, _ := setupRouter(t)
		rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/bills", gin.H{
			"account_id": "a1", "amount": "25",
		})
		require.Equal(t, 400, rec.Code)
		require.Empty(t, bank.bills)
	})

	t.Run("creates a recurring bill with defaulted payment date", func(t *testing.T) {
		router, _, _ := setupRouter(t)
		rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/bills", gin.H{
			"account_id": "a1", "payee": "Gym", "amount": "25.50", "recurring_day": 15, "recurring": true,
		})
		require.Equal(t, 201, rec.Code)

		var resp billResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "recurring", resp.Status)
		require.Equal(t, "25.50", resp.AmountDisplay)
		require.Equal(t, time.Now().Format("2006-01-02"), resp.PaymentDate)
	})
}

func TestPayBill(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/bills", gin.H{
		"account_id": "a1", "payee": "Gym", "amount": "25", "recurring": true,
	})
	require.Equal(t, 201, rec.Code)
	var created billResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/v1/users/u1/bills/"+created.ID+"/pay", nil)
	require.Equal(t, 200, rec.Code)

	// Same calendar month: rejected, not overwritten.
	rec = doJSON(t, router, http.MethodPost, "/v1/users/u1/bills/"+created.ID+"/pay", nil)
	require.Equal(t, 409, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/users/u1/bills/missing/pay", nil)
	require.Equal(t, 404, rec.Code)
}

func TestListAccountBills(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/bills", gin.H{
		"account_id": "a1", "payee": "Gym", "amount": "25", "recurring": true,
	})
	require.Equal(t, 201, rec.Code)
	var created billResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/v1/users/u1/bills/"+created.ID+"/pay", nil)
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/a1/bills?user_id=u1", nil)
	require.Equal(t, 200, rec.Code)

	var listed []billResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.True(t, listed[0].PaidThisMonth)
}

func TestRecurringEndpoints(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/bills", gin.H{
		"account_id": "a1", "payee": "Gym", "amount": "25", "recurring": true,
	})
	require.Equal(t, 201, rec.Code)
	var created billResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/v1/users/u1/bills/"+created.ID+"/pay", nil)
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/u1/recurring", nil)
	require.Equal(t, 200, rec.Code)
	var records []models.RecurringPaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/u1/recurring/"+created.ID+"/history", nil)
	require.Equal(t, 200, rec.Code)
	var history []paymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/u1/recurring/"+created.ID+"/recent?months=6", nil)
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/u1/recurring/"+created.ID+"/recent?months=six", nil)
	require.Equal(t, 400, rec.Code)
}

func TestLoanEndpoints(t *testing.T) {
	router, _, _ := setupRouter(t)

	t.Run("approves and reports no credit limit movement", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/loans", gin.H{
			"type": "auto", "amount": 1200, "credit_score": 650,
		})
		require.Equal(t, 201, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "approved", resp["status"])
		require.Equal(t, false, resp["credit_limit_applied"])
		require.Equal(t, float64(12), resp["termMonths"])
	})

	t.Run("rejects unknown loan type", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/loans", gin.H{
			"type": "yacht", "amount": 1200, "credit_score": 800,
		})
		require.Equal(t, 400, rec.Code)
	})

	t.Run("lists persisted loans", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users/u1/loans", nil)
		require.Equal(t, 200, rec.Code)
		var listed []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		require.Len(t, listed, 1)
	})
}

func TestMigrateEndpoint(t *testing.T) {
	router, _, store := setupRouter(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, legacy.BlobKey("u1"), map[string][]map[string]any{
		"old-bill": {
			{"date": time.Now().Format(time.RFC3339), "amount": 30, "payee": "Old Gym"},
			{"date": time.Now().AddDate(0, -1, 0).Format(time.RFC3339), "amount": 30, "payee": "Old Gym"},
		},
	}))

	rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/migrate", nil)
	require.Equal(t, 200, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp["migrated_bills"])
	require.Equal(t, 2, resp["payments"])
}

func TestDepositEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/accounts/a1/deposits", gin.H{
		"amount": "100", "description": "payday",
	})
	require.Equal(t, 201, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "600", resp["balance"])

	rec = doJSON(t, router, http.MethodPost, "/v1/accounts/a1/deposits", gin.H{
		"amount": "-100",
	})
	require.Equal(t, 400, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/accounts/missing/deposits", gin.H{
		"amount": "100",
	})
	require.Equal(t, 404, rec.Code)
}

// pollFailingBank fails every balance confirmation read.
type pollFailingBank struct {
	*fakeBank
}

func (b pollFailingBank) PollBalance(context.Context, string, decimal.Decimal, int, time.Duration) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("account store unreachable")
}

func TestDepositEndpoint_PollFailure(t *testing.T) {
	bank := pollFailingBank{fakeBank: newFakeBank()}
	store := docstore.NewMemory()
	tracker := recurring.NewTracker(store)
	router := NewRouter(
		bank,
		bills.NewService(bank, tracker),
		tracker,
		loans.NewService(store),
		legacy.NewMigrator(store, tracker),
		Options{PollAttempts: 1, PollDelay: time.Millisecond},
	)

	// The deposit went through; a failed confirmation read must not undo it.
	rec := doJSON(t, router, http.MethodPost, "/v1/accounts/a1/deposits", gin.H{
		"amount": "100",
	})
	require.Equal(t, 201, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "0", resp["balance"])
}

func TestTransferEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/accounts/a1/transfers", gin.H{
		"payee_id": "a2", "amount": "50",
	})
	require.Equal(t, 201, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "450", resp["balance"])
}

func TestAccountEndpoints(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/customers/c1/accounts", nil)
	require.Equal(t, 200, rec.Code)
	var accounts []accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	require.Equal(t, "500.00", accounts[0].BalanceDisplay)

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/missing", nil)
	require.Equal(t, 404, rec.Code)
}
