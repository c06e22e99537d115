// Package bankapi is a client for the sandbox banking REST API that acts as
// the remote account store. The API is an opaque system of record for
// customers, accounts, bills, purchases, deposits and transfers.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/nwaiyar/pocketbank/internal/models"
)

// ErrNotFound is returned when the API reports no object for the ID.
var ErrNotFound = errors.New("bank API object not found")

// Client is a client for the sandbox banking API. The API key travels as a
// literal query parameter on every request, as the API requires.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a bank API client.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "http://api.nessieisreal.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: trimmed,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s%s?key=%s", c.baseURL, path, url.QueryEscape(c.apiKey))
}

// do performs a request and decodes the response body into out (when non-nil).
// Numeric fields are preserved through json.Number.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bank API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bank API returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode bank API response: %w", err)
	}
	return nil
}

// createEnvelope is the wrapper the API puts around every created object.
type createEnvelope struct {
	Code          int             `json:"code"`
	Message       string          `json:"message"`
	ObjectCreated json.RawMessage `json:"objectCreated"`
}

// create performs a POST and unwraps the objectCreated envelope into out.
func (c *Client) create(ctx context.Context, path string, body, out any) error {
	var envelope createEnvelope
	if err := c.do(ctx, http.MethodPost, path, body, &envelope); err != nil {
		return err
	}
	if len(envelope.ObjectCreated) == 0 {
		return fmt.Errorf("bank API create response missing objectCreated (message: %q)", envelope.Message)
	}

	decoder := json.NewDecoder(bytes.NewReader(envelope.ObjectCreated))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode created object: %w", err)
	}
	return nil
}

// GetCustomer fetches a customer by ID.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (models.Customer, error) {
	var w wireCustomer
	if err := c.do(ctx, http.MethodGet, "/customers/"+customerID, nil, &w); err != nil {
		return models.Customer{}, err
	}
	return w.toModel(), nil
}

// CreateCustomer creates a customer and returns the stored object.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (models.Customer, error) {
	var w wireCustomer
	if err := c.create(ctx, "/customers", req, &w); err != nil {
		return models.Customer{}, err
	}
	return w.toModel(), nil
}

// GetCustomerAccounts lists all accounts belonging to a customer.
func (c *Client) GetCustomerAccounts(ctx context.Context, customerID string) ([]models.Account, error) {
	var ws []wireAccount
	if err := c.do(ctx, http.MethodGet, "/customers/"+customerID+"/accounts", nil, &ws); err != nil {
		return nil, err
	}
	accounts := make([]models.Account, 0, len(ws))
	for _, w := range ws {
		account, err := w.toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// GetAccount fetches a single account. The returned balance is authoritative.
func (c *Client) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	var w wireAccount
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID, nil, &w); err != nil {
		return models.Account{}, err
	}
	return w.toModel()
}

// CreateAccount opens a new account under a customer.
func (c *Client) CreateAccount(ctx context.Context, customerID string, req AccountRequest) (models.Account, error) {
	var w wireAccount
	if err := c.create(ctx, "/customers/"+customerID+"/accounts", req.wire(), &w); err != nil {
		return models.Account{}, err
	}
	return w.toModel()
}

// UpdateAccount mutates account fields through the store's update operation.
func (c *Client) UpdateAccount(ctx context.Context, accountID string, update AccountUpdate) error {
	return c.do(ctx, http.MethodPut, "/accounts/"+accountID, update.wire(), nil)
}

// GetAccountBills lists all bills attached to an account.
func (c *Client) GetAccountBills(ctx context.Context, accountID string) ([]models.Bill, error) {
	var ws []wireBill
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/bills", nil, &ws); err != nil {
		return nil, err
	}
	bills := make([]models.Bill, 0, len(ws))
	for _, w := range ws {
		bill, err := w.toModel()
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

// GetBill fetches a single bill.
func (c *Client) GetBill(ctx context.Context, billID string) (models.Bill, error) {
	var w wireBill
	if err := c.do(ctx, http.MethodGet, "/bills/"+billID, nil, &w); err != nil {
		return models.Bill{}, err
	}
	return w.toModel()
}

// CreateBill creates a bill against an account.
func (c *Client) CreateBill(ctx context.Context, accountID string, req BillRequest) (models.Bill, error) {
	var w wireBill
	if err := c.create(ctx, "/accounts/"+accountID+"/bills", req.wire(), &w); err != nil {
		return models.Bill{}, err
	}
	return w.toModel()
}

// UpdateBill mutates bill fields.
func (c *Client) UpdateBill(ctx context.Context, billID string, update BillUpdate) error {
	return c.do(ctx, http.MethodPut, "/bills/"+billID, update.wire(), nil)
}

// DeleteBill removes a bill from the account store.
func (c *Client) DeleteBill(ctx context.Context, billID string) error {
	return c.do(ctx, http.MethodDelete, "/bills/"+billID, nil, nil)
}

// CreatePurchase records a purchase against an account.
func (c *Client) CreatePurchase(ctx context.Context, accountID string, req PurchaseRequest) (Purchase, error) {
	var w wirePurchase
	if err := c.create(ctx, "/accounts/"+accountID+"/purchases", req.wire(), &w); err != nil {
		return Purchase{}, err
	}
	amount, err := parseAmount(w.Amount)
	if err != nil {
		return Purchase{}, err
	}
	p := w.Purchase
	p.Amount = amount
	return p, nil
}

// GetAccountPurchases lists purchases made from an account.
func (c *Client) GetAccountPurchases(ctx context.Context, accountID string) ([]Purchase, error) {
	var ws []wirePurchase
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/purchases", nil, &ws); err != nil {
		return nil, err
	}
	purchases := make([]Purchase, 0, len(ws))
	for _, w := range ws {
		amount, err := parseAmount(w.Amount)
		if err != nil {
			return nil, err
		}
		p := w.Purchase
		p.Amount = amount
		purchases = append(purchases, p)
	}
	return purchases, nil
}

// CreateDeposit funds an account.
func (c *Client) CreateDeposit(ctx context.Context, accountID string, req DepositRequest) (Deposit, error) {
	var w wireDeposit
	if err := c.create(ctx, "/accounts/"+accountID+"/deposits", req.wire(), &w); err != nil {
		return Deposit{}, err
	}
	amount, err := parseAmount(w.Amount)
	if err != nil {
		return Deposit{}, err
	}
	d := w.Deposit
	d.Amount = amount
	return d, nil
}

// CreateTransfer moves funds from the payer account to the payee account.
func (c *Client) CreateTransfer(ctx context.Context, payerAccountID string, req TransferRequest) (Transfer, error) {
	var w wireTransfer
	if err := c.create(ctx, "/accounts/"+payerAccountID+"/transfers", req.wire(), &w); err != nil {
		return Transfer{}, err
	}
	amount, err := parseAmount(w.Amount)
	if err != nil {
		return Transfer{}, err
	}
	tr := w.Transfer
	tr.Amount = amount
	return tr, nil
}

// GetAccountTransfers lists transfers involving an account.
func (c *Client) GetAccountTransfers(ctx context.Context, accountID string) ([]Transfer, error) {
	var ws []wireTransfer
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/transfers", nil, &ws); err != nil {
		return nil, err
	}
	transfers := make([]Transfer, 0, len(ws))
	for _, w := range ws {
		amount, err := parseAmount(w.Amount)
		if err != nil {
			return nil, err
		}
		tr := w.Transfer
		tr.Amount = amount
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

// PollBalance re-reads an account until its balance moves away from prior,
// waiting delay between attempts. The sandbox settles transactions
// asynchronously, so money movement is confirmed by observation. On
// exhaustion the last observed balance is returned, never an error: a slow
// settlement is not a failure.
func (c *Client) PollBalance(
	ctx context.Context,
	accountID string,
	prior decimal.Decimal,
	attempts int,
	delay time.Duration,
) (decimal.Decimal, error) {
	if attempts <= 0 {
		attempts = 1
	}

	last := prior
	for i := 0; i < attempts; i++ {
		account, err := c.GetAccount(ctx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		last = account.Balance
		if !last.Equal(prior) {
			return last, nil
		}

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(delay):
		}
	}
	return last, nil
}
