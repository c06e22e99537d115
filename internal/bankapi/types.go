package bankapi

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.com/nwaiyar/pocketbank/internal/models"
)

// The sandbox API uses Mongo-style "_id" keys and numeric JSON amounts.
// Amounts are decoded through json.Number to avoid float round-trips.

type wireCustomer struct {
	ID        string         `json:"_id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Address   models.Address `json:"address"`
}

func (w wireCustomer) toModel() models.Customer {
	return models.Customer{
		ID:        w.ID,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Address:   w.Address,
	}
}

type wireAccount struct {
	ID         string      `json:"_id"`
	Type       string      `json:"type"`
	Nickname   string      `json:"nickname"`
	Rewards    int         `json:"rewards"`
	Balance    json.Number `json:"balance"`
	CustomerID string      `json:"customer_id"`
}

func (w wireAccount) toModel() (models.Account, error) {
	balance, err := parseAmount(w.Balance)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %s: %w", w.ID, err)
	}
	return models.Account{
		ID:         w.ID,
		Type:       w.Type,
		Nickname:   w.Nickname,
		Rewards:    w.Rewards,
		Balance:    balance,
		CustomerID: w.CustomerID,
	}, nil
}

type wireBill struct {
	ID            string      `json:"_id"`
	Status        string      `json:"status"`
	Payee         string      `json:"payee"`
	Nickname      string      `json:"nickname"`
	PaymentDate   string      `json:"payment_date"`
	RecurringDate *int        `json:"recurring_date"`
	PaymentAmount json.Number `json:"payment_amount"`
	AccountID     string      `json:"account_id"`
	CreationDate  string      `json:"creation_date"`
}

func (w wireBill) toModel() (models.Bill, error) {
	amount, err := parseAmount(w.PaymentAmount)
	if err != nil {
		return models.Bill{}, fmt.Errorf("bill %s: %w", w.ID, err)
	}
	return models.Bill{
		ID:            w.ID,
		AccountID:     w.AccountID,
		Payee:         w.Payee,
		Nickname:      w.Nickname,
		Status:        models.BillStatus(w.Status),
		PaymentAmount: amount,
		PaymentDate:   w.PaymentDate,
		RecurringDate: w.RecurringDate,
		CreationDate:  w.CreationDate,
	}, nil
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", n, err)
	}
	return d, nil
}

// amountNumber renders a decimal as a raw JSON number for request payloads.
func amountNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// CustomerRequest is the payload for creating a customer.
type CustomerRequest struct {
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Address   models.Address `json:"address"`
}

// AccountRequest is the payload for creating an account.
type AccountRequest struct {
	Type     string          `json:"type"`
	Nickname string          `json:"nickname"`
	Rewards  int             `json:"rewards"`
	Balance  decimal.Decimal `json:"-"`
}

func (r AccountRequest) wire() map[string]any {
	return map[string]any{
		"type":     r.Type,
		"nickname": r.Nickname,
		"rewards":  r.Rewards,
		"balance":  amountNumber(r.Balance),
	}
}

// AccountUpdate carries the mutable account fields. Nil fields are omitted.
type AccountUpdate struct {
	Nickname *string
	Balance  *decimal.Decimal
}

func (u AccountUpdate) wire() map[string]any {
	body := map[string]any{}
	if u.Nickname != nil {
		body["nickname"] = *u.Nickname
	}
	if u.Balance != nil {
		body["balance"] = amountNumber(*u.Balance)
	}
	return body
}

// BillRequest is the payload for creating a bill.
type BillRequest struct {
	Status        models.BillStatus
	Payee         string
	Nickname      string
	PaymentDate   string
	RecurringDate *int
	PaymentAmount decimal.Decimal
}

func (r BillRequest) wire() map[string]any {
	body := map[string]any{
		"status":         string(r.Status),
		"payee":          r.Payee,
		"payment_amount": amountNumber(r.PaymentAmount),
	}
	if r.Nickname != "" {
		body["nickname"] = r.Nickname
	}
	if r.PaymentDate != "" {
		body["payment_date"] = r.PaymentDate
	}
	if r.RecurringDate != nil {
		body["recurring_date"] = *r.RecurringDate
	}
	return body
}

// BillUpdate carries the mutable bill fields. Nil fields are omitted.
type BillUpdate struct {
	Status        *models.BillStatus
	Nickname      *string
	PaymentAmount *decimal.Decimal
}

func (u BillUpdate) wire() map[string]any {
	body := map[string]any{}
	if u.Status != nil {
		body["status"] = string(*u.Status)
	}
	if u.Nickname != nil {
		body["nickname"] = *u.Nickname
	}
	if u.PaymentAmount != nil {
		body["payment_amount"] = amountNumber(*u.PaymentAmount)
	}
	return body
}

// Purchase is a card purchase against an account.
type Purchase struct {
	ID           string          `json:"_id"`
	MerchantID   string          `json:"merchant_id"`
	Medium       string          `json:"medium"`
	PurchaseDate string          `json:"purchase_date"`
	Amount       decimal.Decimal `json:"-"`
	Status       string          `json:"status"`
	Description  string          `json:"description"`
	PayerID      string          `json:"payer_id"`
}

type wirePurchase struct {
	Purchase
	Amount json.Number `json:"amount"`
}

// PurchaseRequest is the payload for creating a purchase.
type PurchaseRequest struct {
	MerchantID   string
	Medium       string
	PurchaseDate string
	Amount       decimal.Decimal
	Description  string
}

func (r PurchaseRequest) wire() map[string]any {
	return map[string]any{
		"merchant_id":   r.MerchantID,
		"medium":        r.Medium,
		"purchase_date": r.PurchaseDate,
		"amount":        amountNumber(r.Amount),
		"description":   r.Description,
	}
}

// Deposit is a credit of funds into an account.
type Deposit struct {
	ID              string          `json:"_id"`
	Medium          string          `json:"medium"`
	TransactionDate string          `json:"transaction_date"`
	Status          string          `json:"status"`
	Description     string          `json:"description"`
	PayeeID         string          `json:"payee_id"`
	Amount          decimal.Decimal `json:"-"`
}

type wireDeposit struct {
	Deposit
	Amount json.Number `json:"amount"`
}

// DepositRequest is the payload for creating a deposit.
type DepositRequest struct {
	Medium          string
	TransactionDate string
	Amount          decimal.Decimal
	Description     string
}

func (r DepositRequest) wire() map[string]any {
	return map[string]any{
		"medium":           r.Medium,
		"transaction_date": r.TransactionDate,
		"amount":           amountNumber(r.Amount),
		"description":      r.Description,
	}
}

// Transfer is a movement of funds between two accounts.
type Transfer struct {
	ID              string          `json:"_id"`
	Medium          string          `json:"medium"`
	PayerID         string          `json:"payer_id"`
	PayeeID         string          `json:"payee_id"`
	TransactionDate string          `json:"transaction_date"`
	Status          string          `json:"status"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"-"`
}

type wireTransfer struct {
	Transfer
	Amount json.Number `json:"amount"`
}

// TransferRequest is the payload for creating a transfer from a payer account.
type TransferRequest struct {
	Medium          string
	PayeeID         string
	TransactionDate string
	Amount          decimal.Decimal
	Description     string
}

func (r TransferRequest) wire() map[string]any {
	return map[string]any{
		"medium":           r.Medium,
		"payee_id":         r.PayeeID,
		"transaction_date": r.TransactionDate,
		"amount":           amountNumber(r.Amount),
		"description":      r.Description,
	}
}
