package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gitlab.com/nwaiyar/pocketbank/internal/bankapi"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/money"
)

func (s *Server) listCustomerAccounts(c *gin.Context) {
	accounts, err := s.bank.GetCustomerAccounts(c.Request.Context(), c.Param("customerID"))
	if err != nil {
		if errors.Is(err, bankapi.ErrNotFound) {
			c.JSON(404, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(502, gin.H{"error": "account store unavailable, try again"})
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	c.JSON(200, out)
}

func (s *Server) getAccount(c *gin.Context) {
	account, err := s.bank.GetAccount(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		if errors.Is(err, bankapi.ErrNotFound) {
			c.JSON(404, gin.H{"error": "account not found"})
			return
		}
		c.JSON(502, gin.H{"error": "account store unavailable, try again"})
		return
	}
	c.JSON(200, toAccountResponse(account))
}

type depositRequest struct {
	Medium      string `json:"medium"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) createDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(400, gin.H{"error": "amount must be a positive number"})
		return
	}
	medium := req.Medium
	if medium == "" {
		medium = "balance"
	}

	ctx := c.Request.Context()
	accountID := c.Param("accountID")

	prior, err := s.bank.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, bankapi.ErrNotFound) {
			c.JSON(404, gin.H{"error": "account not found"})
			return
		}
		c.JSON(502, gin.H{"error": "account store unavailable, try again"})
		return
	}

	deposit, err := s.bank.CreateDeposit(ctx, accountID, bankapi.DepositRequest{
		Medium:          medium,
		TransactionDate: money.DateYMD(time.Now()),
		Amount:          amount,
		Description:     req.Description,
	})
	if err != nil {
		c.JSON(502, gin.H{"error": "deposit failed, try again"})
		return
	}

	// The sandbox settles asynchronously; report the balance we could observe.
	// A failed confirmation read degrades the response, not the deposit.
	balance, err := s.bank.PollBalance(ctx, accountID, prior.Balance, s.pollAttempts, s.pollDelay)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("account", logger.MaskAccountID(accountID)).
			Msg("Balance confirmation poll failed after deposit")
	}

	c.JSON(201, gin.H{
		"deposit": deposit,
		"balance": balance.String(),
	})
}

type transferRequest struct {
	PayeeID     string `json:"payee_id" binding:"required"`
	Medium      string `json:"medium"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) createTransfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(400, gin.H{"error": "amount must be a positive number"})
		return
	}
	medium := req.Medium
	if medium == "" {
		medium = "balance"
	}

	ctx := c.Request.Context()
	payerID := c.Param("accountID")

	prior, err := s.bank.GetAccount(ctx, payerID)
	if err != nil {
		if errors.Is(err, bankapi.ErrNotFound) {
			c.JSON(404, gin.H{"error": "account not found"})
			return
		}
		c.JSON(502, gin.H{"error": "account store unavailable, try again"})
		return
	}

	transfer, err := s.bank.CreateTransfer(ctx, payerID, bankapi.TransferRequest{
		Medium:          medium,
		PayeeID:         req.PayeeID,
		TransactionDate: money.DateYMD(time.Now()),
		Amount:          amount,
		Description:     req.Description,
	})
	if err != nil {
		c.JSON(502, gin.H{"error": "transfer failed, try again"})
		return
	}

	balance, err := s.bank.PollBalance(ctx, payerID, prior.Balance, s.pollAttempts, s.pollDelay)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("account", logger.MaskAccountID(payerID)).
			Msg("Balance confirmation poll failed after transfer")
	}

	c.JSON(201, gin.H{
		"transfer": transfer,
		"balance":  balance.String(),
	})
}

func (s *Server) listTransfers(c *gin.Context) {
	transfers, err := s.bank.GetAccountTransfers(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		c.JSON(502, gin.H{"error": "account store unavailable, try again"})
		return
	}
	c.JSON(200, transfers)
}

type purchaseRequest struct {
	MerchantID  string `json:"merchant_id" binding:"required"`
	Medium      string `json:"medium"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) createPurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(400, gin.H{"error": "amount must be a positive number"})
		return
	}
	medium := req.Medium
	if medium == "" {
		medium = "balance"
	}

	purchase, err := s.bank.CreatePurchase(c.Request.Context(), c.Param("accountID"), bankapi.PurchaseRequest{
		MerchantID:   req.MerchantID,
		Medium:       medium,
		PurchaseDate: money.DateYMD(time.Now()),
		Amount:       amount,
		Description:  req.Description,
	})
	if err != nil {
		c.JSON(502, gin.H{"error": "purchase failed, try again"})
		return
	}
	c.JSON(201, purchase)
}

func (s *Server) listPurchases(c *gin.Context) {
	purchases, err := s.bank.GetAccountPurchases(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		c.JSON(502, gin.H{"error": "account store unavailable, try again"})
		return
	}
	c.JSON(200, purchases)
}
