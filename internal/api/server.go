// Package api exposes the backend over HTTP for the mobile clients.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gitlab.com/nwaiyar/pocketbank/internal/bankapi"
	"gitlab.com/nwaiyar/pocketbank/internal/bills"
	"gitlab.com/nwaiyar/pocketbank/internal/legacy"
	"gitlab.com/nwaiyar/pocketbank/internal/loans"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
	"gitlab.com/nwaiyar/pocketbank/internal/recurring"
)

// Bank is the slice of the account store the HTTP layer calls directly.
// Bill operations go through the bills service instead.
type Bank interface {
	GetCustomerAccounts(ctx context.Context, customerID string) ([]models.Account, error)
	GetAccount(ctx context.Context, accountID string) (models.Account, error)
	CreatePurchase(ctx context.Context, accountID string, req bankapi.PurchaseRequest) (bankapi.Purchase, error)
	GetAccountPurchases(ctx context.Context, accountID string) ([]bankapi.Purchase, error)
	CreateDeposit(ctx context.Context, accountID string, req bankapi.DepositRequest) (bankapi.Deposit, error)
	CreateTransfer(ctx context.Context, payerAccountID string, req bankapi.TransferRequest) (bankapi.Transfer, error)
	GetAccountTransfers(ctx context.Context, accountID string) ([]bankapi.Transfer, error)
	PollBalance(ctx context.Context, accountID string, prior decimal.Decimal, attempts int, delay time.Duration) (decimal.Decimal, error)
}

var _ Bank = (*bankapi.Client)(nil)

// Server holds the services behind the HTTP handlers.
type Server struct {
	bank     Bank
	bills    *bills.Service
	tracker  *recurring.Tracker
	loans    *loans.Service
	migrator *legacy.Migrator

	pollAttempts int
	pollDelay    time.Duration
}

// Options configures balance polling after money movement.
type Options struct {
	PollAttempts int
	PollDelay    time.Duration
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(
	bank Bank,
	billSvc *bills.Service,
	tracker *recurring.Tracker,
	loanSvc *loans.Service,
	migrator *legacy.Migrator,
	opts Options,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors())
	r.Use(requestLogger())

	s := &Server{
		bank:         bank,
		bills:        billSvc,
		tracker:      tracker,
		loans:        loanSvc,
		migrator:     migrator,
		pollAttempts: opts.PollAttempts,
		pollDelay:    opts.PollDelay,
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	v1 := r.Group("/v1")
	{
		v1.GET("/customers/:customerID/accounts", s.listCustomerAccounts)
		v1.GET("/accounts/:accountID", s.getAccount)
		v1.GET("/accounts/:accountID/bills", s.listAccountBills)

		v1.POST("/accounts/:accountID/deposits", s.createDeposit)
		v1.POST("/accounts/:accountID/transfers", s.createTransfer)
		v1.GET("/accounts/:accountID/transfers", s.listTransfers)
		v1.POST("/accounts/:accountID/purchases", s.createPurchase)
		v1.GET("/accounts/:accountID/purchases", s.listPurchases)

		v1.POST("/users/:userID/bills", s.createBill)
		v1.POST("/users/:userID/bills/:billID/pay", s.payBill)
		v1.POST("/users/:userID/bills/:billID/cancel", s.cancelBill)
		v1.DELETE("/users/:userID/bills/:billID", s.deleteBill)

		v1.GET("/users/:userID/recurring", s.listRecurring)
		v1.GET("/users/:userID/recurring/:billID/history", s.paymentHistory)
		v1.GET("/users/:userID/recurring/:billID/recent", s.recentPayments)

		v1.POST("/users/:userID/loans", s.submitLoan)
		v1.GET("/users/:userID/loans", s.listLoans)

		v1.POST("/users/:userID/migrate", s.migrate)
	}

	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request")
	}
}
