package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gitlab.com/nwaiyar/pocketbank/internal/loans"
	"gitlab.com/nwaiyar/pocketbank/internal/models"
)

type loanRequest struct {
	Type        string  `json:"type" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	CreditScore int     `json:"credit_score"`
}

func (s *Server) submitLoan(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	loan, err := s.loans.Submit(c.Request.Context(), c.Param("userID"), loans.SubmitRequest{
		Type:        models.LoanType(req.Type),
		Amount:      req.Amount,
		CreditScore: req.CreditScore,
	})
	if err != nil {
		if errors.Is(err, loans.ErrInvalidLoanType) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(502, gin.H{"error": "failed to store loan, try again"})
		return
	}

	c.JSON(201, toLoanResponse(loan))
}

func (s *Server) listLoans(c *gin.Context) {
	all := s.loans.List(c.Request.Context(), c.Param("userID"))
	out := make([]loanResponse, 0, len(all))
	for _, loan := range all {
		out = append(out, toLoanResponse(loan))
	}
	c.JSON(200, out)
}
