package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) listRecurring(c *gin.Context) {
	// Tracker reads degrade to empty internally, so this never 5xxes.
	records := s.tracker.UserRecurringBills(c.Request.Context(), c.Param("userID"))
	c.JSON(200, records)
}

func (s *Server) paymentHistory(c *gin.Context) {
	history := s.tracker.History(c.Request.Context(), c.Param("userID"), c.Param("billID"))
	c.JSON(200, toPaymentResponses(history))
}

func (s *Server) recentPayments(c *gin.Context) {
	months := 0
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(400, gin.H{"error": "months must be an integer"})
			return
		}
		months = parsed
	}

	recent := s.tracker.RecentPayments(c.Request.Context(), c.Param("userID"), c.Param("billID"), months)
	c.JSON(200, toPaymentResponses(recent))
}
