package api

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) migrate(c *gin.Context) {
	result, err := s.migrator.Run(c.Request.Context(), c.Param("userID"))
	if err != nil {
		c.JSON(502, gin.H{"error": "migration incomplete, try again"})
		return
	}
	c.JSON(200, gin.H{
		"migrated_bills": result.MigratedBills,
		"failed_bills":   result.FailedBills,
		"payments":       result.Payments,
	})
}
