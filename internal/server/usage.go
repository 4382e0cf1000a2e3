package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
)

func (s *Server) RecordUsage(c *gin.Context) {
	var req usagedomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.usagesvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) CheckBudget(c *gin.Context) {
	communityID := c.Param("communityId")

	dailyBudget := s.cfg.Triage.DailyBudget
	if raw := c.Query("daily_budget"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		dailyBudget = parsed
	}

	window := s.cfg.Triage.BudgetWindow
	if raw := c.Query("window_ms"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		window = time.Duration(parsed) * time.Millisecond
	}

	verdict := s.gate.Check(c.Request.Context(), communityID, dailyBudget, window)

	c.JSON(http.StatusOK, verdict)
}
