package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardenhq/warden/internal/triage"
)

type evaluateRequest struct {
	ChannelID string           `json:"channel_id"`
	Messages  []triage.Message `json:"messages"`
}

func (s *Server) Evaluate(c *gin.Context) {
	communityID := c.Param("communityId")

	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if len(req.Messages) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.pipeline.Evaluate(c.Request.Context(), communityID, req.ChannelID, req.Messages)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
