package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	"github.com/wardenhq/warden/internal/pipeline"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
)

type createCaseRequest struct {
	Action       string  `json:"action"`
	TargetID     string  `json:"target_id"`
	TargetTag    string  `json:"target_tag"`
	ModeratorID  string  `json:"moderator_id"`
	ModeratorTag string  `json:"moderator_tag"`
	Reason       *string `json:"reason"`
	Duration     *string `json:"duration"`
}

// CreateCase ledgers a manually issued enforcement action. A duration on a
// reversible action also schedules the matching lift.
func (s *Server) CreateCase(c *gin.Context) {
	communityID := c.Param("communityId")

	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var (
		expiresAt *time.Time
		lift      time.Duration
	)
	if req.Duration != nil && *req.Duration != "" {
		parsed, err := pipeline.ParseDuration(*req.Duration)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		lift = parsed
		at := s.clock.Now().Add(parsed)
		expiresAt = &at
	}

	record, err := s.casesvc.CreateCase(c.Request.Context(), casesdomain.CreateCaseRequest{
		CommunityID:  communityID,
		Action:       req.Action,
		TargetID:     req.TargetID,
		TargetTag:    req.TargetTag,
		ModeratorID:  req.ModeratorID,
		ModeratorTag: req.ModeratorTag,
		Reason:       req.Reason,
		Duration:     req.Duration,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if lift > 0 {
		if reversal, ok := reversalAction(record.Action); ok {
			caseID := record.ID
			if _, err := s.actionsvc.Schedule(c.Request.Context(), schedactiondomain.ScheduleRequest{
				CommunityID: communityID,
				TargetID:    record.TargetID,
				Action:      reversal,
				CaseID:      &caseID,
				ExecuteAt:   *expiresAt,
			}); err != nil {
				AbortWithError(c, err)
				return
			}
		}
	}

	c.JSON(http.StatusOK, record)
}

// reversalAction maps an enforcement action to the action that undoes it.
// Warnings and kicks have nothing to undo.
func reversalAction(action string) (string, bool) {
	switch action {
	case casesdomain.ActionMute:
		return schedactiondomain.ActionUnmute, true
	case casesdomain.ActionBan:
		return schedactiondomain.ActionUnban, true
	default:
		return "", false
	}
}

func (s *Server) GetCase(c *gin.Context) {
	communityID := c.Param("communityId")
	caseNumber, err := strconv.ParseInt(c.Param("caseNumber"), 10, 64)
	if err != nil || caseNumber <= 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.casesvc.GetCase(c.Request.Context(), communityID, caseNumber)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) ListCases(c *gin.Context) {
	communityID := c.Param("communityId")
	targetID := c.Query("target_id")
	if targetID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		parsed, err := pipeline.ParseDuration(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		window = parsed
	}

	records, err := s.casesvc.ListCasesForTarget(c.Request.Context(), communityID, targetID, window)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cases": records})
}

type attachLogRequest struct {
	LogMessageID string `json:"log_message_id"`
}

func (s *Server) AttachLogMessage(c *gin.Context) {
	caseID, err := snowflake.ParseString(c.Param("caseId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req attachLogRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LogMessageID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.casesvc.AttachLogReference(c.Request.Context(), caseID, req.LogMessageID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
