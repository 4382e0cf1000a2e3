package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/pkg/db"
	"github.com/wardenhq/warden/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxAllocationRetries bounds how often a case-number race is retried
// before the conflict is surfaced to the caller.
const maxAllocationRetries = 5

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	caserepo repository.Repository[casesdomain.ModerationCase]
}

func NewService(p ServiceParam) casesdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("cases.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		caserepo: repository.ProvideStore[casesdomain.ModerationCase](p.DB),
	}
}

func (s *Service) CreateCase(ctx context.Context, req casesdomain.CreateCaseRequest) (*casesdomain.ModerationCase, error) {
	communityID := strings.TrimSpace(req.CommunityID)
	if communityID == "" {
		return nil, casesdomain.ErrInvalidCommunity
	}
	if strings.TrimSpace(req.Action) == "" {
		return nil, casesdomain.ErrInvalidAction
	}
	if strings.TrimSpace(req.TargetID) == "" {
		return nil, casesdomain.ErrInvalidTarget
	}
	if strings.TrimSpace(req.ModeratorID) == "" {
		return nil, casesdomain.ErrInvalidModerator
	}

	var lastErr error
	for attempt := 0; attempt < maxAllocationRetries; attempt++ {
		record, err := s.tryInsert(ctx, communityID, req)
		if err == nil {
			s.log.Info("case created",
				zap.String("community_id", communityID),
				zap.Int64("case_number", record.CaseNumber),
				zap.String("action", record.Action),
				zap.String("target_id", record.TargetID),
			)
			return record, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		// another allocation won the number; read again and retry
		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts: %v",
		casesdomain.ErrAllocationConflict, maxAllocationRetries, lastErr)
}

// tryInsert performs one allocation attempt: read the community's highest
// number and insert with the successor. The unique index on
// (community_id, case_number) serializes concurrent winners.
func (s *Service) tryInsert(ctx context.Context, communityID string, req casesdomain.CreateCaseRequest) (*casesdomain.ModerationCase, error) {
	record := &casesdomain.ModerationCase{
		ID:           s.genID.Generate(),
		CommunityID:  communityID,
		Action:       strings.TrimSpace(req.Action),
		TargetID:     strings.TrimSpace(req.TargetID),
		TargetTag:    req.TargetTag,
		ModeratorID:  strings.TrimSpace(req.ModeratorID),
		ModeratorTag: req.ModeratorTag,
		Reason:       req.Reason,
		Duration:     req.Duration,
		ExpiresAt:    req.ExpiresAt,
		CreatedAt:    s.clock.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var highest int64
		if err := tx.Raw(
			`SELECT COALESCE(MAX(case_number), 0)
			 FROM moderation_cases
			 WHERE community_id = ?`,
			communityID,
		).Scan(&highest).Error; err != nil {
			return err
		}
		record.CaseNumber = highest + 1
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) AttachLogReference(ctx context.Context, caseID snowflake.ID, logMessageID string) error {
	logMessageID = strings.TrimSpace(logMessageID)
	if logMessageID == "" {
		return nil
	}

	// write only when the value changes; mysql reports changed rows, not
	// matched rows, so an unconditional same-value update would look like
	// a miss there
	result := s.db.WithContext(ctx).
		Model(&casesdomain.ModerationCase{}).
		Where("id = ? AND (log_message_id IS NULL OR log_message_id <> ?)", caseID, logMessageID).
		Update("log_message_id", logMessageID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// either a same-value no-op or the case is gone
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&casesdomain.ModerationCase{}).
			Where("id = ?", caseID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return casesdomain.ErrCaseNotFound
		}
	}
	return nil
}

func (s *Service) GetCase(ctx context.Context, communityID string, caseNumber int64) (*casesdomain.ModerationCase, error) {
	record, err := s.caserepo.FindOne(ctx, &casesdomain.ModerationCase{
		CommunityID: strings.TrimSpace(communityID),
		CaseNumber:  caseNumber,
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, casesdomain.ErrCaseNotFound
	}
	return record, nil
}

func (s *Service) ListCasesForTarget(ctx context.Context, communityID, targetID string, window time.Duration) ([]*casesdomain.ModerationCase, error) {
	opts := []repository.QueryOption{
		repository.OrderBy("created_at DESC, case_number DESC"),
	}
	if window > 0 {
		opts = append(opts, repository.Where("created_at >= ?", s.clock.Now().Add(-window)))
	}

	return s.caserepo.Find(ctx, &casesdomain.ModerationCase{
		CommunityID: strings.TrimSpace(communityID),
		TargetID:    strings.TrimSpace(targetID),
	}, opts...)
}
