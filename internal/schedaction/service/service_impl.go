package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wardenhq/warden/internal/clock"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	"github.com/wardenhq/warden/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	actionrepo repository.Repository[schedactiondomain.ScheduledAction]
}

func NewService(p ServiceParam) schedactiondomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("schedaction.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		actionrepo: repository.ProvideStore[schedactiondomain.ScheduledAction](p.DB),
	}
}

func (s *Service) Schedule(ctx context.Context, req schedactiondomain.ScheduleRequest) (*schedactiondomain.ScheduledAction, error) {
	if strings.TrimSpace(req.CommunityID) == "" {
		return nil, schedactiondomain.ErrInvalidCommunity
	}
	if strings.TrimSpace(req.TargetID) == "" {
		return nil, schedactiondomain.ErrInvalidTarget
	}
	if strings.TrimSpace(req.Action) == "" {
		return nil, schedactiondomain.ErrInvalidAction
	}

	record := &schedactiondomain.ScheduledAction{
		ID:          s.genID.Generate(),
		CommunityID: strings.TrimSpace(req.CommunityID),
		TargetID:    strings.TrimSpace(req.TargetID),
		Action:      strings.TrimSpace(req.Action),
		CaseID:      req.CaseID,
		ExecuteAt:   req.ExecuteAt,
		CreatedAt:   s.clock.Now(),
	}
	if record.ExecuteAt.IsZero() {
		record.ExecuteAt = record.CreatedAt
	}

	if err := s.actionrepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info("action scheduled",
		zap.String("community_id", record.CommunityID),
		zap.String("target_id", record.TargetID),
		zap.String("action", record.Action),
		zap.Time("execute_at", record.ExecuteAt),
	)
	return record, nil
}

func (s *Service) Due(ctx context.Context, now time.Time, limit int) ([]*schedactiondomain.ScheduledAction, error) {
	return s.actionrepo.Find(ctx, &schedactiondomain.ScheduledAction{},
		repository.Where("executed = ? AND execute_at <= ?", false, now),
		repository.OrderBy("execute_at ASC"),
		repository.Limit(limit),
	)
}

func (s *Service) MarkExecuted(ctx context.Context, id snowflake.ID) error {
	now := s.clock.Now()
	result := s.db.WithContext(ctx).
		Model(&schedactiondomain.ScheduledAction{}).
		Where("id = ? AND executed = ?", id, false).
		Updates(map[string]any{"executed": true, "executed_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// distinguish already-executed from missing
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&schedactiondomain.ScheduledAction{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return schedactiondomain.ErrActionNotFound
		}
	}
	return nil
}
