package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wardenhq/warden/internal/clock"
	obsmetrics "github.com/wardenhq/warden/internal/observability/metrics"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	"github.com/wardenhq/warden/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("usage.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req usagedomain.RecordRequest) (*usagedomain.UsageRecord, error) {
	communityID := strings.TrimSpace(req.CommunityID)
	if communityID == "" {
		return nil, usagedomain.ErrInvalidCommunity
	}
	callType := strings.TrimSpace(req.CallType)
	if callType == "" {
		return nil, usagedomain.ErrInvalidCallType
	}
	if req.Cost < 0 {
		return nil, usagedomain.ErrInvalidCost
	}

	idempotencyKey := normalizeIdempotencyKey(req.IdempotencyKey)
	if idempotencyKey != nil {
		existing, err := s.findByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	now := s.clock.Now()
	recordedAt := req.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = now
	}

	record := &usagedomain.UsageRecord{
		ID:               s.genID.Generate(),
		CommunityID:      communityID,
		ChannelID:        strings.TrimSpace(req.ChannelID),
		CallType:         callType,
		Model:            req.Model,
		InputTokens:      req.InputTokens,
		OutputTokens:     req.OutputTokens,
		CacheWriteTokens: req.CacheWriteTokens,
		CacheReadTokens:  req.CacheReadTokens,
		Cost:             req.Cost,
		DurationMS:       req.DurationMS,
		ActorID:          req.ActorID,
		SearchCount:      req.SearchCount,
		IdempotencyKey:   idempotencyKey,
		RecordedAt:       recordedAt.UTC(),
		CreatedAt:        now,
	}
	if len(req.Metadata) > 0 {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) && idempotencyKey != nil {
			return s.findByIdempotencyKey(ctx, idempotencyKey)
		}
		return nil, err
	}

	s.metrics.AddUsage(callType, record.Cost)
	return record, nil
}

func (s *Service) SpendSince(ctx context.Context, communityID string, window time.Duration) float64 {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return 0
	}
	if window <= 0 {
		window = usagedomain.DefaultSpendWindow
	}

	cutoff := s.clock.Now().Add(-window)

	var total float64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(cost), 0)
		 FROM usage_records
		 WHERE community_id = ? AND recorded_at >= ?`,
		communityID,
		cutoff,
	).Scan(&total).Error
	if err != nil {
		s.log.Warn("spend lookup failed, treating as zero",
			zap.String("community_id", communityID),
			zap.Error(err),
		)
		return 0
	}
	return total
}

func (s *Service) findByIdempotencyKey(ctx context.Context, key *string) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := s.db.WithContext(ctx).
		Where("idempotency_key = ?", *key).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func normalizeIdempotencyKey(key *string) *string {
	if key == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*key)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
