package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenhq/warden/internal/clock"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, clk clock.Clock) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usagedomain.UsageRecord{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
	})
	return svc.(*Service), db
}

func TestRecord_Validation(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	tests := []struct {
		name string
		req  usagedomain.RecordRequest
		want error
	}{
		{
			name: "missing community",
			req:  usagedomain.RecordRequest{CallType: usagedomain.CallTypeTriage},
			want: usagedomain.ErrInvalidCommunity,
		},
		{
			name: "missing call type",
			req:  usagedomain.RecordRequest{CommunityID: "g1"},
			want: usagedomain.ErrInvalidCallType,
		},
		{
			name: "negative cost",
			req:  usagedomain.RecordRequest{CommunityID: "g1", CallType: usagedomain.CallTypeTriage, Cost: -1},
			want: usagedomain.ErrInvalidCost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRecord_IdempotencyKeyDedupe(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	svc, db := newTestService(t, clk)
	ctx := context.Background()

	key := "ingest-abc"
	first, err := svc.Record(ctx, usagedomain.RecordRequest{
		CommunityID:    "g1",
		CallType:       usagedomain.CallTypeTriage,
		Cost:           0.25,
		IdempotencyKey: &key,
	})
	require.NoError(t, err)

	second, err := svc.Record(ctx, usagedomain.RecordRequest{
		CommunityID:    "g1",
		CallType:       usagedomain.CallTypeTriage,
		Cost:           0.25,
		IdempotencyKey: &key,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&usagedomain.UsageRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSpendSince_SumsWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	for _, rec := range []usagedomain.RecordRequest{
		{CommunityID: "g1", CallType: usagedomain.CallTypeTriage, Cost: 1.50, RecordedAt: now.Add(-time.Hour)},
		{CommunityID: "g1", CallType: usagedomain.CallTypeRespond, Cost: 2.25, RecordedAt: now.Add(-2 * time.Hour)},
		// outside the default 24h window
		{CommunityID: "g1", CallType: usagedomain.CallTypeTriage, Cost: 9.99, RecordedAt: now.Add(-25 * time.Hour)},
		// different community
		{CommunityID: "g2", CallType: usagedomain.CallTypeTriage, Cost: 4.00, RecordedAt: now.Add(-time.Hour)},
	} {
		_, err := svc.Record(ctx, rec)
		require.NoError(t, err)
	}

	assert.InDelta(t, 3.75, svc.SpendSince(ctx, "g1", 0), 1e-9)
	assert.InDelta(t, 4.00, svc.SpendSince(ctx, "g2", 0), 1e-9)
}

func TestSpendSince_MasksFailures(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	svc, db := newTestService(t, clk)
	ctx := context.Background()

	// empty community id
	assert.Zero(t, svc.SpendSince(ctx, "", 0))

	// no matching rows
	assert.Zero(t, svc.SpendSince(ctx, "missing", 0))

	// storage failure: drop the table out from under the reader
	require.NoError(t, db.Migrator().DropTable(&usagedomain.UsageRecord{}))
	assert.Zero(t, svc.SpendSince(ctx, "g1", 0))
}
