// Package executor sweeps the scheduled-action ledger and carries out
// actions that have come due.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/internal/observability/metrics"
	"github.com/wardenhq/warden/internal/platform"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Actions  schedactiondomain.Service
	Platform platform.Client
	Clock    clock.Clock
	Metrics  *metrics.Metrics `optional:"true"`
	Config   Config           `optional:"true"`
}

type Executor struct {
	log      *zap.Logger
	actions  schedactiondomain.Service
	platform platform.Client
	clock    clock.Clock
	metrics  *metrics.Metrics
	cfg      Config
}

func NewExecutor(p Params) *Executor {
	return &Executor{
		log:      p.Log.Named("executor"),
		actions:  p.Actions,
		platform: p.Platform,
		clock:    p.Clock,
		metrics:  p.Metrics,
		cfg:      p.Config.withDefaults(),
	}
}

func (e *Executor) RunForever(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := e.RunOnce(ctx); err != nil {
			e.log.Warn("action sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep: load everything due as of the sweep start,
// with no cap, and execute it with bounded concurrency. Row failures are
// isolated so one broken action cannot block the rest of the sweep;
// failed rows stay pending and are retried on the next sweep.
func (e *Executor) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, e.cfg.RunTimeout)
	defer cancel()

	start := e.clock.Now()
	due, err := e.actions.Due(ctx, start, 0)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrency)

	for _, action := range due {
		action := action
		g.Go(func() error {
			e.executeOne(gctx, action)
			return nil
		})
	}
	_ = g.Wait()

	e.metrics.ObserveSweepDuration(e.clock.Now().Sub(start))
	return nil
}

func (e *Executor) executeOne(ctx context.Context, action *schedactiondomain.ScheduledAction) {
	err := e.carryOut(ctx, action)

	switch {
	case err == nil:
	case errors.Is(err, platform.ErrTargetNotFound):
		// the target is gone; nothing left to undo
		e.log.Info("action target gone",
			zap.String("action", action.Action),
			zap.String("community_id", action.CommunityID),
			zap.String("target_id", action.TargetID),
		)
	default:
		e.log.Warn("action failed",
			zap.Error(err),
			zap.String("action", action.Action),
			zap.String("community_id", action.CommunityID),
			zap.String("target_id", action.TargetID),
		)
		e.metrics.IncActionFailure(action.Action)
		return
	}

	if err := e.actions.MarkExecuted(ctx, action.ID); err != nil {
		e.log.Warn("mark executed failed",
			zap.Error(err),
			zap.String("id", action.ID.String()),
		)
		return
	}
	e.metrics.IncActionExecuted(action.Action)
}

func (e *Executor) carryOut(ctx context.Context, action *schedactiondomain.ScheduledAction) error {
	switch action.Action {
	case schedactiondomain.ActionUnmute:
		return e.platform.LiftRestriction(ctx, action.CommunityID, action.TargetID)
	case schedactiondomain.ActionUnban:
		return e.platform.LiftBan(ctx, action.CommunityID, action.TargetID)
	default:
		// unknown actions are retired instead of retried forever
		e.log.Error("unknown scheduled action",
			zap.String("action", action.Action),
			zap.String("id", action.ID.String()),
		)
		return nil
	}
}
