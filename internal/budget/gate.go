// Package budget implements the admission-control check that caps
// classification spend per community over a rolling window.
package budget

import (
	"context"
	"time"

	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Status classifies a community's position against its daily budget.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// warningThreshold is the fraction of budget at which triage keeps running
// but the event is surfaced for observability.
const warningThreshold = 0.8

// Verdict is the gate's derived result. It is never persisted.
type Verdict struct {
	Status Status  `json:"status"`
	Spend  float64 `json:"spend"`
	Budget float64 `json:"budget"`
	Pct    float64 `json:"pct"`
}

type Params struct {
	fx.In

	Usage usagedomain.Service
	Log   *zap.Logger
}

// Gate evaluates spend against a configured daily cap.
type Gate struct {
	usage usagedomain.Service
	log   *zap.Logger
}

func NewGate(p Params) *Gate {
	return &Gate{
		usage: p.Usage,
		log:   p.Log.Named("budget"),
	}
}

// Check reads the community's rolling spend and classifies it. Pure over the
// ledger output and configuration: spend increase never decreases severity
// for a fixed budget.
func (g *Gate) Check(ctx context.Context, communityID string, dailyBudget float64, window time.Duration) Verdict {
	spend := g.usage.SpendSince(ctx, communityID, window)

	var pct float64
	if dailyBudget > 0 {
		pct = spend / dailyBudget
	}

	verdict := Verdict{
		Status: StatusOK,
		Spend:  spend,
		Budget: dailyBudget,
		Pct:    pct,
	}

	switch {
	case dailyBudget <= 0 && spend > 0:
		// a zero cap with any spend is over budget even though pct is 0
		verdict.Status = StatusExceeded
	case pct >= 1.0:
		verdict.Status = StatusExceeded
	case pct >= warningThreshold:
		verdict.Status = StatusWarning
	}

	if verdict.Status != StatusOK {
		g.log.Info("budget gate tripped",
			zap.String("community_id", communityID),
			zap.String("status", string(verdict.Status)),
			zap.Float64("spend", spend),
			zap.Float64("budget", dailyBudget),
		)
	}
	return verdict
}
