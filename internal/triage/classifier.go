package triage

import (
	"context"
	"errors"

	"github.com/wardenhq/warden/internal/budget"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/genai"
	obsmetrics "github.com/wardenhq/warden/internal/observability/metrics"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	GenAI   genai.Client
	Usage   usagedomain.Service
	Config  config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Classifier struct {
	genai   genai.Client
	usage   usagedomain.Service
	cfg     config.TriageConfig
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewClassifier(p Params) *Classifier {
	return &Classifier{
		genai:   p.GenAI,
		usage:   p.Usage,
		cfg:     p.Config.Triage,
		log:     p.Log.Named("triage"),
		metrics: p.Metrics,
	}
}

// Classify turns a buffered message window into a triage decision under the
// given budget verdict. It only errors on contract misuse (empty window);
// every external failure degrades to an ignore decision so the pipeline is
// never blocked by the classification collaborator.
func (c *Classifier) Classify(ctx context.Context, communityID, channelID string, window []Message, verdict budget.Verdict) (Decision, error) {
	if len(window) == 0 {
		return ignoreDecision("empty window"), ErrEmptyWindow
	}

	log := c.log.With(
		zap.String("community_id", communityID),
		zap.String("channel_id", channelID),
	)

	switch verdict.Status {
	case budget.StatusExceeded:
		// admission control: skip the expensive call entirely
		c.metrics.IncBudgetBlocked()
		log.Info("budget exceeded, skipping classification",
			zap.Float64("spend", verdict.Spend),
			zap.Float64("budget", verdict.Budget),
		)
		decision := ignoreDecision("budget exceeded")
		c.metrics.IncTriageDecision(string(decision.Classification))
		return decision, nil
	case budget.StatusWarning:
		c.metrics.IncBudgetWarning()
		log.Warn("budget warning, classification proceeding",
			zap.Float64("spend", verdict.Spend),
			zap.Float64("budget", verdict.Budget),
			zap.Float64("pct", verdict.Pct),
		)
	}

	completion, err := c.genai.Complete(ctx, buildRequest(window, c.cfg.MaxTokens))
	if err != nil {
		// the transport already retried once; degrade, never propagate
		log.Warn("classification call failed", zap.Error(err))
		decision := ignoreDecision("classification unavailable")
		c.metrics.IncTriageDecision(string(decision.Classification))
		return decision, nil
	}

	decision, err := decodeDecision(completion.Text, window)
	if err != nil {
		if errors.Is(err, ErrMalformedDecision) {
			c.metrics.IncParseFailure()
			log.Warn("malformed classification output",
				zap.Error(err),
				zap.String("raw", completion.Text),
			)
		}
		decision = ignoreDecision("parse failure")
	}

	c.metrics.IncTriageDecision(string(decision.Classification))

	if decision.Classification != ClassificationIgnore {
		c.recordUsage(ctx, communityID, channelID, completion)
	}

	return decision, nil
}

func (c *Classifier) recordUsage(ctx context.Context, communityID, channelID string, completion *genai.Completion) {
	_, err := c.usage.Record(ctx, usagedomain.RecordRequest{
		CommunityID:      communityID,
		ChannelID:        channelID,
		CallType:         usagedomain.CallTypeTriage,
		Model:            completion.Model,
		InputTokens:      completion.InputTokens,
		OutputTokens:     completion.OutputTokens,
		CacheWriteTokens: completion.CacheWriteTokens,
		CacheReadTokens:  completion.CacheReadTokens,
		Cost:             completion.Cost,
		DurationMS:       completion.Duration.Milliseconds(),
	})
	if err != nil {
		// accounting must never block the decision
		c.log.Warn("usage record failed",
			zap.String("community_id", communityID),
			zap.Error(err),
		)
	}
}

func ignoreDecision(reason string) Decision {
	return Decision{
		Classification:   ClassificationIgnore,
		Reasoning:        reason,
		TargetMessageIDs: []string{},
	}
}
