// Package pipeline chains the budget gate, the triage classifier, the case
// ledger and the action scheduler into one message-window evaluation.
package pipeline

import (
	"context"
	"time"

	"github.com/wardenhq/warden/internal/budget"
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/internal/config"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	"github.com/wardenhq/warden/internal/triage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// moderatorID identifies the service itself as the acting moderator on
// cases it opens autonomously.
const (
	moderatorID  = "warden"
	moderatorTag = "warden[bot]"
)

type Params struct {
	fx.In

	Gate       *budget.Gate
	Classifier *triage.Classifier
	Cases      casesdomain.Service
	Actions    schedactiondomain.Service
	Clock      clock.Clock
	Config     config.Config
	Log        *zap.Logger
}

type Pipeline struct {
	gate       *budget.Gate
	classifier *triage.Classifier
	cases      casesdomain.Service
	actions    schedactiondomain.Service
	clock      clock.Clock
	cfg        config.TriageConfig
	log        *zap.Logger
}

func NewPipeline(p Params) *Pipeline {
	return &Pipeline{
		gate:       p.Gate,
		classifier: p.Classifier,
		cases:      p.Cases,
		actions:    p.Actions,
		clock:      p.Clock,
		cfg:        p.Config.Triage,
		log:        p.Log.Named("pipeline"),
	}
}

// Result is the outcome of evaluating one message window.
type Result struct {
	Verdict  budget.Verdict                `json:"verdict"`
	Decision triage.Decision               `json:"decision"`
	Cases    []*casesdomain.ModerationCase `json:"cases,omitempty"`
}

// Evaluate runs the full triage pipeline for a buffered message window.
// A moderate decision opens one mute case per distinct flagged author and
// schedules the matching unmute. Enforcement failures surface as errors;
// classification degradation does not, the decision simply comes back as
// ignore.
func (p *Pipeline) Evaluate(ctx context.Context, communityID, channelID string, window []triage.Message) (*Result, error) {
	verdict := p.gate.Check(ctx, communityID, p.cfg.DailyBudget, p.cfg.BudgetWindow)

	decision, err := p.classifier.Classify(ctx, communityID, channelID, window, verdict)
	if err != nil {
		return nil, err
	}

	result := &Result{Verdict: verdict, Decision: decision}
	if decision.Classification != triage.ClassificationModerate {
		return result, nil
	}

	muteFor, err := ParseDuration(p.cfg.MuteDuration)
	if err != nil {
		p.log.Error("invalid mute duration, falling back to 10m",
			zap.String("value", p.cfg.MuteDuration),
			zap.Error(err),
		)
		muteFor = 10 * time.Minute
	}

	for _, author := range flaggedAuthors(window, decision.TargetMessageIDs) {
		record, err := p.moderate(ctx, communityID, author, decision.Reasoning, muteFor)
		if err != nil {
			return result, err
		}
		result.Cases = append(result.Cases, record)
	}
	return result, nil
}

func (p *Pipeline) moderate(ctx context.Context, communityID string, author triage.Message, reason string, muteFor time.Duration) (*casesdomain.ModerationCase, error) {
	now := p.clock.Now()
	expiresAt := now.Add(muteFor)
	durationText := muteFor.String()

	record, err := p.cases.CreateCase(ctx, casesdomain.CreateCaseRequest{
		CommunityID:  communityID,
		Action:       casesdomain.ActionMute,
		TargetID:     author.AuthorID,
		TargetTag:    author.AuthorTag,
		ModeratorID:  moderatorID,
		ModeratorTag: moderatorTag,
		Reason:       &reason,
		Duration:     &durationText,
		ExpiresAt:    &expiresAt,
	})
	if err != nil {
		return nil, err
	}

	caseID := record.ID
	if _, err := p.actions.Schedule(ctx, schedactiondomain.ScheduleRequest{
		CommunityID: communityID,
		TargetID:    author.AuthorID,
		Action:      schedactiondomain.ActionUnmute,
		CaseID:      &caseID,
		ExecuteAt:   expiresAt,
	}); err != nil {
		return nil, err
	}

	p.log.Info("moderation applied",
		zap.String("community_id", communityID),
		zap.String("target_id", author.AuthorID),
		zap.Int64("case_number", record.CaseNumber),
		zap.Duration("mute_for", muteFor),
	)
	return record, nil
}

// flaggedAuthors resolves target message ids to their authors, first
// occurrence wins, preserving window order.
func flaggedAuthors(window []triage.Message, targetIDs []string) []triage.Message {
	flagged := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		flagged[id] = true
	}

	seen := make(map[string]bool)
	var authors []triage.Message
	for _, msg := range window {
		if !flagged[msg.ID] || seen[msg.AuthorID] {
			continue
		}
		seen[msg.AuthorID] = true
		authors = append(authors, msg)
	}
	return authors
}
