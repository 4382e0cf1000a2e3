package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDecision marks external output that violates the decision
// contract. Callers degrade to ignore instead of propagating it.
var ErrMalformedDecision = errors.New("triage: malformed decision")

type rawDecision struct {
	Classification   *string  `json:"classification"`
	Reasoning        *string  `json:"reasoning"`
	TargetMessageIDs []string `json:"targetMessageIds"`
}

// decodeDecision strictly validates the external response: it must be a
// single JSON object with both required fields, an enumerated
// classification, and target ids drawn only from the submitted window.
func decodeDecision(raw string, window []Message) (Decision, error) {
	var parsed rawDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	if parsed.Classification == nil {
		return Decision{}, fmt.Errorf("%w: missing classification", ErrMalformedDecision)
	}
	if parsed.Reasoning == nil {
		return Decision{}, fmt.Errorf("%w: missing reasoning", ErrMalformedDecision)
	}

	classification := Classification(strings.TrimSpace(*parsed.Classification))
	if !classification.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown classification %q", ErrMalformedDecision, *parsed.Classification)
	}

	known := make(map[string]struct{}, len(window))
	for _, msg := range window {
		known[msg.ID] = struct{}{}
	}
	for _, id := range parsed.TargetMessageIDs {
		if _, ok := known[id]; !ok {
			return Decision{}, fmt.Errorf("%w: target %q not in window", ErrMalformedDecision, id)
		}
	}

	decision := Decision{
		Classification: classification,
		Reasoning:      *parsed.Reasoning,
	}
	// target ids only carry meaning for moderate outcomes
	if classification == ClassificationModerate {
		decision.TargetMessageIDs = parsed.TargetMessageIDs
	}
	return decision, nil
}
