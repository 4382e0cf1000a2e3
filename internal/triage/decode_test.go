package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() []Message {
	return []Message{
		{ID: "m1", Role: "user", AuthorID: "u1", AuthorTag: "alice", Content: "hello"},
		{ID: "m2", Role: "user", AuthorID: "u2", AuthorTag: "bob", Content: "spam spam"},
		{ID: "m3", Role: "user", AuthorID: "u1", AuthorTag: "alice", Content: "stop that"},
	}
}

func TestDecodeDecision_Valid(t *testing.T) {
	raw := `{"classification":"moderate","reasoning":"repeated spam","targetMessageIds":["m2"]}`
	decision, err := decodeDecision(raw, testWindow())
	require.NoError(t, err)
	assert.Equal(t, ClassificationModerate, decision.Classification)
	assert.Equal(t, "repeated spam", decision.Reasoning)
	assert.Equal(t, []string{"m2"}, decision.TargetMessageIDs)
}

func TestDecodeDecision_DropsTargetsForNonModerate(t *testing.T) {
	raw := `{"classification":"respond","reasoning":"direct question","targetMessageIds":["m1"]}`
	decision, err := decodeDecision(raw, testWindow())
	require.NoError(t, err)
	assert.Equal(t, ClassificationRespond, decision.Classification)
	assert.Empty(t, decision.TargetMessageIDs)
}

func TestDecodeDecision_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think this should be moderated"},
		{"json with markup", "```json\n{\"classification\":\"ignore\"}\n```"},
		{"missing classification", `{"reasoning":"hm"}`},
		{"missing reasoning", `{"classification":"ignore"}`},
		{"unknown classification", `{"classification":"escalate","reasoning":"x"}`},
		{"target outside window", `{"classification":"moderate","reasoning":"x","targetMessageIds":["m4"]}`},
		{"mixed targets", `{"classification":"moderate","reasoning":"x","targetMessageIds":["m2","m9"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeDecision(tt.raw, testWindow())
			assert.ErrorIs(t, err, ErrMalformedDecision)
		})
	}
}
