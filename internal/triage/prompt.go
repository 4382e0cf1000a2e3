package triage

import (
	"fmt"
	"strings"

	"github.com/wardenhq/warden/internal/genai"
)

const systemPrompt = `You watch a community chat channel and triage recent activity.

Reply with a single JSON object and nothing else:
{"classification": "ignore" | "respond" | "chime-in" | "moderate", "reasoning": "<one short sentence>", "targetMessageIds": ["<id>", ...]}

Rules:
- "ignore": nothing needs attention.
- "respond": a message addresses the bot directly and deserves an answer.
- "chime-in": the conversation would benefit from an unprompted contribution.
- "moderate": one or more messages break the community rules; list their ids in targetMessageIds.
- targetMessageIds must only contain ids shown in the transcript, and must be empty unless the classification is "moderate".`

// buildRequest renders the window into the fixed instruction contract.
func buildRequest(window []Message, maxTokens int) genai.CompleteRequest {
	var b strings.Builder
	for _, msg := range window {
		fmt.Fprintf(&b, "<message id=%q author=%q role=%q>\n%s\n</message>\n", msg.ID, msg.AuthorTag, msg.Role, msg.Content)
	}

	return genai.CompleteRequest{
		System: systemPrompt,
		Messages: []genai.ChatMessage{
			{Role: "user", Content: b.String()},
		},
		MaxTokens: maxTokens,
	}
}
