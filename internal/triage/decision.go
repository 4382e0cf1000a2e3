// Package triage decides whether and how to act on a buffered window of
// recent channel messages, delegating the judgment itself to an external
// text-generation call while owning the decision contract and fallbacks.
package triage

import "errors"

// Classification is one of the four triage outcomes. The string values are
// the wire values of the external decision contract.
type Classification string

const (
	ClassificationIgnore   Classification = "ignore"
	ClassificationRespond  Classification = "respond"
	ClassificationChimeIn  Classification = "chime-in"
	ClassificationModerate Classification = "moderate"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationIgnore, ClassificationRespond, ClassificationChimeIn, ClassificationModerate:
		return true
	default:
		return false
	}
}

// Message is one entry of the evaluated buffer.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	AuthorID  string `json:"author_id"`
	AuthorTag string `json:"author_tag"`
	Content   string `json:"content"`
}

// Decision is the triage result. TargetMessageIDs only carries ids for
// moderate outcomes and always references messages from the evaluated
// window, never outside it.
type Decision struct {
	Classification   Classification `json:"classification"`
	Reasoning        string         `json:"reasoning"`
	TargetMessageIDs []string       `json:"target_message_ids"`
}

var ErrEmptyWindow = errors.New("triage: empty message window")
