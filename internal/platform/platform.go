// Package platform talks to the chat platform's REST API on behalf of the
// moderation service.
package platform

import (
	"context"
	"errors"
)

// ErrTargetNotFound reports that the target of an action no longer exists
// on the platform, for example a user who left the community. Callers
// treat it as a terminal outcome, not a retryable failure.
var ErrTargetNotFound = errors.New("target_not_found")

// ErrNotConfigured reports that no platform credentials were supplied.
var ErrNotConfigured = errors.New("platform_not_configured")

type Client interface {
	// LiftRestriction removes the target's active communication
	// restriction in the community.
	LiftRestriction(ctx context.Context, communityID, targetID string) error

	// LiftBan removes the target's ban from the community.
	LiftBan(ctx context.Context, communityID, targetID string) error
}
