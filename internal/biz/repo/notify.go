package repo

import (
	"context"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
)

// NotifyRepo posts short acknowledgments back to the originating channel.
// Fire-and-forget: callers log failures and move on.
type NotifyRepo interface {
	// SendAcknowledgment posts a confirmation for the classification,
	// threaded to threadID when non-empty. Not every classification
	// produces a post; implementations may decline (returning false).
	SendAcknowledgment(ctx context.Context, channelID, threadID string, c domain.Classification) (bool, error)
}
