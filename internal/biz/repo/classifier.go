package repo

import (
	"context"
	"time"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
)

// ClassifierRepo wraps the external LLM classification call.
type ClassifierRepo interface {
	// Classify turns flattened batch text into a validated Classification.
	// referenceTime anchors relative-date resolution. Fails with a
	// *ClassificationError on provider or validation failure.
	Classify(ctx context.Context, text string, referenceTime time.Time) (*domain.Classification, error)
}
