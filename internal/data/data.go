package data

import (
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/conf"
)

// Repositories aggregates the concrete data-layer implementations behind
// the biz repo interfaces.
type Repositories struct {
	Intake     repo.IntakeRepo
	Listings   repo.ListingRepo
	Tasks      repo.TaskRepo
	Realtors   repo.RealtorRepo
	Staff      repo.StaffRepo
	Classifier repo.ClassifierRepo
	Notifier   repo.NotifyRepo
}

// NewRepositories wires every gateway from config. The returned cleanup
// closes the underlying database.
func NewRepositories(cfg *conf.Config, logger *zap.Logger) (*Repositories, func(), error) {
	store, err := NewStore(cfg.Store.DBPath)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}

	return &Repositories{
		Intake:     store,
		Listings:   store,
		Tasks:      store,
		Realtors:   store,
		Staff:      store,
		Classifier: NewOpenAIClassifier(cfg.Classifier, logger),
		Notifier:   NewSlackNotifier(cfg.Slack.BotToken, logger),
	}, cleanup, nil
}
