package service

import (
	"context"
	"time"

	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/usecase"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/conf"
)

// IntakeService owns the debounce queue and feeds flushed batches through
// the intake pipeline.
type IntakeService struct {
	queue  *usecase.BatchQueue
	intake *usecase.IntakeUsecase
	logger *zap.Logger
}

// NewIntakeService wires the queue to the pipeline.
func NewIntakeService(cfg conf.QueueConfig, intake *usecase.IntakeUsecase, logger *zap.Logger) *IntakeService {
	s := &IntakeService{
		intake: intake,
		logger: logger.Named("service"),
	}
	s.queue = usecase.NewBatchQueue(usecase.BatchQueueConfig{
		DebounceWindow: cfg.DebounceWindow,
		MaxBatchSize:   cfg.MaxBatchSize,
	}, s.processBatch, logger)
	return s
}

// HandleMessageEvent enqueues one inbound Slack message. Bot posts and
// edited/deleted subtypes are dropped here; the webhook has already
// acknowledged the event by the time the batch flushes.
func (s *IntakeService) HandleMessageEvent(ev *slackevents.MessageEvent) {
	if ev.BotID != "" || ev.SubType != "" {
		s.logger.Debug("ignoring non-user message",
			zap.String("bot_id", ev.BotID), zap.String("subtype", ev.SubType))
		return
	}
	if ev.User == "" || ev.Text == "" {
		return
	}

	s.queue.Enqueue(ev.User, ev.Channel, domain.QueuedMessage{
		Text:       ev.Text,
		ReceivedAt: time.Now().UTC(),
		ExternalID: ev.TimeStamp,
		ThreadID:   ev.ThreadTimeStamp,
	})
}

func (s *IntakeService) processBatch(ctx context.Context, b *domain.MessageBatch) {
	result := s.intake.Process(ctx, b)
	s.logger.Info("batch result",
		zap.String("sender", b.SenderID),
		zap.String("channel", b.ChannelID),
		zap.String("status", result.Status),
		zap.String("reason", result.Reason),
		zap.String("record_id", result.RecordID))
}

// QueueStats exposes the live queue registry for the stats endpoint.
func (s *IntakeService) QueueStats() usecase.Stats {
	return s.queue.Snapshot()
}

// Shutdown drains in-flight flush handlers.
func (s *IntakeService) Shutdown(ctx context.Context) error {
	return s.queue.Close(ctx)
}
