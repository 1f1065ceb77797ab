package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
)

// Pipeline statuses.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Pipeline failure reasons.
const (
	ReasonValidationFailed     = "validation_failed"
	ReasonClassificationFailed = "classification_failed"
	ReasonStorageFailed        = "storage_failed"
	ReasonDuplicateEvent       = "duplicate_event"
)

// Sender ids with this prefix belong to Slack bots and are never processed.
const botSenderPrefix = "B"

// IntakeResult is the structured outcome of processing one batch. The
// pipeline reports every failure path through it instead of raising, so
// the transport layer can always acknowledge the inbound event.
type IntakeResult struct {
	Status   string
	Reason   string
	RecordID string
	Entity   *EntityResult
}

// IntakeUsecase turns one flushed batch into a persisted, classified,
// materialized intake record.
type IntakeUsecase struct {
	classifier repo.ClassifierRepo
	intake     repo.IntakeRepo
	entities   *EntityUsecase
	notifier   repo.NotifyRepo
	logger     *zap.Logger
}

// NewIntakeUsecase creates the intake orchestrator.
func NewIntakeUsecase(
	classifier repo.ClassifierRepo,
	intake repo.IntakeRepo,
	entities *EntityUsecase,
	notifier repo.NotifyRepo,
	logger *zap.Logger,
) *IntakeUsecase {
	return &IntakeUsecase{
		classifier: classifier,
		intake:     intake,
		entities:   entities,
		notifier:   notifier,
		logger:     logger.Named("intake"),
	}
}

// Process runs the fixed pipeline over one batch: validate, flatten,
// classify, persist, materialize, acknowledge. Each step's failure
// short-circuits the remainder with a terminal status.
func (uc *IntakeUsecase) Process(ctx context.Context, b *domain.MessageBatch) *IntakeResult {
	log := uc.logger.With(
		zap.String("sender", b.SenderID),
		zap.String("channel", b.ChannelID),
		zap.Int("batch_size", len(b.Messages)))

	// Step 1: validate.
	if reason := uc.validate(b); reason != "" {
		log.Info("batch skipped", zap.String("reason", reason))
		return &IntakeResult{Status: StatusSkipped, Reason: reason}
	}

	// Step 2: flatten for classification.
	text := b.FlattenForClassification()

	// Step 3: classify.
	classification, err := uc.classifier.Classify(ctx, text, b.ReferenceTime())
	if err != nil {
		log.Error("classification failed", zap.Error(err))
		return &IntakeResult{Status: StatusError, Reason: ReasonClassificationFailed}
	}
	if err := classification.Validate(); err != nil {
		log.Error("classification violates key invariants", zap.Error(err))
		return &IntakeResult{Status: StatusError, Reason: ReasonClassificationFailed}
	}
	log.Info("batch classified",
		zap.String("message_type", string(classification.MessageType)),
		zap.Float64("confidence", classification.Confidence))

	// Step 4: persist the intake record as pending.
	rec := buildIntakeRecord(b, *classification, text)
	recordID, err := uc.intake.InsertIntakeRecord(ctx, rec)
	if err != nil {
		if repo.IsDuplicate(err) {
			// Redelivery of an already-processed message id: benign no-op.
			log.Info("duplicate external message id, already handled",
				zap.String("external_id", rec.ExternalID))
			return &IntakeResult{Status: StatusSkipped, Reason: ReasonDuplicateEvent}
		}
		log.Error("intake record insert failed", zap.Error(err))
		return &IntakeResult{Status: StatusError, Reason: ReasonStorageFailed}
	}

	// Step 5: materialize the entity.
	entity := uc.entities.CreateFromClassification(ctx, *classification, recordID, text)

	// Step 6: acknowledge, only on success. Failures are logged, never surfaced.
	if entity.Status == StatusSuccess {
		posted, err := uc.notifier.SendAcknowledgment(ctx, b.ChannelID, b.PrimaryThreadID(), *classification)
		if err != nil {
			log.Warn("acknowledgment failed", zap.Error(err))
		} else if posted {
			log.Debug("acknowledgment sent", zap.String("channel", b.ChannelID))
		}
	}

	log.Info("batch processing complete",
		zap.String("record_id", recordID),
		zap.String("entity_status", entity.Status),
		zap.String("entity_type", string(entity.EntityType)))

	return &IntakeResult{
		Status:   entity.Status,
		Reason:   entity.Reason,
		RecordID: recordID,
		Entity:   entity,
	}
}

// validate rejects empty batches, missing senders and bot senders.
// Returns the skip reason, or empty when the batch may proceed.
func (uc *IntakeUsecase) validate(b *domain.MessageBatch) string {
	if len(b.Messages) == 0 {
		return ReasonValidationFailed
	}
	if b.SenderID == "" {
		return ReasonValidationFailed
	}
	if strings.HasPrefix(b.SenderID, botSenderPrefix) {
		return ReasonValidationFailed
	}
	return ""
}

func buildIntakeRecord(b *domain.MessageBatch, c domain.Classification, text string) *domain.IntakeRecord {
	return &domain.IntakeRecord{
		SenderID:       b.SenderID,
		ChannelID:      b.ChannelID,
		ExternalID:     b.Messages[0].ExternalID,
		ThreadID:       b.PrimaryThreadID(),
		Text:           text,
		Classification: c,
		MessageType:    c.MessageType,
		TaskKey:        c.TaskKey,
		GroupKey:       c.GroupKey,
		Confidence:     c.Confidence,
		AllExternalIDs: b.ExternalIDs(),
		BatchSize:      len(b.Messages),
		Status:         domain.ProcessingPending,
		ReceivedAt:     time.Now().UTC(),
	}
}
