package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
)

// EntityResult reports the outcome of materializing one classification.
type EntityResult struct {
	Status     string
	Reason     string
	EntityType domain.EntityType
	EntityID   string
	RealtorID  string
	// ActivityFailures counts template activities that failed to insert.
	// Individual failures never fail the listing itself.
	ActivityFailures int
}

// EntityUsecase creates exactly one domain entity per classification and
// links it back into the intake record.
type EntityUsecase struct {
	listings repo.ListingRepo
	tasks    repo.TaskRepo
	realtors repo.RealtorRepo
	intake   repo.IntakeRepo
	logger   *zap.Logger
}

// NewEntityUsecase creates the entity materializer.
func NewEntityUsecase(
	listings repo.ListingRepo,
	tasks repo.TaskRepo,
	realtors repo.RealtorRepo,
	intake repo.IntakeRepo,
	logger *zap.Logger,
) *EntityUsecase {
	return &EntityUsecase{
		listings: listings,
		tasks:    tasks,
		realtors: realtors,
		intake:   intake,
		logger:   logger.Named("materializer"),
	}
}

// CreateFromClassification dispatches on the closed message-type variant:
// IGNORE marks the record skipped, GROUP creates a listing with its
// template activities, STRAY and INFO_REQUEST create a task. The intake
// record is always patched with the terminal status.
func (uc *EntityUsecase) CreateFromClassification(
	ctx context.Context,
	c domain.Classification,
	recordID string,
	text string,
) *EntityResult {
	switch c.MessageType {
	case domain.MessageTypeIgnore:
		uc.patchRecord(ctx, recordID, domain.IntakePatch{Status: domain.ProcessingSkipped})
		return &EntityResult{Status: StatusSkipped, Reason: "message type is IGNORE"}

	case domain.MessageTypeGroup:
		return uc.createListing(ctx, c, recordID)

	case domain.MessageTypeStray:
		return uc.createTask(ctx, c, recordID, text, false)

	case domain.MessageTypeInfoRequest:
		return uc.createTask(ctx, c, recordID, text, true)

	default:
		// Unreachable once Validate has run; kept as the defensive terminal.
		uc.logger.Warn("unknown message type", zap.String("message_type", string(c.MessageType)))
		uc.patchRecord(ctx, recordID, domain.IntakePatch{
			Status:       domain.ProcessingFailed,
			ErrorMessage: "unknown message type",
		})
		return &EntityResult{Status: StatusError, Reason: "unknown message type"}
	}
}

func (uc *EntityUsecase) createListing(ctx context.Context, c domain.Classification, recordID string) *EntityResult {
	realtorID := uc.ResolveAssignee(ctx, c.AssigneeHint)

	address := c.Listing.Address
	if address == "" {
		address = "Unknown Address"
	}

	listing := &domain.Listing{
		Address:    address,
		Type:       c.Listing.Type,
		GroupKey:   c.GroupKey,
		Status:     domain.ListingStatusNew,
		AssigneeID: realtorID,
		DueDate:    c.DueDate,
	}

	listingID, err := uc.listings.InsertListing(ctx, listing)
	if err != nil {
		uc.logger.Error("listing insert failed", zap.Error(err))
		uc.patchRecord(ctx, recordID, domain.IntakePatch{
			Status:       domain.ProcessingFailed,
			ErrorMessage: err.Error(),
		})
		return &EntityResult{Status: StatusError, Reason: err.Error()}
	}

	// Attach the fixed activity template for this group key. Best-effort:
	// a failed activity never fails the listing.
	failures := 0
	for i, tpl := range domain.ActivitiesFor(c.GroupKey) {
		activity := &domain.Activity{
			ListingID: listingID,
			Name:      tpl.Name,
			Category:  tpl.Category,
			Sequence:  i + 1,
			Status:    domain.ActivityStatusOpen,
		}
		if _, err := uc.listings.InsertActivity(ctx, activity); err != nil {
			failures++
			uc.logger.Warn("activity insert failed",
				zap.String("listing_id", listingID),
				zap.String("activity", tpl.Name),
				zap.Error(err))
		}
	}

	uc.patchRecord(ctx, recordID, domain.IntakePatch{
		Status:     domain.ProcessingProcessed,
		ListingID:  listingID,
		EntityType: domain.EntityTypeListing,
	})

	uc.logger.Info("listing created",
		zap.String("listing_id", listingID),
		zap.String("group_key", string(c.GroupKey)),
		zap.String("address", address),
		zap.Int("activity_failures", failures))

	return &EntityResult{
		Status:           StatusSuccess,
		EntityType:       domain.EntityTypeListing,
		EntityID:         listingID,
		RealtorID:        realtorID,
		ActivityFailures: failures,
	}
}

func (uc *EntityUsecase) createTask(ctx context.Context, c domain.Classification, recordID, text string, infoRequest bool) *EntityResult {
	realtorID := uc.ResolveAssignee(ctx, c.AssigneeHint)

	task := domain.NewTask(c, realtorID, text, infoRequest)
	taskID, err := uc.tasks.InsertTask(ctx, &task)
	if err != nil {
		uc.logger.Error("task insert failed", zap.Error(err))
		uc.patchRecord(ctx, recordID, domain.IntakePatch{
			Status:       domain.ProcessingFailed,
			ErrorMessage: err.Error(),
		})
		return &EntityResult{Status: StatusError, Reason: err.Error()}
	}

	uc.patchRecord(ctx, recordID, domain.IntakePatch{
		Status:     domain.ProcessingProcessed,
		TaskID:     taskID,
		EntityType: domain.EntityTypeStrayTask,
	})

	uc.logger.Info("task created",
		zap.String("task_id", taskID),
		zap.String("task_key", string(task.TaskKey)),
		zap.String("status", string(task.Status)))

	return &EntityResult{
		Status:     StatusSuccess,
		EntityType: domain.EntityTypeStrayTask,
		EntityID:   taskID,
		RealtorID:  realtorID,
	}
}

// ResolveAssignee fuzzy-matches an assignee hint against the realtor
// directory: email when the hint contains @, then trailing-10-digit phone
// suffix, then exact name, then case-insensitive substring. First hit
// wins; no hit resolves to empty, never fabricated.
func (uc *EntityUsecase) ResolveAssignee(ctx context.Context, hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}

	if strings.Contains(hint, "@") {
		if r, err := uc.realtors.FindByEmail(ctx, hint); err == nil {
			uc.logger.Debug("resolved realtor by email", zap.String("realtor_id", r.ID))
			return r.ID
		} else if !errors.Is(err, repo.ErrNotFound) {
			uc.logger.Warn("realtor email lookup failed", zap.Error(err))
		}
	}

	if digits := digitsOf(hint); len(digits) >= 10 {
		suffix := digits[len(digits)-10:]
		if r, err := uc.realtors.FindByPhoneSuffix(ctx, suffix); err == nil {
			uc.logger.Debug("resolved realtor by phone", zap.String("realtor_id", r.ID))
			return r.ID
		} else if !errors.Is(err, repo.ErrNotFound) {
			uc.logger.Warn("realtor phone lookup failed", zap.Error(err))
		}
	}

	if r, err := uc.realtors.FindByName(ctx, hint); err == nil {
		uc.logger.Debug("resolved realtor by exact name", zap.String("realtor_id", r.ID))
		return r.ID
	} else if !errors.Is(err, repo.ErrNotFound) {
		uc.logger.Warn("realtor name lookup failed", zap.Error(err))
	}

	if r, err := uc.realtors.FindByNameContains(ctx, hint); err == nil {
		uc.logger.Debug("resolved realtor by partial name", zap.String("realtor_id", r.ID))
		return r.ID
	} else if !errors.Is(err, repo.ErrNotFound) {
		uc.logger.Warn("realtor partial name lookup failed", zap.Error(err))
	}

	uc.logger.Info("could not resolve assignee hint", zap.String("hint", hint))
	return ""
}

func digitsOf(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// patchRecord applies the terminal intake-record update; failures here are
// logged only, since the entity outcome is already decided.
func (uc *EntityUsecase) patchRecord(ctx context.Context, recordID string, patch domain.IntakePatch) {
	patch.ProcessedAt = time.Now().UTC()
	if err := uc.intake.UpdateIntakeRecord(ctx, recordID, patch); err != nil {
		uc.logger.Error("intake record update failed",
			zap.String("record_id", recordID), zap.Error(err))
	}
}
