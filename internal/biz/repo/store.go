package repo

import (
	"context"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
)

// IntakeRepo persists the append-only intake audit trail.
type IntakeRepo interface {
	// InsertIntakeRecord inserts a new record and returns its id. A
	// redelivered external message id fails with a duplicate StorageError.
	InsertIntakeRecord(ctx context.Context, rec *domain.IntakeRecord) (string, error)
	// UpdateIntakeRecord applies the single post-materialization patch.
	UpdateIntakeRecord(ctx context.Context, id string, patch domain.IntakePatch) error
	GetIntakeRecord(ctx context.Context, id string) (*domain.IntakeRecord, error)
	ListIntakeRecords(ctx context.Context, limit int) ([]*domain.IntakeRecord, error)
}

// ListingRepo persists listings and their template activities.
type ListingRepo interface {
	InsertListing(ctx context.Context, l *domain.Listing) (string, error)
	InsertActivity(ctx context.Context, a *domain.Activity) (string, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, limit int) ([]*domain.Listing, error)
	ListActivities(ctx context.Context, listingID string) ([]*domain.Activity, error)
}

// TaskRepo persists stand-alone tasks.
type TaskRepo interface {
	InsertTask(ctx context.Context, t *domain.Task) (string, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, limit int) ([]*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status domain.TaskStatus) error
}

// RealtorRepo is the assignee directory consulted during materialization.
type RealtorRepo interface {
	FindByEmail(ctx context.Context, email string) (*domain.Realtor, error)
	// FindByPhoneSuffix matches on the trailing digits of stored numbers.
	FindByPhoneSuffix(ctx context.Context, digits string) (*domain.Realtor, error)
	// FindByName performs an exact, case-sensitive match.
	FindByName(ctx context.Context, name string) (*domain.Realtor, error)
	// FindByNameContains performs a case-insensitive substring match.
	FindByNameContains(ctx context.Context, fragment string) (*domain.Realtor, error)
	InsertRealtor(ctx context.Context, r *domain.Realtor) (string, error)
	ListRealtors(ctx context.Context) ([]*domain.Realtor, error)
}

// StaffRepo stores operations team members for the REST surface.
type StaffRepo interface {
	InsertStaff(ctx context.Context, s *domain.StaffMember) (string, error)
	GetStaffByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	ListStaff(ctx context.Context) ([]*domain.StaffMember, error)
}
