package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(externalID string) *domain.IntakeRecord {
	c := domain.Classification{
		SchemaVersion: 1,
		MessageType:   domain.MessageTypeStray,
		TaskKey:       domain.TaskKeyOpsMiscTask,
		TaskTitle:     "Follow up with seller",
		Confidence:    0.82,
	}
	return &domain.IntakeRecord{
		SenderID:       "U1",
		ChannelID:      "C1",
		ExternalID:     externalID,
		Text:           "please follow up with the seller",
		Classification: c,
		MessageType:    c.MessageType,
		TaskKey:        c.TaskKey,
		Confidence:     c.Confidence,
		AllExternalIDs: []string{externalID},
		BatchSize:      1,
		Status:         domain.ProcessingPending,
		ReceivedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

func TestIntakeRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("1700000000.000100")
	id, err := store.InsertIntakeRecord(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.GetIntakeRecord(ctx, id)
	require.NoError(t, err)
	require.Equal(t, rec.ExternalID, got.ExternalID)
	require.Equal(t, rec.Text, got.Text)
	require.Equal(t, domain.ProcessingPending, got.Status)
	require.Equal(t, rec.Classification, got.Classification)
	require.Equal(t, []string{"1700000000.000100"}, got.AllExternalIDs)
	require.True(t, got.ProcessedAt.IsZero())
}

func TestInsertDuplicateExternalID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertIntakeRecord(ctx, sampleRecord("1700000000.000100"))
	require.NoError(t, err)

	_, err = store.InsertIntakeRecord(ctx, sampleRecord("1700000000.000100"))
	require.Error(t, err)
	require.True(t, repo.IsDuplicate(err))

	// A different external id is unaffected.
	_, err = store.InsertIntakeRecord(ctx, sampleRecord("1700000000.000200"))
	require.NoError(t, err)
}

func TestUpdateIntakeRecordPatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.InsertIntakeRecord(ctx, sampleRecord("1700000000.000100"))
	require.NoError(t, err)

	err = store.UpdateIntakeRecord(ctx, id, domain.IntakePatch{
		Status:     domain.ProcessingProcessed,
		TaskID:     "task-1",
		EntityType: domain.EntityTypeStrayTask,
	})
	require.NoError(t, err)

	got, err := store.GetIntakeRecord(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.ProcessingProcessed, got.Status)
	require.Equal(t, "task-1", got.TaskID)
	require.Equal(t, domain.EntityTypeStrayTask, got.EntityType)
	require.False(t, got.ProcessedAt.IsZero())

	err = store.UpdateIntakeRecord(ctx, "missing", domain.IntakePatch{Status: domain.ProcessingFailed})
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestListingWithActivities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	listingID, err := store.InsertListing(ctx, &domain.Listing{
		Address:  "123 Main St",
		Type:     domain.ListingTypeSale,
		GroupKey: domain.GroupKeySaleListing,
		Status:   domain.ListingStatusNew,
	})
	require.NoError(t, err)

	for i, tpl := range domain.ActivitiesFor(domain.GroupKeySaleListing) {
		_, err := store.InsertActivity(ctx, &domain.Activity{
			ListingID: listingID,
			Name:      tpl.Name,
			Category:  tpl.Category,
			Sequence:  i + 1,
			Status:    domain.ActivityStatusOpen,
		})
		require.NoError(t, err)
	}

	got, err := store.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, "123 Main St", got.Address)

	activities, err := store.ListActivities(ctx, listingID)
	require.NoError(t, err)
	require.Len(t, activities, 5)
	require.Equal(t, 1, activities[0].Sequence)
	require.Equal(t, domain.ActivityStatusOpen, activities[0].Status)

	_, err = store.GetListing(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	taskID, err := store.InsertTask(ctx, &domain.Task{
		TaskKey:     domain.TaskKeySaleClosingTasks,
		Name:        "Schedule closing",
		Description: "closing for 123 Main St",
		Status:      domain.TaskStatusOpen,
		Priority:    5,
		Notes:       []string{"buyer prefers Friday"},
	})
	require.NoError(t, err)

	got, err := store.GetTask(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, "Schedule closing", got.Name)
	require.Equal(t, []string{"buyer prefers Friday"}, got.Notes)

	require.NoError(t, store.UpdateTaskStatus(ctx, taskID, domain.TaskStatusDone))
	got, err = store.GetTask(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusDone, got.Status)

	require.ErrorIs(t, store.UpdateTaskStatus(ctx, "missing", domain.TaskStatusDone), repo.ErrNotFound)
}

func TestRealtorLookupPaths(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertRealtor(ctx, &domain.Realtor{
		Name:  "Sarah Chen",
		Email: "sarah@lockwood.ca",
		Phone: "+1 (416) 555-1234",
	})
	require.NoError(t, err)

	byEmail, err := store.FindByEmail(ctx, "sarah@lockwood.ca")
	require.NoError(t, err)
	require.Equal(t, "Sarah Chen", byEmail.Name)

	byPhone, err := store.FindByPhoneSuffix(ctx, "4165551234")
	require.NoError(t, err)
	require.Equal(t, byEmail.ID, byPhone.ID)

	byName, err := store.FindByName(ctx, "Sarah Chen")
	require.NoError(t, err)
	require.Equal(t, byEmail.ID, byName.ID)

	bySubstring, err := store.FindByNameContains(ctx, "sarah")
	require.NoError(t, err)
	require.Equal(t, byEmail.ID, bySubstring.ID)

	_, err = store.FindByEmail(ctx, "nobody@lockwood.ca")
	require.ErrorIs(t, err, repo.ErrNotFound)
	_, err = store.FindByName(ctx, "sarah chen")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestStaffUniqueEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertStaff(ctx, &domain.StaffMember{
		Name: "Ops Admin", Email: "ops@lockwood.ca", Role: "admin",
	})
	require.NoError(t, err)

	_, err = store.InsertStaff(ctx, &domain.StaffMember{
		Name: "Other Admin", Email: "ops@lockwood.ca",
	})
	require.True(t, repo.IsDuplicate(err))

	got, err := store.GetStaffByEmail(ctx, "ops@lockwood.ca")
	require.NoError(t, err)
	require.Equal(t, "Ops Admin", got.Name)

	members, err := store.ListStaff(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
}
