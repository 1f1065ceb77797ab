package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
)

func newMaterializerFixture() (*EntityUsecase, *mockRealtorRepo, *mockListingRepo, *mockIntakeRepo) {
	realtors := newMockRealtorRepo()
	listings := &mockListingRepo{}
	intake := newMockIntakeRepo()
	uc := NewEntityUsecase(listings, &mockTaskRepo{}, realtors, intake, zap.NewNop())
	return uc, realtors, listings, intake
}

func TestResolveAssigneeEmailWinsOverEverything(t *testing.T) {
	uc, realtors, _, _ := newMaterializerFixture()
	realtors.byEmail["sarah@lockwood.ca"] = &domain.Realtor{ID: "r-email"}
	realtors.bySubstring["sarah@lockwood.ca"] = &domain.Realtor{ID: "r-substring"}

	got := uc.ResolveAssignee(context.Background(), "sarah@lockwood.ca")
	require.Equal(t, "r-email", got)
}

func TestResolveAssigneePhoneSuffix(t *testing.T) {
	uc, realtors, _, _ := newMaterializerFixture()
	realtors.byPhoneSuffix["4165551234"] = &domain.Realtor{ID: "r-phone"}

	// Formatting noise is stripped; only the trailing ten digits match.
	got := uc.ResolveAssignee(context.Background(), "+1 (416) 555-1234")
	require.Equal(t, "r-phone", got)
}

func TestResolveAssigneeExactNameBeforeSubstring(t *testing.T) {
	uc, realtors, _, _ := newMaterializerFixture()
	realtors.byName["Sarah Chen"] = &domain.Realtor{ID: "r-exact"}
	realtors.bySubstring["Sarah Chen"] = &domain.Realtor{ID: "r-substring"}

	got := uc.ResolveAssignee(context.Background(), "Sarah Chen")
	require.Equal(t, "r-exact", got)
}

func TestResolveAssigneeFallsBackToSubstring(t *testing.T) {
	uc, realtors, _, _ := newMaterializerFixture()
	realtors.bySubstring["sarah"] = &domain.Realtor{ID: "r-substring"}

	got := uc.ResolveAssignee(context.Background(), "sarah")
	require.Equal(t, "r-substring", got)
}

func TestResolveAssigneeUnresolvedIsEmptyNeverFabricated(t *testing.T) {
	uc, _, _, _ := newMaterializerFixture()

	require.Equal(t, "", uc.ResolveAssignee(context.Background(), "nobody anyone knows"))
	require.Equal(t, "", uc.ResolveAssignee(context.Background(), ""))
	require.Equal(t, "", uc.ResolveAssignee(context.Background(), "   "))
}

func TestCreateListingUsesAddressFallback(t *testing.T) {
	uc, _, listings, intake := newMaterializerFixture()

	result := uc.CreateFromClassification(context.Background(), domain.Classification{
		MessageType: domain.MessageTypeGroup,
		GroupKey:    domain.GroupKeyMarketingAgendaTemplate,
		Confidence:  0.8,
	}, "rec-9", "marketing agenda please")

	require.Equal(t, StatusSuccess, result.Status)
	require.Len(t, listings.listings, 1)
	require.Equal(t, "Unknown Address", listings.listings[0].Address)

	patch := intake.patches["rec-9"]
	require.Equal(t, domain.ProcessingProcessed, patch.Status)
}

func TestCreateListingActivityFailuresAreBestEffort(t *testing.T) {
	uc, _, listings, intake := newMaterializerFixture()
	listings.activityErr = errors.New("activity insert failed")

	result := uc.CreateFromClassification(context.Background(), domain.Classification{
		MessageType: domain.MessageTypeGroup,
		GroupKey:    domain.GroupKeySaleListing,
		Listing:     domain.ListingHint{Address: "55 King St W"},
		Confidence:  0.9,
	}, "rec-10", "new sale listing")

	// Listing creation still succeeds; every template activity failed.
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, 5, result.ActivityFailures)
	require.Len(t, listings.listings, 1)
	require.Equal(t, domain.ProcessingProcessed, intake.patches["rec-10"].Status)
}
