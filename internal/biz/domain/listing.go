package domain

import "time"

// ListingStatus tracks a listing's lifecycle.
type ListingStatus string

const (
	ListingStatusNew    ListingStatus = "new"
	ListingStatusActive ListingStatus = "active"
	ListingStatusClosed ListingStatus = "closed"
)

// Listing is a property listing created from a GROUP classification.
type Listing struct {
	ID         string        `json:"id"`
	Address    string        `json:"address"`
	Type       ListingType   `json:"type,omitempty"`
	GroupKey   GroupKey      `json:"group_key,omitempty"`
	Status     ListingStatus `json:"status"`
	AssigneeID string        `json:"assignee_id,omitempty"`
	DueDate    string        `json:"due_date,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Activity is one follow-up item attached to a listing at creation time.
type Activity struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Sequence  int       `json:"sequence"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const ActivityStatusOpen = "OPEN"

// ActivityTemplate describes one entry of a listing's fixed follow-up set.
type ActivityTemplate struct {
	Name     string
	Category string
}

// activityTemplates maps each group key to the fixed set of follow-up
// activities attached to a new listing of that kind.
var activityTemplates = map[GroupKey][]ActivityTemplate{
	GroupKeySaleListing: {
		{Name: "Collect listing documents and sign listing agreement", Category: "ADMIN"},
		{Name: "Order sign installation", Category: "MARKETING"},
		{Name: "Schedule photography and media", Category: "PHOTO"},
		{Name: "Upload to MLS and verify listing data", Category: "ADMIN"},
		{Name: "Launch marketing campaign", Category: "MARKETING"},
	},
	GroupKeyLeaseListing: {
		{Name: "Collect lease listing documents", Category: "ADMIN"},
		{Name: "Schedule photography and media", Category: "PHOTO"},
		{Name: "Upload to MLS and verify listing data", Category: "ADMIN"},
		{Name: "Set up showing schedule", Category: "ADMIN"},
	},
	GroupKeySaleLeaseListing: {
		{Name: "Collect listing documents for sale and lease", Category: "ADMIN"},
		{Name: "Order sign installation", Category: "MARKETING"},
		{Name: "Schedule photography and media", Category: "PHOTO"},
		{Name: "Upload both listings to MLS", Category: "ADMIN"},
		{Name: "Launch marketing campaign", Category: "MARKETING"},
	},
	GroupKeySoldSaleLeaseListing: {
		{Name: "Update MLS status to sold/leased", Category: "ADMIN"},
		{Name: "Order sold sign rider", Category: "MARKETING"},
		{Name: "Collect deal paperwork", Category: "ADMIN"},
	},
	GroupKeyRelistListing: {
		{Name: "Refresh listing documents", Category: "ADMIN"},
		{Name: "Re-upload to MLS with new listing date", Category: "ADMIN"},
		{Name: "Refresh marketing materials", Category: "MARKETING"},
	},
	GroupKeyRelistListingDealSaleOrLease: {
		{Name: "Confirm deal terms for relist", Category: "ADMIN"},
		{Name: "Re-upload to MLS with new listing date", Category: "ADMIN"},
		{Name: "Refresh marketing materials", Category: "MARKETING"},
	},
	GroupKeyBuyOrLeased: {
		{Name: "Collect buyer/tenant representation paperwork", Category: "ADMIN"},
		{Name: "Track closing or possession date", Category: "ADMIN"},
	},
	GroupKeyMarketingAgendaTemplate: {
		{Name: "Draft marketing agenda", Category: "MARKETING"},
		{Name: "Review agenda with agent", Category: "MARKETING"},
	},
}

// ActivitiesFor returns the fixed activity template for a group key.
// Unknown keys yield an empty template.
func ActivitiesFor(key GroupKey) []ActivityTemplate {
	return activityTemplates[key]
}
