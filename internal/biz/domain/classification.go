package domain

import (
	"fmt"
)

// MessageType is the classification outcome for one batch.
type MessageType string

const (
	// MessageTypeGroup declares or updates a listing container.
	MessageTypeGroup MessageType = "GROUP"
	// MessageTypeStray is a standalone actionable task.
	MessageTypeStray MessageType = "STRAY"
	// MessageTypeInfoRequest is operational content missing specifics.
	MessageTypeInfoRequest MessageType = "INFO_REQUEST"
	// MessageTypeIgnore is chatter unrelated to operations.
	MessageTypeIgnore MessageType = "IGNORE"
)

// Known reports whether t is one of the four closed variants.
func (t MessageType) Known() bool {
	switch t {
	case MessageTypeGroup, MessageTypeStray, MessageTypeInfoRequest, MessageTypeIgnore:
		return true
	}
	return false
}

// ListingType distinguishes sale from lease listings.
type ListingType string

const (
	ListingTypeSale  ListingType = "SALE"
	ListingTypeLease ListingType = "LEASE"
)

// GroupKey identifies which listing-declaration template a GROUP message maps to.
type GroupKey string

const (
	GroupKeySaleListing                  GroupKey = "SALE_LISTING"
	GroupKeyLeaseListing                 GroupKey = "LEASE_LISTING"
	GroupKeySaleLeaseListing             GroupKey = "SALE_LEASE_LISTING"
	GroupKeySoldSaleLeaseListing         GroupKey = "SOLD_SALE_LEASE_LISTING"
	GroupKeyRelistListing                GroupKey = "RELIST_LISTING"
	GroupKeyRelistListingDealSaleOrLease GroupKey = "RELIST_LISTING_DEAL_SALE_OR_LEASE"
	GroupKeyBuyOrLeased                  GroupKey = "BUY_OR_LEASED"
	GroupKeyMarketingAgendaTemplate      GroupKey = "MARKETING_AGENDA_TEMPLATE"
)

var validGroupKeys = map[GroupKey]struct{}{
	GroupKeySaleListing:                  {},
	GroupKeyLeaseListing:                 {},
	GroupKeySaleLeaseListing:             {},
	GroupKeySoldSaleLeaseListing:         {},
	GroupKeyRelistListing:                {},
	GroupKeyRelistListingDealSaleOrLease: {},
	GroupKeyBuyOrLeased:                  {},
	GroupKeyMarketingAgendaTemplate:      {},
}

// TaskKey identifies which task template a STRAY message maps to.
type TaskKey string

const (
	TaskKeySaleActiveTasks             TaskKey = "SALE_ACTIVE_TASKS"
	TaskKeySaleSoldTasks               TaskKey = "SALE_SOLD_TASKS"
	TaskKeySaleClosingTasks            TaskKey = "SALE_CLOSING_TASKS"
	TaskKeyLeaseActiveTasks            TaskKey = "LEASE_ACTIVE_TASKS"
	TaskKeyLeaseLeasedTasks            TaskKey = "LEASE_LEASED_TASKS"
	TaskKeyLeaseClosingTasks           TaskKey = "LEASE_CLOSING_TASKS"
	TaskKeyLeaseActiveTasksArlyn       TaskKey = "LEASE_ACTIVE_TASKS_ARLYN"
	TaskKeyRelistListingDealSale       TaskKey = "RELIST_LISTING_DEAL_SALE"
	TaskKeyRelistListingDealLease      TaskKey = "RELIST_LISTING_DEAL_LEASE"
	TaskKeyBuyerDeal                   TaskKey = "BUYER_DEAL"
	TaskKeyBuyerDealClosingTasks       TaskKey = "BUYER_DEAL_CLOSING_TASKS"
	TaskKeyLeaseTenantDeal             TaskKey = "LEASE_TENANT_DEAL"
	TaskKeyLeaseTenantDealClosingTasks TaskKey = "LEASE_TENANT_DEAL_CLOSING_TASKS"
	TaskKeyPreconDeal                  TaskKey = "PRECON_DEAL"
	TaskKeyMutualReleaseSteps          TaskKey = "MUTUAL_RELEASE_STEPS"
	TaskKeyOpsMiscTask                 TaskKey = "OPS_MISC_TASK"
)

var validTaskKeys = map[TaskKey]struct{}{
	TaskKeySaleActiveTasks:             {},
	TaskKeySaleSoldTasks:               {},
	TaskKeySaleClosingTasks:            {},
	TaskKeyLeaseActiveTasks:            {},
	TaskKeyLeaseLeasedTasks:            {},
	TaskKeyLeaseClosingTasks:           {},
	TaskKeyLeaseActiveTasksArlyn:       {},
	TaskKeyRelistListingDealSale:       {},
	TaskKeyRelistListingDealLease:      {},
	TaskKeyBuyerDeal:                   {},
	TaskKeyBuyerDealClosingTasks:       {},
	TaskKeyLeaseTenantDeal:             {},
	TaskKeyLeaseTenantDealClosingTasks: {},
	TaskKeyPreconDeal:                  {},
	TaskKeyMutualReleaseSteps:          {},
	TaskKeyOpsMiscTask:                 {},
}

// ClassificationSchemaVersion is the current classifier output schema.
const ClassificationSchemaVersion = 1

// ListingHint carries the listing details the classifier extracted, if any.
type ListingHint struct {
	Type    ListingType `json:"type,omitempty"`
	Address string      `json:"address,omitempty"`
}

// Classification is the structured output of the LLM classifier.
//
// The key-exclusivity invariant (GROUP carries exactly a group key, STRAY
// exactly a task key, INFO_REQUEST/IGNORE neither) is enforced by Validate,
// not trusted from the model.
type Classification struct {
	SchemaVersion int         `json:"schema_version"`
	MessageType   MessageType `json:"message_type"`
	TaskKey       TaskKey     `json:"task_key,omitempty"`
	GroupKey      GroupKey    `json:"group_key,omitempty"`
	Listing       ListingHint `json:"listing"`
	AssigneeHint  string      `json:"assignee_hint,omitempty"`
	DueDate       string      `json:"due_date,omitempty"`
	TaskTitle     string      `json:"task_title,omitempty"`
	Confidence    float64     `json:"confidence"`
	Explanations  []string    `json:"explanations,omitempty"`
}

const maxTaskTitleLen = 80

// Validate checks the closed-variant invariants before the classification
// is persisted or acted upon.
func (c *Classification) Validate() error {
	if !c.MessageType.Known() {
		return fmt.Errorf("unknown message_type %q", c.MessageType)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range [0,1]", c.Confidence)
	}
	if len(c.TaskTitle) > maxTaskTitleLen {
		return fmt.Errorf("task_title exceeds %d characters", maxTaskTitleLen)
	}
	if c.GroupKey != "" {
		if _, ok := validGroupKeys[c.GroupKey]; !ok {
			return fmt.Errorf("unknown group_key %q", c.GroupKey)
		}
	}
	if c.TaskKey != "" {
		if _, ok := validTaskKeys[c.TaskKey]; !ok {
			return fmt.Errorf("unknown task_key %q", c.TaskKey)
		}
	}

	groupPresent := c.GroupKey != ""
	taskPresent := c.TaskKey != ""

	switch c.MessageType {
	case MessageTypeInfoRequest, MessageTypeIgnore:
		if groupPresent || taskPresent {
			return fmt.Errorf("%s must carry no keys, got group_key=%q task_key=%q",
				c.MessageType, c.GroupKey, c.TaskKey)
		}
	case MessageTypeGroup, MessageTypeStray:
		if groupPresent == taskPresent {
			return fmt.Errorf("exactly one of group_key/task_key must be set for %s, got group_key=%q task_key=%q",
				c.MessageType, c.GroupKey, c.TaskKey)
		}
		if c.MessageType == MessageTypeGroup && !groupPresent {
			return fmt.Errorf("GROUP requires group_key, got task_key=%q", c.TaskKey)
		}
		if c.MessageType == MessageTypeStray && !taskPresent {
			return fmt.Errorf("STRAY requires task_key, got group_key=%q", c.GroupKey)
		}
	}
	return nil
}
