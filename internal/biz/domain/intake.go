package domain

import "time"

// ProcessingStatus tracks the lifecycle of an intake record.
type ProcessingStatus string

const (
	ProcessingPending   ProcessingStatus = "pending"
	ProcessingProcessed ProcessingStatus = "processed"
	ProcessingSkipped   ProcessingStatus = "skipped"
	ProcessingFailed    ProcessingStatus = "failed"
)

// EntityType identifies which domain entity an intake record produced.
type EntityType string

const (
	EntityTypeListing   EntityType = "listing"
	EntityTypeStrayTask EntityType = "stray_task"
)

// IntakeRecord is the append-only audit row for one processed batch.
// It is created once with status pending and updated exactly once with its
// final entity linkage and status; never deleted.
type IntakeRecord struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	ChannelID string `json:"channel_id"`
	// ExternalID is the Slack timestamp of the first message in the batch;
	// the storage layer enforces uniqueness on it to absorb redeliveries.
	ExternalID     string         `json:"external_id"`
	ThreadID       string         `json:"thread_id,omitempty"`
	Text           string         `json:"text"`
	Classification Classification `json:"classification"`

	// Derived flat fields for querying.
	MessageType MessageType `json:"message_type"`
	TaskKey     TaskKey     `json:"task_key,omitempty"`
	GroupKey    GroupKey    `json:"group_key,omitempty"`
	Confidence  float64     `json:"confidence"`

	// AllExternalIDs holds every constituent message timestamp.
	AllExternalIDs []string `json:"all_external_ids"`
	BatchSize      int      `json:"batch_size"`

	Status       ProcessingStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`

	// Linkage set by the entity materializer.
	ListingID  string     `json:"listing_id,omitempty"`
	TaskID     string     `json:"task_id,omitempty"`
	EntityType EntityType `json:"entity_type,omitempty"`

	ReceivedAt  time.Time `json:"received_at"`
	ProcessedAt time.Time `json:"processed_at,omitzero"`
}

// IntakePatch is the single post-materialization update applied to a record.
type IntakePatch struct {
	Status       ProcessingStatus
	ListingID    string
	TaskID       string
	EntityType   EntityType
	ErrorMessage string
	ProcessedAt  time.Time
}
