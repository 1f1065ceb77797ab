package domain

import (
	"fmt"
	"strings"
	"time"
)

// QueuedMessage is one inbound Slack message captured for batching.
// Immutable once created; owned by the batch that holds it.
type QueuedMessage struct {
	Text       string
	ReceivedAt time.Time
	// ExternalID is the Slack message timestamp, used as ordering and dedup key.
	ExternalID string
	// ThreadID is the Slack thread timestamp, empty for top-level messages.
	ThreadID string
}

// MessageBatch is one flushed accumulation unit for a (sender, channel) pair.
// Messages are in arrival order and are never reordered.
type MessageBatch struct {
	SenderID  string
	ChannelID string
	Messages  []QueuedMessage
}

const batchPreamble = "User sent the following messages in quick succession. " +
	"Classify these as a single unit (they are related):\n\n"

// FlattenForClassification builds the single classification input for the
// batch. A single message passes through verbatim; multiple messages are
// rendered with their timestamps so the classifier can resolve relative
// dates per message.
func (b *MessageBatch) FlattenForClassification() string {
	if len(b.Messages) == 0 {
		return ""
	}
	if len(b.Messages) == 1 {
		return b.Messages[0].Text
	}

	var sb strings.Builder
	sb.WriteString(batchPreamble)
	for i, msg := range b.Messages {
		fmt.Fprintf(&sb, "Message %d [%s]: %s\n", i+1, msg.ExternalID, msg.Text)
	}
	return sb.String()
}

// ExternalIDs returns every constituent Slack timestamp in arrival order.
func (b *MessageBatch) ExternalIDs() []string {
	ids := make([]string, len(b.Messages))
	for i, msg := range b.Messages {
		ids[i] = msg.ExternalID
	}
	return ids
}

// PrimaryThreadID returns the thread timestamp of the first threaded
// message, or empty when no message belongs to a thread.
func (b *MessageBatch) PrimaryThreadID() string {
	for _, msg := range b.Messages {
		if msg.ThreadID != "" {
			return msg.ThreadID
		}
	}
	return ""
}

// ReferenceTime returns the arrival time of the first message, used as the
// reference for resolving relative dates during classification.
func (b *MessageBatch) ReferenceTime() time.Time {
	if len(b.Messages) == 0 {
		return time.Time{}
	}
	return b.Messages[0].ReceivedAt
}
