package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlattenSingleMessagePassesThroughVerbatim(t *testing.T) {
	b := &MessageBatch{
		SenderID:  "U1",
		ChannelID: "C1",
		Messages: []QueuedMessage{
			{Text: "New sale listing at 123 Main St", ExternalID: "1700000000.000100"},
		},
	}
	require.Equal(t, "New sale listing at 123 Main St", b.FlattenForClassification())
}

func TestFlattenMultipleMessagesAddsPreambleAndOrder(t *testing.T) {
	b := &MessageBatch{
		SenderID:  "U1",
		ChannelID: "C1",
		Messages: []QueuedMessage{
			{Text: "New listing at 123 Main St", ExternalID: "1700000000.000100"},
			{Text: "It's a sale", ExternalID: "1700000000.000200"},
			{Text: "Assign to Sarah", ExternalID: "1700000000.000300"},
		},
	}

	got := b.FlattenForClassification()
	want := "User sent the following messages in quick succession. " +
		"Classify these as a single unit (they are related):\n\n" +
		"Message 1 [1700000000.000100]: New listing at 123 Main St\n" +
		"Message 2 [1700000000.000200]: It's a sale\n" +
		"Message 3 [1700000000.000300]: Assign to Sarah\n"
	require.Equal(t, want, got)
}

func TestFlattenEmptyBatch(t *testing.T) {
	b := &MessageBatch{}
	require.Equal(t, "", b.FlattenForClassification())
}

func TestExternalIDsPreserveArrivalOrder(t *testing.T) {
	b := &MessageBatch{
		Messages: []QueuedMessage{
			{ExternalID: "1.1"},
			{ExternalID: "1.2"},
			{ExternalID: "1.3"},
		},
	}
	require.Equal(t, []string{"1.1", "1.2", "1.3"}, b.ExternalIDs())
}

func TestPrimaryThreadIDPicksFirstThreadedMessage(t *testing.T) {
	b := &MessageBatch{
		Messages: []QueuedMessage{
			{ExternalID: "1.1"},
			{ExternalID: "1.2", ThreadID: "1.0"},
			{ExternalID: "1.3", ThreadID: "2.0"},
		},
	}
	require.Equal(t, "1.0", b.PrimaryThreadID())

	unthreaded := &MessageBatch{Messages: []QueuedMessage{{ExternalID: "1.1"}}}
	require.Equal(t, "", unthreaded.PrimaryThreadID())
}

func TestReferenceTimeIsFirstArrival(t *testing.T) {
	first := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	b := &MessageBatch{
		Messages: []QueuedMessage{
			{ReceivedAt: first},
			{ReceivedAt: first.Add(time.Second)},
		},
	}
	require.Equal(t, first, b.ReferenceTime())
	require.True(t, (&MessageBatch{}).ReferenceTime().IsZero())
}
