package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
)

// SlackNotifier posts intake acknowledgments back to Slack channels.
type SlackNotifier struct {
	client *slack.Client
	logger *zap.Logger
}

var _ repo.NotifyRepo = (*SlackNotifier)(nil)

// NewSlackNotifier creates the notifier from a bot token.
func NewSlackNotifier(botToken string, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		client: slack.New(botToken),
		logger: logger.Named("notifier"),
	}
}

// SendAcknowledgment posts a confirmation for GROUP and STRAY
// classifications. INFO_REQUEST and IGNORE produce no post and return
// false with no error.
func (n *SlackNotifier) SendAcknowledgment(ctx context.Context, channelID, threadID string, c domain.Classification) (bool, error) {
	var text string
	switch c.MessageType {
	case domain.MessageTypeGroup:
		address := c.Listing.Address
		if address == "" {
			address = "Unknown Address"
		}
		text = fmt.Sprintf("🏠 Listing detected: %s - %s", formatGroupKey(c.GroupKey), address)
	case domain.MessageTypeStray:
		text = "✅ Task detected and added to your queue!"
	default:
		return false, nil
	}

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadID != "" {
		opts = append(opts, slack.MsgOptionTS(threadID))
	}

	_, ts, err := n.client.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return false, &repo.NotifyError{Channel: channelID, Err: err}
	}

	n.logger.Info("posted acknowledgment",
		zap.String("channel", channelID),
		zap.String("ts", ts),
		zap.String("message_type", string(c.MessageType)))
	return true, nil
}

// formatGroupKey renders SALE_LISTING as "Sale Listing" for display.
func formatGroupKey(key domain.GroupKey) string {
	s := string(key)
	if s == "" {
		s = "UNKNOWN"
	}
	words := strings.Split(strings.ToLower(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
