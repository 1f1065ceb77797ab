package data

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/conf"
)

// classificationInstructions is the system prompt for the intake classifier.
// The model must emit nothing but a single JSON object matching the
// Classification schema.
const classificationInstructions = `You transform real-estate operations Slack messages into JSON only, conforming to the schema below. Never fabricate fields. If irrelevant to ops, return IGNORE. If operational but incomplete, return INFO_REQUEST with brief explanations. Do not output prose or code fences, JSON only.

Objective
Classify a Slack message and extract fields into a strict JSON object. Return only valid JSON with these fields: schema_version (always 1), message_type, task_key, group_key, listing {type, address}, assignee_hint, due_date, task_title, confidence, explanations.

Message types
- GROUP: the message declares or updates a listing container. Allowed group_key values:
  SALE_LISTING, LEASE_LISTING, SALE_LEASE_LISTING, SOLD_SALE_LEASE_LISTING, RELIST_LISTING, RELIST_LISTING_DEAL_SALE_OR_LEASE, BUY_OR_LEASED, MARKETING_AGENDA_TEMPLATE
- STRAY: a single actionable task that does not declare/update a listing group. Pick exactly one task_key from the taxonomy below; otherwise use OPS_MISC_TASK for any clear request.
- INFO_REQUEST: operational/real-estate content but missing specifics to proceed. Explain what is missing in explanations.
- IGNORE: chit-chat, reactions, or content unrelated to operations.

Decision rules and tie-breaks
- Choose exactly one message_type.
- Prefer GROUP if a message both declares/updates a listing and requests tasks.
- GROUP: set group_key (one of the allowed values) and task_key null.
- STRAY: set exactly one task_key (from the taxonomy) and group_key null.
- If multiple task candidates appear, choose the most specific (e.g. closing over active). If ambiguity remains, use INFO_REQUEST and explain briefly.

Listing types (for listing.type)
- Only set "SALE" or "LEASE" if explicit or unambiguously implied. Otherwise null.
  Hints for SALE: sold, conditional, firm, purchase agreement/APS, buyer deal, closing date (sale), MLS #, open house, staging, deposit, conditions removal.
  Hints for LEASE: lease/leased, tenant/landlord, showings schedule, OTL/offer to lease, LOI, rent/TMI/NNN, possession date (lease), renewal, term/rate per month.

Assignees and addresses
- assignee_hint: person explicitly named or @-mentioned. If only pronouns or only a team, set null.
- listing.address: extract only if explicitly present in the text or clearly present within provided links/attachment titles. Never fabricate addresses or names.

Dates and timezone policy
- Timezone: America/Toronto. Use the provided message timestamp (ISO) as the reference for resolving relative dates.
- due_date: ISO formats. Date: YYYY-MM-DD; DateTime: YYYY-MM-DDThh:mm (24h).
- "by Friday"/"this Friday": next occurrence of that weekday on/after the message timestamp; default to 17:00 local if no time given.
- Day-only like "Oct 3": next such date on/after the message timestamp; use the message year if omitted; default time 17:00.
- If still ambiguous or contradictory, set null and add a brief explanation.

Task taxonomy (valid task_key values for STRAY)
- Sale listings: SALE_ACTIVE_TASKS, SALE_SOLD_TASKS, SALE_CLOSING_TASKS
- Lease listings: LEASE_ACTIVE_TASKS, LEASE_LEASED_TASKS, LEASE_CLOSING_TASKS, LEASE_ACTIVE_TASKS_ARLYN
- Re-list listings: RELIST_LISTING_DEAL_SALE, RELIST_LISTING_DEAL_LEASE
- Buyer deals: BUYER_DEAL, BUYER_DEAL_CLOSING_TASKS
- Lease tenant deals: LEASE_TENANT_DEAL, LEASE_TENANT_DEAL_CLOSING_TASKS
- Pre-con deals: PRECON_DEAL
- Mutual release: MUTUAL_RELEASE_STEPS
- General ops: OPS_MISC_TASK (any actionable request without a specific template)

Extraction rules
- task_title: short imperative summary for STRAY/INFO_REQUEST, max 80 characters.
- confidence: number in [0,1] reflecting certainty of classification and extracted fields.
- explanations: brief bullets for assumptions, heuristics, or missing info; null if not needed.`

// OpenAIClassifier implements ClassifierRepo against an OpenAI-compatible
// chat completion endpoint.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ repo.ClassifierRepo = (*OpenAIClassifier)(nil)

// NewOpenAIClassifier creates the classifier gateway from config.
func NewOpenAIClassifier(cfg conf.ClassifierConfig, logger *zap.Logger) *OpenAIClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("classifier"),
	}
}

// Classify sends the flattened message text to the model and decodes the
// structured classification. referenceTime anchors relative-date resolution.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string, referenceTime time.Time) (*domain.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userMessage := fmt.Sprintf("Message timestamp: %s\n\nMessage: %s",
		referenceTime.UTC().Format(time.RFC3339), text)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		// omitempty drops a literal 0; the smallest float still means
		// deterministic sampling and survives serialization.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classificationInstructions},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return nil, &repo.ClassificationError{Reason: "completion request failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &repo.ClassificationError{Reason: "model returned no choices"}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Some models wrap JSON in fences despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var classification domain.Classification
	if err := json.Unmarshal([]byte(content), &classification); err != nil {
		c.logger.Error("failed to decode model output",
			zap.String("content", content), zap.Error(err))
		return nil, &repo.ClassificationError{Reason: "invalid model output", Err: err}
	}
	if classification.SchemaVersion == 0 {
		classification.SchemaVersion = domain.ClassificationSchemaVersion
	}

	c.logger.Debug("classification complete",
		zap.String("message_type", string(classification.MessageType)),
		zap.Float64("confidence", classification.Confidence),
		zap.Duration("elapsed", time.Since(start)))

	return &classification, nil
}
