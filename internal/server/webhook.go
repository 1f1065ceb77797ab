package server

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/conf"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/service"
)

// WebhookHandler receives Slack Events API callbacks. It verifies the
// request signature, answers url_verification challenges, enqueues user
// messages and always acknowledges fast; processing happens after the
// debounce window, never inside the request.
type WebhookHandler struct {
	signingSecret string
	bypassVerify  bool
	intake        *service.IntakeService
	logger        *zap.Logger
}

// NewWebhookHandler creates the Slack events endpoint handler.
func NewWebhookHandler(cfg conf.SlackConfig, intake *service.IntakeService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		signingSecret: cfg.SigningSecret,
		bypassVerify:  cfg.BypassVerify,
		intake:        intake,
		logger:        logger.Named("webhook"),
	}
}

// HandleEvent is the POST /slack/events endpoint.
func (h *WebhookHandler) HandleEvent(c *fiber.Ctx) error {
	body := c.Body()

	if !h.bypassVerify {
		if err := h.verifySignature(c, body); err != nil {
			h.logger.Warn("signature verification failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid signature",
			})
		}
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Warn("failed to parse event", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid event payload",
		})
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid challenge payload",
			})
		}
		return c.SendString(challenge.Challenge)

	case slackevents.CallbackEvent:
		if ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			h.intake.HandleMessageEvent(ev)
		}
		return c.SendStatus(fiber.StatusOK)

	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

func (h *WebhookHandler) verifySignature(c *fiber.Ctx, body []byte) error {
	header := http.Header{}
	for key, vals := range c.GetReqHeaders() {
		for _, v := range vals {
			header.Add(key, v)
		}
	}

	verifier, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}
