package server

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/usecase"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/conf"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/service"
)

// newTestApp builds a fiber app with only the webhook route. The debounce
// window is an hour so nothing flushes during a test and the pipeline
// behind the queue is never invoked.
func newTestApp(t *testing.T, bypassVerify bool) (*fiber.App, *service.IntakeService) {
	t.Helper()

	entities := usecase.NewEntityUsecase(nil, nil, nil, nil, zap.NewNop())
	intake := usecase.NewIntakeUsecase(nil, nil, entities, nil, zap.NewNop())
	svc := service.NewIntakeService(conf.QueueConfig{
		DebounceWindow: time.Hour,
		MaxBatchSize:   100,
	}, intake, zap.NewNop())

	handler := NewWebhookHandler(conf.SlackConfig{
		SigningSecret: "test-secret",
		BypassVerify:  bypassVerify,
	}, svc, zap.NewNop())

	app := fiber.New()
	app.Post("/slack/events", handler.HandleEvent)
	return app, svc
}

func postEvent(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/slack/events", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestWebhookURLVerificationChallenge(t *testing.T) {
	app, _ := newTestApp(t, true)

	status, body := postEvent(t, app,
		`{"type":"url_verification","challenge":"challenge-token-123"}`)

	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "challenge-token-123", body)
}

func TestWebhookEnqueuesUserMessage(t *testing.T) {
	app, svc := newTestApp(t, true)

	status, _ := postEvent(t, app, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"user": "U123",
			"channel": "C456",
			"text": "new sale listing at 123 Main St",
			"ts": "1700000000.000100",
			"channel_type": "channel"
		}
	}`)

	require.Equal(t, fiber.StatusOK, status)
	stats := svc.QueueStats()
	require.Equal(t, 1, stats.Batches)
	require.Equal(t, 1, stats.PerKey["U123:C456"])
}

func TestWebhookIgnoresBotAndSubtypeMessages(t *testing.T) {
	app, svc := newTestApp(t, true)

	status, _ := postEvent(t, app, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"bot_id": "B99",
			"channel": "C456",
			"text": "automated",
			"ts": "1700000000.000200"
		}
	}`)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = postEvent(t, app, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"subtype": "message_changed",
			"user": "U123",
			"channel": "C456",
			"text": "edited",
			"ts": "1700000000.000300"
		}
	}`)
	require.Equal(t, fiber.StatusOK, status)

	require.Zero(t, svc.QueueStats().Batches)
}

func TestWebhookRejectsUnsignedRequests(t *testing.T) {
	app, svc := newTestApp(t, false)

	status, _ := postEvent(t, app,
		`{"type":"url_verification","challenge":"nope"}`)

	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Zero(t, svc.QueueStats().Batches)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	app, _ := newTestApp(t, true)

	status, _ := postEvent(t, app, `{not json`)
	require.Equal(t, fiber.StatusBadRequest, status)
}
