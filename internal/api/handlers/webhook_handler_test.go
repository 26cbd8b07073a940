package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/tg-asana/internal/service"
)

type fakeIntake struct {
	messages []*telego.Message
	err      error
}

func (f *fakeIntake) HandleMessage(_ context.Context, msg *telego.Message) (service.Result, error) {
	f.messages = append(f.messages, msg)
	return service.Result{Outcome: service.OutcomeTask}, f.err
}

func post(h *WebhookHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.HandleUpdate(rr, req)
	return rr
}

const groupMentionUpdate = `{
  "update_id": 1001,
  "message": {
    "message_id": 77,
    "date": 1700000000,
    "from": {"id": 11, "is_bot": false, "first_name": "Ann"},
    "chat": {"id": -100123, "type": "supergroup", "title": "Ops"},
    "text": "@TaskBot printer jammed",
    "entities": [{"type": "mention", "offset": 0, "length": 8}]
  }
}`

func TestHandleUpdateDecodesMessage(t *testing.T) {
	intake := &fakeIntake{}
	h := NewWebhookHandler(intake, "", nil, nil)

	rr := post(h, groupMentionUpdate, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	require.Len(t, intake.messages, 1)
	msg := intake.messages[0]
	assert.Equal(t, 77, msg.MessageID)
	assert.Equal(t, int64(-100123), msg.Chat.ID)
	assert.Equal(t, "supergroup", msg.Chat.Type)
	assert.Equal(t, "Ann", msg.From.FirstName)
	require.Len(t, msg.Entities, 1)
	assert.Equal(t, "mention", msg.Entities[0].Type)
}

func TestHandleUpdateDecodesForwardOrigin(t *testing.T) {
	intake := &fakeIntake{}
	h := NewWebhookHandler(intake, "", nil, nil)

	body := `{
	  "update_id": 5,
	  "message": {
	    "message_id": 3,
	    "date": 1700000000,
	    "from": {"id": 42, "is_bot": false, "first_name": "Zoe"},
	    "chat": {"id": 42, "type": "private", "first_name": "Zoe"},
	    "forward_origin": {"type": "user", "date": 1690000000, "sender_user": {"id": 9, "is_bot": false, "first_name": "Carl"}},
	    "text": "forwarded text"
	  }
	}`
	rr := post(h, body, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, intake.messages, 1)

	origin, ok := intake.messages[0].ForwardOrigin.(*telego.MessageOriginUser)
	require.True(t, ok, "forward origin type %T", intake.messages[0].ForwardOrigin)
	assert.Equal(t, "Carl", origin.SenderUser.FirstName)
}

func TestHandleUpdateWithoutMessage(t *testing.T) {
	intake := &fakeIntake{}
	h := NewWebhookHandler(intake, "", nil, nil)

	rr := post(h, `{"update_id": 1, "edited_message": {"message_id": 1, "date": 1, "chat": {"id": 1, "type": "private"}}}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, intake.messages)
}

func TestHandleUpdateBadRequests(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"whitespace": "   ",
		"null":       "null",
		"not json":   "update=1",
		"array":      "[1,2]",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			intake := &fakeIntake{}
			h := NewWebhookHandler(intake, "", nil, nil)

			rr := post(h, body, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
			assert.Empty(t, intake.messages)
		})
	}
}

func TestHandleUpdateTooLarge(t *testing.T) {
	h := NewWebhookHandler(&fakeIntake{}, "", nil, nil)
	body := `{"update_id":1,"message":{"text":"` + strings.Repeat("a", maxUpdateBytes) + `"}}`

	rr := post(h, body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHandleUpdateSecret(t *testing.T) {
	intake := &fakeIntake{}
	h := NewWebhookHandler(intake, "s3cret", nil, nil)

	rr := post(h, groupMentionUpdate, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = post(h, groupMentionUpdate, map[string]string{secretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, intake.messages)

	rr = post(h, groupMentionUpdate, map[string]string{secretHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, intake.messages, 1)
}

func TestHandleUpdateTaskCreationFailure(t *testing.T) {
	intake := &fakeIntake{err: fmt.Errorf("%w: boom", service.ErrTaskCreation)}
	h := NewWebhookHandler(intake, "", nil, nil)

	rr := post(h, groupMentionUpdate, nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "boom")
}

func TestHandleUpdateUnexpectedError(t *testing.T) {
	intake := &fakeIntake{err: errors.New("unexpected")}
	h := NewWebhookHandler(intake, "", nil, nil)

	rr := post(h, groupMentionUpdate, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleUpdateWithoutIntake(t *testing.T) {
	h := NewWebhookHandler(nil, "", nil, nil)

	rr := post(h, groupMentionUpdate, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Configuration error")
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler("TaskBot", "1200")
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","bot":"TaskBot","project":"1200"}`, rr.Body.String())
}
