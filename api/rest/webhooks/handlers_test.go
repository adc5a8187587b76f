package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apierrors "codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/internal/reconciler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

var now = time.Unix(1_760_000_000, 0)

type fakeHandler struct {
	calls int
	seen  map[string]bool
	err   error
}

func (f *fakeHandler) Handle(_ context.Context, ev *reconciler.Event) (*reconciler.Outcome, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	if f.seen == nil {
		f.seen = map[string]bool{}
	}

	out := &reconciler.Outcome{EventID: ev.ID, Type: ev.Type, Duplicate: f.seen[ev.ID]}
	f.seen[ev.ID] = true

	return out, nil
}

func newRouter(h EventHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/webhooks/payments", PaymentWebhook(h, Config{Secret: secret, Tolerance: 5 * time.Minute}, func() time.Time { return now }))

	return router
}

func send(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if signature != "" {
		req.Header.Set(reconciler.SignatureHeader, signature)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

var checkout = []byte(`{"id":"evt_1","type":"checkout.session.completed","created":1760000000,` +
	`"data":{"object":{"id":"cs_1","amount_total":1000,"currency":"usd","metadata":{"user_id":"u1","plan_id":"pro"}}}}`)

func TestPaymentWebhook_ValidSignature(t *testing.T) {
	h := &fakeHandler{}
	router := newRouter(h)

	w := send(router, checkout, reconciler.SignPayload(checkout, secret, now))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out reconciler.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "evt_1", out.EventID)
	assert.False(t, out.Duplicate)

	// redelivery is acknowledged with 200
	w = send(router, checkout, reconciler.SignPayload(checkout, secret, now))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Duplicate)
}

func TestPaymentWebhook_RejectedBeforeParsing(t *testing.T) {
	tampered := bytes.Replace(checkout, []byte(`1000`), []byte(`1`), 1)

	tests := []struct {
		name      string
		body      []byte
		signature string
	}{
		{"missing header", checkout, ""},
		{"wrong secret", checkout, reconciler.SignPayload(checkout, "other", now)},
		{"tampered body", tampered, reconciler.SignPayload(checkout, secret, now)},
		{"stale timestamp", checkout, reconciler.SignPayload(checkout, secret, now.Add(-10*time.Minute))},
		{"future timestamp", checkout, reconciler.SignPayload(checkout, secret, now.Add(10*time.Minute))},
		{"garbage header", []byte(`not json`), "t=abc,v1=zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandler{}

			w := send(newRouter(h), tt.body, tt.signature)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp apierrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, apierrors.CodeInvalidSignature, resp.Error)
			assert.Zero(t, h.calls)
		})
	}
}

func TestPaymentWebhook_InvalidPayload(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed"}`)
	h := &fakeHandler{}

	w := send(newRouter(h), body, reconciler.SignPayload(body, secret, now))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, h.calls)
}

func TestPaymentWebhook_HandlerFailureAsksForRedelivery(t *testing.T) {
	h := &fakeHandler{err: errors.New("db down")}

	w := send(newRouter(h), checkout, reconciler.SignPayload(checkout, secret, now))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
