package reconciler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Unix(1_760_000_000, 0)

	valid := SignPayload(body, secret, now)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		now     time.Time
		wantErr bool
	}{
		{name: "valid", payload: body, header: valid, secret: secret, now: now},
		{name: "valid within tolerance", payload: body, header: valid, secret: secret, now: now.Add(4 * time.Minute)},
		{name: "expired", payload: body, header: valid, secret: secret, now: now.Add(6 * time.Minute), wantErr: true},
		{name: "from the future", payload: body, header: valid, secret: secret, now: now.Add(-6 * time.Minute), wantErr: true},
		{name: "tampered body", payload: []byte(`{"id":"evt_2"}`), header: valid, secret: secret, now: now, wantErr: true},
		{name: "wrong secret", payload: body, header: valid, secret: "other", now: now, wantErr: true},
		{name: "empty header", payload: body, header: "", secret: secret, now: now, wantErr: true},
		{name: "no v1", payload: body, header: "t=1760000000", secret: secret, now: now, wantErr: true},
		{name: "bad timestamp", payload: body, header: "t=abc,v1=00", secret: secret, now: now, wantErr: true},
		{name: "not hex", payload: body, header: "t=1760000000,v1=zz", secret: secret, now: now, wantErr: true},
		{name: "no secret configured", payload: body, header: valid, secret: "", now: now, wantErr: true},
		{
			name:    "extra signatures are ignored",
			payload: body,
			header:  valid + ",v1=" + strings.Repeat("0", 64),
			secret:  secret,
			now:     now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.payload, tt.header, tt.secret, 5*time.Minute, tt.now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSignature)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestSignPayloadFormat(t *testing.T) {
	header := SignPayload([]byte("{}"), "s", time.Unix(42, 0))

	require.True(t, strings.HasPrefix(header, "t=42,v1="))
	assert.Len(t, strings.TrimPrefix(header, "t=42,v1="), 64)
}
