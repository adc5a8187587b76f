package reconciler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// header carrying "t=<unix>,v1=<hex>"
const SignatureHeader = "Payment-Signature"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// checks an HMAC-SHA256 signature over "<t>.<body>" and rejects timestamps outside tolerance
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: no secret configured", ErrInvalidSignature)
	}

	ts, sigs, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	signedAt := time.Unix(ts, 0)
	if tolerance > 0 {
		if d := now.Sub(signedAt); d > tolerance || d < -tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}

	expected := computeSignature(payload, secret, ts)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}

		if hmac.Equal(got, expected) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching signature", ErrInvalidSignature)
}

// builds a header value for payload; used by tests and the ledger CLI
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(payload, secret, ts)))
}

func computeSignature(payload []byte, secret string, ts int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)

	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing header", ErrInvalidSignature)
	}

	var (
		ts   int64
		sigs []string
	)

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}

		switch key {
		case "t":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}

			ts = n
		case "v1":
			sigs = append(sigs, value)
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	return ts, sigs, nil
}
