package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"codeberg.org/promptdeck/server/internal/reconciler"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCommand(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec_test")
	t.Cleanup(viper.Reset)

	payload := `{"id":"evt_1","type":"payment.succeeded"}`

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(payload))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sign", "--timestamp", "1767225600"})

	require.NoError(t, rootCmd.Execute())

	line := strings.TrimSpace(out.String())
	prefix := reconciler.SignatureHeader + ": "
	require.True(t, strings.HasPrefix(line, prefix), line)

	header := strings.TrimPrefix(line, prefix)
	assert.True(t, strings.HasPrefix(header, "t=1767225600,v1="))

	signedAt := time.Unix(1767225600, 0)
	assert.NoError(t, reconciler.VerifySignature([]byte(payload), header, "whsec_test", time.Minute, signedAt))
	assert.Error(t, reconciler.VerifySignature([]byte(payload+" "), header, "whsec_test", time.Minute, signedAt))
}

func TestRequireSetting(t *testing.T) {
	t.Cleanup(viper.Reset)

	_, err := requireSetting("LEDGER_TEST_MISSING")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_TEST_MISSING")

	viper.Set("LEDGER_TEST_PRESENT", "yes")
	v, err := requireSetting("LEDGER_TEST_PRESENT")
	require.NoError(t, err)
	assert.Equal(t, "yes", v)
}
