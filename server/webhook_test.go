package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gthalib/tulip/internal/bot"
)

const metaPayload = `{
  "entry": [{
    "changes": [{
      "value": {
        "metadata": {"phone_number_id": "1029384756"},
        "messages": [{
          "id": "wamid.abc",
          "from": "628111",
          "type": "text",
          "text": {"body": "hello"}
        }]
      }
    }]
  }]
}`

const gatewayPayload = `{
  "data": [{
    "phone_number_id": "1029384756",
    "message": {
      "id": "wamid.def",
      "from": "628222",
      "type": "text",
      "text": {"body": "add 628333"},
      "kapso": {"direction": "inbound"}
    }
  }]
}`

func TestNormalizeWebhookMetaShape(t *testing.T) {
	batches, err := normalizeWebhook([]byte(metaPayload), "fallback")
	require.NoError(t, err)
	require.Len(t, batches, 1)

	assert.Equal(t, "1029384756", batches[0].PhoneNumberID)
	assert.Equal(t, "628111", batches[0].Message.From)
	assert.Equal(t, "hello", batches[0].Message.Text.Body)
	assert.Equal(t, "wamid.abc", batches[0].Message.ID)
}

func TestNormalizeWebhookGatewayShape(t *testing.T) {
	batches, err := normalizeWebhook([]byte(gatewayPayload), "fallback")
	require.NoError(t, err)
	require.Len(t, batches, 1)

	assert.Equal(t, "628222", batches[0].Message.From)
	assert.Equal(t, "inbound", batches[0].Message.Gateway.Direction)
}

func TestNormalizeWebhookFallbackPhoneNumberID(t *testing.T) {
	payload := `{"data": [{"message": {"id": "m1", "from": "628111", "text": {"body": "hi"}}}]}`
	batches, err := normalizeWebhook([]byte(payload), "default-pnid")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "default-pnid", batches[0].PhoneNumberID)
}

func TestNormalizeWebhookUnknownShape(t *testing.T) {
	batches, err := normalizeWebhook([]byte(`{"object": "whatsapp_business_account"}`), "x")
	require.NoError(t, err)
	assert.Empty(t, batches)

	_, err = normalizeWebhook([]byte(`not json`), "x")
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	secret := "top-secret"
	body := []byte(`{"entry": []}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.True(t, verifySignature(secret, body, valid))
	assert.False(t, verifySignature(secret, body, "sha256=deadbeef"))
	assert.False(t, verifySignature(secret, body, "md5=whatever"))
	assert.False(t, verifySignature(secret, body, ""))
	assert.False(t, verifySignature("other-secret", body, valid))
}

func TestFormatReply(t *testing.T) {
	reply := &bot.Reply{
		Module:    "Base",
		Submodule: "Settings",
		Intent:    "Create whitelist",
		ModelUsed: "gemini-2.5-flash",
		Body:      "Done!\n- added 628555",
	}
	assert.Equal(t,
		"Module: Base\nIntent: Create whitelist\nModel: gemini-2.5-flash\n\nDone!\n- added 628555",
		formatReply(reply))
}

func TestFormatReplyNoModel(t *testing.T) {
	reply := &bot.Reply{Module: "Base", Intent: "Other", Body: "Sorry."}
	assert.Equal(t, "Module: Base\nIntent: Other\nModel: None\n\nSorry.", formatReply(reply))
}
