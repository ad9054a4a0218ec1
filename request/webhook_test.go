package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvolutionWebhookValidate(t *testing.T) {
	base := func() *EvolutionWebhook {
		return &EvolutionWebhook{
			Event: "messages.upsert",
			Data: EvolutionData{
				Key:     EvolutionKey{RemoteJID: "521555@s.whatsapp.net", ID: "M1"},
				Message: EvolutionMessage{Conversation: "hola"},
			},
		}
	}

	w := base()
	assert.NoError(t, w.Validate())

	w = base()
	w.Event = "connection.update"
	assert.Error(t, w.Validate())

	w = base()
	w.Data.Key.RemoteJID = ""
	assert.Error(t, w.Validate())

	w = base()
	w.Data.Key.FromMe = true
	assert.Error(t, w.Validate())

	w = base()
	w.Data.Message = EvolutionMessage{}
	assert.Error(t, w.Validate())

	w = base()
	w.Data.Message = EvolutionMessage{AudioMessage: &EvolutionAudio{URL: "http://x", MimeType: "audio/ogg"}}
	assert.NoError(t, w.Validate())
}

func TestEvolutionWebhookTextPrefersConversation(t *testing.T) {
	w := &EvolutionWebhook{Data: EvolutionData{Message: EvolutionMessage{
		Conversation: "plano",
		ExtendedText: &EvolutionExtendedText{Text: "extendido"},
	}}}
	assert.Equal(t, "plano", w.Text())

	w.Data.Message.Conversation = ""
	assert.Equal(t, "extendido", w.Text())
}

func TestEvolutionWebhookDecodesRealPayload(t *testing.T) {
	payload := `{
		"event": "messages.upsert",
		"instance": "clientes",
		"data": {
			"key": {"remoteJid": "5215550001111@s.whatsapp.net", "fromMe": false, "id": "ABC123"},
			"pushName": "Ana",
			"message": {"extendedTextMessage": {"text": "exporta los clientes a excel"}},
			"messageType": "extendedTextMessage",
			"messageTimestamp": 1756000000
		}
	}`

	var w EvolutionWebhook
	require.NoError(t, json.Unmarshal([]byte(payload), &w))
	require.NoError(t, w.Validate())
	assert.Equal(t, "exporta los clientes a excel", w.Text())
	assert.Equal(t, "ABC123", w.Data.Key.ID)
	assert.False(t, w.HasAudio())
}
