// Package request defines the inbound payload types of the HTTP surface and
// their validation.
package request

import (
	"errors"
	"fmt"
	"strings"
)

// EvolutionWebhook is the envelope Evolution API posts for inbound WhatsApp
// events. Only messages.upsert events carry a message we handle.
type EvolutionWebhook struct {
	Event    string        `json:"event"`
	Instance string        `json:"instance"`
	Data     EvolutionData `json:"data"`
}

type EvolutionData struct {
	Key         EvolutionKey     `json:"key"`
	PushName    string           `json:"pushName"`
	Message     EvolutionMessage `json:"message"`
	MessageType string           `json:"messageType"`
	Timestamp   int64            `json:"messageTimestamp"`
}

type EvolutionKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type EvolutionMessage struct {
	Conversation    string                 `json:"conversation"`
	ExtendedText    *EvolutionExtendedText `json:"extendedTextMessage,omitempty"`
	AudioMessage    *EvolutionAudio        `json:"audioMessage,omitempty"`
	Base64Audio     string                 `json:"base64,omitempty"`
	MediaURLMessage string                 `json:"mediaUrl,omitempty"`
}

type EvolutionExtendedText struct {
	Text string `json:"text"`
}

type EvolutionAudio struct {
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
	Seconds  int    `json:"seconds"`
}

// Validate checks the webhook carries a handleable inbound message.
func (w *EvolutionWebhook) Validate() error {
	if !strings.EqualFold(w.Event, "messages.upsert") {
		return fmt.Errorf("unsupported event: %s", w.Event)
	}
	if w.Data.Key.RemoteJID == "" {
		return errors.New("remoteJid is required")
	}
	if w.Data.Key.FromMe {
		return errors.New("own messages are not processed")
	}
	if w.Text() == "" && !w.HasAudio() {
		return errors.New("message carries neither text nor audio")
	}
	return nil
}

// Text returns the message text, preferring plain conversation over the
// extended form.
func (w *EvolutionWebhook) Text() string {
	if w.Data.Message.Conversation != "" {
		return w.Data.Message.Conversation
	}
	if w.Data.Message.ExtendedText != nil {
		return w.Data.Message.ExtendedText.Text
	}
	return ""
}

// HasAudio reports whether the message is a voice note.
func (w *EvolutionWebhook) HasAudio() bool {
	return w.Data.Message.AudioMessage != nil || w.Data.Message.Base64Audio != ""
}
