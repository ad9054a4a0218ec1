package tts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, enabled bool) *Client {
	return &Client{
		APIKey:  "test-key",
		BaseURL: baseURL,
		VoiceID: "voz123",
		ModelID: "eleven_multilingual_v2",
		enabled: enabled,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestShouldUseVoiceMirrorsTheUser(t *testing.T) {
	c := newTestClient("http://unused", true)

	assert.True(t, c.ShouldUseVoice("hola", true))
	assert.False(t, c.ShouldUseVoice("hola", false), "text messages get text replies")
	assert.False(t, c.ShouldUseVoice("", true))
	assert.False(t, c.ShouldUseVoice(strings.Repeat("x", maxVoiceChars+1), true),
		"long replies stay text")

	disabled := newTestClient("http://unused", false)
	assert.False(t, disabled.ShouldUseVoice("hola", true))
}

func TestSynthesizeWritesAudioFile(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, true)
	path, err := c.Synthesize("Encontré 3 resultados.")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	assert.Equal(t, "/text-to-speech/voz123", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "Encontré 3 resultados.", gotBody["text"])
	assert.Equal(t, "eleven_multilingual_v2", gotBody["model_id"])
	settings, ok := gotBody["voice_settings"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.5, settings["stability"].(float64), 0.001)

	assert.True(t, strings.HasSuffix(path, ".mp3"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
}

func TestSynthesizeFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail": "invalid voice"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, true)
	_, err := c.Synthesize("hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSynthesizeRejectedWhenDisabled(t *testing.T) {
	c := newTestClient("http://unused", false)
	_, err := c.Synthesize("hola")
	assert.Error(t, err)
}
