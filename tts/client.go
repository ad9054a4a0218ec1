// Package tts synthesizes short voice replies through the ElevenLabs
// text-to-speech endpoint. Voice replies mirror the user: they go out only
// when the inbound message was a voice note.
package tts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"evodata/config"
	"evodata/helper"
)

// maxVoiceChars caps what gets spoken; longer replies stay text.
const maxVoiceChars = 500

type Client struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
	enabled bool
	client  *http.Client
}

func NewClient() *Client {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	keySource := "env"

	enabled := false
	baseURL := "https://api.elevenlabs.io/v1"
	voiceID := "21m00Tcm4TlvDq8ikWAM"
	modelID := "eleven_multilingual_v2"
	timeout := 30 * time.Second

	if config.AppConfig != nil {
		cfg := config.AppConfig.TTS
		enabled = cfg.Enabled
		if apiKey == "" {
			apiKey = cfg.APIKey
			keySource = "config"
		}
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.VoiceID != "" {
			voiceID = cfg.VoiceID
		}
		if cfg.ModelID != "" {
			modelID = cfg.ModelID
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}

	if enabled && apiKey == "" {
		log.Printf("[TTS] warning: enabled but API key not configured, voice replies off")
		enabled = false
	}
	log.Printf("[TTS] init enabled=%t voice=%s model=%s key_source=%s", enabled, voiceID, modelID, keySource)

	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		VoiceID: voiceID,
		ModelID: modelID,
		enabled: enabled,
		client:  &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether synthesis is available at all.
func (c *Client) Enabled() bool { return c.enabled }

// ShouldUseVoice decides whether a reply goes out as audio: the client must be
// enabled, the user must have sent voice, and the text must be short enough
// to speak.
func (c *Client) ShouldUseVoice(text string, userSentVoice bool) bool {
	return c.enabled && userSentVoice && text != "" && len(text) <= maxVoiceChars
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize converts text to speech and returns the path of the generated
// mp3 file in the temp directory. The caller owns the file.
func (c *Client) Synthesize(text string) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("voice synthesis is not enabled")
	}

	payload := synthesisRequest{
		Text:    text,
		ModelID: c.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode synthesis request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/text-to-speech/" + c.VoiceID
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("xi-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[TTS] synthesis failed status=%d body=%s",
			resp.StatusCode, helper.Truncate(string(detail), 300))
		return "", fmt.Errorf("synthesis returned status %d", resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("reply_%s.mp3", uuid.NewString()[:8]))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write audio file: %w", err)
	}

	log.Printf("[TTS] ok bytes=%d duration=%s", n, time.Since(start))
	return path, nil
}
