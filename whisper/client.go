// Package whisper transcribes WhatsApp voice notes through the OpenAI audio
// transcription endpoint.
package whisper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evodata/config"
	"evodata/helper"
)

var supportedFormats = map[string]struct{}{
	".ogg": {}, ".mp3": {}, ".wav": {}, ".m4a": {},
	".mp4": {}, ".mpga": {}, ".webm": {},
}

type Client struct {
	APIKey      string
	BaseURL     string
	Model       string
	Language    string
	maxFileSize int64
	client      *http.Client
}

func NewClient() *Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	keySource := "env"
	if apiKey == "" && config.AppConfig != nil {
		apiKey = config.AppConfig.OpenAI.APIKey
		keySource = "config"
	}
	if apiKey == "" {
		log.Printf("[Whisper] warning: API key not configured")
	}

	baseURL := "https://api.openai.com/v1"
	model := "whisper-1"
	language := "es"
	timeout := 60 * time.Second
	maxFileSize := int64(25) << 20

	if config.AppConfig != nil {
		cfg := config.AppConfig.OpenAI
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.WhisperModel != "" {
			model = cfg.WhisperModel
		}
		if cfg.WhisperLanguage != "" {
			language = cfg.WhisperLanguage
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if mb := config.AppConfig.Files.MaxFileSizeMB; mb > 0 {
			maxFileSize = int64(mb) << 20
		}
	}

	log.Printf("[Whisper] init model=%s endpoint=%s lang=%s key_source=%s", model, baseURL, language, keySource)

	return &Client{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       model,
		Language:    language,
		maxFileSize: maxFileSize,
		client:      &http.Client{Timeout: timeout},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// ValidateAudio checks the file exists, has a supported extension and is
// under the size limit.
func (c *Client) ValidateAudio(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedFormats[ext]; !ok {
		return fmt.Errorf("unsupported audio format: %s", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file not accessible: %w", err)
	}
	if info.Size() > c.maxFileSize {
		return fmt.Errorf("audio file exceeds %d MB limit", c.maxFileSize>>20)
	}
	return nil
}

// Transcribe sends the audio file to the transcription endpoint and returns
// the recognized text.
func (c *Client) Transcribe(path string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key is not configured")
	}
	if err := c.ValidateAudio(path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio into request: %w", err)
	}
	_ = w.WriteField("model", c.Model)
	if c.Language != "" {
		_ = w.WriteField("language", c.Language)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[Whisper] transcription failed status=%d body=%s",
			resp.StatusCode, helper.Truncate(string(body), 300))
		return "", fmt.Errorf("transcription returned status %d", resp.StatusCode)
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	log.Printf("[Whisper] ok chars=%d duration=%s", len(text), time.Since(start))
	return text, nil
}
