// Package whatsapp is the Evolution API client: outbound text and media
// delivery for the agent's replies.
package whatsapp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"evodata/config"
	"evodata/helper"
)

type Client struct {
	BaseURL  string
	Instance string
	APIKey   string
	client   *http.Client
}

func NewClient() *Client {
	baseURL := "http://localhost:8080"
	instance := "clientes"
	apiKey := ""
	timeout := 30 * time.Second

	if config.AppConfig != nil {
		cfg := config.AppConfig.Evolution
		if cfg.URL != "" {
			baseURL = cfg.URL
		}
		if cfg.Instance != "" {
			instance = cfg.Instance
		}
		apiKey = cfg.APIKey
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	if apiKey == "" {
		log.Printf("[Evolution] warning: API key not configured")
	}

	log.Printf("[Evolution] init endpoint=%s instance=%s timeout=%s", baseURL, instance, timeout)

	return &Client{
		BaseURL:  baseURL,
		Instance: instance,
		APIKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Caption   string `json:"caption,omitempty"`
	Media     string `json:"media"`
	FileName  string `json:"fileName"`
}

// SendText delivers a plain text message to a WhatsApp number or JID.
func (c *Client) SendText(to, text string) error {
	body := sendTextRequest{Number: normalizeJID(to), Text: text}
	return c.post("/message/sendText/", body)
}

// SendMedia delivers a local file as a base64 media attachment. mediaType is
// Evolution's category ("image" or "document").
func (c *Client) SendMedia(to, filePath, mediaType, caption string) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read media file: %w", err)
	}

	body := sendMediaRequest{
		Number:    normalizeJID(to),
		MediaType: mediaType,
		MimeType:  mimeTypeFor(filePath),
		Caption:   caption,
		Media:     base64.StdEncoding.EncodeToString(raw),
		FileName:  fileName(filePath),
	}
	return c.post("/message/sendMedia/", body)
}

func (c *Client) post(path string, body any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal evolution request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + path + c.Instance
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("build evolution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("evolution request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Evolution] send failed path=%s status=%d body=%s",
			path, resp.StatusCode, helper.Truncate(string(respBody), 300))
		return fmt.Errorf("evolution returned status %d", resp.StatusCode)
	}

	log.Printf("[Evolution] sent path=%s status=%d duration=%s", path, resp.StatusCode, time.Since(start))
	return nil
}

// normalizeJID strips the WhatsApp JID suffix so Evolution gets a bare number.
func normalizeJID(to string) string {
	if i := strings.IndexByte(to, '@'); i >= 0 {
		return to[:i]
	}
	return to
}

func fileName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func mimeTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(path, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(path, ".ogg"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
