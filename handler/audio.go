package handler

import (
	"encoding/base64"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"evodata/request"
)

// saveInboundAudio persists a base64 voice note to a temp file for the
// transcriber. Returns "" when the event carries no decodable audio; the
// agent then answers with its usual empty-message hint.
func saveInboundAudio(req *request.EvolutionWebhook) string {
	encoded := req.Data.Message.Base64Audio
	if encoded == "" {
		log.Printf("[Webhook] audio message without base64 payload id=%s", req.Data.Key.ID)
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Printf("[Webhook] audio decode failed id=%s err=%v", req.Data.Key.ID, err)
		return ""
	}

	path := filepath.Join(os.TempDir(), "voice_"+uuid.NewString()[:8]+audioExt(req))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		log.Printf("[Webhook] audio write failed id=%s err=%v", req.Data.Key.ID, err)
		return ""
	}
	return path
}

func audioExt(req *request.EvolutionWebhook) string {
	if a := req.Data.Message.AudioMessage; a != nil {
		if strings.Contains(a.MimeType, "mpeg") {
			return ".mp3"
		}
		if strings.Contains(a.MimeType, "mp4") {
			return ".m4a"
		}
	}
	return ".ogg"
}
