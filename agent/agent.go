// Package agent orchestrates one inbound WhatsApp message end to end:
// transcription, classification, dispatch and reply delivery. Every inbound
// message produces exactly one reply; failures become user-facing text, not
// silence.
package agent

import (
	"context"
	"log"

	"github.com/google/uuid"

	"evodata/config"
	"evodata/dispatcher"
	"evodata/helper"
	"evodata/intent"
	"evodata/tools"
)

// Inbound is one user message after webhook decoding.
type Inbound struct {
	From      string
	MessageID string
	Text      string
	AudioPath string
}

// Transcriber converts a voice note file to text.
type Transcriber interface {
	Transcribe(path string) (string, error)
}

// QueryPlanner turns request text into a candidate statement with bound
// parameters. Its output is untrusted and still passes the validator.
type QueryPlanner interface {
	GenerateSQL(ctx context.Context, text string) (string, map[string]any, error)
}

// Deliverer sends replies back over the messaging transport.
type Deliverer interface {
	SendText(to, text string) error
	SendMedia(to, filePath, mediaType, caption string) error
}

// VoiceSynthesizer turns a text reply into a voice note. Voice mirrors the
// user: it is only consulted when the inbound message was audio. A nil
// synthesizer means text-only replies.
type VoiceSynthesizer interface {
	ShouldUseVoice(text string, userSentVoice bool) bool
	Synthesize(text string) (string, error)
}

// Agent wires the pipeline stages together.
type Agent struct {
	classifier     intent.Classifier
	planner        QueryPlanner
	dispatcher     *dispatcher.Dispatcher
	transcriber    Transcriber
	deliverer      Deliverer
	voice          VoiceSynthesizer
	deliveryMethod string
}

func New(classifier intent.Classifier, planner QueryPlanner, d *dispatcher.Dispatcher, transcriber Transcriber, deliverer Deliverer, voice VoiceSynthesizer) *Agent {
	method := "both"
	if config.AppConfig != nil && config.AppConfig.Files.DeliveryMethod != "" {
		method = config.AppConfig.Files.DeliveryMethod
	}
	return &Agent{
		classifier:     classifier,
		planner:        planner,
		dispatcher:     d,
		transcriber:    transcriber,
		deliverer:      deliverer,
		voice:          voice,
		deliveryMethod: method,
	}
}

// Handle processes one inbound message to completion. It never returns an
// error to the transport; whatever happens, the user gets a reply.
func (a *Agent) Handle(ctx context.Context, in Inbound) {
	requestID := uuid.NewString()[:8]
	log.Printf("[Agent] start request=%s from=%s message=%s", requestID, in.From, in.MessageID)

	userSentVoice := in.AudioPath != ""
	text := helper.NormalizeText(in.Text)
	if text == "" && userSentVoice {
		transcribed, err := a.transcriber.Transcribe(in.AudioPath)
		if err != nil {
			log.Printf("[Agent] transcription failed request=%s err=%v", requestID, err)
			a.reply(in.From, msgAudioFailed, false)
			return
		}
		text = helper.NormalizeText(transcribed)
	}
	if text == "" {
		a.reply(in.From, msgEmptyMessage, false)
		return
	}

	category, err := a.classifier.Classify(ctx, text)
	if err != nil {
		log.Printf("[Agent] classification failed request=%s err=%v", requestID, err)
		category = intent.IntentChat
	}
	log.Printf("[Agent] classified request=%s category=%s text=%q",
		requestID, category, helper.Truncate(text, 120))

	if category == intent.IntentChat {
		a.reply(in.From, msgCapabilities, userSentVoice)
		return
	}

	routed := intent.FromCategory(category, text)
	sqlText, params, err := a.planner.GenerateSQL(ctx, text)
	if err != nil {
		log.Printf("[Agent] sql planning failed request=%s err=%v", requestID, err)
		a.reply(in.From, msgPlanningFailed, userSentVoice)
		return
	}
	routed.Params["sql"] = sqlText
	routed.Params["params"] = params

	resp := a.dispatcher.Dispatch(ctx, routed)
	log.Printf("[Agent] dispatched request=%s state=%s status=%s",
		requestID, resp.State, resp.Result.Status)

	if !resp.Result.Success() {
		a.reply(in.From, errorMessage(resp.Result), userSentVoice)
		return
	}

	a.deliver(in.From, resp.Result)
}

// deliver sends the success reply. Results carrying a file go out according
// to the configured delivery method, tabular/scalar results as text.
func (a *Agent) deliver(to string, result tools.ToolResult) {
	filePath, _ := result.Metadata["file_path"].(string)
	if filePath == "" {
		a.reply(to, formatResult(result), false)
		return
	}

	mediaType, _ := result.Metadata["media_type"].(string)
	if mediaType == "" {
		mediaType = "document"
	}
	publicURL, _ := result.Metadata["public_url"].(string)
	caption := captionFor(result)

	sent := false
	if a.deliveryMethod == "both" || a.deliveryMethod == "attachment" {
		if err := a.deliverer.SendMedia(to, filePath, mediaType, caption); err != nil {
			log.Printf("[Agent] media delivery failed file=%s err=%v", filePath, err)
		} else {
			sent = true
		}
	}
	if a.deliveryMethod == "both" || a.deliveryMethod == "url" || !sent {
		if publicURL != "" {
			a.reply(to, caption+"\n"+msgDownloadPrefix+publicURL, false)
		} else if !sent {
			a.reply(to, msgDeliveryFailed, false)
		}
	}
}

// reply sends a text reply, spoken as a voice note when the user sent voice
// and the synthesizer accepts the text. Synthesis failures fall back to text.
func (a *Agent) reply(to, text string, userSentVoice bool) {
	if a.voice != nil && a.voice.ShouldUseVoice(text, userSentVoice) {
		audioPath, err := a.voice.Synthesize(text)
		if err == nil {
			if err := a.deliverer.SendMedia(to, audioPath, "audio", ""); err == nil {
				return
			}
			log.Printf("[Agent] voice delivery failed to=%s", to)
		} else {
			log.Printf("[Agent] voice synthesis failed err=%v", err)
		}
	}
	if err := a.deliverer.SendText(to, text); err != nil {
		log.Printf("[Agent] reply delivery failed to=%s err=%v", to, err)
	}
}
