package intent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"evodata/config"
)

const classifyPrompt = `Eres un clasificador de intenciones para un asistente de datos por WhatsApp.
Clasifica el mensaje del usuario en exactamente una de estas categorías:
query, visualization, export, analysis, calculation, chat.
Responde únicamente con la palabra de la categoría, sin explicaciones.`

// LLMClassifier refines classification with a chat model. Any failure or
// out-of-vocabulary answer falls back to the keyword classifier, so the
// pipeline never depends on the model being reachable.
type LLMClassifier struct {
	chatModel model.BaseChatModel
	fallback  *KeywordClassifier
	timeout   time.Duration
}

// NewLLMClassifier builds the DeepSeek-backed classifier from config.
func NewLLMClassifier(ctx context.Context) (*LLMClassifier, error) {
	cfg := config.AppConfig.DeepSeek
	cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init deepseek chat model: %w", err)
	}
	return &LLMClassifier{
		chatModel: cm,
		fallback:  NewKeywordClassifier(),
		timeout:   10 * time.Second,
	}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(classifyPrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		log.Printf("[Intent] llm classification failed, using keywords err=%v", err)
		return c.fallback.Classify(ctx, text)
	}

	category := strings.ToLower(strings.TrimSpace(resp.Content))
	if !ValidCategory(category) {
		log.Printf("[Intent] llm returned unknown category=%q, using keywords", category)
		return c.fallback.Classify(ctx, text)
	}
	return category, nil
}
