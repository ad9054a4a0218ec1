package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"evodata/config"
)

const sqlPrompt = `Eres un generador de SQL para MySQL sobre una base de datos de análisis de negocio.
Dada la petición del usuario, responde ÚNICAMENTE con un objeto JSON:
{"sql": "<una sola sentencia SELECT>", "params": {<valores para los placeholders>}}
Reglas:
- Solo SELECT (o WITH ... SELECT). Nunca modifiques datos.
- Usa placeholders :nombre para todo valor proveniente del usuario; nunca los incrustes en el SQL.
- Una sola sentencia, sin punto y coma final.
- Sin explicaciones ni bloques de código.`

// SQLGenerator turns a natural-language request into a candidate SELECT plus
// bound parameters. Its output is untrusted: everything it produces still
// goes through the validator before touching the database.
type SQLGenerator struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewSQLGenerator builds the DeepSeek-backed generator from config.
func NewSQLGenerator(ctx context.Context) (*SQLGenerator, error) {
	cfg := config.AppConfig.DeepSeek
	cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init deepseek chat model: %w", err)
	}
	return &SQLGenerator{chatModel: cm, timeout: 30 * time.Second}, nil
}

type generatedQuery struct {
	SQL    string         `json:"sql"`
	Params map[string]any `json:"params"`
}

// GenerateSQL produces one candidate statement for the request text.
func (g *SQLGenerator) GenerateSQL(ctx context.Context, text string) (string, map[string]any, error) {
	genCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.chatModel.Generate(genCtx, []*schema.Message{
		schema.SystemMessage(sqlPrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", nil, fmt.Errorf("sql generation failed: %w", err)
	}

	var gen generatedQuery
	raw := stripCodeFence(resp.Content)
	if err := json.Unmarshal([]byte(raw), &gen); err != nil {
		log.Printf("[Intent] sql generation returned non-json content=%q", raw)
		return "", nil, fmt.Errorf("decode generated sql: %w", err)
	}
	if strings.TrimSpace(gen.SQL) == "" {
		return "", nil, fmt.Errorf("sql generation returned an empty statement")
	}
	if gen.Params == nil {
		gen.Params = map[string]any{}
	}
	return gen.SQL, gen.Params, nil
}

// stripCodeFence tolerates models that wrap the JSON in a fenced block
// despite the prompt.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
