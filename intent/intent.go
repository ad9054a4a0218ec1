// Package intent turns a normalized user message into a routable intent.
// Classification is keyword-first with an optional LLM refinement; the
// keyword table is the authority of record and the fallback.
package intent

import (
	"context"
	"strings"
)

// Intent is a classified message: a category name plus the tool invocation
// it routes to. Params are seeded by the classifier and completed by the
// orchestrator.
type Intent struct {
	Name       string
	TargetTool string
	Operation  string
	Params     map[string]any
}

// Categories in priority order. The first category whose keywords match
// wins; "chat" is the fallback when nothing matches.
const (
	IntentVisualization = "visualization"
	IntentExport        = "export"
	IntentAnalysis      = "analysis"
	IntentCalculation   = "calculation"
	IntentQuery         = "query"
	IntentChat          = "chat"
)

// intentKeywords maps each category to the Spanish keywords that score it.
// Messages are lowercased before matching; accents are kept, so both spellings
// are listed where users commonly drop them.
var intentKeywords = map[string][]string{
	IntentChat: {
		"hola", "buenas", "gracias", "ayuda", "qué puedes hacer",
		"que puedes hacer", "quién eres", "quien eres", "adiós", "adios",
	},
	IntentVisualization: {
		"gráfico", "grafico", "gráfica", "grafica", "visualiza", "visualizar",
		"chart", "plot", "barras", "torta", "pastel", "línea", "linea",
		"dibuja", "dibujar", "muestra un gráfico",
	},
	IntentExport: {
		"excel", "exporta", "exportar", "descarga", "descargar", "xlsx",
		"hoja de cálculo", "hoja de calculo", "planilla", "archivo",
	},
	IntentAnalysis: {
		"analiza", "analizar", "análisis", "analisis", "tendencia",
		"comparar", "compara", "comparación", "comparacion", "correlación",
		"correlacion", "outliers", "atípicos", "atipicos",
	},
	IntentCalculation: {
		"calcula", "calcular", "promedio", "media", "mediana", "suma",
		"total", "porcentaje", "crecimiento", "percentil", "desviación",
		"desviacion", "estadística", "estadisticas", "estadísticas",
	},
	IntentQuery: {
		"cuántos", "cuantos", "cuántas", "cuantas", "cuál", "cual",
		"cuáles", "cuales", "lista", "listar", "muestra", "mostrar",
		"dame", "dime", "busca", "buscar", "ventas", "clientes",
		"productos", "pedidos", "consulta", "select",
	},
}

// scoreOrder fixes tie-breaking: rendering and analysis intents carry
// query-like words too, so they win ties against plain query.
var scoreOrder = []string{
	IntentChat,
	IntentVisualization,
	IntentExport,
	IntentAnalysis,
	IntentCalculation,
	IntentQuery,
}

// routes maps a category to its default tool invocation.
var routes = map[string]struct {
	tool      string
	operation string
}{
	IntentVisualization: {"chart", "auto"},
	IntentExport:        {"excel", "create_excel"},
	IntentAnalysis:      {"stats", "metrics"},
	IntentCalculation:   {"stats", "metrics"},
	IntentQuery:         {"query", "execute_query"},
}

// Classifier decides the category of a message. The context bounds any
// remote call the implementation makes.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// KeywordClassifier is the deterministic keyword scorer. It never errors;
// the highest-scoring category wins and an unmatched message defaults to a
// plain data query.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

func (c *KeywordClassifier) Classify(_ context.Context, text string) (string, error) {
	lowered := strings.ToLower(text)

	best, bestScore := IntentQuery, 0
	for _, category := range scoreOrder {
		score := 0
		for _, keyword := range intentKeywords[category] {
			if containsWord(lowered, keyword) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	return best, nil
}

// FromCategory builds the routable intent for a classified category.
// A chat intent routes to no tool.
func FromCategory(category, text string) *Intent {
	route, ok := routes[category]
	if !ok {
		return &Intent{Name: IntentChat, Params: map[string]any{"text": text}}
	}
	return &Intent{
		Name:       category,
		TargetTool: route.tool,
		Operation:  route.operation,
		Params:     map[string]any{"text": text},
	}
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	if s == IntentChat {
		return true
	}
	_, ok := routes[s]
	return ok
}

// containsWord matches keyword as a whole word, so "total" does not fire on
// "totalmente" but multi-word keywords still match as substrings.
func containsWord(text, keyword string) bool {
	if strings.ContainsRune(keyword, ' ') {
		return strings.Contains(text, keyword)
	}
	start := 0
	for {
		i := strings.Index(text[start:], keyword)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(keyword)
		beforeOK := i == 0 || !isWordByte(text[i-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_' || b >= 0x80
}
