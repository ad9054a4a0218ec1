package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifierSpanishExamples(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		text string
		want string
	}{
		{"¿cuántas ventas hubo en julio?", IntentQuery},
		{"dame la lista de clientes", IntentQuery},
		{"gráfico de ventas por mes", IntentVisualization},
		{"hazme una grafica de barras", IntentVisualization},
		{"exporta los clientes a excel", IntentExport},
		{"quiero descargar la planilla", IntentExport},
		{"analiza la tendencia de pedidos", IntentAnalysis},
		{"correlación entre precio y ventas", IntentAnalysis},
		{"calcula el promedio de ventas", IntentCalculation},
		{"¿cuál es el percentil 90?", IntentCalculation},
		{"hola, ¿qué puedes hacer?", IntentChat},
		{"gracias!", IntentChat},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKeywordClassifierDefaultsToQuery(t *testing.T) {
	c := NewKeywordClassifier()
	got, err := c.Classify(context.Background(), "necesito información del trimestre")
	require.NoError(t, err)
	assert.Equal(t, IntentQuery, got)
}

func TestKeywordClassifierWholeWordMatching(t *testing.T) {
	c := NewKeywordClassifier()

	// "totalmente" must not fire the calculation keyword "total"
	got, err := c.Classify(context.Background(), "estoy totalmente de acuerdo")
	require.NoError(t, err)
	assert.Equal(t, IntentQuery, got)
}

func TestFromCategoryRoutes(t *testing.T) {
	cases := []struct {
		category string
		tool     string
		op       string
	}{
		{IntentQuery, "query", "execute_query"},
		{IntentVisualization, "chart", "auto"},
		{IntentExport, "excel", "create_excel"},
		{IntentAnalysis, "stats", "metrics"},
		{IntentCalculation, "stats", "metrics"},
	}

	for _, tc := range cases {
		in := FromCategory(tc.category, "texto")
		assert.Equal(t, tc.category, in.Name)
		assert.Equal(t, tc.tool, in.TargetTool)
		assert.Equal(t, tc.op, in.Operation)
		assert.Equal(t, "texto", in.Params["text"])
	}

	chat := FromCategory(IntentChat, "hola")
	assert.Equal(t, IntentChat, chat.Name)
	assert.Empty(t, chat.TargetTool)
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{IntentQuery, IntentVisualization, IntentExport,
		IntentAnalysis, IntentCalculation, IntentChat} {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("banana"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"sql": "SELECT 1", "params": {}}`,
		stripCodeFence("```json\n{\"sql\": \"SELECT 1\", \"params\": {}}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
