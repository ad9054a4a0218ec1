package agent

import (
	"fmt"
	"sort"
	"strings"

	"evodata/tools"
)

// User-facing message templates. The audience is WhatsApp users in Spanish;
// wording stays short and phone-friendly.
const (
	msgCapabilities = "¡Hola! Soy tu asistente de datos. Puedo:\n" +
		"📊 Consultar tus datos (\"¿cuántas ventas hubo en julio?\")\n" +
		"📈 Generar gráficos (\"gráfico de ventas por mes\")\n" +
		"📁 Exportar a Excel (\"exporta los clientes a excel\")\n" +
		"🧮 Calcular estadísticas (\"promedio de ventas\")"

	msgEmptyMessage = "No pude leer tu mensaje. Envíame una pregunta sobre tus datos."

	msgAudioFailed = "No pude entender el audio. ¿Puedes escribir tu consulta?"

	msgPlanningFailed = "No pude traducir tu pregunta a una consulta. " +
		"Intenta reformularla, por ejemplo: \"ventas por mes de este año\"."

	msgDeliveryFailed = "Generé el archivo pero no pude enviarlo. Intenta de nuevo en unos minutos."

	msgDownloadPrefix = "Descárgalo aquí: "
)

const maxRowsInReply = 10

// errorMessage maps a failed tool result to the Spanish reply for its error
// kind: corrective hints for user-addressable errors, retry guidance for
// transient ones, a generic apology for internal ones.
func errorMessage(result tools.ToolResult) string {
	switch result.ErrorKind() {
	case tools.KindValidationRejected:
		return "No puedo ejecutar esa consulta: " + result.Error +
			"\nSolo puedo leer datos, no modificarlos."
	case tools.KindExecutionTimeout:
		return "La consulta tardó demasiado. Intenta acotarla, por ejemplo con un rango de fechas."
	case tools.KindConnectionUnavailable:
		return "La base de datos no está disponible en este momento. Intenta de nuevo en unos minutos."
	case tools.KindExecutionFailed:
		return "La consulta no pudo ejecutarse. Revisa los nombres de tablas o campos e intenta de nuevo."
	case tools.KindCapabilityNotFound, tools.KindClassificationFailed:
		return "No entendí qué necesitas. " + msgCapabilities
	default:
		return "Algo salió mal procesando tu solicitud. Intenta de nuevo en unos minutos."
	}
}

// formatResult renders a success payload as reply text.
func formatResult(result tools.ToolResult) string {
	switch data := result.Data.(type) {
	case tools.TableData:
		return formatTable(data)
	case map[string]any:
		return formatMetrics(data)
	case string:
		return data
	default:
		return fmt.Sprintf("%v", data)
	}
}

func formatTable(table tools.TableData) string {
	if table.RowCount == 0 {
		return "La consulta no devolvió resultados."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Encontré %d resultado(s):\n", table.RowCount)

	shown := table.Rows
	if len(shown) > maxRowsInReply {
		shown = shown[:maxRowsInReply]
	}
	for _, row := range shown {
		parts := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			parts = append(parts, fmt.Sprintf("%s: %v", col, row[col]))
		}
		b.WriteString("• " + strings.Join(parts, ", ") + "\n")
	}
	if table.RowCount > maxRowsInReply {
		fmt.Fprintf(&b, "... y %d más. Pídeme un Excel para verlos todos.", table.RowCount-maxRowsInReply)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMetrics(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Resultados:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "• %s: %v\n", k, data[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// captionFor builds the short caption that accompanies a generated file.
func captionFor(result tools.ToolResult) string {
	rowCount, _ := result.Metadata["row_count"].(int)
	if chartType, ok := result.Metadata["chart_type"].(string); ok {
		return fmt.Sprintf("📈 Tu gráfico (%s) con %d registros está listo.", chartType, rowCount)
	}
	if sheets, ok := result.Metadata["sheet_count"].(int); ok {
		return fmt.Sprintf("📁 Tu Excel está listo: %d hoja(s), %d fila(s).", sheets, rowCount)
	}
	return "📁 Tu archivo está listo."
}
