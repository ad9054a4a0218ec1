package tools

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExcelTool writes query results to styled .xlsx workbooks in artifact
// storage.
type ExcelTool struct {
	backend QueryBackend
	store   ArtifactStore
}

func NewExcelTool(backend QueryBackend, store ArtifactStore) *ExcelTool {
	return &ExcelTool{backend: backend, store: store}
}

func (t *ExcelTool) Name() string { return "excel" }

func (t *ExcelTool) Operations() []string {
	return []string{"create_excel", "multi_sheet_excel"}
}

func (t *ExcelTool) Execute(ctx context.Context, operation string, params map[string]any) ToolResult {
	switch operation {
	case "create_excel":
		return t.createExcel(ctx, params)
	case "multi_sheet_excel":
		return t.multiSheetExcel(ctx, params)
	default:
		return unknownOperation(t, operation)
	}
}

func (t *ExcelTool) createExcel(ctx context.Context, params map[string]any) ToolResult {
	columns, rows, failure := sourceRows(ctx, t.backend, params)
	if failure != nil {
		return *failure
	}

	sheetName := paramString(params, "sheet_name")
	if sheetName == "" {
		sheetName = "Datos"
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return Fail(KindToolInternalError, "could not prepare the workbook")
	}
	if err := writeSheet(f, sheetName, columns, rows); err != nil {
		log.Printf("[ExcelTool] write sheet failed err=%v", err)
		return Fail(KindToolInternalError, "could not write the spreadsheet")
	}

	if paramBool(params, "include_summary") {
		if err := writeSummarySheet(f, map[string]sheetData{sheetName: {columns, rows}}); err != nil {
			log.Printf("[ExcelTool] summary sheet failed err=%v", err)
			return Fail(KindToolInternalError, "could not write the summary sheet")
		}
	}

	return t.save(f, len(rows), 1)
}

func (t *ExcelTool) multiSheetExcel(ctx context.Context, params map[string]any) ToolResult {
	sheets := paramMap(params, "sheets")
	if len(sheets) == 0 {
		return Fail(KindValidationRejected, "parameter 'sheets' is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	// sorted names keep the tab order stable run to run
	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	all := make(map[string]sheetData, len(sheets))
	total := 0
	for i, name := range names {
		sheetParams, ok := sheets[name].(map[string]any)
		if !ok {
			return Fail(KindValidationRejected,
				fmt.Sprintf("sheet %q must carry 'rows' or 'sql'", name))
		}
		columns, rows, failure := sourceRows(ctx, t.backend, sheetParams)
		if failure != nil {
			return *failure
		}

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return Fail(KindToolInternalError, "could not prepare the workbook")
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return Fail(KindToolInternalError, "could not prepare the workbook")
		}
		if err := writeSheet(f, name, columns, rows); err != nil {
			log.Printf("[ExcelTool] write sheet failed sheet=%s err=%v", name, err)
			return Fail(KindToolInternalError, "could not write the spreadsheet")
		}
		all[name] = sheetData{columns, rows}
		total += len(rows)
	}

	if paramBool(params, "include_summary") {
		if err := writeSummarySheet(f, all); err != nil {
			log.Printf("[ExcelTool] summary sheet failed err=%v", err)
			return Fail(KindToolInternalError, "could not write the summary sheet")
		}
	}

	return t.save(f, total, len(sheets))
}

func (t *ExcelTool) save(f *excelize.File, rowCount, sheetCount int) ToolResult {
	name := fmt.Sprintf("export_%s.xlsx", uuid.NewString()[:8])
	art, err := t.store.Save(name, func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		log.Printf("[ExcelTool] save failed file=%s err=%v", name, err)
		return Fail(KindToolInternalError, "could not save the spreadsheet")
	}

	log.Printf("[ExcelTool] ok sheets=%d rows=%d file=%s", sheetCount, rowCount, art.Name)
	return OK(art.Path, map[string]any{
		"file_path":   art.Path,
		"file_name":   art.Name,
		"public_url":  art.PublicURL,
		"media_type":  "document",
		"row_count":   rowCount,
		"sheet_count": sheetCount,
	})
}

type sheetData struct {
	columns []string
	rows    []map[string]any
}

// writeSheet fills one sheet with a bold header row, the data rows and
// auto-sized columns.
func writeSheet(f *excelize.File, sheet string, columns []string, rows []map[string]any) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F77B4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		widths[i] = len(col)
	}

	for r, row := range rows {
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			value := row[col]
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if n := len(cellString(value)); n > widths[c] {
				widths[c] = n
			}
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(widths[i]) + 4
		if width > 60 {
			width = 60
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// writeSummarySheet appends a Resumen sheet with the row count and the sum of
// each numeric column per data sheet.
func writeSummarySheet(f *excelize.File, sheets map[string]sheetData) error {
	const summary = "Resumen"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}

	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := []string{"hoja", "filas", "columna", "total"}
	rows := make([]map[string]any, 0, len(sheets))
	for _, name := range names {
		data := sheets[name]
		numericSeen := false
		for _, col := range data.columns {
			values := columnValues(data.rows, col)
			if len(values) == 0 {
				continue
			}
			sum := 0.0
			for _, v := range values {
				sum += v
			}
			rows = append(rows, map[string]any{
				"hoja": name, "filas": len(data.rows), "columna": col, "total": sum,
			})
			numericSeen = true
		}
		if !numericSeen {
			rows = append(rows, map[string]any{
				"hoja": name, "filas": len(data.rows), "columna": "", "total": "",
			})
		}
	}
	return writeSheet(f, summary, columns, rows)
}
