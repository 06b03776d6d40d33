package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-pdf/fpdf"
)

type exportFormat string

const (
	exportFormatCSV  exportFormat = "csv"
	exportFormatJSON exportFormat = "json"
	exportFormatPDF  exportFormat = "pdf"
)

var exportFormats = []exportFormat{exportFormatCSV, exportFormatJSON, exportFormatPDF}

type exportDoneMsg struct {
	format exportFormat
	path   string
	count  int
	err    error
}

// exportCmd writes the given rows in the background and reports back with a
// single message.
func exportCmd(dir string, format exportFormat, form string, state recordState, cols []columnDef, rows []record) tea.Cmd {
	return func() tea.Msg {
		path, err := exportRecords(dir, format, form, state, cols, rows)
		return exportDoneMsg{format: format, path: path, count: len(rows), err: err}
	}
}

// exportRecords writes the rows to a timestamped file, honoring the visible
// columns and their order. The actions column never exports.
func exportRecords(dir string, format exportFormat, form string, state recordState, cols []columnDef, rows []record) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	exportCols := exportableColumns(cols)
	if len(exportCols) == 0 {
		return "", fmt.Errorf("no visible columns to export")
	}
	name := fmt.Sprintf("%s-%s-%s.%s", form, state, time.Now().Format("20060102-150405"), format)
	path := filepath.Join(dir, name)

	var err error
	switch format {
	case exportFormatCSV:
		err = writeCSV(path, exportCols, rows)
	case exportFormatJSON:
		err = writeJSON(path, exportCols, rows)
	case exportFormatPDF:
		err = writePDF(path, form, state, exportCols, rows)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func exportableColumns(cols []columnDef) []columnDef {
	var out []columnDef
	for _, col := range cols {
		if col.Field == fieldActions || !col.Visible {
			continue
		}
		out = append(out, col)
	}
	return out
}

func writeCSV(path string, cols []columnDef, rows []record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Title
	}
	if err := w.Write(header); err != nil {
		return err
	}
	line := make([]string, len(cols))
	for _, rec := range rows {
		for i, col := range cols {
			line[i] = cellValue(rec, col)
		}
		if err := w.Write(line); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, cols []columnDef, rows []record) error {
	out := make([]map[string]string, 0, len(rows))
	for _, rec := range rows {
		entry := make(map[string]string, len(cols))
		for _, col := range cols {
			entry[col.Field] = cellValue(rec, col)
		}
		out = append(out, entry)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writePDF(path, form string, state recordState, cols []columnDef, rows []record) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s (%s)", form, state.Label()), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s / %s submissions", form, state.Label()), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right
	colWidth := usable / float64(len(cols))

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range cols {
		pdf.CellFormat(colWidth, 6, truncateCell(col.Title, 40), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, rec := range rows {
		for _, col := range cols {
			pdf.CellFormat(colWidth, 6, truncateCell(cellValue(rec, col), 40), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.OutputFileAndClose(path)
}

func truncateCell(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
