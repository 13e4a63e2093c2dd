package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/doctree"
)

// CSVParser renders a CSV file as a Markdown table. The first row is the
// header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := doctree.NewBuilder(baseTitle(filename))
	if len(records) == 0 {
		return b.Document(), nil
	}

	headers := records[0]
	var t strings.Builder
	writeRow(&t, headers, len(headers))
	t.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range records[1:] {
		writeRow(&t, row, len(headers))
	}
	b.Text(t.String())

	return b.Document(), nil
}

// writeRow pads or truncates row to width cells.
func writeRow(t *strings.Builder, row []string, width int) {
	t.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(row) {
			cell = strings.NewReplacer("|", `\|`, "\n", " ").Replace(row[i])
		}
		t.WriteString(" " + cell + " |")
	}
	t.WriteString("\n")
}
