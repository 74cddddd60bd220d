package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/hupe1980/ragmesh/core"
)

// CSVExtractor turns tabular data into a header summary chunk followed by
// row-block chunks, so both schema questions and row-level questions have
// retrievable text.
type CSVExtractor struct {
	// RowsPerChunk is the number of data rows grouped into one chunk.
	RowsPerChunk int
}

// NewCSVExtractor creates a CSVExtractor grouping 50 rows per chunk.
func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{RowsPerChunk: 50}
}

// Extract implements Extractor.
func (e *CSVExtractor) Extract(content []byte, name string) ([]core.Document, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("extract: parse csv %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("extract: %s is empty", name)
	}

	header := records[0]
	rows := records[1:]
	perChunk := e.RowsPerChunk
	if perChunk <= 0 {
		perChunk = 50
	}

	summary := fmt.Sprintf("CSV Headers: %s\nTotal Rows: %d", strings.Join(header, ", "), len(rows))
	docs := []core.Document{{
		Text:     summary,
		Metadata: docMetadata(name, "csv", 0),
	}}

	for i := 0; i < len(rows); i += perChunk {
		end := i + perChunk
		if end > len(rows) {
			end = len(rows)
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "Rows %d-%d:\n", i+1, end)
		for _, row := range rows[i:end] {
			sb.WriteString(strings.Join(row, ", "))
			sb.WriteByte('\n')
		}
		docs = append(docs, core.Document{
			Text:     strings.TrimRight(sb.String(), "\n"),
			Metadata: docMetadata(name, "csv", len(docs)),
		})
	}
	return docs, nil
}
