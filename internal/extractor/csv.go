package extractor

import (
	"encoding/csv"
	"io"
	"strings"
)

// CSVExtractor handles CSV files. The first row is treated as headers and
// each data row is rendered as "header: value" pairs so the model sees
// labelled values rather than bare cells.
type CSVExtractor struct{}

func (p *CSVExtractor) Extract(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return "", &ReadError{Format: "csv", Err: err}
	}

	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]

	var segments []string
	segments = append(segments, "Headers: "+strings.Join(headers, ", "))

	for _, row := range records[1:] {
		var line strings.Builder
		for j, cell := range row {
			if j > 0 {
				line.WriteString(", ")
			}
			if j < len(headers) {
				line.WriteString(headers[j] + ": " + cell)
			} else {
				line.WriteString(cell)
			}
		}
		segments = append(segments, line.String())
	}

	return joinSegments(segments), nil
}
