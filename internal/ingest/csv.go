package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
)

// CSVSource reads scan rows from a CSV export with a header line. Each record
// becomes a Row keyed by the header's column names.
type CSVSource struct {
	r      *csv.Reader
	header []string
}

// NewCSVSource wraps r, reading the header line immediately.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // scan exports occasionally pad short rows

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("scan file is empty")
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	return &CSVSource{r: cr, header: header}, nil
}

// Next returns the next row, or io.EOF when the file is exhausted.
func (s *CSVSource) Next() (finding.Row, error) {
	rec, err := s.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV record: %w", err)
	}
	row := make(finding.Row, len(s.header))
	for i, col := range s.header {
		if i < len(rec) {
			row[col] = rec[i]
		}
	}
	return row, nil
}
