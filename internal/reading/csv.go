package reading

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxCSVRows is the most data rows an import may carry.
const MaxCSVRows = 10000

var ErrNoExpressionColumn = errors.New("csv has no expression column")

// FillCSV copies a vocabulary CSV from in to out, filling empty reading
// cells from the expression column. A reading column is added when the
// header lacks one. It returns how many readings were filled.
func (a *Analyzer) FillCSV(in io.Reader, out io.Writer) (int, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	w := csv.NewWriter(out)

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	expr, read := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "expression":
			expr = i
		case "reading":
			read = i
		}
	}
	if expr < 0 {
		return 0, ErrNoExpressionColumn
	}
	if read < 0 {
		header = append(header, "reading")
		read = len(header) - 1
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	filled := 0
	for rows := 0; ; rows++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return filled, fmt.Errorf("reading row %d: %w", rows+2, err)
		}
		if rows >= MaxCSVRows {
			return filled, fmt.Errorf("more than %d rows", MaxCSVRows)
		}
		for len(rec) <= read || len(rec) <= expr {
			rec = append(rec, "")
		}
		if strings.TrimSpace(rec[read]) == "" {
			if e := strings.TrimSpace(rec[expr]); e != "" {
				rec[read] = a.Reading(e)
				filled++
			}
		}
		if err := w.Write(rec); err != nil {
			return filled, err
		}
	}

	w.Flush()
	return filled, w.Error()
}
