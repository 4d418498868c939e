package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotTabular indicates content that does not parse as delimited data.
var ErrNotTabular = errors.New("dataset: content is not delimited data")

// PreviewLines is the number of lines kept by a text preview.
const PreviewLines = 5

// TextPreview is the fallback rendering of non-tabular content.
type TextPreview struct {
	Lines int      `json:"lines"`
	Head  []string `json:"head"`
}

// ParseDelimited parses data with the given separator. The first record is
// the header. Blank lines are skipped.
func ParseDelimited(data []byte, sep rune) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotTabular
		}
		return nil, fmt.Errorf("dataset: parse header: %w", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: parse: %w", err)
		}
		if blank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return Build(header, records)
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ParseTable applies the delimiter policy: comma first, then tab when the comma
// parse fails or yields a single column while tab yields more. A single-column
// comma parse is only accepted when allowSingle is set (a .csv reference).
// Zero data rows is reported as ErrNotTabular.
func ParseTable(data []byte, allowSingle bool) (*Dataset, string, error) {
	comma, errComma := ParseDelimited(data, ',')
	if errComma == nil && len(comma.Columns) > 1 {
		return usable(comma, "csv")
	}
	tab, errTab := ParseDelimited(data, '\t')
	if errTab == nil && len(tab.Columns) > 1 {
		return usable(tab, "tsv")
	}
	if errComma == nil && allowSingle {
		return usable(comma, "csv")
	}
	if errComma != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotTabular, errComma)
	}
	return nil, "", ErrNotTabular
}

func usable(d *Dataset, format string) (*Dataset, string, error) {
	if len(d.Rows) == 0 {
		return nil, "", ErrNotTabular
	}
	return d, format, nil
}

// Preview counts lines and keeps the first PreviewLines, trimmed.
func Preview(data []byte) TextPreview {
	var p TextPreview
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		p.Lines++
		if len(p.Head) < PreviewLines {
			p.Head = append(p.Head, strings.TrimSpace(sc.Text()))
		}
	}
	return p
}
