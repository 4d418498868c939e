package pyexec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/eda"
)

//go:embed script.py.tmpl
var scriptSource string

var script = template.Must(template.New("eda.py").Funcs(template.FuncMap{"py": pyLiteral}).Parse(scriptSource))

// Help lists the names custom code can use under this backend.
var Help = []string{
	"df: the dataset as a pandas DataFrame",
	"pd: pandas",
	"np: numpy",
	"columns: column names in order",
}

// payload is the typed dataset handed to the script. Loading, sniffing and
// coercion all happen in Go so both backends see the same cells.
type payload struct {
	Type          eda.AnalysisType     `json:"analysis_type"`
	SourceRows    int                  `json:"source_rows"`
	SourceColumns int                  `json:"source_columns"`
	Columns       []string             `json:"columns"`
	Kinds         []dataset.ColumnKind `json:"kinds"`
	Rows          [][]any              `json:"rows"`
	MemoryKB      float64              `json:"memory_kb"`
	CustomCode    string               `json:"custom_code,omitempty"`
}

func newPayload(source *dataset.Dataset, req eda.Request) (*payload, error) {
	sr, sc := source.Shape()
	d := source.Project(req.Columns)
	p := &payload{
		Type:          req.Type,
		SourceRows:    sr,
		SourceColumns: sc,
		Columns:       append([]string{}, d.Columns...),
		Kinds:         d.Kinds(),
		Rows:          make([][]any, len(d.Rows)),
		CustomCode:    req.CustomCode,
	}
	for i, row := range d.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v.Interface()
		}
		p.Rows[i] = cells
	}
	if req.Type == eda.BasicInfo {
		kb, err := eda.MemoryKB(d)
		if err != nil {
			return nil, err
		}
		p.MemoryKB = kb
	}
	return p, nil
}

type scriptData struct {
	Entry           string
	Header          string
	Rule            string
	NeedTwoNumeric  string
	NoHighCorr      string
	HighCorrHeader  string
	NoMissingValues string
	NoNumeric       string
	Help            []string
	HeadRows        int
	TopValues       int
	Strong          float64
}

// renderScript produces the program for one analysis type.
func renderScript(t eda.AnalysisType) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unsupported analysis_type %q", eda.ErrInvalidRequest, t)
	}
	var buf bytes.Buffer
	err := script.Execute(&buf, scriptData{
		Entry:           string(t),
		Header:          eda.Header(t),
		Rule:            eda.Rule,
		NeedTwoNumeric:  eda.NeedTwoNumeric,
		NoHighCorr:      eda.NoHighCorr,
		HighCorrHeader:  eda.HighCorrHeader,
		NoMissingValues: eda.NoMissingValues,
		NoNumeric:       eda.NoNumeric,
		Help:            Help,
		HeadRows:        eda.HeadRows,
		TopValues:       eda.TopValues,
		Strong:          eda.StrongCorrelation,
	})
	if err != nil {
		return nil, fmt.Errorf("pyexec: render script: %w", err)
	}
	return buf.Bytes(), nil
}

// pyLiteral renders v as JSON, which Python reads as a literal for the
// strings, numbers and lists used here.
func pyLiteral(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
