package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/eda"
)

type stubBackend struct{ err error }

func (s stubBackend) Name() string { return "stub" }

func (s stubBackend) Analyze(ctx context.Context, req eda.Request) (*eda.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &eda.Report{Text: "ok\n"}, nil
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	m := NewMetrics()
	ok := m.Instrument(stubBackend{})
	failing := m.Instrument(stubBackend{err: fmt.Errorf("%w: x.csv", dataset.ErrNotFound)})
	require.Equal(t, "stub", ok.Name())

	_, err := ok.Analyze(context.Background(), eda.Request{Type: eda.BasicInfo})
	require.NoError(t, err)
	_, err = ok.Analyze(context.Background(), eda.Request{Type: eda.BasicInfo})
	require.NoError(t, err)
	_, err = failing.Analyze(context.Background(), eda.Request{Type: eda.Correlation})
	require.ErrorIs(t, err, dataset.ErrNotFound)
	_, err = ok.Analyze(context.Background(), eda.Request{Type: "histogram"})
	require.NoError(t, err)

	body := scrape(t, m)
	require.Contains(t, body, `eda_analyses_total{analysis_type="basic_info",backend="stub",status="ok"} 2`)
	require.Contains(t, body, `eda_analyses_total{analysis_type="correlation_analysis",backend="stub",status="FILE_NOT_FOUND"} 1`)
	require.Contains(t, body, `eda_analyses_total{analysis_type="invalid",backend="stub",status="ok"} 1`)
	require.Contains(t, body, `eda_analysis_duration_seconds_count{analysis_type="basic_info",backend="stub"} 2`)
	require.Contains(t, body, "go_goroutines")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	b := stubBackend{}
	require.Equal(t, eda.Backend(b), m.Instrument(b))
	m.ObserveAnalysis("stub", eda.BasicInfo, "ok", 0)
	m.toolCall("x")
	m.sessionDelta(1)
}

func TestHooksCountToolCalls(t *testing.T) {
	m := NewMetrics()
	hooks := NewHooks(zerolog.Nop(), m).Server()
	require.Len(t, hooks.OnAfterCallTool, 1)

	req := &mcp.CallToolRequest{}
	req.Params.Name = "exploratory-data-analysis-go"
	hooks.OnAfterCallTool[0](context.Background(), 1, req, mcp.NewToolResultText("done"))

	require.Contains(t, scrape(t, m), `eda_tool_calls_total{tool="exploratory-data-analysis-go"} 1`)
}
