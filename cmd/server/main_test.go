package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/edamcp/config"
	"github.com/vinodismyname/edamcp/internal/eda"
	"github.com/vinodismyname/edamcp/internal/registry"
)

const salesFixture = "../../internal/eda/testdata/sales.csv"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("EDA_CONFIG", "")
	t.Setenv("EDA_ENABLE_PYTHON", "false")
	t.Setenv("EDA_HTTP_ADDR", "")
	t.Setenv("EDA_SHEET", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "edamcp "), out)
}

func TestAnalyzeCommandPrintsReport(t *testing.T) {
	out, err := execute(t, "analyze", salesFixture, "--type", "basic_info")
	require.NoError(t, err)
	require.Contains(t, out, "📊 Data loaded successfully: 5 rows × 6 columns\n")
	require.Contains(t, out, eda.HeaderBasic)
}

func TestAnalyzeCommandColumns(t *testing.T) {
	out, err := execute(t, "analyze", salesFixture, "-t", "missing_data_analysis", "-c", "units,region")
	require.NoError(t, err)
	require.Contains(t, out, "  • units: 1 (20.0%)\n")
	require.Contains(t, out, "  ✅ region: No missing values\n")
	require.NotContains(t, out, "price")
}

func TestAnalyzeCommandSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"first"}))
	_, err := f.NewSheet("Q3")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Q3", "A1", &[]any{"rep", "units"}))
	require.NoError(t, f.SetSheetRow("Q3", "A2", &[]any{"ann", 4}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	out, err := execute(t, "analyze", path, "--sheet", "Q3")
	require.NoError(t, err)
	require.Contains(t, out, "  • units: number\n")
	require.NotContains(t, out, "first")
}

func TestAnalyzeCommandReportsErrorsInBand(t *testing.T) {
	out, err := execute(t, "analyze", "no/such/file.csv")
	require.ErrorIs(t, err, errReported)
	require.True(t, strings.HasPrefix(out, "❌ FILE_NOT_FOUND: "), out)
}

func TestAnalyzeCommandUnavailableBackend(t *testing.T) {
	_, err := execute(t, "analyze", salesFixture, "--backend", "python")
	require.ErrorIs(t, err, eda.ErrUnknownBackend)
}

func TestServeRequiresTransport(t *testing.T) {
	_, err := execute(t, "serve")
	require.ErrorContains(t, err, "no transport selected")
}

func TestInvalidLogLevelFlag(t *testing.T) {
	_, err := execute(t, "--log-level", "chatty", "analyze", salesFixture)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestHTTPHandlerServesMCPAndMetrics(t *testing.T) {
	cfg := config.Defaults()
	cfg.EnablePython = false
	a, err := newApp(context.Background(), &cfg, zerolog.Nop())
	require.NoError(t, err)
	require.False(t, a.python)
	require.Equal(t, []string{eda.BackendNative}, a.selector.Names())

	ts := httptest.NewServer(a.handler())
	t.Cleanup(ts.Close)

	ctx := context.Background()
	c, err := client.NewStreamableHttpClient(ts.URL + "/mcp")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "server-test", Version: "0.0.1"},
		},
	})
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{registry.ToolNative, registry.ToolListTypes}, names)

	res, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      registry.ToolNative,
		Arguments: map[string]any{"file_path": salesFixture, "analysis_type": "correlation_analysis"},
	}})
	require.NoError(t, err)
	require.False(t, res.IsError)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `eda_analyses_total{analysis_type="correlation_analysis",backend="native",status="ok"} 1`)
	require.Contains(t, string(body), `eda_tool_calls_total{tool="exploratory-data-analysis-go"} 1`)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDisabledToolsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.EnablePython = false
	cfg.DisabledTools = []string{registry.ToolListTypes}
	a, err := newApp(context.Background(), &cfg, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	c, err := client.NewInProcessClient(a.server)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "server-test", Version: "0.0.1"},
		},
	})
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	require.Equal(t, registry.ToolNative, tools.Tools[0].Name)

	res, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Name: registry.ToolListTypes}})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(text.Text, "❌ VALIDATION: "), text.Text)
}
