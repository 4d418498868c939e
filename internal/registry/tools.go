package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/edamcp/internal/eda"
	"github.com/vinodismyname/edamcp/pkg/mcperr"
	"github.com/vinodismyname/edamcp/pkg/pagination"
)

// Tool names.
const (
	ToolPython    = "exploratory-data-analysis"
	ToolNative    = "exploratory-data-analysis-go"
	ToolListTypes = "list_analysis_types"
)

// --- Input / Output Schemas (typed for discovery) ---

// AnalyzeInput is shared by both analysis tools.
type AnalyzeInput struct {
	FilePath     string   `json:"file_path" jsonschema_description:"Local path or http(s) URL of a CSV, TSV, TXT or XLSX file"`
	AnalysisType string   `json:"analysis_type" jsonschema:"enum=basic_info,enum=statistical_summary,enum=correlation_analysis,enum=distribution_plots,enum=missing_data_analysis,enum=custom_analysis" jsonschema_description:"Type of analysis to perform"`
	CustomCode   string   `json:"custom_code,omitempty" jsonschema_description:"Custom analysis code (only used with custom_analysis)"`
	Columns      []string `json:"columns,omitempty" jsonschema_description:"Specific columns to analyze, in the order given"`
	Cursor       string   `json:"cursor,omitempty" jsonschema_description:"Cursor returned by a truncated report; fetches the next page"`
}

// PageMeta captures paging/truncation metadata.
type PageMeta struct {
	Offset     int    `json:"offset" jsonschema_description:"Line offset of this page within the report"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ErrorInfo is the structured form of an in-band error.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalyzeOutput is the structured content of the native analysis tool. Result
// is present on the first page only.
type AnalyzeOutput struct {
	Backend      string      `json:"backend"`
	AnalysisType string      `json:"analysis_type"`
	Result       *eda.Result `json:"result,omitempty"`
	Error        *ErrorInfo  `json:"error,omitempty"`
	Page         PageMeta    `json:"page"`
}

// AnalysisTypeInfo describes one supported analysis.
type AnalysisTypeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListAnalysisTypesOutput documents list_analysis_types.
type ListAnalysisTypesOutput struct {
	AnalysisTypes []AnalysisTypeInfo `json:"analysis_types"`
	Tools         []string           `json:"tools"`
}

type toolSpec struct {
	name        string
	backend     string
	structured  bool
	description string
}

var analysisTools = []toolSpec{
	{
		name:    ToolPython,
		backend: eda.BackendPython,
		description: "Perform exploratory data analysis on CSV, TSV, TXT or XLSX files (local path or http(s) URL) using pandas and numpy in a Python subprocess. " +
			"custom_analysis runs Python with df (DataFrame), pd, np and columns bound. Code is screened by a denylist of imports, eval/exec and common file or process calls; it is not an isolation boundary, so only enable this tool for trusted operators. " +
			"Errors are reported in the text with a leading ❌ and a canonical code. Long reports are paged: pass the returned cursor to continue.",
	},
	{
		name:       ToolNative,
		backend:    eda.BackendNative,
		structured: true,
		description: "Perform exploratory data analysis on CSV, TSV, TXT or XLSX files (local path or http(s) URL) in-process with Go. " +
			"Returns the text report plus a structured result (column kinds, numeric summaries, correlation matrix, missing counts). " +
			"custom_analysis runs a Go function body in a restricted interpreter with data, columns, rowCount, print, printf and the eda helper package (Mean, Median, Std, Quantile, Correlation, Column, JSONGet). " +
			"Long reports are paged: pass the returned cursor to continue.",
	},
}

// RegisterAnalysisTools adds one tool per backend present in sel plus the
// list_analysis_types discovery tool. Tools disabled by filter (which may be
// nil) are still registered but left out of the discovery listing.
func RegisterAnalysisTools(s *server.MCPServer, reg *Registry, sel *eda.Selector, filter *ToolFilter, pageBytes int) {
	var listed []string
	for _, spec := range analysisTools {
		backend, err := sel.Select(spec.backend)
		if err != nil {
			continue
		}
		h := &analysisHandler{tool: spec.name, backend: backend, pageBytes: pageBytes, structured: spec.structured}
		opts := []mcp.ToolOption{
			mcp.WithDescription(spec.description),
			mcp.WithInputSchema[AnalyzeInput](),
		}
		if spec.structured {
			opts = append(opts, mcp.WithOutputSchema[AnalyzeOutput]())
		}
		tool := mcp.NewTool(spec.name, opts...)
		s.AddTool(tool, mcp.NewTypedToolHandler(h.handle))
		reg.Register(tool)
		if filter.Allowed(spec.name) {
			listed = append(listed, spec.name)
		}
	}

	list := mcp.NewTool(
		ToolListTypes,
		mcp.WithDescription("List the supported analysis_type values with a short description of each, and the analysis tools available on this server."),
		mcp.WithOutputSchema[ListAnalysisTypesOutput](),
	)
	s.AddTool(list, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := ListAnalysisTypesOutput{Tools: listed}
		lines := make([]string, 0, len(eda.AnalysisTypes))
		for _, t := range eda.AnalysisTypes {
			out.AnalysisTypes = append(out.AnalysisTypes, AnalysisTypeInfo{Name: string(t), Description: t.Describe()})
			lines = append(lines, fmt.Sprintf("• %s: %s", t, t.Describe()))
		}
		return mcp.NewToolResultStructured(out, strings.Join(lines, "\n")), nil
	})
	reg.Register(list)
}

type analysisHandler struct {
	tool       string
	backend    eda.Backend
	pageBytes  int
	structured bool
}

func (h *analysisHandler) handle(ctx context.Context, _ mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, error) {
	logger := zerolog.Ctx(ctx)
	r := eda.Request{
		FileRef:    strings.TrimSpace(in.FilePath),
		Type:       eda.AnalysisType(strings.TrimSpace(in.AnalysisType)),
		Columns:    in.Columns,
		CustomCode: in.CustomCode,
	}
	hash := pagination.RequestHash(h.backend.Name(), r.FileRef, string(r.Type), strings.Join(r.Columns, "\x1f"), r.CustomCode)

	off, budget := 0, h.pageBytes
	if strings.TrimSpace(in.Cursor) != "" {
		cur, err := pagination.DecodeCursor(in.Cursor)
		if err != nil || cur.Rh != hash {
			return h.fail(r, mcperr.CursorInvalid, "cursor does not belong to this file_path, analysis_type, columns and custom_code"), nil
		}
		off, budget = cur.Off, cur.Ps
	}

	rep, err := h.backend.Analyze(ctx, r)
	if err != nil {
		code, msg := eda.Classify(err)
		logger.Warn().Err(err).Str("code", string(code)).Str("analysis_type", string(r.Type)).Msg("analysis_failed")
		return h.fail(r, code, msg), nil
	}

	page, next := pagination.Page(rep.Text, off, budget)
	meta := PageMeta{Offset: off, Truncated: next > 0}
	if next > 0 {
		tok, err := pagination.EncodeCursor(pagination.Cursor{
			Rh:  hash,
			F:   r.FileRef,
			T:   string(r.Type),
			Cl:  r.Columns,
			Off: next,
			Ps:  budget,
		})
		if err != nil {
			return h.fail(r, mcperr.ExecutionFailed, err.Error()), nil
		}
		meta.NextCursor = tok
		page += fmt.Sprintf("\n… report truncated; call %s again with cursor=%s for the rest\n", h.tool, tok)
	}
	logger.Debug().Int("bytes", len(rep.Text)).Int("offset", off).Bool("truncated", meta.Truncated).Msg("report_page")

	if !h.structured {
		return mcp.NewToolResultText(page), nil
	}
	out := AnalyzeOutput{Backend: h.backend.Name(), AnalysisType: string(r.Type), Page: meta}
	if off == 0 {
		out.Result = rep.Result
	}
	return mcp.NewToolResultStructured(out, page), nil
}

// fail reports an error in-band: the text carries the ❌ line and, for
// structured tools, the same code and message appear under "error".
func (h *analysisHandler) fail(r eda.Request, code mcperr.Code, msg string) *mcp.CallToolResult {
	text := mcperr.Text(code, msg)
	if !h.structured {
		return mcp.NewToolResultText(text)
	}
	out := AnalyzeOutput{
		Backend:      h.backend.Name(),
		AnalysisType: string(r.Type),
		Error:        &ErrorInfo{Code: string(code), Message: msg},
	}
	return mcp.NewToolResultStructured(out, text)
}
