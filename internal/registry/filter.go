package registry

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/edamcp/pkg/mcperr"
)

// ToolFilter disables tools named in configuration: they are dropped from
// tools/list and calls to them are refused in-band.
type ToolFilter struct {
	disabled map[string]struct{}
}

// NewToolFilter disables the named tools. Unknown names are ignored.
func NewToolFilter(disabled []string) *ToolFilter {
	f := &ToolFilter{disabled: make(map[string]struct{}, len(disabled))}
	for _, name := range disabled {
		f.disabled[name] = struct{}{}
	}
	return f
}

// Allowed reports whether name is enabled. A nil filter allows everything.
func (f *ToolFilter) Allowed(name string) bool {
	if f == nil {
		return true
	}
	_, off := f.disabled[name]
	return !off
}

// FilterTools implements server tool filtering semantics.
func (f *ToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f == nil || len(f.disabled) == 0 {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if f.Allowed(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// ToolMiddleware refuses calls to disabled tools.
func (f *ToolFilter) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !f.Allowed(req.Params.Name) {
			return mcperr.Result(mcperr.Validation, fmt.Sprintf("tool %q is disabled on this server", req.Params.Name)), nil
		}
		return next(ctx, req)
	}
}
