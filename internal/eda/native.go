package eda

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/sandbox"
)

// Loader is the subset of dataset.Loader the backends need.
type Loader interface {
	Load(ctx context.Context, ref string) (*dataset.Content, error)
}

// Native runs every analysis in process.
type Native struct {
	loader Loader
	engine *Engine
}

// NewNative builds the in-process backend.
func NewNative(loader Loader, sb *sandbox.Sandbox) *Native {
	return &Native{loader: loader, engine: &Engine{Sandbox: sb}}
}

func (n *Native) Name() string { return BackendNative }

// Analyze validates, loads and analyzes req.
func (n *Native) Analyze(ctx context.Context, req Request) (*Report, error) {
	if err := Prepare(req); err != nil {
		return nil, err
	}
	start := time.Now()
	content, err := n.loader.Load(ctx, req.FileRef)
	if err != nil {
		return nil, err
	}
	rep, err := n.engine.Run(ctx, content, req)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Str("backend", BackendNative).
		Str("analysis_type", string(req.Type)).
		Str("format", content.Format).
		Dur("elapsed", time.Since(start)).
		Msg("analysis_complete")
	return rep, nil
}
