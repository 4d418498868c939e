// Package sandbox runs user-supplied Go snippets against a dataset inside the
// yaegi interpreter.
//
// Custom code is the body of a function. It sees these bindings:
//
//	data     []map[string]any  rows keyed by column name (a private copy)
//	columns  []string          column names in order
//	rowCount int
//	print    func(args ...any)
//	printf   func(format string, args ...any)
//
// and the packages math, strings, strconv, sort and eda. Nothing else from the
// standard library is loaded into the interpreter.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

var (
	// ErrFailed indicates the code did not compile or panicked at runtime.
	ErrFailed = errors.New("sandbox: custom code failed")
	// ErrTimeout indicates the evaluation exceeded its wall-clock budget.
	ErrTimeout = errors.New("sandbox: custom code timed out")
)

// allowedSymbols are the stdlib packages exposed to custom code, keyed the
// way yaegi's stdlib.Symbols is.
var allowedSymbols = []string{
	"math/math",
	"strings/strings",
	"strconv/strconv",
	"sort/sort",
}

// Help lists the bindings for callers that run custom analysis without code.
var Help = []string{
	"data: rows as []map[string]any (numbers are float64, missing cells are nil)",
	"columns: column names in file order",
	"rowCount: number of rows",
	"print / printf: write to the report",
	"math, strings, strconv, sort: standard packages",
	"eda: Column, Mean, Median, Std, Min, Max, Quantile, Skewness, Correlation, ToJSON, JSONGet",
}

// Sandbox evaluates custom code with a fixed time and output budget.
type Sandbox struct {
	timeout   time.Duration
	maxOutput int
}

// New builds a Sandbox. Zero values mean no timeout beyond the caller's
// context and a 1 MiB output cap.
func New(timeout time.Duration, maxOutput int) *Sandbox {
	if maxOutput <= 0 {
		maxOutput = 1 << 20
	}
	return &Sandbox{timeout: timeout, maxOutput: maxOutput}
}

// Run checks code against the denylist, then interprets it. The returned
// string is everything the code printed.
func (s *Sandbox) Run(ctx context.Context, code string, in Input) (string, error) {
	if err := Check(code); err != nil {
		return "", err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	logger := zerolog.Ctx(ctx)

	out := &cappedBuffer{limit: s.maxOutput}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(restrictedStdlib()); err != nil {
		return "", fmt.Errorf("sandbox: load symbols: %w", err)
	}
	if err := i.Use(exports(in, out)); err != nil {
		return "", fmt.Errorf("sandbox: load bindings: %w", err)
	}

	start := time.Now()
	err := eval(ctx, i, wrap(code))
	logger.Debug().Dur("elapsed", time.Since(start)).Int("output_bytes", out.Len()).Err(err).Msg("sandbox_eval")
	return out.String(), err
}

func eval(ctx context.Context, i *interp.Interpreter, src string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrFailed, r)
		}
	}()
	if _, err := i.EvalWithContext(ctx, src); err != nil {
		return classify(ctx, err)
	}
	if _, err := i.EvalWithContext(ctx, "main.Analyze()"); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrFailed, err)
}

func restrictedStdlib() interp.Exports {
	out := make(interp.Exports, len(allowedSymbols))
	for _, key := range allowedSymbols {
		if syms, ok := stdlib.Symbols[key]; ok {
			out[key] = syms
		}
	}
	return out
}

const prelude = `package main

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"eda"
)

var (
	_ = math.Abs
	_ = sort.Float64s
	_ = strconv.Itoa
	_ = strings.TrimSpace
)

func Analyze() {
	data := eda.Data()
	columns := eda.Columns()
	rowCount := len(data)
	print := eda.Print
	printf := eda.Printf
	_, _, _, _, _ = data, columns, rowCount, print, printf
`

func wrap(code string) string {
	var b strings.Builder
	b.WriteString(prelude)
	b.WriteString(code)
	b.WriteString("\n}\n")
	return b.String()
}

// cappedBuffer keeps at most limit bytes and silently drops the rest. It is
// written by the interpreter goroutine, which can outlive a timed-out Run.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room := c.limit - c.buf.Len()
	if room <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		c.buf.Write(p[:room])
		c.truncated = true
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.truncated {
		return c.buf.String() + "\n... output truncated"
	}
	return c.buf.String()
}
