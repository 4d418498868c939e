// Package pyexec runs analyses in an external Python interpreter with pandas
// and numpy. Go loads and types the data, writes it to a temporary JSON file
// and renders a script that reads it; the script's stdout is the report.
package pyexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/edamcp/internal/eda"
)

// ErrInterpreterNotFound indicates none of the configured interpreters exist.
var ErrInterpreterNotFound = errors.New("pyexec: no python interpreter found")

// DefaultInterpreters are tried in order.
var DefaultInterpreters = []string{"python3", "python"}

const stderrTail = 2048

// Gate bounds the number of concurrently running interpreters.
type Gate interface {
	AcquireSubprocess(ctx context.Context) error
	ReleaseSubprocess()
}

// Options configures a Backend.
type Options struct {
	Interpreters []string
	// TempDir holds the script and data files; empty means os.TempDir().
	TempDir string
	// Timeout bounds one interpreter run. Zero leaves only the caller's deadline.
	Timeout time.Duration
	Gate    Gate
}

// Backend implements eda.Backend with a Python subprocess.
type Backend struct {
	loader eda.Loader
	opts   Options
	engine *eda.Engine
}

// New builds a Backend. It does not check that an interpreter exists; see Probe.
func New(loader eda.Loader, opts Options) *Backend {
	if len(opts.Interpreters) == 0 {
		opts.Interpreters = DefaultInterpreters
	}
	return &Backend{loader: loader, opts: opts, engine: &eda.Engine{}}
}

func (b *Backend) Name() string { return eda.BackendPython }

// Analyze validates req, loads its file and runs the analysis script.
// Non-tabular files get the text preview without starting an interpreter.
func (b *Backend) Analyze(ctx context.Context, req eda.Request) (*eda.Report, error) {
	if err := eda.Prepare(req); err != nil {
		return nil, err
	}
	start := time.Now()
	content, err := b.loader.Load(ctx, req.FileRef)
	if err != nil {
		return nil, err
	}
	if content.Table == nil {
		return b.engine.Run(ctx, content, req)
	}

	p, err := newPayload(content.Table, req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("pyexec: encode payload: %w", err)
	}
	src, err := renderScript(req.Type)
	if err != nil {
		return nil, err
	}
	out, interp, err := b.run(ctx, src, data)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Str("backend", eda.BackendPython).
		Str("interpreter", interp).
		Str("analysis_type", string(req.Type)).
		Int("payload_bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis_complete")
	return &eda.Report{Text: out}, nil
}

func (b *Backend) run(ctx context.Context, src, data []byte) (string, string, error) {
	if g := b.opts.Gate; g != nil {
		if err := g.AcquireSubprocess(ctx); err != nil {
			return "", "", fmt.Errorf("pyexec: wait for subprocess slot: %w", err)
		}
		defer g.ReleaseSubprocess()
	}

	dir := b.opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	scriptPath, err := writeTemp(dir, "eda-*.py", src)
	if err != nil {
		return "", "", err
	}
	defer remove(ctx, scriptPath)
	dataPath, err := writeTemp(dir, "eda-*.json", data)
	if err != nil {
		return "", "", err
	}
	defer remove(ctx, dataPath)

	for _, name := range b.opts.Interpreters {
		out, err := b.invoke(ctx, name, dir, scriptPath, dataPath)
		if isNotFound(err) {
			zerolog.Ctx(ctx).Debug().Str("interpreter", name).Msg("interpreter_not_found")
			continue
		}
		return out, name, err
	}
	return "", "", fmt.Errorf("%w: %w (tried %s)", eda.ErrExecution, ErrInterpreterNotFound,
		strings.Join(b.opts.Interpreters, ", "))
}

func (b *Backend) invoke(ctx context.Context, name, dir, scriptPath, dataPath string) (string, error) {
	runCtx := ctx
	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, name, "-B", scriptPath, dataPath)
	cmd.Dir = dir
	cmd.Env = scrubbedEnv(dir)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	switch {
	case err == nil:
		return stdout.String(), nil
	case isNotFound(err):
		return "", err
	case runCtx.Err() != nil:
		return "", fmt.Errorf("pyexec: %s: %w", name, runCtx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", fmt.Errorf("%w: %s exited with status %d: %s", eda.ErrExecution, name, exitErr.ExitCode(), tail(stderr.String()))
	}
	return "", fmt.Errorf("%w: %s: %w", eda.ErrExecution, name, err)
}

// Probe returns the first interpreter that can import pandas and numpy.
func Probe(ctx context.Context, interpreters []string) (string, error) {
	if len(interpreters) == 0 {
		interpreters = DefaultInterpreters
	}
	for _, name := range interpreters {
		cmd := exec.CommandContext(ctx, name, "-c", "import pandas, numpy")
		cmd.Env = scrubbedEnv(os.TempDir())
		if err := cmd.Run(); err == nil {
			return name, nil
		}
	}
	return "", ErrInterpreterNotFound
}

// scrubbedEnv passes PATH through and pins everything the script depends on.
func scrubbedEnv(home string) []string {
	env := []string{
		"HOME=" + home,
		"PYTHONDONTWRITEBYTECODE=1",
		"PYTHONIOENCODING=utf-8",
		"LANG=C.UTF-8",
	}
	if p, ok := os.LookupEnv("PATH"); ok {
		env = append(env, "PATH="+p)
	}
	return env
}

func writeTemp(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("pyexec: create temp file: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("pyexec: write %s: %w", filepath.Base(name), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("pyexec: close %s: %w", filepath.Base(name), err)
	}
	return name, nil
}

func remove(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("temp_cleanup_failed")
	}
}

func isNotFound(err error) bool {
	return err != nil && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist))
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
