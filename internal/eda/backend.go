package eda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/sandbox"
	"github.com/vinodismyname/edamcp/pkg/mcperr"
)

// Backend names.
const (
	BackendNative = "native"
	BackendPython = "python"
)

var (
	// ErrUnknownBackend indicates a backend name that is not registered.
	ErrUnknownBackend = errors.New("eda: unknown backend")
	// ErrExecution indicates an out-of-process backend failed to run.
	ErrExecution = errors.New("eda: execution failed")
)

// Backend produces a Report for a Request.
type Backend interface {
	Name() string
	Analyze(ctx context.Context, req Request) (*Report, error)
}

// Selector maps backend names to implementations. The choice is made once
// per tool; a failing backend is never retried on another.
type Selector struct {
	backends map[string]Backend
}

// NewSelector registers the given backends under their names. Nil entries are skipped.
func NewSelector(backends ...Backend) *Selector {
	s := &Selector{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		if b != nil {
			s.backends[b.Name()] = b
		}
	}
	return s
}

// Select returns the backend registered under name.
func (s *Selector) Select(name string) (Backend, error) {
	b, ok := s.backends[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, name, strings.Join(s.Names(), ", "))
	}
	return b, nil
}

// Names lists registered backends in sorted order.
func (s *Selector) Names() []string {
	out := make([]string, 0, len(s.backends))
	for n := range s.backends {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Prepare runs the checks shared by every backend before any data is read:
// request validation and the custom-code denylist.
func Prepare(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Type == Custom && strings.TrimSpace(req.CustomCode) != "" {
		if err := sandbox.Check(req.CustomCode); err != nil {
			return err
		}
	}
	return nil
}

// Classify maps an analysis error to its canonical code and a message.
func Classify(err error) (mcperr.Code, string) {
	var rej *sandbox.RejectedError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return mcperr.Validation, strings.TrimPrefix(err.Error(), "VALIDATION: ")
	case errors.As(err, &rej):
		return mcperr.CodeRejected, "Custom code contains restricted operations: " + rej.Marker
	case errors.Is(err, dataset.ErrNotFound):
		ref := strings.TrimPrefix(err.Error(), dataset.ErrNotFound.Error()+": ")
		return mcperr.FileNotFound, dataset.NotFoundGuidance(ref)
	case errors.Is(err, dataset.ErrNotAllowed):
		return mcperr.PermissionDenied, err.Error()
	case errors.Is(err, dataset.ErrUnsupported):
		return mcperr.UnsupportedFormat, err.Error()
	case errors.Is(err, dataset.ErrTooLarge):
		return mcperr.FileTooLarge, err.Error()
	case errors.Is(err, dataset.ErrFetch):
		return mcperr.LoadFailed, err.Error()
	case errors.Is(err, sandbox.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return mcperr.Timeout, err.Error()
	case errors.Is(err, sandbox.ErrFailed):
		return mcperr.CodeFailed, err.Error()
	case errors.Is(err, ErrExecution):
		return mcperr.ExecutionFailed, err.Error()
	default:
		return mcperr.ExecutionFailed, err.Error()
	}
}

// ErrorText renders err as a report line: a leading failure marker, the
// canonical code, the message and next steps.
func ErrorText(err error) string {
	code, msg := Classify(err)
	return mcperr.Text(code, msg)
}
