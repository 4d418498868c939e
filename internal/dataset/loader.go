package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/edamcp/internal/security"
)

var (
	// ErrNotFound indicates a local file that does not exist.
	ErrNotFound = errors.New("dataset: file not found")
	// ErrNotAllowed indicates a local path outside the configured allow-list.
	ErrNotAllowed = errors.New("dataset: path not allowed")
	// ErrUnsupported indicates binary content that is neither a workbook nor text.
	ErrUnsupported = errors.New("dataset: unsupported content")
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SampleURL is the hosted sample dataset offered in not-found guidance.
const SampleURL = "https://eda-mcp-server.vercel.app/data/sample_data.csv"

// NotFoundGuidance is the actionable text attached to a missing local file.
func NotFoundGuidance(ref string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File '%s' not found.\n\n", ref)
	b.WriteString("📝 Try one of these options:\n")
	fmt.Fprintf(&b, "• Sample dataset: %s\n", SampleURL)
	b.WriteString("• Your own HTTP URL: https://your-domain.com/your-data.csv\n")
	b.WriteString("• Upload your data to GitHub or Dropbox and use the raw URL\n\n")
	b.WriteString("📁 Local paths: use \"data/sample_data.csv\" (relative to the working directory) or \"/full/path/to/your/file.csv\"")
	return b.String()
}

// PathGuard validates local paths before they are opened.
type PathGuard interface {
	ValidateOpenPath(input string) (string, error)
}

// Options configures a Loader.
type Options struct {
	HTTPClient   *http.Client
	FetchTimeout time.Duration
	FetchRate    float64
	FetchBurst   int
	MaxBytes     int64
	// Guard restricts local paths when non-nil.
	Guard PathGuard
	// Sheet selects the workbook sheet; empty means the first.
	Sheet string
}

// Content is the outcome of a load: either a table or a text preview.
type Content struct {
	Ref    string       `json:"ref"`
	Format string       `json:"format"`
	Size   int          `json:"size"`
	Table  *Dataset     `json:"-"`
	Text   *TextPreview `json:"text,omitempty"`
}

// Loader resolves file references into Content.
type Loader struct {
	fetcher  *Fetcher
	guard    PathGuard
	maxBytes int64
	sheet    string
}

// NewLoader builds a Loader from opts.
func NewLoader(opts Options) *Loader {
	return &Loader{
		fetcher:  NewFetcher(opts.HTTPClient, opts.FetchTimeout, opts.FetchRate, opts.FetchBurst, opts.MaxBytes),
		guard:    opts.Guard,
		maxBytes: opts.MaxBytes,
		sheet:    opts.Sheet,
	}
}

// Resolve checks a local reference and returns the path to open. URLs are
// returned unchanged. Relative paths resolve against the working directory.
func (l *Loader) Resolve(ref string) (string, error) {
	if IsURL(ref) {
		return ref, nil
	}
	if l.guard != nil {
		p, err := l.guard.ValidateOpenPath(ref)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, security.ErrNotFound):
			return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
		case errors.Is(err, security.ErrNotAllowed):
			return "", fmt.Errorf("%w: %s", ErrNotAllowed, ref)
		case errors.Is(err, security.ErrUnsupportedExtension):
			return "", fmt.Errorf("%w: extension %q", ErrUnsupported, filepath.Ext(ref))
		default:
			return "", err
		}
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", fmt.Errorf("dataset: resolve %q: %w", ref, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("dataset: stat %q: %w", ref, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnsupported, ref)
	}
	return abs, nil
}

// Load reads ref and parses it. Non-tabular text yields a preview instead of
// an error; binary content that is not a workbook is ErrUnsupported.
func (l *Loader) Load(ctx context.Context, ref string) (*Content, error) {
	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)
	mt := mimetype.Detect(data)
	logger.Debug().Str("ref", ref).Str("mime", mt.String()).Str("size", humanize.Bytes(uint64(len(data)))).Msg("dataset_loaded")

	out := &Content{Ref: ref, Size: len(data)}
	lower := strings.ToLower(refPath(ref))
	if mt.Is(xlsxMIME) || strings.HasSuffix(lower, ".xlsx") {
		ds, err := ParseWorkbook(data, l.sheet)
		if err != nil {
			if errors.Is(err, ErrNotTabular) {
				out.Format = "text"
				out.Text = &TextPreview{}
				return out, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		out.Format = "xlsx"
		out.Table = ds
		return out, nil
	}
	if !isText(mt) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}
	ds, format, err := ParseTable(data, strings.HasSuffix(lower, ".csv"))
	if err != nil {
		logger.Debug().Err(err).Str("ref", ref).Msg("dataset_text_fallback")
		p := Preview(data)
		out.Format = "text"
		out.Text = &p
		return out, nil
	}
	out.Format = format
	out.Table = ds
	return out, nil
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, error) {
	if IsURL(ref) {
		return l.fetcher.Fetch(ctx, ref)
	}
	path, err := l.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if l.maxBytes > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > l.maxBytes {
			return nil, fmt.Errorf("%w: %s is %s (limit %s)", ErrTooLarge, ref,
				humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(l.maxBytes)))
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", ref, err)
	}
	return data, nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// refPath strips a URL query or fragment so extension checks see the path.
func refPath(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 && IsURL(ref) {
		return ref[:i]
	}
	return ref
}
