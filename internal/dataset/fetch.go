package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// ErrFetch indicates a URL could not be retrieved.
var ErrFetch = errors.New("dataset: fetch failed")

// ErrTooLarge indicates content above the configured byte limit.
var ErrTooLarge = errors.New("dataset: content exceeds size limit")

// IsURL reports whether ref is an http:// or https:// reference.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Fetcher retrieves remote datasets with a bounded body and an outbound rate limit.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewFetcher builds a Fetcher. perSecond <= 0 disables rate limiting.
func NewFetcher(client *http.Client, timeout time.Duration, perSecond float64, burst int, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Fetcher{client: client, limiter: rate.NewLimiter(limit, burst), maxBytes: maxBytes}
}

// Fetch GETs url and returns its body. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: HTTP %s", ErrFetch, url, resp.Status)
	}
	return readLimited(resp.Body, f.maxBytes)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("dataset: read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%s)", ErrTooLarge, humanize.IBytes(uint64(maxBytes)))
	}
	return data, nil
}
