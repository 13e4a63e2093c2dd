package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/parser"
)

// HTTPFetcher fetches {baseURL}/{path}.md from a content server.
type HTTPFetcher struct {
	baseURL    string
	apiKey     string
	maxBytes   int64
	retries    int
	httpClient *http.Client
	rec        metrics.Recorder
	log        *slog.Logger
}

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	APIKey   string
	Timeout  time.Duration
	Retries  int
	MaxBytes int64
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

func NewHTTPFetcher(baseURL string, opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &HTTPFetcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   opts.APIKey,
		maxBytes: opts.MaxBytes,
		retries:  opts.Retries,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		rec: opts.Recorder,
		log: opts.Logger,
	}
}

func (c *HTTPFetcher) Fetch(ctx context.Context, loc navigation.Locator) (*Document, error) {
	u := c.baseURL + "/" + loc.Path() + ".md"

	policy := retrypolicy.Builder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return isRetryable(err) }).
		WithMaxRetries(c.retries).
		WithBackoff(200*time.Millisecond, 5*time.Second).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[[]byte]) {
			c.log.Warn("retrying content fetch", logfields.URL(u), "attempt", e.Attempts(), logfields.Error(e.LastError()))
		}).
		Build()

	data, err := failsafe.NewExecutor[[]byte](policy).WithContext(ctx).Get(func() ([]byte, error) {
		return c.get(ctx, u)
	})
	if err != nil {
		c.rec.IncContentFetch("http", string(naverrors.GetKind(err)))
		if naverrors.IsKind(err, naverrors.KindContentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}

	doc, err := newDocument(loc, u, loc.Path()+".md", data, parser.Options{})
	if err != nil {
		c.rec.IncContentFetch("http", metrics.ResultError)
		return nil, err
	}
	c.rec.IncContentFetch("http", metrics.ResultOK)
	return doc, nil
}

func (c *HTTPFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/markdown, text/plain")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, naverrors.ContentNotFound(u)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	body := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &transportError{err: err}
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%s: body exceeds limit of %d bytes", u, c.maxBytes)
	}
	return data, nil
}

// Close releases idle connections.
func (c *HTTPFetcher) Close() {
	c.httpClient.CloseIdleConnections()
}
