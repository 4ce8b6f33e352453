// Package wanikani fetches the subject catalog from the WaniKani v2 API.
package wanikani

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/japaniel/wksync/pkg/logging"
	"github.com/japaniel/wksync/pkg/metrics"
	"github.com/japaniel/wksync/pkg/subject"
)

const (
	DefaultBaseURL = "https://api.wanikani.com/v2"
	// Revision pins the response format.
	Revision = "20170710"
	// MaxLevel is the highest level of the catalog.
	MaxLevel = 60

	maxErrorBodySize = 64 * 1024
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Token is the API token, with or without the "Bearer " prefix.
	Token             string
	Levels            int
	RequestsPerMinute int
	FetchConcurrency  int
	Timeout           time.Duration
}

// Client reads subjects level by level. It is safe for concurrent use.
type Client struct {
	baseURL     string
	auth        string
	levels      int
	concurrency int

	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*collection]

	maxRetries     int
	retryBaseDelay time.Duration

	// OnPage, if set, is called after each page with the number of subjects
	// fetched so far for that level.
	OnPage func(level, fetched int)
}

// BearerToken returns tok as an Authorization header value.
func BearerToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.HasPrefix(tok, "Bearer ") {
		return tok
	}
	return "Bearer " + tok
}

// NewClient creates a client. Zero fields take the API defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Levels <= 0 || cfg.Levels > MaxLevel {
		cfg.Levels = MaxLevel
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		auth:           BearerToken(cfg.Token),
		levels:         cfg.Levels,
		concurrency:    cfg.FetchConcurrency,
		http:           &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(limit, 1),
		cb:             newBreaker(),
		maxRetries:     3,
		retryBaseDelay: time.Second,
	}
}

// FetchAll returns every subject of levels 1 through the configured maximum,
// keyed by subject id. Levels are fetched concurrently; the first failing
// level cancels the rest.
func (c *Client) FetchAll(ctx context.Context) (map[int]subject.Record, error) {
	var (
		mu  sync.Mutex
		out = make(map[int]subject.Record)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for level := 1; level <= c.levels; level++ {
		g.Go(func() error {
			recs, err := c.FetchLevel(gctx, level)
			if err != nil {
				return fmt.Errorf("level %d: %w", level, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, rec := range recs {
				out[rec.SubjectID()] = rec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchLevel returns the subjects of one level, following pagination.
// Hidden subjects are included.
func (c *Client) FetchLevel(ctx context.Context, level int) ([]subject.Record, error) {
	next := c.baseURL + "/subjects?levels=" + strconv.Itoa(level)
	var recs []subject.Record

	for next != "" {
		page, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, res := range page.Data {
			rec, err := res.toRecord()
			if errors.Is(err, errUnknownObject) {
				logging.Warn().Int("subject_id", res.ID).Str("object", res.Object).Msg("skipping unknown subject type")
				continue
			}
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
		metrics.FetchedSubjects.Add(float64(len(page.Data)))
		if c.OnPage != nil {
			c.OnPage(level, len(recs))
		}

		next = ""
		if page.Pages.NextURL != nil {
			next = *page.Pages.NextURL
		}
	}
	return recs, nil
}

func (c *Client) getPage(ctx context.Context, url string) (*collection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.cb.Execute(func() (*collection, error) {
		return c.get(ctx, url)
	})
	switch {
	case err == nil:
		metrics.FetchRequests.WithLabelValues("success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.FetchRequests.WithLabelValues("rejected").Inc()
	default:
		metrics.FetchRequests.WithLabelValues("failure").Inc()
	}
	return page, err
}

// get performs one GET, retrying with exponential backoff on HTTP 429.
func (c *Client) get(ctx context.Context, url string) (*collection, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", c.auth)
		req.Header.Set("Wanikani-Revision", Revision)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", url, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			resp.Body.Close()
			delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
			if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
				delay = time.Duration(s) * time.Second
			}
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return decodePage(resp, url)
	}
}

func decodePage(resp *http.Response, url string) (*collection, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{Code: resp.StatusCode, URL: url, Body: string(body)}
	}

	var page collection
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return &page, nil
}
