package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xhad/hntrend/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const DefaultMaxFailureRatio = 0.5

type FetcherConfig struct {
	BaseURL     string
	RateLimit   float64 // requests per second
	Concurrency int
	// MaxFailureRatio caps failed/requested lookups. nil means
	// DefaultMaxFailureRatio; 0 fails the batch on any lookup error.
	MaxFailureRatio *float64
	Timeout         time.Duration
	Client          *http.Client
	Logger          *slog.Logger
	// OnProgress is called once per finished lookup, never concurrently,
	// with the number done so far out of total.
	OnProgress func(done, total int)
}

// FetchError is returned when the batch as a whole cannot be fetched.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Fetcher struct {
	config          FetcherConfig
	client          *http.Client
	limiter         *rate.Limiter
	logger          *slog.Logger
	maxFailureRatio float64
}

// item mirrors the fields of the item endpoint we care about. The endpoint
// answers with a literal null for unknown or purged ids.
type item struct {
	ID      int     `json:"id"`
	Title   *string `json:"title"`
	Score   int     `json:"score"`
	URL     string  `json:"url"`
	By      string  `json:"by"`
	Type    string  `json:"type"`
	Time    int64   `json:"time"`
	Deleted bool    `json:"deleted"`
	Dead    bool    `json:"dead"`
}

func NewWithConfig(config FetcherConfig) (*Fetcher, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if config.Concurrency == 0 {
		config.Concurrency = 4
	}
	maxFailureRatio := DefaultMaxFailureRatio
	if config.MaxFailureRatio != nil {
		maxFailureRatio = *config.MaxFailureRatio
	}
	if maxFailureRatio < 0 || maxFailureRatio > 1 {
		return nil, fmt.Errorf("max failure ratio must be between 0 and 1")
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		config:          config,
		client:          client,
		limiter:         rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:          logger,
		maxFailureRatio: maxFailureRatio,
	}, nil
}

// FetchTop retrieves up to n top stories in ranking order. Lookups that fail
// are skipped and counted unless their share exceeds MaxFailureRatio.
func (f *Fetcher) FetchTop(ctx context.Context, n int) (*models.Batch, error) {
	ids, err := f.TopStoryIDs(ctx)
	if err != nil {
		return nil, &FetchError{Op: "top stories", Err: err}
	}
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}

	results := make([]*models.Story, len(ids))
	errs := make([]error, len(ids))

	// Serializes OnProgress so callers can drive a progress bar directly.
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i], errs[i] = f.Story(gctx, id)
			if errs[i] != nil {
				f.logger.Debug("story lookup failed", "story_id", id, "error", errs[i])
			}
			if f.config.OnProgress != nil {
				mu.Lock()
				done++
				f.config.OnProgress(done, len(ids))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Op: "stories", Err: err}
	}

	batch := &models.Batch{
		Stories:   make([]models.Story, 0, len(ids)),
		Requested: len(ids),
	}
	var skipped []int
	var lastErr error
	for i, s := range results {
		if errs[i] != nil {
			skipped = append(skipped, ids[i])
			lastErr = errs[i]
			continue
		}
		batch.Stories = append(batch.Stories, *s)
	}
	batch.Failed = len(skipped)

	if len(ids) > 0 {
		ratio := float64(batch.Failed) / float64(len(ids))
		if ratio > f.maxFailureRatio {
			return nil, &FetchError{
				Op:  "stories",
				Err: fmt.Errorf("%d of %d lookups failed (max ratio %.2f): %w", batch.Failed, len(ids), f.maxFailureRatio, lastErr),
			}
		}
	}
	if len(skipped) > 0 {
		f.logger.Warn("skipped stories", "count", len(skipped), "story_ids", skipped, "last_error", lastErr)
	}

	f.logger.Info("fetched stories", "requested", batch.Requested, "fetched", len(batch.Stories), "failed", batch.Failed)
	return batch, nil
}

// TopStoryIDs returns the current ranking. An empty list is valid; a null
// body is not.
func (f *Fetcher) TopStoryIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := f.getJSON(ctx, f.config.BaseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		return nil, fmt.Errorf("null story id list")
	}
	return ids, nil
}

// Story fetches a single item. Deleted or missing items come back with an
// empty title so the caller can exclude them.
func (f *Fetcher) Story(ctx context.Context, id int) (*models.Story, error) {
	var it *item
	if err := f.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", f.config.BaseURL, id), &it); err != nil {
		return nil, err
	}

	story := &models.Story{ID: id}
	if it == nil {
		return story, nil
	}

	story.Score = max(it.Score, 0)
	story.URL = it.URL
	story.By = it.By
	story.Type = it.Type
	story.Time = it.Time
	if it.Title != nil && !it.Deleted {
		story.Title = *it.Title
	}
	return story, nil
}

func (f *Fetcher) getJSON(ctx context.Context, url string, v any) error {
	// Apply rate limiting
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
