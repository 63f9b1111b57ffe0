package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHNServer serves /topstories.json with ids and /item/{id}.json from items.
// Ids missing from items answer 500.
func newHNServer(t *testing.T, ids string, items map[int]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v0/topstories.json" {
			w.Write([]byte(ids))
			return
		}

		var id int
		if _, err := fmt.Sscanf(r.URL.Path, "/v0/item/%d.json", &id); err != nil {
			http.NotFound(w, r)
			return
		}
		body, ok := items[id]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		// Later ranks answer faster to shake out ordering bugs.
		time.Sleep(time.Duration(10-id%10) * time.Millisecond)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	f, err := NewWithConfig(FetcherConfig{
		BaseURL:     baseURL + "/v0/",
		RateLimit:   1000,
		Concurrency: 4,
		Timeout:     2 * time.Second,
	})
	require.NoError(t, err)
	return f
}

func TestFetchTopPreservesRanking(t *testing.T) {
	items := map[int]string{}
	for id := 1; id <= 8; id++ {
		items[id] = fmt.Sprintf(`{"id":%d,"title":"Story %d","score":%d,"by":"pg","type":"story"}`, id, id, id*10)
	}
	server := newHNServer(t, "[1,2,3,4,5,6,7,8,9,10]", items)

	var progress []int
	f := testFetcher(t, server.URL)
	f.config.OnProgress = func(done, total int) {
		assert.Equal(t, 8, total)
		progress = append(progress, done)
	}

	batch, err := f.FetchTop(context.Background(), 8)
	require.NoError(t, err)

	require.Len(t, batch.Stories, 8)
	assert.Equal(t, 8, batch.Requested)
	assert.Equal(t, 0, batch.Failed)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, progress)
	for i, s := range batch.Stories {
		assert.Equal(t, i+1, s.ID)
		assert.Equal(t, fmt.Sprintf("Story %d", i+1), s.Title)
		assert.Equal(t, (i+1)*10, s.Score)
	}
}

func TestFetchTopSkipsFailures(t *testing.T) {
	items := map[int]string{
		1: `{"id":1,"title":"Go launches v2","score":10,"url":"https://go.dev"}`,
		2: `null`,
		3: `{"id":3,"deleted":true,"score":0}`,
		// 4 is missing and answers 500
	}
	server := newHNServer(t, "[1,2,3,4]", items)

	batch, err := testFetcher(t, server.URL).FetchTop(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 4, batch.Requested)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Stories, 3)
	assert.Equal(t, "Go launches v2", batch.Stories[0].Title)
	assert.Equal(t, "https://go.dev", batch.Stories[0].URL)
	assert.Equal(t, 2, batch.Stories[1].ID)
	assert.Empty(t, batch.Stories[1].Title)
	assert.Empty(t, batch.Stories[2].Title)
}

func TestFetchTopFailureRatio(t *testing.T) {
	items := map[int]string{
		1: `{"id":1,"title":"Only one","score":1}`,
	}
	server := newHNServer(t, "[1,2,3]", items)

	_, err := testFetcher(t, server.URL).FetchTop(context.Background(), 3)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "stories", fetchErr.Op)
	assert.Contains(t, err.Error(), "2 of 3 lookups failed")
}

func TestFetchTopMalformedIDs(t *testing.T) {
	server := newHNServer(t, `{"not":"a list"}`, nil)

	_, err := testFetcher(t, server.URL).FetchTop(context.Background(), 3)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "top stories", fetchErr.Op)
}

func TestFetchTopUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := testFetcher(t, url).FetchTop(context.Background(), 3)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, strings.HasPrefix(err.Error(), "fetch top stories:"))
}

func TestFetchTopCancelled(t *testing.T) {
	server := newHNServer(t, "[1]", map[int]string{1: `{"id":1,"title":"x"}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(t, server.URL).FetchTop(ctx, 1)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewWithConfigDefaults(t *testing.T) {
	_, err := NewWithConfig(FetcherConfig{})
	assert.Error(t, err)

	f, err := NewWithConfig(FetcherConfig{BaseURL: "https://example.com/v0/"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v0", f.config.BaseURL)
	assert.Equal(t, 10*time.Second, f.config.Timeout)
	assert.Equal(t, 4, f.config.Concurrency)
	assert.Equal(t, DefaultMaxFailureRatio, f.maxFailureRatio)

	zero := 0.0
	f, err = NewWithConfig(FetcherConfig{BaseURL: "https://example.com/v0", MaxFailureRatio: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.maxFailureRatio)

	tooHigh := 2.0
	_, err = NewWithConfig(FetcherConfig{BaseURL: "https://example.com/v0", MaxFailureRatio: &tooHigh})
	assert.Error(t, err)
}

func TestFetchTopZeroFailureRatio(t *testing.T) {
	items := map[int]string{
		1: `{"id":1,"title":"First","score":1}`,
		2: `{"id":2,"title":"Second","score":2}`,
		// 3 is missing and answers 500
	}
	server := newHNServer(t, "[1,2,3]", items)

	f := testFetcher(t, server.URL)
	f.maxFailureRatio = 0

	_, err := f.FetchTop(context.Background(), 3)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "1 of 3 lookups failed")

	// Without failures a zero ratio is fine.
	batch, err := f.FetchTop(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, batch.Stories, 2)
}

func TestFetchTopNullIDs(t *testing.T) {
	server := newHNServer(t, `null`, nil)

	_, err := testFetcher(t, server.URL).FetchTop(context.Background(), 3)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "top stories", fetchErr.Op)
}

func TestFetchTopEmptyIDs(t *testing.T) {
	server := newHNServer(t, `[]`, nil)

	batch, err := testFetcher(t, server.URL).FetchTop(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.Requested)
	assert.Empty(t, batch.Stories)
}

func TestFetchTopLogsOneSkipSummary(t *testing.T) {
	items := map[int]string{
		1: `{"id":1,"title":"Kept","score":1}`,
		// 2 and 3 are missing and answer 500
		4: `{"id":4,"title":"Also kept","score":4}`,
	}
	server := newHNServer(t, "[1,2,3,4]", items)

	var buf bytes.Buffer
	f := testFetcher(t, server.URL)
	f.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	batch, err := f.FetchTop(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Failed)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "level=WARN"))
	assert.Contains(t, out, `msg="skipped stories" count=2 story_ids="[2 3]"`)
	assert.NotContains(t, out, "story lookup failed")
}
