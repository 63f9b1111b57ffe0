package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/hntrend/internal/models"
	"github.com/xhad/hntrend/pkg/analyzer"
	"github.com/xhad/hntrend/pkg/pipeline"
)

func init() {
	color.NoColor = true
}

func newHNServer(t *testing.T) *httptest.Server {
	t.Helper()
	titles := []string{
		"Go launches v2",
		"Go launches v2",
		"A terrible outage at a cloud provider",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			w.Write([]byte("[1,2,3,4]"))
			return
		}
		var id int
		fmt.Sscanf(r.URL.Path, "/item/%d.json", &id)
		if id < 1 || id > len(titles) {
			w.Write([]byte("null"))
			return
		}
		fmt.Fprintf(w, `{"id":%d,"title":%q,"score":%d,"by":"user%d"}`, id, titles[id-1], id*10, id)
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	server := newHNServer(t)
	t.Setenv("HN_API_URL", server.URL)
	outDir := filepath.Join(t.TempDir(), "assets")
	dumpPath := filepath.Join(t.TempDir(), "stories.json")

	stdout, stderr, err := execute(t, "-n", "4", "-o", outDir, "--top-k", "3", "--buckets", "4", "--dump", dumpPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Fetched 4 of 4 stories (0 failed, 1 excluded)")
	assert.Contains(t, stdout, "Overall tone:")
	assert.Contains(t, stdout, `Top Story: "A terrible outage at a cloud provider"`)
	assert.Contains(t, stdout, "By: user3")
	assert.Contains(t, stdout, "Analysis complete!")
	assert.Contains(t, stderr, "excluding story")

	assert.FileExists(t, filepath.Join(outDir, "top_words.png"))
	assert.FileExists(t, filepath.Join(outDir, "score_histogram.png"))
	assert.FileExists(t, dumpPath)
}

func TestRootCommandFetchError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Setenv("HN_API_URL", server.URL)
	server.Close()
	outDir := filepath.Join(t.TempDir(), "assets")

	_, _, err := execute(t, "-o", outDir)

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "fetch top stories:"))
	assert.NoDirExists(t, outDir)
}

func TestRootCommandInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "--sentiment", "textblob", "--top-k=-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer.top_k")
	assert.Contains(t, err.Error(), "analyzer.sentiment")
}

func TestPrintReportWithoutArtifacts(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &pipeline.Report{
		Requested: 2,
		Fetched:   2,
		Analyzed:  2,
		Analysis: &analyzer.Result{
			TopWords:    []models.WordCount{{Word: "go", Count: 2}},
			TotalTokens: 2,
			Summary: analyzer.Summary{
				Stories:      2,
				MeanPolarity: -0.4,
				Tone:         "negative",
				TopStory:     models.Story{ID: 7, Title: "Outage", Score: 99},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Average Sentiment of Titles: -0.400")
	assert.Contains(t, out, "Overall tone: negative")
	assert.Contains(t, out, "By: Unknown")
	assert.Contains(t, out, " 1. go")
	assert.NotContains(t, out, "Saved plot")
}
