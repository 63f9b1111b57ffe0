package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xhad/hntrend/internal/models"
	"github.com/xhad/hntrend/internal/types"
	"github.com/xhad/hntrend/pkg/analyzer"
)

type Options struct {
	StoryCount int
	RunTimeout time.Duration
	// DumpPath, when set, receives the analyzed stories as JSON.
	DumpPath string
	Logger   *slog.Logger
}

// Pipeline runs fetch, normalize, analyze and render once per Run. RunTimeout
// bounds fetching and sentiment scoring.
type Pipeline struct {
	fetcher   types.StoryFetcher
	processor types.StoryProcessor
	analyzer  *analyzer.Analyzer
	renderer  types.ChartRenderer
	opts      Options
}

// Report describes one finished run. Analysis is set whenever fetching
// succeeded, even if rendering failed.
type Report struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Requested  int
	Fetched    int
	Failed     int
	Excluded   int
	Analyzed   int
	Exclusions []models.Exclusion
	Stories    []models.ProcessedStory
	Analysis   *analyzer.Result
	Artifacts  *models.Artifacts
}

func New(f types.StoryFetcher, p types.StoryProcessor, a *analyzer.Analyzer, r types.ChartRenderer, opts Options) *Pipeline {
	if opts.StoryCount == 0 {
		opts.StoryCount = 30
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		fetcher:   f,
		processor: p,
		analyzer:  a,
		renderer:  r,
		opts:      opts,
	}
}

func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := p.opts.Logger.With("run_id", report.RunID)
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if p.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RunTimeout)
		defer cancel()
	}

	logger.Info("fetching top stories", "count", p.opts.StoryCount)
	batch, err := p.fetcher.FetchTop(ctx, p.opts.StoryCount)
	if err != nil {
		return nil, err
	}
	report.Requested = batch.Requested
	report.Fetched = len(batch.Stories)
	report.Failed = batch.Failed

	processed, excluded := p.processor.Process(batch.Stories)
	for _, ex := range excluded {
		logger.Warn("excluding story", "story_id", ex.StoryID, "reason", ex.Err)
	}
	report.Exclusions = excluded
	report.Excluded = len(excluded)
	report.Stories = processed
	report.Analyzed = len(processed)

	analysis, err := p.analyzer.Analyze(ctx, processed)
	if err != nil {
		return nil, err
	}
	report.Analysis = analysis
	logger.Info("analyzed stories",
		"analyzed", report.Analyzed,
		"excluded", report.Excluded,
		"tokens", report.Analysis.TotalTokens,
		"mean_polarity", report.Analysis.Summary.MeanPolarity,
	)

	if p.opts.DumpPath != "" {
		if err := writeDump(p.opts.DumpPath, report); err != nil {
			logger.Warn("failed to write story dump", "path", p.opts.DumpPath, "error", err)
		} else {
			logger.Info("wrote story dump", "path", p.opts.DumpPath)
		}
	}

	artifacts, err := p.renderer.Render(report.Analysis.TopWords, report.Analysis.Buckets)
	if err != nil {
		return report, err
	}
	report.Artifacts = artifacts
	logger.Info("rendered charts", "top_words", artifacts.TopWordsPath, "histogram", artifacts.HistogramPath)

	return report, nil
}

type dumpStory struct {
	models.Story
	Tokens   models.TokenSet `json:"tokens"`
	Polarity float64         `json:"polarity"`
}

type dump struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     analyzer.Summary   `json:"summary"`
	TopWords    []models.WordCount `json:"top_words"`
	Stories     []dumpStory        `json:"stories"`
}

func writeDump(path string, report *Report) error {
	d := dump{
		RunID:       report.RunID,
		GeneratedAt: report.StartedAt.UTC(),
		Summary:     report.Analysis.Summary,
		TopWords:    report.Analysis.TopWords,
		Stories:     make([]dumpStory, len(report.Stories)),
	}
	for i, s := range report.Stories {
		d.Stories[i] = dumpStory{
			Story:    s.Story,
			Tokens:   s.Tokens,
			Polarity: report.Analysis.Sentiment[i].Polarity,
		}
	}

	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
