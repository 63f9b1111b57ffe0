package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/hntrend/pkg/analyzer"
	cfgPkg "github.com/xhad/hntrend/pkg/config"
	"github.com/xhad/hntrend/pkg/fetcher"
	"github.com/xhad/hntrend/pkg/llm"
	"github.com/xhad/hntrend/pkg/logging"
	"github.com/xhad/hntrend/pkg/pipeline"
	"github.com/xhad/hntrend/pkg/processor"
	"github.com/xhad/hntrend/pkg/render"
)

func invalidConfigError(errs []cfgPkg.ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func getProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("stories"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		// Logs share stderr with the bar, so it must not linger once done.
		progressbar.OptionClearOnFinish(),
	)
}

func run(ctx context.Context, config *cfgPkg.Config, stdout, stderr io.Writer) error {
	logger := logging.InitLoggerTo(stderr, config.Log.Level, config.Log.Format)

	// Initialize components
	fetchBar := getProgressBar(stderr, config.Fetcher.StoryCount, "📡 Fetching top stories...")
	storyFetcher, err := fetcher.NewWithConfig(fetcher.FetcherConfig{
		BaseURL:         config.Fetcher.BaseURL,
		RateLimit:       config.Fetcher.RateLimit,
		Concurrency:     config.Fetcher.Concurrency,
		MaxFailureRatio: config.Fetcher.MaxFailureRatio,
		Timeout:         config.FetchTimeout(),
		Logger:          logger,
		OnProgress: func(done, total int) {
			fetchBar.ChangeMax(total)
			fetchBar.Set(done)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize fetcher: %w", err)
	}

	polarity := analyzer.VADER()
	if config.Analyzer.Sentiment == "ollama" {
		scorer, err := llm.NewWithConfig(llm.ScorerConfig{
			Model:       config.LLM.Model,
			BaseURL:     config.LLM.BaseURL,
			Temperature: config.LLM.Temperature,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize sentiment scorer: %w", err)
		}
		polarity = scorer.PolarityFunc()
	}

	renderer, err := render.NewWithConfig(render.RenderConfig{
		Dir:           config.Output.Dir,
		TopWordsFile:  config.Output.TopWordsFile,
		HistogramFile: config.Output.HistogramFile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	p := pipeline.New(
		storyFetcher,
		processor.NewWithConfig(processor.ProcessorConfig{
			MinTokenLength:  config.Processor.MinTokenLength,
			CustomStopwords: config.Processor.CustomStopwords,
		}),
		analyzer.NewWithConfig(analyzer.AnalyzerConfig{
			TopK:     config.Analyzer.TopK,
			Buckets:  config.Analyzer.Buckets,
			Polarity: polarity,
		}),
		renderer,
		pipeline.Options{
			StoryCount: config.Fetcher.StoryCount,
			RunTimeout: config.RunTimeout(),
			DumpPath:   config.Output.DumpPath,
			Logger:     logger,
		},
	)

	color.New(color.FgCyan).Fprintln(stdout, "🚀 Starting Hacker News Top Stories Analysis")
	report, err := p.Run(ctx)
	fetchBar.Finish()

	var renderErr *render.RenderError
	switch {
	case err == nil:
		printReport(stdout, report)
		return nil
	case errors.As(err, &renderErr) && report != nil:
		// Charts failed; the analysis itself is still worth showing.
		printReport(stdout, report)
		return err
	default:
		return err
	}
}
