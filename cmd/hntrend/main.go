package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	cfgPkg "github.com/xhad/hntrend/pkg/config"
)

type flags struct {
	configPath string
	count      int
	outDir     string
	topK       int
	buckets    int
	sentiment  string
	dumpPath   string
	logLevel   string
	logFormat  string
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "hntrend",
		Short: "Analyze word and sentiment trends in Hacker News top stories",
		Long: "hntrend fetches the current Hacker News top stories, ranks the most common\n" +
			"title words, scores title sentiment and renders a top-words bar chart and a\n" +
			"score histogram.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), config, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Path to config file")
	fs.IntVarP(&f.count, "count", "n", 30, "Number of top stories to fetch")
	fs.StringVarP(&f.outDir, "out", "o", "assets", "Directory for the chart images")
	fs.IntVar(&f.topK, "top-k", 15, "Number of words in the bar chart")
	fs.IntVar(&f.buckets, "buckets", 15, "Number of score histogram buckets")
	fs.StringVar(&f.sentiment, "sentiment", "vader", "Sentiment backend: vader or ollama")
	fs.StringVar(&f.dumpPath, "dump", "", "Write analyzed stories as JSON to this path")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")

	return cmd
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, f flags) (*cfgPkg.Config, error) {
	config, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("count") {
		config.Fetcher.StoryCount = f.count
	}
	if fs.Changed("out") {
		config.Output.Dir = f.outDir
	}
	if fs.Changed("top-k") {
		config.Analyzer.TopK = f.topK
	}
	if fs.Changed("buckets") {
		config.Analyzer.Buckets = f.buckets
	}
	if fs.Changed("sentiment") {
		config.Analyzer.Sentiment = f.sentiment
	}
	if fs.Changed("dump") {
		config.Output.DumpPath = f.dumpPath
	}
	if fs.Changed("log-level") {
		config.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		config.Log.Format = f.logFormat
	}

	if errs := config.Validate(); len(errs) > 0 {
		return nil, invalidConfigError(errs)
	}
	return config, nil
}
