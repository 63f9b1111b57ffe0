package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL = "https://hacker-news.firebaseio.com/v0"

	DefaultMaxFailureRatio = 0.5
)

type Config struct {
	Fetcher struct {
		BaseURL         string  `yaml:"base_url"`
		StoryCount      int     `yaml:"story_count"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		RateLimit       float64 `yaml:"rate_limit"`
		Concurrency     int     `yaml:"concurrency"`
		// MaxFailureRatio is a pointer so an explicit 0 (fail on any lookup
		// error) survives defaulting.
		MaxFailureRatio *float64 `yaml:"max_failure_ratio"`
	} `yaml:"fetcher"`

	Processor struct {
		MinTokenLength  int      `yaml:"min_token_length"`
		CustomStopwords []string `yaml:"custom_stopwords"`
	} `yaml:"processor"`

	Analyzer struct {
		TopK      int    `yaml:"top_k"`
		Buckets   int    `yaml:"buckets"`
		Sentiment string `yaml:"sentiment"`
	} `yaml:"analyzer"`

	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Output struct {
		Dir           string `yaml:"dir"`
		TopWordsFile  string `yaml:"top_words_file"`
		HistogramFile string `yaml:"histogram_file"`
		DumpPath      string `yaml:"dump_path"`
	} `yaml:"output"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	RunTimeoutSeconds int `yaml:"run_timeout_seconds"`
}

// FetchTimeout returns the per-request timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/hntrend/config.yaml"),
			"/etc/hntrend/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

// DefaultConfig returns the built-in defaults merged with the environment.
func DefaultConfig() *Config {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Fetcher.BaseURL == "" {
		config.Fetcher.BaseURL = DefaultAPIURL
	}
	if config.Fetcher.StoryCount == 0 {
		config.Fetcher.StoryCount = 30
	}
	if config.Fetcher.TimeoutSeconds == 0 {
		config.Fetcher.TimeoutSeconds = 10
	}
	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 10
	}
	if config.Fetcher.Concurrency == 0 {
		config.Fetcher.Concurrency = 4
	}
	if config.Fetcher.MaxFailureRatio == nil {
		ratio := DefaultMaxFailureRatio
		config.Fetcher.MaxFailureRatio = &ratio
	}

	if config.Processor.MinTokenLength == 0 {
		config.Processor.MinTokenLength = 2
	}

	if config.Analyzer.TopK == 0 {
		config.Analyzer.TopK = 15
	}
	if config.Analyzer.Buckets == 0 {
		config.Analyzer.Buckets = 15
	}
	if config.Analyzer.Sentiment == "" {
		config.Analyzer.Sentiment = "vader"
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}

	if config.Output.Dir == "" {
		config.Output.Dir = "assets"
	}
	if config.Output.TopWordsFile == "" {
		config.Output.TopWordsFile = "top_words.png"
	}
	if config.Output.HistogramFile == "" {
		config.Output.HistogramFile = "score_histogram.png"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if config.RunTimeoutSeconds == 0 {
		config.RunTimeoutSeconds = 120
	}
}

func mergeWithEnv(config *Config) {
	if apiURL := os.Getenv("HN_API_URL"); apiURL != "" {
		config.Fetcher.BaseURL = apiURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dir := os.Getenv("HNTREND_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}
	if level := os.Getenv("HNTREND_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
