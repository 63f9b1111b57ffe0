package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/hntrend/pkg/analyzer"
)

// ScorerConfig represents the configuration for an LLM sentiment scorer.
type ScorerConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
	// Timeout bounds a single request. The caller's ctx still applies.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Scorer asks a language model for the polarity of a headline.
type Scorer struct {
	config ScorerConfig
	llm    llms.Model
	logger *slog.Logger
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// NewWithConfig creates a Scorer backed by an Ollama server.
func NewWithConfig(config ScorerConfig) (*Scorer, error) {
	config = withDefaults(config)

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return NewWithModel(model, config)
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, config ScorerConfig) (*Scorer, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	config = withDefaults(config)
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scorer{
		config: config,
		llm:    model,
		logger: logger,
	}, nil
}

func withDefaults(config ScorerConfig) ScorerConfig {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 16
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You rate the sentiment of news headlines. " +
			"Reply with a single number between -1 (very negative) and 1 (very positive), 0 for neutral. " +
			"Do not explain."
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return config
}

// Polarity returns the model's polarity for text, clamped to [-1, 1].
func (s *Scorer) Polarity(ctx context.Context, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	response, err := s.llm.GenerateContent(ctx, content,
		llms.WithTemperature(s.config.Temperature),
		llms.WithMaxTokens(s.config.MaxTokens),
	)
	if err != nil {
		return 0, fmt.Errorf("sentiment request: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return 0, fmt.Errorf("sentiment request: no response from LLM")
	}

	return ParsePolarity(response.Choices[0].Content)
}

// PolarityFunc adapts the scorer to the analyzer. Failed requests are logged
// and score as neutral. Requests use the ctx the analyzer passes in, so they
// end with the run.
func (s *Scorer) PolarityFunc() analyzer.PolarityFunc {
	return func(ctx context.Context, text string) float64 {
		p, err := s.Polarity(ctx, text)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("sentiment scoring failed", "title", text, "error", err)
			}
			return 0
		}
		return p
	}
}

// ParsePolarity extracts the first number in a model reply.
func ParsePolarity(reply string) (float64, error) {
	match := numberPattern.FindString(strings.TrimSpace(reply))
	if match == "" {
		return 0, fmt.Errorf("no polarity in reply %q", reply)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse polarity %q: %w", match, err)
	}
	return math.Max(-1, math.Min(1, v)), nil
}
