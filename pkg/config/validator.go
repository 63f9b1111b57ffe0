package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	sentimentBackends = []string{"vader", "ollama"}
	logLevels         = []string{"debug", "info", "warn", "error"}
	logFormats        = []string{"text", "json"}
)

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Fetcher config
	if !validURL(c.Fetcher.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "fetcher.base_url",
			Message: "invalid API base URL",
		})
	}

	if c.Fetcher.StoryCount < 1 || c.Fetcher.StoryCount > 500 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.story_count",
			Message: "story_count must be between 1 and 500",
		})
	}

	if c.Fetcher.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	if c.Fetcher.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Fetcher.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if r := c.Fetcher.MaxFailureRatio; r != nil && (*r < 0 || *r > 1) {
		errors = append(errors, ValidationError{
			Field:   "fetcher.max_failure_ratio",
			Message: "max_failure_ratio must be between 0 and 1",
		})
	}

	// Validate Processor config
	if c.Processor.MinTokenLength < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.min_token_length",
			Message: "min_token_length must be positive",
		})
	}

	// Validate Analyzer config
	if c.Analyzer.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Analyzer.Buckets < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.buckets",
			Message: "buckets must be positive",
		})
	}

	if !oneOf(c.Analyzer.Sentiment, sentimentBackends) {
		errors = append(errors, ValidationError{
			Field:   "analyzer.sentiment",
			Message: fmt.Sprintf("sentiment must be one of %s", strings.Join(sentimentBackends, ", ")),
		})
	}

	if c.Analyzer.Sentiment == "ollama" {
		if !validURL(c.LLM.BaseURL) {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid Ollama base URL",
			})
		}
	}

	// Validate Output config
	if strings.TrimSpace(c.Output.Dir) == "" {
		errors = append(errors, ValidationError{
			Field:   "output.dir",
			Message: "output dir is required",
		})
	}

	if !oneOf(c.Log.Level, logLevels) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("level must be one of %s", strings.Join(logLevels, ", ")),
		})
	}

	if !oneOf(c.Log.Format, logFormats) {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be text or json",
		})
	}

	return errors
}

// validURL accepts absolute http(s) URLs with a host.
func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
