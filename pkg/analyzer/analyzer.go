// Package analyzer computes word-frequency, sentiment and score statistics
// over a batch of normalized stories. Apart from the injected sentiment
// classifier, every function here is pure.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xhad/hntrend/internal/models"
)

const (
	DefaultTopK    = 15
	DefaultBuckets = 15

	// Mean polarity beyond these bounds marks the batch as positive or
	// negative.
	positiveTone = 0.1
	negativeTone = -0.1
)

// PolarityFunc scores raw text on [-1, 1]. Implementations that block should
// give up when ctx is done.
type PolarityFunc func(ctx context.Context, text string) float64

type AnalyzerConfig struct {
	TopK     int
	Buckets  int
	Polarity PolarityFunc
}

type Analyzer struct {
	config AnalyzerConfig
}

// Result is everything the renderer and the console report need.
type Result struct {
	Frequency   models.WordFrequency
	TopWords    []models.WordCount
	Sentiment   []models.SentimentResult
	Buckets     []models.Bucket
	Summary     Summary
	TotalTokens int
}

type Summary struct {
	Stories      int          `json:"stories"`
	MeanPolarity float64      `json:"mean_polarity"`
	Tone         string       `json:"tone"`
	TopStory     models.Story `json:"top_story"`
}

func NewWithConfig(config AnalyzerConfig) *Analyzer {
	if config.TopK == 0 {
		config.TopK = DefaultTopK
	}
	if config.Buckets == 0 {
		config.Buckets = DefaultBuckets
	}
	if config.Polarity == nil {
		config.Polarity = VADER()
	}
	return &Analyzer{config: config}
}

// Analyze fails only when ctx ends before every title has been scored.
func (a *Analyzer) Analyze(ctx context.Context, stories []models.ProcessedStory) (*Result, error) {
	tokenSets := make([]models.TokenSet, len(stories))
	scores := make([]int, len(stories))
	for i, s := range stories {
		tokenSets[i] = s.Tokens
		scores[i] = s.Score
	}

	freq := CountWords(tokenSets)
	sentiment, err := Sentiment(ctx, stories, a.config.Polarity)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frequency:   freq,
		TopWords:    TopWords(tokenSets, a.config.TopK),
		Sentiment:   sentiment,
		Buckets:     Histogram(scores, a.config.Buckets),
		Summary:     Summarize(stories, sentiment),
		TotalTokens: freq.Total(),
	}, nil
}

// CountWords merges token sets into one frequency map.
func CountWords(tokenSets []models.TokenSet) models.WordFrequency {
	freq := make(models.WordFrequency)
	for _, tokens := range tokenSets {
		for _, t := range tokens {
			freq[t]++
		}
	}
	return freq
}

// TopWords returns the k most frequent tokens by descending count. Ties keep
// the order in which the tokens first appeared. k <= 0 returns every token.
func TopWords(tokenSets []models.TokenSet, k int) []models.WordCount {
	freq := make(map[string]int)
	var order []string
	for _, tokens := range tokenSets {
		for _, t := range tokens {
			if _, seen := freq[t]; !seen {
				order = append(order, t)
			}
			freq[t]++
		}
	}

	ranked := make([]models.WordCount, len(order))
	for i, w := range order {
		ranked[i] = models.WordCount{Word: w, Count: freq[w]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Sentiment scores each raw title in input order. A story without tokens is
// neutral and never reaches the classifier. ctx is checked before every
// title.
func Sentiment(ctx context.Context, stories []models.ProcessedStory, polarity PolarityFunc) ([]models.SentimentResult, error) {
	results := make([]models.SentimentResult, len(stories))
	for i, s := range stories {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sentiment: %w", err)
		}
		results[i].StoryID = s.ID
		if len(s.Tokens) == 0 {
			continue
		}
		results[i].Polarity = clamp(polarity(ctx, s.Title))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	return results, nil
}

// Histogram buckets scores over [min, max] in n equal-width bins.
func Histogram(scores []int, n int) []models.Bucket {
	if len(scores) == 0 {
		return HistogramRange(scores, n, 0, 1)
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	return HistogramRange(scores, n, float64(lo), float64(hi))
}

// HistogramRange buckets scores over [lo, hi] in n bins of width
// (hi-lo)/n. A score s lands in floor((s-lo)/width), clamped to [0, n-1], so
// hi itself belongs to the last bin.
func HistogramRange(scores []int, n int, lo, hi float64) []models.Bucket {
	if n < 1 {
		n = 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(n)

	buckets := make([]models.Bucket, n)
	for i := range buckets {
		buckets[i].Min = lo + float64(i)*width
		buckets[i].Max = lo + float64(i+1)*width
	}
	buckets[n-1].Max = hi

	for _, s := range scores {
		idx := int(math.Floor((float64(s) - lo) / width))
		idx = max(0, min(idx, n-1))
		buckets[idx].Count++
	}
	return buckets
}

// Summarize reports mean polarity, overall tone and the highest scored story.
func Summarize(stories []models.ProcessedStory, results []models.SentimentResult) Summary {
	summary := Summary{Stories: len(stories), Tone: Tone(0)}
	if len(stories) == 0 {
		return summary
	}

	var sum float64
	for _, r := range results {
		sum += r.Polarity
	}
	if len(results) > 0 {
		summary.MeanPolarity = sum / float64(len(results))
	}
	summary.Tone = Tone(summary.MeanPolarity)

	top := stories[0].Story
	for _, s := range stories[1:] {
		if s.Score > top.Score {
			top = s.Story
		}
	}
	summary.TopStory = top
	return summary
}

func Tone(polarity float64) string {
	switch {
	case polarity > positiveTone:
		return "positive"
	case polarity < negativeTone:
		return "negative"
	default:
		return "neutral"
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
