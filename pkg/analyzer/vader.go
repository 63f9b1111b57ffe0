package analyzer

import (
	"context"

	"github.com/jonreiter/govader"
)

// VADER returns a PolarityFunc backed by the VADER lexicon. The compound
// score is already normalized to [-1, 1].
func VADER() PolarityFunc {
	sia := govader.NewSentimentIntensityAnalyzer()
	return func(_ context.Context, text string) float64 {
		return sia.PolarityScores(text).Compound
	}
}
