package types

import (
	"context"

	"github.com/xhad/hntrend/internal/models"
)

// Core interfaces
type StoryFetcher interface {
	FetchTop(ctx context.Context, n int) (*models.Batch, error)
}

type StoryProcessor interface {
	Process(stories []models.Story) ([]models.ProcessedStory, []models.Exclusion)
}

type ChartRenderer interface {
	Render(words []models.WordCount, buckets []models.Bucket) (*models.Artifacts, error)
}
