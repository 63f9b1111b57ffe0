package models

// Story is one Hacker News item as returned by the item endpoint.
type Story struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
	URL   string `json:"url,omitempty"`
	By    string `json:"by,omitempty"`
	Type  string `json:"type,omitempty"`
	Time  int64  `json:"time,omitempty"`
}

// Batch is the result of one top-stories fetch, in ranking order.
type Batch struct {
	Stories   []Story
	Requested int
	Failed    int
}

// TokenSet is the normalized word sequence derived from one title.
type TokenSet []string

// WordFrequency maps a token to its occurrence count across a batch.
type WordFrequency map[string]int

// Total returns the sum of all counts.
func (wf WordFrequency) Total() int {
	total := 0
	for _, c := range wf {
		total += c
	}
	return total
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SentimentResult holds the polarity of one story title, in [-1, 1].
type SentimentResult struct {
	StoryID  int     `json:"story_id"`
	Polarity float64 `json:"polarity"`
}

// Bucket is one histogram bin covering [Min, Max).
type Bucket struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type ProcessedStory struct {
	Story
	Tokens TokenSet
}

// Exclusion records a story dropped before analysis.
type Exclusion struct {
	StoryID int
	Err     error
}

// Artifacts lists the files written by one render pass.
type Artifacts struct {
	TopWordsPath  string `json:"top_words_path"`
	HistogramPath string `json:"histogram_path"`
}
