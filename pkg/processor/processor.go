package processor

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xhad/hntrend/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

type ProcessorConfig struct {
	MinTokenLength  int
	CustomStopwords []string
}

// NormalizeError reports a title that cannot be tokenized.
type NormalizeError struct {
	StoryID int
	Reason  string
}

func (e *NormalizeError) Error() string {
	if e.StoryID != 0 {
		return fmt.Sprintf("normalize story %d: %s", e.StoryID, e.Reason)
	}
	return "normalize: " + e.Reason
}

// Processor is immutable after construction and safe for concurrent use.
type Processor struct {
	config    ProcessorConfig
	stopwords map[string]struct{}
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MinTokenLength == 0 {
		config.MinTokenLength = 2
	}

	stopwords := make(map[string]struct{})
	for _, w := range getStopwords() {
		stopwords[w] = struct{}{}
	}
	for _, w := range config.CustomStopwords {
		stopwords[strings.ToLower(w)] = struct{}{}
	}

	return Processor{
		config:    config,
		stopwords: stopwords,
	}
}

// Normalize lower-cases the title, strips punctuation, splits on whitespace
// and drops stop words and short tokens.
func (p Processor) Normalize(title string) (models.TokenSet, error) {
	if !utf8.ValidString(title) {
		return nil, &NormalizeError{Reason: "title is not valid UTF-8"}
	}
	if strings.TrimSpace(title) == "" {
		return nil, &NormalizeError{Reason: "title is empty"}
	}

	tokens := models.TokenSet{}
	for _, word := range strings.Fields(p.cleanText(title)) {
		if utf8.RuneCountInString(word) < p.config.MinTokenLength {
			continue
		}
		if p.IsStopword(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens, nil
}

// Process normalizes every story, keeping input order. Stories whose title
// cannot be normalized are returned as exclusions.
func (p Processor) Process(stories []models.Story) ([]models.ProcessedStory, []models.Exclusion) {
	processed := make([]models.ProcessedStory, 0, len(stories))
	var excluded []models.Exclusion

	for _, story := range stories {
		tokens, err := p.Normalize(story.Title)
		if err != nil {
			if ne, ok := err.(*NormalizeError); ok {
				ne.StoryID = story.ID
			}
			excluded = append(excluded, models.Exclusion{StoryID: story.ID, Err: err})
			continue
		}
		processed = append(processed, models.ProcessedStory{
			Story:  story,
			Tokens: tokens,
		})
	}

	return processed, excluded
}

func (p Processor) IsStopword(word string) bool {
	_, ok := p.stopwords[word]
	return ok
}

func (p Processor) cleanText(text string) string {
	// Casers carry state, so each call gets its own.
	text = cases.Lower(language.English).String(norm.NFKC.String(text))

	return strings.Map(func(r rune) rune {
		switch {
		case isConnector(r), unicode.IsSymbol(r):
			return ' '
		case unicode.IsPunct(r):
			return -1
		}
		return r
	}, text)
}

// isConnector reports punctuation that joins two words ("open-source",
// "Go/Rust") and so splits rather than vanishes.
func isConnector(r rune) bool {
	switch r {
	case '-', '/', '_', '–', '—', '|', '\\':
		return true
	}
	return false
}

// Common English stopwords
func getStopwords() []string {
	return []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "this", "to", "was", "were", "will", "with",
		"or", "but", "not", "you", "your", "we", "our", "how", "what",
		"why", "can", "do", "does", "i", "my", "vs",
	}
}
