package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/xhad/hntrend/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type RenderConfig struct {
	Dir           string
	TopWordsFile  string
	HistogramFile string
	// Image sizes; the word chart is 12x6 in and the histogram 10x5 in
	// unless set.
	WordsWidth, WordsHeight         vg.Length
	HistogramWidth, HistogramHeight vg.Length
}

// RenderError reports an artifact that could not be written.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

type Renderer struct {
	config RenderConfig
}

var (
	barColor  = color.RGBA{R: 68, G: 1, B: 84, A: 255}
	histColor = color.RGBA{R: 135, G: 206, B: 235, A: 200}
)

func NewWithConfig(config RenderConfig) (*Renderer, error) {
	if config.Dir == "" {
		config.Dir = "assets"
	}
	if config.TopWordsFile == "" {
		config.TopWordsFile = "top_words.png"
	}
	if config.HistogramFile == "" {
		config.HistogramFile = "score_histogram.png"
	}
	if config.WordsWidth == 0 || config.WordsHeight == 0 {
		config.WordsWidth, config.WordsHeight = 12*vg.Inch, 6*vg.Inch
	}
	if config.HistogramWidth == 0 || config.HistogramHeight == 0 {
		config.HistogramWidth, config.HistogramHeight = 10*vg.Inch, 5*vg.Inch
	}
	return &Renderer{config: config}, nil
}

// Paths returns where Render writes the two images.
func (r *Renderer) Paths() models.Artifacts {
	return models.Artifacts{
		TopWordsPath:  filepath.Join(r.config.Dir, r.config.TopWordsFile),
		HistogramPath: filepath.Join(r.config.Dir, r.config.HistogramFile),
	}
}

// Render writes the top-words bar chart and the score histogram.
func (r *Renderer) Render(words []models.WordCount, buckets []models.Bucket) (*models.Artifacts, error) {
	if err := os.MkdirAll(r.config.Dir, 0o755); err != nil {
		return nil, &RenderError{Path: r.config.Dir, Err: err}
	}

	paths := r.Paths()
	if err := r.renderTopWords(words, paths.TopWordsPath); err != nil {
		return nil, &RenderError{Path: paths.TopWordsPath, Err: err}
	}
	if err := r.renderHistogram(buckets, paths.HistogramPath); err != nil {
		return nil, &RenderError{Path: paths.HistogramPath, Err: err}
	}
	return &paths, nil
}

func (r *Renderer) renderTopWords(words []models.WordCount, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d Most Common Words in Hacker News Titles", len(words))
	p.X.Label.Text = "Count"
	p.X.Min = 0

	if len(words) > 0 {
		// Bars stack bottom-up, so reverse to put the most frequent on top.
		values := make(plotter.Values, len(words))
		labels := make([]string, len(words))
		for i, w := range words {
			j := len(words) - 1 - i
			values[j] = float64(w.Count)
			labels[j] = fmt.Sprintf("%s (%d)", w.Word, w.Count)
		}

		bars, err := plotter.NewBarChart(values, vg.Points(14))
		if err != nil {
			return err
		}
		bars.Horizontal = true
		bars.Color = barColor
		bars.LineStyle.Width = 0

		p.Add(bars, plotter.NewGrid())
		p.NominalY(labels...)
	}

	return p.Save(r.config.WordsWidth, r.config.WordsHeight, path)
}

func (r *Renderer) renderHistogram(buckets []models.Bucket, path string) error {
	p := plot.New()
	p.Title.Text = "Distribution of Hacker News Story Scores"
	p.X.Label.Text = "Score (Upvotes)"
	p.Y.Label.Text = "Frequency"
	p.Y.Min = 0

	if len(buckets) > 0 {
		bins := make([]plotter.HistogramBin, len(buckets))
		for i, b := range buckets {
			bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
		}

		hist := &plotter.Histogram{
			Bins:      bins,
			Width:     buckets[0].Max - buckets[0].Min,
			FillColor: histColor,
			LineStyle: plotter.DefaultLineStyle,
		}
		p.Add(plotter.NewGrid(), hist)
	}

	return p.Save(r.config.HistogramWidth, r.config.HistogramHeight, path)
}
