package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/xhad/hntrend/pkg/pipeline"
)

func printReport(w io.Writer, report *pipeline.Report) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	green.Fprintf(w, "\n✓ Fetched %d of %d stories", report.Fetched, report.Requested)
	if report.Failed > 0 || report.Excluded > 0 {
		yellow.Fprintf(w, " (%d failed, %d excluded)", report.Failed, report.Excluded)
	}
	fmt.Fprintln(w)

	analysis := report.Analysis
	if analysis == nil {
		return
	}
	summary := analysis.Summary

	cyan.Fprintf(w, "\n😊 Average Sentiment of Titles: %.3f\n", summary.MeanPolarity)
	fmt.Fprintf(w, "   Overall tone: %s\n", toneColor(summary.Tone).Sprint(summary.Tone))

	if summary.Stories > 0 {
		top := summary.TopStory
		by := top.By
		if by == "" {
			by = "Unknown"
		}
		cyan.Fprintf(w, "\n🏆 Top Story: %q\n", top.Title)
		fmt.Fprintf(w, "   👍 Score: %d | 👤 By: %s\n", top.Score, by)
	}

	if len(analysis.TopWords) > 0 {
		cyan.Fprintf(w, "\n📊 Top %d words (%d tokens total)\n", len(analysis.TopWords), analysis.TotalTokens)
		for i, wc := range analysis.TopWords {
			fmt.Fprintf(w, "   %2d. %-20s %d\n", i+1, wc.Word, wc.Count)
		}
	}

	if report.Artifacts != nil {
		green.Fprintf(w, "\n💾 Saved plot: %s\n", report.Artifacts.TopWordsPath)
		green.Fprintf(w, "💾 Saved plot: %s\n", report.Artifacts.HistogramPath)
		green.Fprintln(w, "\n🎉 Analysis complete!")
	}
}

func toneColor(tone string) *color.Color {
	switch tone {
	case "positive":
		return color.New(color.FgGreen)
	case "negative":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}
