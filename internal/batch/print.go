package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteSummary prints the aggregate numbers of a run
func WriteSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Images:          %d (%d succeeded, %d failed)\n", s.Total, s.Succeeded, s.Failed)
	fmt.Fprintf(w, "  Organic:         %d\n", s.Organic)
	fmt.Fprintf(w, "  Inorganic:       %d\n", s.Inorganic)
	fmt.Fprintf(w, "  Demo scores:     %d\n", s.Demo)
	fmt.Fprintf(w, "  Mean confidence: %.1f%%\n", s.MeanConfidence)
	if s.Labeled > 0 {
		fmt.Fprintf(w, "  Accuracy:        %.2f%% (%d/%d labeled)\n", s.Accuracy*100, s.Correct, s.Labeled)
	}
}

// WriteText prints a saved report for humans
func WriteText(w io.Writer, r *Report) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "GreenLens Batch Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Manifest: %s\n", r.Config.Manifest)
	fmt.Fprintf(w, "Run:      %s\n", r.Config.Timestamp)
	fmt.Fprintln(w)
	WriteSummary(w, r.Summary)

	fmt.Fprintln(w, "\nResults:")
	for i, res := range r.Results {
		if res.Error != "" {
			fmt.Fprintf(w, "[%d] %s  error: %s\n", i+1, res.ID, res.Error)
			continue
		}
		fmt.Fprintf(w, "[%d] %s  %s %s %.1f%% (%s)\n", i+1, res.ID, res.Subject, res.Label, res.Confidence, res.Source)
	}
}

// WriteCSV writes one row per result
func WriteCSV(w io.Writer, results []Result) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Path", "Subject", "Label", "Confidence", "Organic", "Inorganic", "Source", "Expected", "Correct", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.ID,
			r.Path,
			r.Subject,
			r.Label,
			strconv.FormatFloat(r.Confidence, 'f', 1, 64),
			strconv.FormatFloat(r.OrganicScore, 'f', 1, 64),
			strconv.FormatFloat(r.InorganicScore, 'f', 1, 64),
			r.Source,
			r.Expected,
			strconv.FormatBool(r.Correct),
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
