package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/export"
	"github.com/greenlens-app/greenlens/internal/models"
)

func newClassifyCmd() *cobra.Command {
	var (
		flags     pipelineFlags
		formats   []string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify a single image file",
		Example: `  greenlens classify lettuce.jpg
  greenlens classify cabbage.png --export pdf,yaml --output ./reports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			p, err := newPipeline(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			result, err := p.service.Analyze(cmd.Context(), models.Payload{Data: data})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result.Model, result.Notice)
			return writeExports(cmd.OutOrStdout(), p.exporter, formats, outputDir)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&formats, "export", "e", nil, "Export formats: png, jpeg, pdf, doc, yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for exported reports")

	return cmd
}

func printResult(w io.Writer, m models.DisplayModel, notice string) {
	if notice != "" {
		fmt.Fprintln(w, notice)
	}
	fmt.Fprintf(w, "Vegetable:      %s\n", m.Subject)
	fmt.Fprintf(w, "Classification: %s\n", m.Label())
	fmt.Fprintf(w, "Confidence:     %.1f%%\n", m.Classification.Confidence)
	fmt.Fprintf(w, "Scores:         organic %.1f%% / inorganic %.1f%%\n", m.Scores.Organic, m.Scores.Inorganic)
	fmt.Fprintf(w, "Mode:           %s\n", m.Source)
	fmt.Fprintf(w, "Analysis:       %s\n", m.Comment)
}

// writeExports saves the stored result in each format. Formats are
// independent; every failure is reported and the first one is returned.
func writeExports(w io.Writer, exporter *export.Exporter, names []string, dir string) error {
	if len(names) == 0 {
		return nil
	}

	formats := make([]export.Format, 0, len(names))
	for _, name := range names {
		f, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts, failures := exporter.ExportAll(formats)
	var firstErr error
	for _, f := range formats {
		if err, failed := failures[f]; failed {
			fmt.Fprintf(w, "Export %s failed: %v\n", f, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		a := artifacts[f]
		path := filepath.Join(dir, a.Filename)
		if err := os.WriteFile(path, a.Data, 0644); err != nil {
			fmt.Fprintf(w, "Export %s failed: %v\n", f, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(w, "Saved %s\n", path)
	}
	return firstErr
}
