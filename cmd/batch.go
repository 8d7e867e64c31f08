package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/batch"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Classify many images from a manifest",
		Long: `Batch tools for classifying a set of images.

A manifest is a .jsonl or .parquet file with one entry per image:
  {"id": "lettuce-01", "path": "images/lettuce-01.jpg", "expected": "ORGANIC"}

The optional expected label is used to report accuracy.`,
	}

	cmd.AddCommand(newBatchRunCmd())
	cmd.AddCommand(newBatchReportCmd())

	return cmd
}

func newBatchRunCmd() *cobra.Command {
	var (
		flags     pipelineFlags
		manifest  string
		limit     int
		outputDir string
		parquetTo string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify every image in a manifest",
		Example: `  greenlens batch run --manifest images.jsonl
  greenlens batch run --manifest images.parquet --limit 50 --parquet results.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := batch.NewLoader(manifest).Load(limit)
			if err != nil {
				return err
			}
			slog.Info("Loaded manifest", "path", manifest, "entries", len(entries))

			p, err := newPipeline(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			runner := batch.NewRunner(p.service, filepath.Dir(manifest))
			results, runErr := runner.Run(cmd.Context(), entries)

			path, err := batch.SaveYAML(outputDir, batch.RunConfig{
				Manifest: manifest,
				APIURL:   p.cfg.APIURL,
				Picker:   p.cfg.Picker,
				Limit:    limit,
			}, results)
			if err != nil {
				return err
			}
			absPath, _ := filepath.Abs(path)
			fmt.Fprintf(cmd.OutOrStdout(), "Batch results saved to: %s\n", absPath)

			if parquetTo != "" {
				if err := batch.SaveParquet(parquetTo, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Parquet results saved to: %s\n", parquetTo)
			}

			batch.WriteSummary(cmd.OutOrStdout(), batch.Summarize(results))
			return runErr
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "Manifest file (.jsonl or .parquet)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of images (0 for all)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "batch_results", "Directory for the YAML results")
	cmd.Flags().StringVar(&parquetTo, "parquet", "", "Also write results to this parquet file")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func newBatchReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <results.yaml>",
		Short: "Print a saved batch report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := batch.LoadReport(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				batch.WriteText(out, report)
				return nil
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(report)
			case "csv":
				return batch.WriteCSV(out, report.Results)
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, csv)")

	return cmd
}
