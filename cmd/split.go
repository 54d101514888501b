package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fleetdocs/internal/logger"
	"fleetdocs/internal/pdf"
)

var splitCmd = &cobra.Command{
	Use:   "split [pdf-file]",
	Short: "Show or write the chunk plan for a document without analyzing it",
	Long: `Inspect how a document would be split for analysis.

Documents above the page threshold are analyzed in chunks; this command
computes the chunk plan offline (no cloud services involved) and
optionally writes the chunk PDFs to a folder for inspection.`,
	Example: `  # Show the chunk plan for a large report
  fleetdocs split survey.pdf

  # Write the chunk PDFs next to the original
  fleetdocs split survey.pdf -o ./chunks

  # Use a custom chunk size
  fleetdocs split survey.pdf --max-pages 8`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringP("output", "o", "", "Write chunk PDFs to this folder")
	splitCmd.Flags().Int("max-pages", pdf.DefaultMaxPagesPerChunk, "Maximum pages per chunk")
}

func runSplit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("split")

	pdfPath := args[0]
	outputDir, _ := cmd.Flags().GetString("output")
	maxPages, _ := cmd.Flags().GetInt("max-pages")

	if _, err := validatePDFFile(pdfPath, log); err != nil {
		return err
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	pages, err := pdf.PageCount(data)
	if err != nil {
		return handlePipelineError(err, log)
	}

	fmt.Printf("File: %s\n", filepath.Base(pdfPath))
	fmt.Printf("Pages: %d\n", pages)

	if !pdf.ExceedsSplitThreshold(pages) {
		fmt.Printf("At or below the %d-page threshold: analyzed as a single document.\n", pdf.SplitThresholdPages)
		return nil
	}

	ranges, err := pdf.ChunkRanges(pages, maxPages)
	if err != nil {
		return handlePipelineError(err, log)
	}

	fmt.Printf("Above the %d-page threshold: %d chunks of up to %d pages.\n\n",
		pdf.SplitThresholdPages, len(ranges), maxPages)
	for i, r := range ranges {
		fmt.Printf("  chunk %d: pages %s (%d pages)\n", i+1, r, r.Pages())
	}

	if outputDir == "" {
		return nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	chunks, err := pdf.Split(data, filepath.Base(pdfPath), maxPages)
	if err != nil {
		return handlePipelineError(err, log)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	for _, chunk := range chunks {
		name := fmt.Sprintf("%s_chunk%02d_p%d-%d.pdf", base, chunk.Index, chunk.Pages.Start, chunk.Pages.End)
		outPath := filepath.Join(outputDir, name)
		if err := os.WriteFile(outPath, chunk.Content, 0644); err != nil {
			return fmt.Errorf("failed to write chunk file: %w", err)
		}
		fmt.Printf("  wrote %s (%d bytes)\n", outPath, len(chunk.Content))
	}

	log.Info().
		Str("file", pdfPath).
		Int("pages", pages).
		Int("chunks", len(chunks)).
		Str("output", outputDir).
		Msg("Document split written")

	return nil
}
