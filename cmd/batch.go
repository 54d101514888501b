package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fleetdocs/internal/config"
	"fleetdocs/internal/logger"
	"fleetdocs/internal/pipeline"
	"fleetdocs/internal/records"
	"fleetdocs/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Process all PDFs in a folder through the analysis pipeline",
	Long: `Process every PDF file in a folder through the full analysis pipeline
and file each document under the given ship record.

Documents are processed by a bounded worker pool. A document blocked by
the identity gate is reported and skipped, never bypassed in batch mode;
re-run it individually with 'analyze --bypass-validation' after review.
Duplicates are resolved with the --on-duplicate policy (default: skip).

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 4)
  BATCH_DELAY   - Pause between document submissions (e.g. "2s")`,
	Example: `  # File every survey report in a folder under one ship
  fleetdocs batch ./surveys --type survey_report --ship-id 42 --ship-name "MV Northern Star" --ship-imo 9876543

  # Analyze only, without records or uploads
  fleetdocs batch ./surveys --type survey_report --dry-run

  # Replace existing records on duplicates
  fleetdocs batch ./surveys --type survey_report --ship-id 42 --on-duplicate replace`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// batchResult represents the outcome of processing a single PDF
type batchResult struct {
	Filename string
	Record   *models.DocumentRecord
	Error    error
	Status   string // "success", "manual", "blocked", "duplicate", "error"
	Index    int    // Original order index
}

// batchJob represents a PDF processing job
type batchJob struct {
	FilePath string
	Index    int
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("type", "other", "Document type (survey_report, test_report, audit_report, other)")
	batchCmd.Flags().String("ship-id", "", "Ship record ID to file the documents under")
	batchCmd.Flags().String("ship-name", "", "Expected ship name for identity validation")
	batchCmd.Flags().String("ship-imo", "", "Expected IMO number for identity validation")
	batchCmd.Flags().String("on-duplicate", "skip", "Duplicate resolution: skip, replace or keep-both")
	batchCmd.Flags().Bool("dry-run", false, "Analyze files without creating records or uploading")
	batchCmd.Flags().Bool("verbose", false, "Show detailed processing information")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	folderPath := args[0]
	docType, _ := cmd.Flags().GetString("type")
	shipID, _ := cmd.Flags().GetString("ship-id")
	shipName, _ := cmd.Flags().GetString("ship-name")
	shipIMO, _ := cmd.Flags().GetString("ship-imo")
	onDuplicate, _ := cmd.Flags().GetString("on-duplicate")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	resolution, err := parseResolution(onDuplicate)
	if err != nil {
		return err
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	log.Info().
		Str("folder", folderPath).
		Str("type", docType).
		Str("ship_id", shipID).
		Bool("dry_run", dryRun).
		Msg("Starting batch processing")

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                        FLEET DOCUMENT BATCH PROCESSING")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Folder: %s\n", folderPath)
	fmt.Printf("Type: %s\n", docType)
	if shipID != "" {
		fmt.Printf("Ship: %s (%s / %s)\n", shipID, shipName, shipIMO)
	}
	if dryRun {
		fmt.Printf("Mode: Dry run (no records, no uploads)\n")
	}
	fmt.Println()

	ctx, cancel := createContextWithTimeout(30*time.Minute, log)
	defer cancel()

	// Batch mode stays quiet per document; the progress line is enough.
	orch, recordStore, err := buildOrchestrator(ctx, cfg, nil, log)
	if err != nil {
		return err
	}

	pdfFiles, err := findPDFFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find PDF files: %w", err)
	}

	if len(pdfFiles) == 0 {
		fmt.Println("No PDF files found in folder.")
		return nil
	}

	numWorkers := getNumWorkers()
	fmt.Printf("Processing %d PDFs with %d parallel workers...\n", len(pdfFiles), numWorkers)
	fmt.Println()

	job := batchProcessor{
		orch:         orch,
		recordStore:  recordStore,
		resolver:     records.NewResolver(recordStore),
		docType:      models.ParseDocumentType(docType),
		shipID:       shipID,
		shipName:     shipName,
		shipIMO:      shipIMO,
		resolution:   resolution,
		dryRun:       dryRun,
		verbose:      verbose,
		log:          log,
	}
	results := job.processInParallel(ctx, pdfFiles, numWorkers, cfg.BatchDelay)

	fmt.Println()
	printBatchSummary(results)

	log.Info().
		Int("total", len(pdfFiles)).
		Msg("Batch processing completed")

	return nil
}

// batchProcessor carries the shared state of one batch run.
type batchProcessor struct {
	orch        *pipeline.Orchestrator
	recordStore records.RecordStore
	resolver    *records.Resolver
	docType     models.DocumentType
	shipID      string
	shipName    string
	shipIMO     string
	resolution  records.Resolution
	dryRun      bool
	verbose     bool
	log         zerolog.Logger
}

// processOne runs a single PDF through analysis, duplicate resolution and
// upload.
func (b *batchProcessor) processOne(ctx context.Context, pdfPath string) batchResult {
	result := batchResult{Status: "error"}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read PDF file: %w", err)
		return result
	}

	req := pipeline.AnalyzeRequest{
		Data:         data,
		Filename:     filepath.Base(pdfPath),
		ContentType:  "application/pdf",
		DocumentType: b.docType,
	}
	if b.shipName != "" || b.shipIMO != "" {
		req.Expected = &models.ShipIdentity{Name: b.shipName, IMO: b.shipIMO}
	}

	analyzed, err := b.orch.Analyze(ctx, req)
	if err != nil {
		if errors.Is(err, pipeline.ErrIdentityMismatch) {
			result.Status = "blocked"
			result.Error = err
			return result
		}
		result.Error = err
		return result
	}

	result.Status = "success"
	if analyzed.ExtractionFailed {
		result.Status = "manual"
	}

	if b.dryRun {
		return result
	}

	record := recordFromResult(analyzed, req, b.shipID)

	check, err := b.resolver.Check(ctx, record)
	if err != nil {
		result.Status = "error"
		result.Error = err
		return result
	}
	if check.IsDuplicate {
		record, err = b.resolver.Resolve(ctx, b.resolution, record, check.Existing)
		if err != nil {
			result.Status = "error"
			result.Error = err
			return result
		}
		if b.resolution == records.ResolutionSkip {
			result.Status = "duplicate"
			result.Record = check.Existing
			return result
		}
	} else {
		if err := b.recordStore.Create(ctx, record); err != nil {
			result.Status = "error"
			result.Error = err
			return result
		}
	}

	if err := b.orch.Upload(ctx, record, data, "application/pdf", analyzed.BodyText); err != nil {
		result.Status = "error"
		result.Error = err
		return result
	}

	result.Record = record

	if b.verbose {
		b.log.Info().
			Str("file", filepath.Base(pdfPath)).
			Str("record_id", record.ID).
			Str("name", record.Name).
			Str("report_number", record.ReportNumber).
			Msg("PDF processed successfully")
	}

	return result
}

// processInParallel processes PDFs using a worker pool pattern. A
// positive delay staggers job submission to avoid hammering the analysis
// backends.
func (b *batchProcessor) processInParallel(ctx context.Context, pdfFiles []string, numWorkers int, delay time.Duration) []batchResult {
	jobs := make(chan batchJob, len(pdfFiles))
	results := make([]batchResult, len(pdfFiles))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				b.log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker processing PDF")

				result := b.processOne(ctx, job.FilePath)
				result.Index = job.Index
				result.Filename = filepath.Base(job.FilePath)

				results[job.Index] = result

				mu.Lock()
				processedCount++
				currentCount := processedCount

				fmt.Printf("[%d/%d] %s - %s", currentCount, len(pdfFiles), result.Filename, statusLabel(result.Status))
				if result.Error != nil {
					fmt.Printf(" (%s)", result.Error.Error())
				} else if result.Record != nil {
					fmt.Printf(" (record %s)", result.Record.ID)
				}
				fmt.Println()
				mu.Unlock()
			}
		}(w)
	}

	for i, pdfFile := range pdfFiles {
		if delay > 0 && i > 0 {
			time.Sleep(delay)
		}
		jobs <- batchJob{FilePath: pdfFile, Index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}

// findPDFFiles finds all PDF files in the specified folder
func findPDFFiles(folderPath string) ([]string, error) {
	var pdfFiles []string

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, path)
		}

		return nil
	})

	return pdfFiles, err
}

// getNumWorkers returns the number of workers from environment or default
func getNumWorkers() int {
	if workersStr := os.Getenv("BATCH_WORKERS"); workersStr != "" {
		if workers, err := strconv.Atoi(workersStr); err == nil && workers > 0 {
			return workers
		}
	}
	return 4
}

func printBatchSummary(results []batchResult) {
	counts := map[string]int{}
	for _, result := range results {
		counts[result.Status]++
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Filed: %d\n", counts["success"])
	if counts["manual"] > 0 {
		fmt.Printf("Needs manual entry: %d\n", counts["manual"])
	}
	if counts["blocked"] > 0 {
		fmt.Printf("Blocked (identity mismatch): %d\n", counts["blocked"])
	}
	if counts["duplicate"] > 0 {
		fmt.Printf("Duplicates skipped: %d\n", counts["duplicate"])
	}
	if counts["error"] > 0 {
		fmt.Printf("Errors: %d\n", counts["error"])
	}
	fmt.Println(strings.Repeat("=", 80))
}

// statusLabel returns a short marker for the processing status
func statusLabel(status string) string {
	switch status {
	case "success":
		return "✅"
	case "manual":
		return "✍️  manual entry"
	case "blocked":
		return "⛔ blocked"
	case "duplicate":
		return "↩️  duplicate"
	case "error":
		return "❌"
	default:
		return "❓"
	}
}
