package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fleetdocs/internal/config"
	"fleetdocs/internal/logger"
	"fleetdocs/internal/pipeline"
	"fleetdocs/internal/records"
	"fleetdocs/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [pdf-file]",
	Short: "Analyze a fleet document, extract its fields and file it with a ship record",
	Long: `Process a scanned fleet document through the full analysis pipeline.

The document is validated, split into chunks when it exceeds the page
threshold, analyzed chunk by chunk with Document AI, merged into one
summary supplemented by header/footer OCR of the first page, and handed
to the field extractor. When a ship is specified, the extracted ship
name and IMO number are validated against it before anything is stored;
a mismatch blocks the document unless --bypass-validation is set.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID - Your Document AI processor ID
  OPENAI_API_KEY - OpenAI API key for field extraction`,
	Example: `  # Analyze a survey report for a ship
  fleetdocs analyze survey.pdf --type survey_report --ship-id 42 --ship-name "MV Northern Star" --ship-imo 9876543

  # Analyze without filing (no record, no upload)
  fleetdocs analyze survey.pdf --type survey_report --dry-run

  # Re-submit a blocked document past the identity gate
  fleetdocs analyze survey.pdf --type survey_report --ship-id 42 --ship-name "MV Northern Star" --bypass-validation

  # Resolve a duplicate by replacing the existing record
  fleetdocs analyze survey.pdf --type survey_report --ship-id 42 --on-duplicate replace`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("type", "other", "Document type (survey_report, test_report, audit_report, other)")
	analyzeCmd.Flags().String("ship-id", "", "Ship record ID to file the document under")
	analyzeCmd.Flags().String("ship-name", "", "Expected ship name for identity validation")
	analyzeCmd.Flags().String("ship-imo", "", "Expected IMO number for identity validation")
	analyzeCmd.Flags().String("page-image", "", "Optional first-page raster (PNG/JPEG) for header/footer OCR")
	analyzeCmd.Flags().Bool("bypass-validation", false, "File the document even when the ship identity does not match")
	analyzeCmd.Flags().String("on-duplicate", "", "Duplicate resolution: skip, replace or keep-both")
	analyzeCmd.Flags().Bool("dry-run", false, "Analyze and print fields without creating a record or uploading")
	analyzeCmd.Flags().Int("timeout", 600, "Overall processing timeout in seconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	pdfPath := args[0]
	docType, _ := cmd.Flags().GetString("type")
	shipID, _ := cmd.Flags().GetString("ship-id")
	shipName, _ := cmd.Flags().GetString("ship-name")
	shipIMO, _ := cmd.Flags().GetString("ship-imo")
	pageImagePath, _ := cmd.Flags().GetString("page-image")
	bypass, _ := cmd.Flags().GetBool("bypass-validation")
	onDuplicate, _ := cmd.Flags().GetString("on-duplicate")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	resolution, err := parseResolution(onDuplicate)
	if err != nil {
		return err
	}

	if _, err := validatePDFFile(pdfPath, log); err != nil {
		return err
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	var pageImage []byte
	if pageImagePath != "" {
		pageImage, err = os.ReadFile(pageImagePath)
		if err != nil {
			return fmt.Errorf("failed to read page image: %w", err)
		}
	}

	log.Info().
		Str("file", pdfPath).
		Str("type", docType).
		Str("ship_id", shipID).
		Bool("dry_run", dryRun).
		Msg("Starting document analysis")

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	orch, recordStore, err := buildOrchestrator(ctx, cfg, printProgress, log)
	if err != nil {
		return err
	}

	req := pipeline.AnalyzeRequest{
		Data:             data,
		Filename:         filepath.Base(pdfPath),
		ContentType:      "application/pdf",
		DocumentType:     models.ParseDocumentType(docType),
		BypassValidation: bypass,
		PageImage:        pageImage,
	}
	if shipName != "" || shipIMO != "" {
		req.Expected = &models.ShipIdentity{Name: shipName, IMO: shipIMO}
	}

	result, err := orch.Analyze(ctx, req)
	if err != nil {
		var mismatch *pipeline.MismatchError
		if errors.As(err, &mismatch) {
			printMismatch(mismatch, result)
		}
		return handlePipelineError(err, log)
	}

	printExtractedFields(result)

	if dryRun {
		fmt.Println("\nDry run: no record created, nothing uploaded.")
		return nil
	}

	record := recordFromResult(result, req, shipID)

	resolver := records.NewResolver(recordStore)
	check, err := resolver.Check(ctx, record)
	if err != nil {
		return handlePipelineError(err, log)
	}

	switch {
	case check.IsDuplicate && resolution == "":
		fmt.Printf("\nA matching record already exists (id %s, %s).\n", check.Existing.ID, records.KeyFor(record))
		return handlePipelineError(records.WrapStoreError("analyze", records.ErrDuplicateRecord, check.Existing.ID), log)
	case check.IsDuplicate:
		record, err = resolver.Resolve(ctx, resolution, record, check.Existing)
		if err != nil {
			return handlePipelineError(err, log)
		}
		if resolution == records.ResolutionSkip {
			fmt.Printf("\nDuplicate skipped, existing record %s kept.\n", record.ID)
			return nil
		}
	default:
		if err := recordStore.Create(ctx, record); err != nil {
			return handlePipelineError(err, log)
		}
	}

	if err := orch.Upload(ctx, record, data, "application/pdf", result.BodyText); err != nil {
		return handlePipelineError(err, log)
	}

	fmt.Printf("\nDocument filed. Record %s, file %s\n", record.ID, record.FileRef)
	if record.SummaryRef == "" && strings.TrimSpace(result.BodyText) != "" {
		fmt.Println("Note: summary upload failed, only the original document was stored.")
	}
	return nil
}

// recordFromResult builds the business record for an analyzed document.
func recordFromResult(result *pipeline.AnalyzeResult, req pipeline.AnalyzeRequest, shipID string) *models.DocumentRecord {
	record := &models.DocumentRecord{
		ID:             uuid.NewString(),
		ShipID:         shipID,
		Type:           req.DocumentType,
		SourceFilename: req.Filename,
		AdvisoryNote:   result.Advisory,
	}

	if result.ExtractionFailed {
		record.Name = strings.TrimSuffix(req.Filename, filepath.Ext(req.Filename))
		record.Notes = "Field extraction failed; enter document data manually."
		return record
	}

	record.Name = result.Fields.Name
	record.ReportNumber = result.Fields.ReportNumber
	record.IssuingAuthority = result.Fields.IssuingAuthority
	record.IssueDate = result.Fields.IssueDate
	record.Status = result.Fields.Status
	record.Notes = result.Fields.Notes
	record.ReportForm = result.Fields.ReportForm
	return record
}

// parseResolution maps the --on-duplicate flag to a resolution policy.
func parseResolution(flag string) (records.Resolution, error) {
	switch flag {
	case "":
		return "", nil
	case "skip":
		return records.ResolutionSkip, nil
	case "replace":
		return records.ResolutionReplace, nil
	case "keep-both", "keep_both":
		return records.ResolutionKeepBoth, nil
	default:
		return "", fmt.Errorf("invalid --on-duplicate value: %s (must be skip, replace or keep-both)", flag)
	}
}

func printExtractedFields(result *pipeline.AnalyzeResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("                 EXTRACTED FIELDS")
	fmt.Println(strings.Repeat("=", 60))

	if result.ExtractionFailed {
		fmt.Println("Field extraction failed. The document was analyzed and will")
		fmt.Println("be stored; enter its data manually.")
		return
	}

	f := result.Fields
	fmt.Printf("Name:              %s\n", f.Name)
	fmt.Printf("Report number:     %s\n", f.ReportNumber)
	fmt.Printf("Issuing authority: %s\n", f.IssuingAuthority)
	fmt.Printf("Issue date:        %s\n", f.IssueDate)
	fmt.Printf("Status:            %s\n", f.Status)
	fmt.Printf("Report form:       %s\n", f.ReportForm)
	if f.Notes != "" {
		fmt.Printf("Notes:             %s\n", f.Notes)
	}
	if f.ShipName != "" || f.ShipIMO != "" {
		fmt.Printf("Ship (extracted):  %s / %s\n", f.ShipName, f.ShipIMO)
	}
	if result.Identity != nil {
		fmt.Printf("Identity check:    similarity %.2f, IMO match %v\n",
			result.Identity.NameSimilarity, result.Identity.IMOExactMatch)
		if result.Advisory != "" {
			fmt.Printf("Advisory:          %s\n", result.Advisory)
		}
	}
	fmt.Printf("Pages analyzed:    %d (%d chunk(s))\n", result.PageCount, len(result.ChunkResults))
}

func printMismatch(err *pipeline.MismatchError, result *pipeline.AnalyzeResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("                 IDENTITY MISMATCH")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Expected:  %s (IMO %s)\n", err.Detail.ExpectedName, err.Detail.ExpectedIMO)
	fmt.Printf("Extracted: %s (IMO %s)\n", err.Detail.ExtractedName, err.Detail.ExtractedIMO)
	fmt.Printf("Name similarity: %.2f\n", err.Detail.Similarity)
	if result != nil && !result.Fields.Empty() {
		fmt.Println("\nExtracted fields are shown below for review:")
		printExtractedFields(result)
	}
}
