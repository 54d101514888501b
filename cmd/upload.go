package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fleetdocs/internal/config"
	"fleetdocs/internal/logger"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [pdf-file]",
	Short: "Upload a document for an existing record",
	Long: `Store a document file (and optionally its summary text) for a record
that already exists, writing the storage references back onto it.

Upload is decoupled from analysis: use this command to retry a failed
upload or to attach a manually prepared file to a record. Storing the
original file is mandatory; a failed summary upload only logs a warning
and leaves the record without a summary reference.`,
	Example: `  # Upload the original document for a record
  fleetdocs upload survey.pdf --record-id 7d8a1f0e-...

  # Upload the document together with its summary text
  fleetdocs upload survey.pdf --record-id 7d8a1f0e-... --summary survey_summary.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().String("record-id", "", "Record to attach the document to [REQUIRED]")
	uploadCmd.Flags().String("summary", "", "Optional summary text file to store alongside the document")
	uploadCmd.Flags().Int("timeout", 300, "Upload timeout in seconds")

	uploadCmd.MarkFlagRequired("record-id")
}

func runUpload(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("upload")

	pdfPath := args[0]
	recordID, _ := cmd.Flags().GetString("record-id")
	summaryPath, _ := cmd.Flags().GetString("summary")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
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

	var bodyText string
	if summaryPath != "" {
		summary, err := os.ReadFile(summaryPath)
		if err != nil {
			return fmt.Errorf("failed to read summary file: %w", err)
		}
		bodyText = string(summary)
	}

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	orch, recordStore, err := buildOrchestrator(ctx, cfg, printProgress, log)
	if err != nil {
		return err
	}

	record, err := recordStore.FindByID(ctx, recordID)
	if err != nil {
		return handlePipelineError(err, log)
	}

	log.Info().
		Str("record_id", record.ID).
		Str("file", pdfPath).
		Msg("Uploading document for record")

	if err := orch.Upload(ctx, record, data, "application/pdf", bodyText); err != nil {
		return handlePipelineError(err, log)
	}

	fmt.Printf("Upload complete. Record %s, file %s\n", record.ID, record.FileRef)
	if bodyText != "" && record.SummaryRef == "" {
		fmt.Println("Note: summary upload failed, only the original document was stored.")
	}
	return nil
}
