package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"fleetdocs/internal/analysis"
	"fleetdocs/internal/config"
	"fleetdocs/internal/docai"
	"fleetdocs/internal/ocr"
	"fleetdocs/internal/pdf"
	"fleetdocs/internal/pipeline"
	"fleetdocs/internal/records"
	"fleetdocs/internal/storage"
)

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// validatePDFFile checks that the file exists, is a regular non-empty file
// and looks like a PDF before any service is constructed.
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	return fileInfo, nil
}

// buildOrchestrator wires the full pipeline from configuration. The band
// OCR service is best-effort: a failed construction disables it with a
// warning instead of failing the command.
func buildOrchestrator(ctx context.Context, cfg *config.Config, progress pipeline.ProgressFunc, log zerolog.Logger) (*pipeline.Orchestrator, records.RecordStore, error) {
	analyzer, err := docai.NewDocumentAIChunkAnalyzer(ctx, docai.AnalyzerConfig{
		ProjectID:        cfg.GoogleCloudProject,
		Location:         cfg.GoogleCloudLocation,
		ProcessorID:      cfg.DocumentAIProcessorID,
		ProcessorVersion: cfg.DocumentAIProcessorVersion,
		Timeout:          cfg.AnalysisTimeout,
	})
	if err != nil {
		return nil, nil, handleCredentialsError(err, "Document AI", log)
	}

	bandOCR, err := ocr.NewGoogleVisionBandOCR(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Band OCR unavailable, header/footer pass disabled")
		bandOCR = nil
	}

	extractor, err := analysis.NewOpenAIFieldExtractor(cfg.OpenAIAPIKey, analysis.ExtractionConfig{
		Model:   cfg.OpenAIModel,
		Timeout: cfg.ExtractionTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create field extractor: %w", err)
	}

	store, err := storage.NewGoogleDriveStorage(ctx, cfg.DriveRootFolder)
	if err != nil {
		return nil, nil, handleCredentialsError(err, "Drive storage", log)
	}

	recordStore, err := records.NewSQLiteRecordStore(cfg.RecordsDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open records database: %w", err)
	}

	orch, err := pipeline.NewOrchestrator(pipeline.Deps{
		Analyzer:  analyzer,
		BandOCR:   bandOCR,
		Extractor: extractor,
		Storage:   store,
		Records:   recordStore,
		Progress:  progress,
	}, cfg)
	if err != nil {
		return nil, nil, err
	}

	return orch, recordStore, nil
}

// handleCredentialsError turns Google credential failures into actionable
// messages instead of raw RPC errors.
func handleCredentialsError(err error, service string, log zerolog.Logger) error {
	log.Error().Err(err).Str("service", service).Msg("Service construction failed")

	if errors.Is(err, docai.ErrMissingCredentials) || errors.Is(err, storage.ErrMissingCredentials) {
		return fmt.Errorf("Google Cloud credentials not configured for %s. Please set one of:\n\n"+
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n"+
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n"+
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n"+
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n"+
			"3. Use Application Default Credentials (if gcloud is configured):\n"+
			"   gcloud auth application-default login", service)
	}
	return fmt.Errorf("failed to create %s service: %w", service, err)
}

// handlePipelineError provides user-friendly error messages for pipeline failures
func handlePipelineError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Pipeline processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, pdf.ErrInvalidDocument):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, pdf.ErrNoPages):
		return fmt.Errorf("the PDF contains no pages")
	case errors.Is(err, pipeline.ErrAnalysisFailed):
		return fmt.Errorf("document analysis failed for every chunk. This may be due to service quota limits or an unreadable scan: %w", err)
	case errors.Is(err, pipeline.ErrIdentityMismatch):
		return fmt.Errorf("%w\n\nReview the extracted identity above. To file the document anyway, re-run with --bypass-validation", err)
	case errors.Is(err, pipeline.ErrUploadFailed):
		return fmt.Errorf("storing the document failed, nothing was recorded. Check storage credentials and connectivity: %w", err)
	case errors.Is(err, records.ErrDuplicateRecord):
		return fmt.Errorf("a matching record already exists. Re-run with --on-duplicate skip|replace|keep-both to resolve: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials. Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "permission"):
		return fmt.Errorf("permission denied. Please ensure your service account has the required roles")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud API quota exceeded. Check your project quotas in the Google Cloud Console")
	default:
		return fmt.Errorf("processing failed: %w", err)
	}
}

// printProgress is the default ProgressFunc for interactive commands.
func printProgress(stage pipeline.Stage, detail string) {
	if detail != "" {
		fmt.Printf("  [%s] %s\n", stage, detail)
	} else {
		fmt.Printf("  [%s]\n", stage)
	}
}
