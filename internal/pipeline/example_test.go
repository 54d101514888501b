package pipeline_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"fleetdocs/internal/analysis"
	"fleetdocs/internal/config"
	"fleetdocs/internal/docai"
	"fleetdocs/internal/pipeline"
	"fleetdocs/internal/records"
	"fleetdocs/internal/storage"
	"fleetdocs/pkg/models"
)

// Example demonstrates running one document through the pipeline.
func Example() {
	// Load .env and configuration (normally done in main):
	//
	// if err := godotenv.Load(); err != nil {
	//     log.Printf("Warning: Could not load .env file: %v", err)
	// }
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Construct the services - credentials handled internally from environment
	analyzer, err := docai.NewDocumentAIChunkAnalyzer(ctx, docai.AnalyzerConfig{
		ProjectID:   cfg.GoogleCloudProject,
		Location:    cfg.GoogleCloudLocation,
		ProcessorID: cfg.DocumentAIProcessorID,
		Timeout:     cfg.AnalysisTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	extractor, err := analysis.NewOpenAIFieldExtractor(cfg.OpenAIAPIKey, analysis.ExtractionConfig{
		Model: cfg.OpenAIModel,
	})
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.NewGoogleDriveStorage(ctx, cfg.DriveRootFolder)
	if err != nil {
		log.Fatal(err)
	}

	recordStore, err := records.NewSQLiteRecordStore(cfg.RecordsDBPath)
	if err != nil {
		log.Fatal(err)
	}

	orch, err := pipeline.NewOrchestrator(pipeline.Deps{
		Analyzer:  analyzer,
		Extractor: extractor,
		Storage:   store,
		Records:   recordStore,
	}, cfg)
	if err != nil {
		log.Fatal(err)
	}

	// Analyze a survey report for a known ship
	data, err := os.ReadFile("survey.pdf")
	if err != nil {
		log.Fatal(err)
	}

	result, err := orch.Analyze(ctx, pipeline.AnalyzeRequest{
		Data:         data,
		Filename:     "survey.pdf",
		ContentType:  "application/pdf",
		DocumentType: models.SurveyReport,
		Expected:     &models.ShipIdentity{Name: "MV Northern Star", IMO: "9876543"},
	})
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("Extracted: %s (%s), issued %s by %s\n",
		result.Fields.Name,
		result.Fields.ReportNumber,
		result.Fields.IssueDate,
		result.Fields.IssuingAuthority)
}

// ExampleOrchestrator_Upload demonstrates the decoupled upload step.
func ExampleOrchestrator_Upload() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	store, err := storage.NewGoogleDriveStorage(ctx, cfg.DriveRootFolder)
	if err != nil {
		log.Fatal(err)
	}

	recordStore, err := records.NewSQLiteRecordStore(cfg.RecordsDBPath)
	if err != nil {
		log.Fatal(err)
	}

	// The analyzer and extractor are required even when only uploading;
	// construct them once and reuse the orchestrator for both steps.
	analyzer, err := docai.NewDocumentAIChunkAnalyzer(ctx, docai.AnalyzerConfig{
		ProjectID:   cfg.GoogleCloudProject,
		Location:    cfg.GoogleCloudLocation,
		ProcessorID: cfg.DocumentAIProcessorID,
	})
	if err != nil {
		log.Fatal(err)
	}
	extractor, err := analysis.NewOpenAIFieldExtractor(cfg.OpenAIAPIKey, analysis.DefaultExtractionConfig())
	if err != nil {
		log.Fatal(err)
	}

	orch, err := pipeline.NewOrchestrator(pipeline.Deps{
		Analyzer:  analyzer,
		Extractor: extractor,
		Storage:   store,
		Records:   recordStore,
	}, cfg)
	if err != nil {
		log.Fatal(err)
	}

	record, err := recordStore.FindByID(ctx, "7d8a1f0e-0000-0000-0000-000000000000")
	if err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile("survey.pdf")
	if err != nil {
		log.Fatal(err)
	}

	// Storing the original is mandatory; a failed summary upload only
	// logs and leaves SummaryRef empty.
	if err := orch.Upload(ctx, record, data, "application/pdf", "merged summary text"); err != nil {
		log.Fatalf("Upload failed: %v", err)
	}

	fmt.Printf("Stored as %s\n", record.FileURL)
}
