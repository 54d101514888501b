// Package pipeline orchestrates the full document analysis flow: format
// validation, page-count-driven splitting, concurrent per-chunk analysis,
// summary merging, first-page band OCR, field extraction and the ship
// identity gate.
//
// The orchestrator is deliberately tolerant in the middle and strict at
// the edges. Individual chunk analyses and the band OCR may fail without
// failing the document; field extraction failure still hands the caller
// the file for manual data entry. Only an unreadable input, a total
// analysis failure or an unresolved identity mismatch stop a document.
// Upload is decoupled from analysis and invoked separately once a record
// exists.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fleetdocs/internal/analysis"
	"fleetdocs/internal/config"
	"fleetdocs/internal/docai"
	"fleetdocs/internal/identity"
	"fleetdocs/internal/logger"
	"fleetdocs/internal/ocr"
	"fleetdocs/internal/pdf"
	"fleetdocs/internal/records"
	"fleetdocs/internal/storage"
	"fleetdocs/pkg/models"
)

// maxConcurrentChunks bounds parallel Document AI calls per document.
const maxConcurrentChunks = 4

// Deps carries the services the orchestrator runs on. Analyzer, Extractor
// and Storage are required; BandOCR and Records are optional.
type Deps struct {
	Analyzer  docai.ChunkAnalyzer
	BandOCR   ocr.RegionOCR
	Extractor analysis.FieldExtractor
	Storage   storage.ObjectStorage
	Records   records.RecordStore
	Progress  ProgressFunc
}

// Orchestrator drives one document at a time through the pipeline.
type Orchestrator struct {
	analyzer  docai.ChunkAnalyzer
	bandOCR   ocr.RegionOCR
	extractor analysis.FieldExtractor
	storage   storage.ObjectStorage
	records   records.RecordStore
	validator *identity.Validator
	config    *config.Config
	progress  ProgressFunc
	log       zerolog.Logger
}

// NewOrchestrator creates a pipeline orchestrator from its dependencies.
func NewOrchestrator(deps Deps, cfg *config.Config) (*Orchestrator, error) {
	const op = "NewOrchestrator"

	if deps.Analyzer == nil {
		return nil, WrapPipelineError(op, ErrMissingDependency, "chunk analyzer")
	}
	if deps.Extractor == nil {
		return nil, WrapPipelineError(op, ErrMissingDependency, "field extractor")
	}
	if deps.Storage == nil {
		return nil, WrapPipelineError(op, ErrMissingDependency, "object storage")
	}
	if cfg == nil {
		return nil, WrapPipelineError(op, ErrMissingDependency, "config")
	}

	return &Orchestrator{
		analyzer:  deps.Analyzer,
		bandOCR:   deps.BandOCR,
		extractor: deps.Extractor,
		storage:   deps.Storage,
		records:   deps.Records,
		validator: identity.NewValidator(identity.ValidatorConfig{NameMatchThreshold: cfg.NameMatchThreshold}),
		config:    cfg,
		progress:  deps.Progress,
		log:       logger.WithComponent("pipeline"),
	}, nil
}

// AnalyzeRequest is one document submitted for analysis.
type AnalyzeRequest struct {
	Data        []byte
	Filename    string
	ContentType string

	DocumentType models.DocumentType

	// Expected is the ship this document is being attached to. Nil skips
	// the identity gate entirely (standalone analysis).
	Expected *models.ShipIdentity

	// BypassValidation lets a previously blocked document through. The
	// comparison still runs and its outcome is recorded on the result.
	BypassValidation bool

	// PageImage is an optional raster of the first page (PNG or JPEG)
	// used for header/footer band OCR. Empty skips that pass.
	PageImage []byte
}

// AnalyzeResult is the outcome of analyzing one document. FileData always
// carries the original bytes so a failed extraction still leaves the
// caller with a file to store and fill in by hand.
type AnalyzeResult struct {
	Fields   models.ExtractedFields
	BodyText string
	FileData []byte

	PageCount    int
	ChunkResults []docai.ChunkAnalysisResult

	// ExtractionFailed marks a document whose analysis succeeded but whose
	// field extraction did not. Fields are then empty.
	ExtractionFailed bool

	// Identity is the ship comparison outcome, nil when no expected
	// identity was supplied.
	Identity *identity.Result

	// Advisory carries a non-blocking validation note to persist on the
	// record, e.g. a name mismatch on an IMO-matched document.
	Advisory string
}

// Analyze runs one document through validation, splitting, chunk
// analysis, merging, band OCR, extraction and the identity gate.
//
// A *MismatchError return means the document is blocked, not broken: the
// result is still returned alongside it, and resubmitting with
// BypassValidation set lets it through.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	const op = "Analyze"

	o.report(StageReceived, req.Filename)
	log := o.log.With().Str("filename", req.Filename).Str("doc_type", string(req.DocumentType)).Logger()

	o.report(StageValidating, "")
	if err := pdf.Validate(req.Data); err != nil {
		o.report(StageFailed, err.Error())
		return nil, WrapPipelineError(op, err, req.Filename)
	}

	chunks, pages, err := o.planChunks(req.Data, req.Filename)
	if err != nil {
		o.report(StageFailed, err.Error())
		return nil, WrapPipelineError(op, err, req.Filename)
	}
	log.Info().Int("pages", pages).Int("chunks", len(chunks)).Msg("Document chunked for analysis")

	o.report(StageAnalyzing, fmt.Sprintf("%d chunk(s)", len(chunks)))
	chunkResults := o.analyzeChunks(ctx, chunks, req.ContentType, req.DocumentType)

	succeeded := 0
	for _, r := range chunkResults {
		if r.Success {
			succeeded++
		}
	}
	if succeeded == 0 {
		detail := chunkFailureDetail(chunkResults)
		o.report(StageFailed, detail)
		return nil, WrapPipelineError(op, ErrAnalysisFailed, detail)
	}
	if succeeded < len(chunkResults) {
		log.Warn().Int("failed", len(chunkResults)-succeeded).Int("total", len(chunkResults)).
			Msg("Some chunks failed analysis, merging partial results")
	}

	o.report(StageMerging, "")
	merged := analysis.Merge(chunkResults, req.DocumentType)

	if o.bandOCR != nil && o.bandOCR.Available() && len(req.PageImage) > 0 {
		o.report(StageOCR, "first page header/footer")
		bands := o.bandOCR.ExtractBands(ctx, req.PageImage)
		merged = merged.AppendOCR(bands)
	}

	result := &AnalyzeResult{
		BodyText:     merged.BodyText,
		FileData:     req.Data,
		PageCount:    pages,
		ChunkResults: chunkResults,
	}

	o.report(StageExtracting, "")
	extractCtx, cancel := context.WithTimeout(ctx, o.config.ExtractionTimeout)
	fields, err := o.extractor.Extract(extractCtx, merged, req.Filename)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("Field extraction failed, file retained for manual entry")
		result.ExtractionFailed = true
		o.report(StageCompleted, "extraction failed, manual entry required")
		return result, nil
	}
	result.Fields = fields

	if req.Expected != nil {
		o.report(StageIdentity, "")
		check := o.validator.Validate(fields.ShipName, fields.ShipIMO, req.Expected.Name, req.Expected.IMO)
		check.Bypassed = req.BypassValidation && !check.OverallMatch
		result.Identity = &check
		result.Advisory = check.Advisory

		if !check.OverallMatch && !req.BypassValidation {
			o.report(StageBlocked, fmt.Sprintf("name similarity %.2f", check.NameSimilarity))
			return result, &MismatchError{Detail: *check.Mismatch}
		}
		if check.Bypassed {
			log.Warn().Float64("similarity", check.NameSimilarity).Msg("Identity mismatch bypassed by caller")
		}
	}

	o.report(StageCompleted, "")
	return result, nil
}

// Upload stores the original document, then the summary text, and writes
// the resulting references onto the record. Failure to store the original
// fails the operation; a failed summary upload only logs, leaving
// SummaryRef empty. References are persisted only for uploads that
// actually succeeded.
func (o *Orchestrator) Upload(ctx context.Context, record *models.DocumentRecord, data []byte, contentType, bodyText string) error {
	const op = "Upload"

	o.report(StageUploading, record.SourceFilename)
	folder := path.Join(record.ShipID, string(record.Type))

	uploadCtx, cancel := context.WithTimeout(ctx, o.config.UploadTimeout)
	ref, err := o.storage.Upload(uploadCtx, data, record.SourceFilename, folder, contentType)
	cancel()
	if err != nil {
		o.report(StageFailed, err.Error())
		return WrapPipelineError(op, ErrUploadFailed, fmt.Sprintf("%s: %v", record.SourceFilename, err))
	}
	record.FileRef = ref.ID
	record.FileURL = ref.URL

	if strings.TrimSpace(bodyText) != "" {
		summaryCtx, cancel := context.WithTimeout(ctx, o.config.UploadTimeout)
		summaryRef, err := o.storage.Upload(summaryCtx, []byte(bodyText), summaryFilename(record.SourceFilename), folder, "text/plain")
		cancel()
		if err != nil {
			o.log.Warn().Err(err).Str("filename", record.SourceFilename).
				Msg("Summary upload failed, record keeps original file only")
		} else {
			record.SummaryRef = summaryRef.ID
		}
	}

	if o.records != nil {
		if err := o.records.Update(ctx, record); err != nil {
			return WrapPipelineError(op, err, "persisting storage references")
		}
	}

	o.report(StageCompleted, record.SourceFilename)
	return nil
}

// planChunks decides between whole-document analysis and split analysis
// based on the configured page threshold.
func (o *Orchestrator) planChunks(data []byte, filename string) ([]pdf.DocumentChunk, int, error) {
	pages, err := pdf.PageCount(data)
	if err != nil {
		return nil, 0, err
	}

	if pages <= o.config.SplitThresholdPages {
		chunk, err := pdf.WholeDocumentChunk(data, filename)
		if err != nil {
			return nil, 0, err
		}
		return []pdf.DocumentChunk{chunk}, pages, nil
	}

	o.report(StageSplitting, fmt.Sprintf("%d pages", pages))
	chunks, err := pdf.Split(data, filename, o.config.MaxPagesPerChunk)
	if err != nil {
		return nil, 0, err
	}
	return chunks, pages, nil
}

// analyzeChunks runs the chunk analyses concurrently. Every chunk yields
// exactly one result in chunk order; failures live inside the results.
func (o *Orchestrator) analyzeChunks(ctx context.Context, chunks []pdf.DocumentChunk, contentType string, docType models.DocumentType) []docai.ChunkAnalysisResult {
	results := make([]docai.ChunkAnalysisResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChunks)
	for i, chunk := range chunks {
		g.Go(func() error {
			chunkCtx, cancel := context.WithTimeout(gctx, o.config.AnalysisTimeout)
			defer cancel()
			results[i] = o.analyzer.AnalyzeChunk(chunkCtx, chunk, contentType, docType)
			return nil
		})
	}
	// Workers only write their own slot and never return errors.
	_ = g.Wait()

	return results
}

func (o *Orchestrator) report(stage Stage, detail string) {
	if o.progress != nil {
		o.progress(stage, detail)
	}
}

// chunkFailureDetail condenses per-chunk error messages for the
// total-failure error path.
func chunkFailureDetail(results []docai.ChunkAnalysisResult) string {
	var parts []string
	for _, r := range results {
		if !r.Success && r.ErrorMessage != "" {
			parts = append(parts, fmt.Sprintf("chunk %d (pages %s): %s", r.ChunkIndex, r.Pages, r.ErrorMessage))
		}
	}
	if len(parts) == 0 {
		return "no chunk produced a result"
	}
	return strings.Join(parts, "; ")
}

// summaryFilename derives the summary text filename from the original,
// e.g. "survey.pdf" becomes "survey_summary.txt".
func summaryFilename(original string) string {
	base := original
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base + "_summary.txt"
}
