// Package docai is the RPC boundary to the Google Document AI service
// used for per-chunk document analysis.
//
// Each chunk of a (possibly split) fleet document is sent to a Document AI
// processor which returns the recognized text plus confidence metadata.
// A failed chunk is reported as a structured result, not an error: the
// merge step tolerates partial failure and the retry policy belongs to
// the caller, never to this boundary.
//
// Document AI API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Supported formats: PDF, TIFF, GIF, JPEG, PNG, BMP, WEBP
//   - Quota limits apply (check Google Cloud Console)
package docai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"fleetdocs/internal/logger"
	"fleetdocs/internal/pdf"
	"fleetdocs/pkg/models"
)

// MaxChunkSizeBytes is the maximum chunk size for synchronous processing (20MB).
const MaxChunkSizeBytes = 20 * 1024 * 1024

// AnalyzerConfig holds configuration for Document AI chunk analysis.
type AnalyzerConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the Document AI processor ID.
	ProcessorID string

	// ProcessorVersion specifies a particular processor version.
	// If empty, uses the default version.
	ProcessorVersion string

	// Timeout is the maximum time to wait for one chunk. Large scanned
	// chunks routinely take minutes. Default: 120 seconds.
	Timeout time.Duration
}

// DefaultAnalyzerConfig returns an AnalyzerConfig with sensible defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Location: "us",
		Timeout:  120 * time.Second,
	}
}

// ChunkAnalysisResult is the outcome of analyzing one chunk. Every chunk
// submitted produces exactly one result; Success is false on any failure
// and ErrorMessage then carries a human-readable reason.
type ChunkAnalysisResult struct {
	ChunkIndex   int           `json:"chunk_index"`
	Pages        pdf.PageRange `json:"pages"`
	Success      bool          `json:"success"`
	Summary      string        `json:"summary"`
	Confidence   float32       `json:"confidence"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// ChunkAnalyzer sends one chunk to the external Document AI service and
// returns its text summary plus confidence metadata.
type ChunkAnalyzer interface {
	// AnalyzeChunk processes a single chunk. Failures are reported inside
	// the result; the error return is reserved for programmer mistakes
	// (nil chunk content).
	AnalyzeChunk(ctx context.Context, chunk pdf.DocumentChunk, contentType string, docType models.DocumentType) ChunkAnalysisResult
}

// DocumentAIChunkAnalyzer implements ChunkAnalyzer using Google Document AI.
type DocumentAIChunkAnalyzer struct {
	client *documentai.DocumentProcessorClient
	config AnalyzerConfig
	log    zerolog.Logger
}

// NewDocumentAIChunkAnalyzer creates an analyzer with explicit config.
// Expects credentials in GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
func NewDocumentAIChunkAnalyzer(ctx context.Context, config AnalyzerConfig) (ChunkAnalyzer, error) {
	const op = "NewDocumentAIChunkAnalyzer"

	if config.ProjectID == "" {
		return nil, WrapAnalysisError(op, ErrInvalidConfiguration, "project ID is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapAnalysisError(op, ErrInvalidConfiguration, "processor ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	var clientOptions []option.ClientOption

	// Regional endpoint for non-US processors
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapAnalysisError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapAnalysisError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIChunkAnalyzer{
		client: client,
		config: config,
		log:    logger.WithComponent("chunk-analyzer"),
	}, nil
}

// NewDocumentAIChunkAnalyzerWithClient creates an analyzer with an
// explicit client (for testing).
func NewDocumentAIChunkAnalyzerWithClient(config AnalyzerConfig, client *documentai.DocumentProcessorClient) ChunkAnalyzer {
	return &DocumentAIChunkAnalyzer{
		client: client,
		config: config,
		log:    logger.WithComponent("chunk-analyzer"),
	}
}

// AnalyzeChunk processes a single chunk with Document AI.
func (a *DocumentAIChunkAnalyzer) AnalyzeChunk(ctx context.Context, chunk pdf.DocumentChunk, contentType string, docType models.DocumentType) ChunkAnalysisResult {
	result := ChunkAnalysisResult{
		ChunkIndex: chunk.Index,
		Pages:      chunk.Pages,
	}

	if len(chunk.Content) == 0 {
		result.ErrorMessage = "chunk has no content"
		return result
	}
	if len(chunk.Content) > MaxChunkSizeBytes {
		result.ErrorMessage = fmt.Sprintf("chunk size %d exceeds %d byte limit", len(chunk.Content), MaxChunkSizeBytes)
		return result
	}
	if contentType == "" {
		contentType = "application/pdf"
	}

	processCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: a.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  chunk.Content,
				MimeType: contentType,
			},
		},
	}

	start := time.Now()
	resp, err := a.client.ProcessDocument(processCtx, req)
	if err != nil {
		result.ErrorMessage = a.describeProcessingError(err)
		a.log.Warn().
			Int("chunk", chunk.Index).
			Str("pages", chunk.Pages.String()).
			Str("error", result.ErrorMessage).
			Msg("Chunk analysis failed")
		return result
	}
	if resp.Document == nil {
		result.ErrorMessage = "no document in Document AI response"
		return result
	}

	result.Success = true
	result.Summary = strings.TrimSpace(resp.Document.Text)
	result.Confidence = documentConfidence(resp.Document)

	a.log.Info().
		Int("chunk", chunk.Index).
		Str("pages", chunk.Pages.String()).
		Str("doc_type", string(docType)).
		Int("summary_len", len(result.Summary)).
		Float32("confidence", result.Confidence).
		Dur("duration", time.Since(start)).
		Msg("Chunk analysis completed")

	return result
}

// processorName constructs the full processor name for the Document AI API.
func (a *DocumentAIChunkAnalyzer) processorName() string {
	if a.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			a.config.ProjectID, a.config.Location, a.config.ProcessorID, a.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		a.config.ProjectID, a.config.Location, a.config.ProcessorID)
}

// describeProcessingError converts Document AI errors into a
// human-readable message for the per-chunk result.
func (a *DocumentAIChunkAnalyzer) describeProcessingError(err error) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Sprintf("%v: insufficient permissions for Document AI", ErrInvalidCredentials)
	case strings.Contains(errStr, "QUOTA_EXCEEDED"):
		return ErrQuotaExceeded.Error()
	case strings.Contains(errStr, "NOT_FOUND"):
		return fmt.Sprintf("%v: %s", ErrProcessorNotFound, a.config.ProcessorID)
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return "document format not supported or corrupted"
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return fmt.Sprintf("chunk analysis timed out after %s", a.config.Timeout)
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return "chunk analysis was canceled"
	default:
		return fmt.Sprintf("Document AI error: %v", err)
	}
}

// documentConfidence averages the per-page layout confidence, falling back
// to entity confidence when page layout carries none.
func documentConfidence(doc *documentaipb.Document) float32 {
	var sum float32
	var count int

	for _, page := range doc.Pages {
		if page.Layout != nil && page.Layout.Confidence > 0 {
			sum += page.Layout.Confidence
			count++
		}
	}
	if count == 0 {
		for _, entity := range doc.Entities {
			if entity.Confidence > 0 {
				sum += entity.Confidence
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}

// Close closes the underlying Document AI client.
func (a *DocumentAIChunkAnalyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
