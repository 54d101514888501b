package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"fleetdocs/internal/logger"
	"fleetdocs/pkg/models"
)

// ExtractionConfig configures the field extraction service.
type ExtractionConfig struct {
	Model       string        // OpenAI model name
	Temperature float32       // Low temperature keeps extraction deterministic
	Timeout     time.Duration // Per-request timeout. Default: 30 seconds.
}

// DefaultExtractionConfig returns an ExtractionConfig with sensible defaults.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		Timeout:     30 * time.Second,
	}
}

// FieldExtractor turns a merged summary into structured document fields.
type FieldExtractor interface {
	// Extract sends the merged summary to the extraction backend and
	// parses the structured fields back out, applying the post-processing
	// corrections. Returns ErrExtractionFailed when the response is not
	// parseable; the caller then falls back to empty fields so the record
	// can still be created with the file attached.
	Extract(ctx context.Context, summary MergedSummary, sourceFilename string) (models.ExtractedFields, error)
}

// extractionResponse is the fixed JSON shape requested from the model.
// Everything arrives as strings; parsing and correction happen here, not
// in the model.
type extractionResponse struct {
	Name             string `json:"name"`
	ReportNumber     string `json:"report_number"`
	IssuingAuthority string `json:"issuing_authority"`
	IssueDate        string `json:"issue_date"`
	Status           string `json:"status"`
	Notes            string `json:"notes"`
	ReportForm       string `json:"report_form"`
	ShipName         string `json:"ship_name"`
	ShipIMO          string `json:"ship_imo"`
}

// OpenAIFieldExtractor implements FieldExtractor using the OpenAI chat API.
type OpenAIFieldExtractor struct {
	client *openai.Client
	config ExtractionConfig
	log    zerolog.Logger
}

// NewOpenAIFieldExtractor creates an extractor with an API key.
func NewOpenAIFieldExtractor(apiKey string, config ExtractionConfig) (FieldExtractor, error) {
	const op = "NewOpenAIFieldExtractor"

	if apiKey == "" {
		return nil, WrapExtractionError(op, ErrMissingAPIKey, "")
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &OpenAIFieldExtractor{
		client: openai.NewClient(apiKey),
		config: config,
		log:    logger.WithComponent("field-extractor"),
	}, nil
}

// NewOpenAIFieldExtractorWithClient creates an extractor with an explicit
// client (for testing).
func NewOpenAIFieldExtractorWithClient(client *openai.Client, config ExtractionConfig) FieldExtractor {
	return &OpenAIFieldExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("field-extractor"),
	}
}

// Extract sends the merged summary to the model and parses the response.
func (e *OpenAIFieldExtractor) Extract(ctx context.Context, summary MergedSummary, sourceFilename string) (models.ExtractedFields, error) {
	const op = "Extract"

	var fields models.ExtractedFields

	if summary.Empty() {
		return fields, WrapExtractionError(op, ErrEmptySummary, "")
	}

	requestCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	prompt := buildExtractionPrompt(summary, sourceFilename)

	e.log.Debug().
		Str("doc_type", string(summary.DocumentType)).
		Int("prompt_length", len(prompt)).
		Str("model", e.config.Model).
		Msg("Sending extraction request")

	resp, err := e.client.CreateChatCompletion(requestCtx, openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Temperature: e.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPromptFor(summary.DocumentType),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: 800,
	})
	if err != nil {
		return fields, WrapExtractionError(op, ErrExtractionFailed, fmt.Sprintf("completion request: %v", err))
	}
	if len(resp.Choices) == 0 {
		return fields, WrapExtractionError(op, ErrExtractionFailed, "no response choices")
	}

	content := resp.Choices[0].Message.Content

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &parsed); err != nil {
		e.log.Warn().
			Err(err).
			Str("response", content).
			Msg("Extraction response not parseable as JSON")
		return fields, WrapExtractionError(op, ErrExtractionFailed, fmt.Sprintf("unparseable response: %v", err))
	}

	fields = models.ExtractedFields{
		Name:             strings.TrimSpace(parsed.Name),
		ReportNumber:     strings.TrimSpace(parsed.ReportNumber),
		IssuingAuthority: strings.TrimSpace(parsed.IssuingAuthority),
		IssueDate:        strings.TrimSpace(parsed.IssueDate),
		Status:           strings.TrimSpace(parsed.Status),
		Notes:            strings.TrimSpace(parsed.Notes),
		ReportForm:       strings.TrimSpace(parsed.ReportForm),
		ShipName:         strings.TrimSpace(parsed.ShipName),
		ShipIMO:          strings.TrimSpace(parsed.ShipIMO),
	}

	PostProcess(&fields, sourceFilename)

	e.log.Info().
		Str("name", fields.Name).
		Str("report_number", fields.ReportNumber).
		Str("issue_date", fields.IssueDate).
		Str("report_form", fields.ReportForm).
		Str("ship_name", fields.ShipName).
		Msg("Field extraction completed")

	return fields, nil
}

// cleanJSONResponse strips code-fence markers and surrounding prose so a
// mostly-correct model response still parses.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Tolerate prose before or after the JSON object.
	if start := strings.Index(content, "{"); start > 0 {
		content = content[start:]
	}
	if end := strings.LastIndex(content, "}"); end >= 0 && end < len(content)-1 {
		content = content[:end+1]
	}
	return content
}

// systemPromptFor returns the extraction system prompt for a document type.
func systemPromptFor(docType models.DocumentType) string {
	var role string
	switch docType {
	case models.SurveyReport:
		role = "You are extracting data from a ship survey report (class or statutory survey)."
	case models.TestReport:
		role = "You are extracting data from a ship equipment test or inspection report."
	case models.AuditReport:
		role = "You are extracting data from a ship ISM/ISPS/MLC audit record."
	default:
		role = "You are extracting data from a ship document."
	}

	return role + `

Return ONLY valid JSON with NO trailing commas and no text before or after.
- Use the empty string "" for missing values, never null
- Dates must be in YYYY-MM-DD format when clearly identifiable; otherwise
  return the raw date string exactly as it appears
- "name" is the subject of the document (the equipment, system or area
  covered), not the full document title
- "ship_name" and "ship_imo" identify which vessel the document belongs
  to; look at headers, footers and stamps
- A value like "CG (02-19)" is a form code, not a date; put it in
  "report_form"`
}

// buildExtractionPrompt creates the user prompt for the model.
func buildExtractionPrompt(summary MergedSummary, sourceFilename string) string {
	var prompt strings.Builder

	prompt.WriteString("Extract the document fields from this analysis summary.\n\n")
	prompt.WriteString(fmt.Sprintf("Document type: %s\n", summary.DocumentType))
	if sourceFilename != "" {
		prompt.WriteString(fmt.Sprintf("Source filename: %s\n", sourceFilename))
	}

	if len(summary.FieldValues) > 0 {
		prompt.WriteString("\nField hints found during merge (earliest page wins):\n")
		for field, value := range summary.FieldValues {
			prompt.WriteString(fmt.Sprintf("%s: %s\n", CanonicalLabel(summary.DocumentType, field), value))
		}
	}

	prompt.WriteString("\nDocument text:\n")
	prompt.WriteString(summary.BodyText)

	prompt.WriteString("\n\nReturn JSON with exactly these fields:\n")
	prompt.WriteString(`{
  "name": "subject of the document, e.g. equipment or system name",
  "report_number": "report or certificate number",
  "issuing_authority": "class society, flag administration or workshop",
  "issue_date": "YYYY-MM-DD or raw date string",
  "status": "document status, e.g. valid, completed, open",
  "notes": "brief free-text remarks",
  "report_form": "form code like CG (02-19) if present",
  "ship_name": "ship name from headers/footers/stamps",
  "ship_imo": "IMO number if present"
}`)
	prompt.WriteString("\n\nONLY valid JSON, no text before or after.")

	return prompt.String()
}
