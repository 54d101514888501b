package models

import "time"

// DocumentType classifies a fleet document for analysis and merging.
type DocumentType string

const (
	// SurveyReport is a class or statutory survey report for a ship.
	SurveyReport DocumentType = "survey_report"

	// TestReport is an equipment test or inspection report.
	TestReport DocumentType = "test_report"

	// AuditReport is an ISM/ISPS/MLC audit record.
	AuditReport DocumentType = "audit_report"

	// OtherDocument is any other fleet document.
	OtherDocument DocumentType = "other"
)

// ParseDocumentType maps a user-supplied tag to a DocumentType,
// defaulting to OtherDocument for unknown tags.
func ParseDocumentType(tag string) DocumentType {
	switch DocumentType(tag) {
	case SurveyReport, TestReport, AuditReport:
		return DocumentType(tag)
	default:
		return OtherDocument
	}
}

// ShipIdentity is the expected subject of a document, used only for
// validation against the extracted ship name/IMO.
type ShipIdentity struct {
	Name string // Registered ship name, e.g. "MV Example"
	IMO  string // Seven-digit IMO number, with or without the "IMO" label
}

// ExtractedFields is the structured output of field extraction.
//
// Date fields hold either a valid ISO date (YYYY-MM-DD) or the empty
// string, never a raw unparsed token. ShipName and ShipIMO are used for
// identity validation only and are not persisted as business data.
type ExtractedFields struct {
	Name             string `json:"name"`              // Subject of the document, e.g. "Cargo Gear"
	ReportNumber     string `json:"report_number"`     // Report/certificate number
	IssuingAuthority string `json:"issuing_authority"` // Class society, flag state, workshop
	IssueDate        string `json:"issue_date"`        // ISO date or ""
	Status           string `json:"status"`            // e.g. "valid", "completed"
	Notes            string `json:"notes"`             // Free-text remarks
	ReportForm       string `json:"report_form"`       // Form code, e.g. "CG (02-19)"
	ShipName         string `json:"ship_name"`         // Validation only
	ShipIMO          string `json:"ship_imo"`          // Validation only
}

// Empty reports whether no field carries a value.
func (f ExtractedFields) Empty() bool {
	return f.Name == "" && f.ReportNumber == "" && f.IssuingAuthority == "" &&
		f.IssueDate == "" && f.Status == "" && f.Notes == "" && f.ReportForm == "" &&
		f.ShipName == "" && f.ShipIMO == ""
}

// DocumentRecord is the persisted business record for an analyzed document.
type DocumentRecord struct {
	ID     string `gorm:"primaryKey;size:36"`
	ShipID string `gorm:"size:36;index"`

	Type             DocumentType `gorm:"size:32;index"`
	Name             string       `gorm:"size:255"`
	ReportNumber     string       `gorm:"size:128;index"`
	IssuingAuthority string       `gorm:"size:255"`
	IssueDate        string       `gorm:"size:10"` // ISO date or ""
	Status           string       `gorm:"size:64"`
	Notes            string
	ReportForm       string `gorm:"size:64"`

	// AdvisoryNote carries non-blocking validation remarks, e.g. a name
	// mismatch on a document whose IMO matched.
	AdvisoryNote string

	// Storage references, set only after the corresponding upload succeeded.
	FileRef    string `gorm:"size:255"`
	FileURL    string `gorm:"size:512"`
	SummaryRef string `gorm:"size:255"`

	SourceFilename string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (DocumentRecord) TableName() string { return "document_records" }
