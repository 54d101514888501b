package pipeline

// Stage identifies where a document currently sits in the pipeline.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidating Stage = "validating"
	StageSplitting  Stage = "splitting"
	StageAnalyzing  Stage = "analyzing"
	StageMerging    Stage = "merging"
	StageOCR        Stage = "ocr"
	StageExtracting Stage = "extracting"
	StageIdentity   Stage = "identity_check"
	StageUploading  Stage = "uploading"
	StageCompleted  Stage = "completed"
	StageBlocked    Stage = "blocked"
	StageFailed     Stage = "failed"
)

// ProgressFunc receives stage transitions for one document. Callers own
// any aggregation across documents; the pipeline itself keeps no
// counters. A nil ProgressFunc disables reporting.
type ProgressFunc func(stage Stage, detail string)
