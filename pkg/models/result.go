package models

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	ErrorKindModelUnavailable  ErrorKind = "model_unavailable"
	ErrorKindConnectionFailed  ErrorKind = "connection_failed"
	ErrorKindAPIKeyInvalid     ErrorKind = "api_key_invalid"
	ErrorKindGenerationFailed  ErrorKind = "generation_failed"
	ErrorKindValidationWarning ErrorKind = "validation_warning"
	ErrorKindRepairFailed      ErrorKind = "repair_failed"
	ErrorKindSafetyRejected    ErrorKind = "safety_rejected"
	ErrorKindExecutionFailed   ErrorKind = "execution_failed"
	ErrorKindInternal          ErrorKind = "internal_error"
)

// Fatal reports whether an error of this kind stops the run.
// Validation warnings and repair failures only go to debug info.
func (k ErrorKind) Fatal() bool {
	switch k {
	case ErrorKindValidationWarning, ErrorKindRepairFailed:
		return false
	default:
		return true
	}
}

// ErrorRecord is the error attached to a PipelineResult.
type ErrorRecord struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface so records can travel as errors in tests and logs.
func (e *ErrorRecord) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Debug info keys written by the pipeline stages.
const (
	DebugIntentAnalysis  = "intent_analysis"
	DebugIntentError     = "intent_error"
	DebugValidationError = "validation_error"
	DebugRepairError     = "repair_error"
	DebugOriginalSQL     = "original_sql"
	DebugExecutionError  = "execution_error"
	DebugSchemaTables    = "schema_tables"
	DebugSampleTables    = "sample_tables"
	DebugSampleErrors    = "sample_errors"
	DebugStageTimings    = "stage_timings_ms"
	DebugRowsTruncated   = "rows_truncated"
)

// PipelineResult accumulates everything a single run produced.
// It has exactly one writer: the run that created it.
type PipelineResult struct {
	RunID          string         `json:"run_id"`
	UserQuery      string         `json:"user_query"`
	CorrectedQuery string         `json:"corrected_query,omitempty"`
	GeneratedSQL   string         `json:"generated_sql,omitempty"`
	PreviousSQL    string         `json:"previous_sql,omitempty"`
	Rows           [][]any        `json:"query_results"`
	ColumnNames    []string       `json:"column_names"`
	Error          *ErrorRecord   `json:"error,omitempty"`
	DebugInfo      map[string]any `json:"debug_info"`
}

// NewPipelineResult creates an empty result for a question.
func NewPipelineResult(runID, question string) *PipelineResult {
	return &PipelineResult{
		RunID:     runID,
		UserQuery: question,
		DebugInfo: make(map[string]any),
	}
}

// Fail attaches an error record.
func (r *PipelineResult) Fail(kind ErrorKind, message string) {
	r.Error = &ErrorRecord{Kind: kind, Message: message}
}

// Failed reports whether a fatal error has been recorded.
func (r *PipelineResult) Failed() bool {
	return r.Error != nil && r.Error.Kind.Fatal()
}

// Succeeded reports whether the run executed a statement without error.
func (r *PipelineResult) Succeeded() bool {
	return r.Error == nil && r.ColumnNames != nil
}

// SetDebug records a debug value.
func (r *PipelineResult) SetDebug(key string, value any) {
	if r.DebugInfo == nil {
		r.DebugInfo = make(map[string]any)
	}
	r.DebugInfo[key] = value
}
