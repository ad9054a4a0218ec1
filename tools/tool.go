// Package tools defines the capability contract every output-producing tool
// satisfies, plus the concrete query, chart, excel and stats tools and the
// static registry the dispatcher resolves against.
package tools

import (
	"context"
	"io"

	"evodata/storage"
)

// Status is the three-valued outcome of a tool invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Error kinds carried in ToolResult metadata under "error_kind". Everything
// below the orchestrator is represented with one of these; nothing raises.
const (
	KindValidationRejected    = "VALIDATION_REJECTED"
	KindConnectionUnavailable = "CONNECTION_UNAVAILABLE"
	KindExecutionTimeout      = "EXECUTION_TIMEOUT"
	KindExecutionFailed       = "EXECUTION_FAILED"
	KindCapabilityNotFound    = "CAPABILITY_NOT_FOUND"
	KindClassificationFailed  = "CLASSIFICATION_FAILED"
	KindToolInternalError     = "TOOL_INTERNAL_ERROR"
)

// ToolResult is the uniform envelope returned by every tool invocation.
// Data is present iff Status is success; Error is present otherwise.
// Immutable once returned.
type ToolResult struct {
	Status   Status         `json:"status"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Success reports whether the invocation succeeded.
func (r ToolResult) Success() bool {
	return r.Status == StatusSuccess
}

// ErrorKind returns the classified error kind, or "" on success.
func (r ToolResult) ErrorKind() string {
	kind, _ := r.Metadata["error_kind"].(string)
	return kind
}

// OK builds a success result.
func OK(data any, metadata map[string]any) ToolResult {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return ToolResult{Status: StatusSuccess, Data: data, Metadata: metadata}
}

// Fail builds an error result with a classified kind.
func Fail(kind, errMsg string) ToolResult {
	return ToolResult{
		Status:   StatusError,
		Error:    errMsg,
		Metadata: map[string]any{"error_kind": kind},
	}
}

// Timeout builds a timeout result.
func Timeout(errMsg string) ToolResult {
	return ToolResult{
		Status:   StatusTimeout,
		Error:    errMsg,
		Metadata: map[string]any{"error_kind": KindExecutionTimeout},
	}
}

// TableData is the tabular payload produced by query execution: an ordered
// sequence of column->value rows plus the column order.
type TableData struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// ArtifactStore is the storage backend the rendering tools write through.
// Satisfied by storage.Provider implementations.
type ArtifactStore interface {
	Save(name string, write func(io.Writer) error) (storage.Artifact, error)
}

// Tool is the contract the dispatcher invokes. Implementations are stateless
// per request; shared handles such as the connection pool are long-lived
// singletons referenced, not owned, by each instance. Execute must never
// panic or return partial envelopes: an unknown operation is an error result.
type Tool interface {
	Name() string
	Operations() []string
	Execute(ctx context.Context, operation string, params map[string]any) ToolResult
}
