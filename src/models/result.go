package models

import "time"

// FailureReason tags why a single row did not make it into Notion.
type FailureReason string

const (
	ReasonMalformedRow          FailureReason = "malformed_row"
	ReasonDuplicateOrderNumber  FailureReason = "duplicate_order_number"
	ReasonHoldingCreationFailed FailureReason = "holding_creation_failed"
	ReasonRateLimitExceeded     FailureReason = "rate_limit_exceeded"
	ReasonRemoteError           FailureReason = "remote_error"
)

// RowFailure records one failed or skipped row with enough context to find it
// again in the source file.
type RowFailure struct {
	Line        int           `json:"line"`
	OrderNumber string        `json:"order_number,omitempty"`
	Reason      FailureReason `json:"reason"`
	Detail      string        `json:"detail,omitempty"`
}

// ImportResult is the summary of one import run. It is read-only once
// returned by the orchestrator.
type ImportResult struct {
	RunID    string `json:"run_id"`
	Filename string `json:"filename,omitempty"`

	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`

	Failures []RowFailure `json:"failures"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
