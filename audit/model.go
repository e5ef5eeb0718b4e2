// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Record is one audited bulk run: who ran which operation against how many
// targets, and how it ended.
type Record struct {
	Timestamp      time.Time       `json:"timestamp"`
	Operator       string          `json:"operator"`
	OperationType  string          `json:"operation_type"`
	OperationID    string          `json:"operation_id"`
	TotalRequested int             `json:"total_requested"`
	SuccessCount   int             `json:"success_count"`
	FailureCount   int             `json:"failure_count"`
	SkipCount      int             `json:"skip_count"`
	DryRun         bool            `json:"dry_run"`
	DurationMillis int64           `json:"duration_millis"`
	Details        json.RawMessage `json:"details,omitempty"`
}
