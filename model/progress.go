// model/progress.go
package model

import "time"

// ProgressSnapshot is the persisted, resumable view of a long-running
// operation. It restores displayed counters only; it never re-drives the
// underlying remote calls.
type ProgressSnapshot struct {
	OperationID         string    `json:"operation_id"`
	OperationType       string    `json:"operation_type,omitempty"`
	TotalItems          int       `json:"total_items"`
	ProcessedItems      int       `json:"processed_items"`
	SuccessCount        int       `json:"success_count"`
	FailureCount        int       `json:"failure_count"`
	SkipCount           int       `json:"skip_count"`
	CurrentItem         string    `json:"current_item,omitempty"`
	ItemsPerSecond      float64   `json:"items_per_second"`
	EstimatedCompletion time.Time `json:"estimated_completion,omitempty"`
	LastUpdate          time.Time `json:"last_update"`
}
