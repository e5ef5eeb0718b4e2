// model/result.go
package model

import "time"

// ItemStatus is the terminal state of one executed request.
type ItemStatus string

const (
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusFailed  ItemStatus = "failed"
	ItemStatusSkipped ItemStatus = "skipped"
)

// ItemResult records the outcome of one executed assignment request.
// Immutable once produced by the executor.
type ItemResult struct {
	Status         ItemStatus    `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	RetryCount     int           `json:"retry_count"`

	// Provenance and resolved identifiers, carried for downstream logging.
	PrincipalName     string        `json:"principal_name"`
	PrincipalType     PrincipalType `json:"principal_type"`
	PrincipalID       string        `json:"principal_id,omitempty"`
	PermissionSetName string        `json:"permission_set_name"`
	PermissionSetARN  string        `json:"permission_set_arn,omitempty"`
	AccountName       string        `json:"account_name"`
	AccountID         string        `json:"account_id,omitempty"`
	SourceRow         string        `json:"source_row,omitempty"`
	SourceIndex       int           `json:"source_index,omitempty"`
}

// ResultSet aggregates all ItemResults of one run. Every input request
// yields exactly one result in exactly one bucket, except when a run is
// halted by stop-on-first-failure, in which case unstarted items produce
// no result at all.
type ResultSet struct {
	Successful []ItemResult `json:"successful"`
	Failed     []ItemResult `json:"failed"`
	Skipped    []ItemResult `json:"skipped"`

	TotalRequested  int       `json:"total_requested"`
	BatchSize       int       `json:"batch_size"`
	ContinueOnError bool      `json:"continue_on_error"`
	DryRun          bool      `json:"dry_run"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

// Add places a result in the bucket matching its status.
func (rs *ResultSet) Add(result ItemResult) {
	switch result.Status {
	case ItemStatusSuccess:
		rs.Successful = append(rs.Successful, result)
	case ItemStatusSkipped:
		rs.Skipped = append(rs.Skipped, result)
	default:
		rs.Failed = append(rs.Failed, result)
	}
}

// Processed is the number of items that reached a terminal state.
func (rs *ResultSet) Processed() int {
	return len(rs.Successful) + len(rs.Failed) + len(rs.Skipped)
}

// SuccessRate is successes over total requested, as a percentage. Skipped
// items count in the denominator but never the numerator; reports show the
// skip count separately so a no-op is never read as a success.
func (rs *ResultSet) SuccessRate() float64 {
	if rs.TotalRequested == 0 {
		return 0
	}
	return float64(len(rs.Successful)) / float64(rs.TotalRequested) * 100
}

// Duration is the wall-clock span of the run.
func (rs *ResultSet) Duration() time.Duration {
	return rs.EndTime.Sub(rs.StartTime)
}
