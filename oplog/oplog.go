// oplog/oplog.go
package oplog

import (
	"context"
	"time"

	"github.com/identityops/idassign/model"
)

// AccountResult records the per-account outcome inside one logged operation
// group.
type AccountResult struct {
	AccountID   string        `json:"account_id"`
	AccountName string        `json:"account_name"`
	Success     bool          `json:"success"`
	Duration    time.Duration `json:"duration"`
}

// Entry is one operation-log record: a single (principal, permission set)
// group with every account it touched. The rollback tooling consumes these.
type Entry struct {
	OperationType     string              `json:"operation_type"`
	PrincipalID       string              `json:"principal_id"`
	PrincipalType     model.PrincipalType `json:"principal_type"`
	PrincipalName     string              `json:"principal_name"`
	PermissionSetARN  string              `json:"permission_set_arn"`
	PermissionSetName string              `json:"permission_set_name"`
	AccountIDs        []string            `json:"account_ids"`
	AccountNames      []string            `json:"account_names"`
	AccountResults    []AccountResult     `json:"account_results"`
	Metadata          map[string]string   `json:"metadata,omitempty"`
	LoggedAt          time.Time           `json:"logged_at"`
}

// Logger persists operation-log entries. Log returns an opaque operation id
// that may be shown to the user; callers must tolerate failure, which never
// affects run outcome.
type Logger interface {
	Log(ctx context.Context, entry Entry) (string, error)
}
