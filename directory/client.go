// directory/client.go
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/identityops/idassign/model"
)

// Principal is a user or group as the directory reports it.
type Principal struct {
	ID          string              `json:"id"`
	Type        model.PrincipalType `json:"type"`
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name,omitempty"`
}

// PermissionSet is a named bundle of access rights.
type PermissionSet struct {
	ARN         string `json:"arn"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Account is a target account in the organization tree.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// Assignment is the (principal, permission set, account) tuple as currently
// recorded by the directory.
type Assignment struct {
	PrincipalID      string              `json:"principal_id"`
	PrincipalType    model.PrincipalType `json:"principal_type"`
	PermissionSetARN string              `json:"permission_set_arn"`
	AccountID        string              `json:"account_id"`
}

// OperationStatus is the state of a mutating call as reported by the
// directory's provisioning workflow.
type OperationStatus string

const (
	OperationSucceeded  OperationStatus = "succeeded"
	OperationInProgress OperationStatus = "in_progress"
	OperationFailed     OperationStatus = "failed"
)

// OperationResult is the response of a create/delete assignment call.
type OperationResult struct {
	Status        OperationStatus `json:"status"`
	RequestID     string          `json:"request_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// Client is the remote administrative API surface the engine depends on.
// The wire protocol behind it is out of scope; tests substitute fakes.
type Client interface {
	// ListUsers returns users whose name exactly matches the filter.
	ListUsers(ctx context.Context, nameFilter string) ([]Principal, error)
	// ListGroups returns groups whose name exactly matches the filter.
	ListGroups(ctx context.Context, nameFilter string) ([]Principal, error)
	// ListPermissionSets enumerates every permission set.
	ListPermissionSets(ctx context.Context) ([]PermissionSet, error)
	// ListAccounts enumerates every account in the organization tree.
	ListAccounts(ctx context.Context) ([]Account, error)
	// ListAssignments returns the current assignments for an account and
	// permission set.
	ListAssignments(ctx context.Context, accountID, permissionSetARN string) ([]Assignment, error)
	// CreateAssignment provisions an assignment.
	CreateAssignment(ctx context.Context, a Assignment) (OperationResult, error)
	// DeleteAssignment deprovisions an assignment.
	DeleteAssignment(ctx context.Context, a Assignment) (OperationResult, error)
}

// ErrorCode classifies a directory API failure.
type ErrorCode string

const (
	ErrCodeThrottling         ErrorCode = "throttling"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrCodeInternal           ErrorCode = "internal"
	ErrCodeConflict           ErrorCode = "conflict"
	ErrCodeNotFound           ErrorCode = "not_found"
	ErrCodeValidation         ErrorCode = "validation"
	ErrCodeAccessDenied       ErrorCode = "access_denied"
)

// APIError is a structured failure from the directory API. The retry policy
// keys off Code; human messages go to reports unchanged.
type APIError struct {
	Code    ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
