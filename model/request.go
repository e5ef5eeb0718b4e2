// model/request.go
package model

import "fmt"

// PrincipalType identifies the kind of directory principal an assignment
// request refers to.
type PrincipalType string

const (
	PrincipalTypeUser  PrincipalType = "USER"
	PrincipalTypeGroup PrincipalType = "GROUP"
)

// Valid reports whether the principal type is one the directory supports.
func (t PrincipalType) Valid() bool {
	return t == PrincipalTypeUser || t == PrincipalTypeGroup
}

// AssignmentRequest is one row of work: grant or revoke a permission set for
// a principal on an account. The name fields come straight from the input
// file; the identifier fields are filled in by the resolver.
type AssignmentRequest struct {
	PrincipalName     string        `json:"principal_name"`
	PrincipalType     PrincipalType `json:"principal_type"`
	PermissionSetName string        `json:"permission_set_name"`
	AccountName       string        `json:"account_name"`

	// Resolved identifiers, optional on input.
	PrincipalID      string `json:"principal_id,omitempty"`
	PermissionSetARN string `json:"permission_set_arn,omitempty"`
	AccountID        string `json:"account_id,omitempty"`

	// Provenance for error reporting. SourceIndex is 1-based regardless of
	// input format.
	SourceRow   string `json:"source_row,omitempty"`
	SourceIndex int    `json:"source_index,omitempty"`
}

// Key returns a stable identity for the request, used for progress tracking
// and operation-log grouping.
func (r AssignmentRequest) Key() string {
	return fmt.Sprintf("%s:%s -> %s @ %s", r.PrincipalType, r.PrincipalName, r.PermissionSetName, r.AccountName)
}

// ResolvedRequest is an AssignmentRequest after name resolution.
// ResolutionSuccess is true only when all three lookups succeeded; partial
// failures are recorded in ResolutionErrors without aborting the others.
type ResolvedRequest struct {
	AssignmentRequest

	ResolutionSuccess bool     `json:"resolution_success"`
	ResolutionErrors  []string `json:"resolution_errors,omitempty"`
}

// MissingFields lists resolved identifiers that are still empty. A request
// with missing fields must never reach the remote API.
func (r ResolvedRequest) MissingFields() []string {
	var missing []string
	if r.PrincipalID == "" {
		missing = append(missing, "principal_id")
	}
	if r.PermissionSetARN == "" {
		missing = append(missing, "permission_set_arn")
	}
	if r.AccountID == "" {
		missing = append(missing, "account_id")
	}
	return missing
}

// ResolutionResult is the outcome of a single (kind, name) lookup.
type ResolutionResult struct {
	Success       bool   `json:"success"`
	ResolvedValue string `json:"resolved_value,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}
