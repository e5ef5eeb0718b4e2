// input/input.go
package input

import (
	"fmt"
	"strings"

	"github.com/identityops/idassign/model"
)

// ValidationError points at one bad input row without aborting the rest of
// the file.
type ValidationError struct {
	SourceIndex int
	SourceRow   string
	Message     string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.SourceIndex, e.Message)
}

// validateRequest checks the four required name fields and the principal
// type. Provenance must already be set by the caller.
func validateRequest(req model.AssignmentRequest) []string {
	var problems []string
	if strings.TrimSpace(req.PrincipalName) == "" {
		problems = append(problems, "principal_name is required")
	}
	if !req.PrincipalType.Valid() {
		problems = append(problems, fmt.Sprintf("principal_type must be USER or GROUP, got %q", req.PrincipalType))
	}
	if strings.TrimSpace(req.PermissionSetName) == "" {
		problems = append(problems, "permission_set_name is required")
	}
	if strings.TrimSpace(req.AccountName) == "" {
		problems = append(problems, "account_name is required")
	}
	return problems
}
