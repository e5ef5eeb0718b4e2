package errors

import "errors"

var (
	ErrPrincipalNotFound        = errors.New("principal not found")
	ErrAmbiguousPrincipal       = errors.New("ambiguous principal match")
	ErrUnsupportedPrincipalType = errors.New("unsupported principal type")

	ErrPermissionSetNotFound = errors.New("permission set not found")
	ErrAccountNotFound       = errors.New("account not found")
)
