package errors

import "errors"

var ErrOperationNotFound = errors.New("operation not found")
