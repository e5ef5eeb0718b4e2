package directory_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/identityops/idassign/directory"
)

func TestAPIError_Error(t *testing.T) {
	err := &directory.APIError{Code: directory.ErrCodeThrottling, Message: "rate exceeded"}
	assert.Equal(t, "throttling: rate exceeded", err.Error())
}

func TestAsAPIError(t *testing.T) {
	apiErr := &directory.APIError{Code: directory.ErrCodeNotFound, Message: "gone"}

	direct, ok := directory.AsAPIError(apiErr)
	assert.True(t, ok)
	assert.Equal(t, directory.ErrCodeNotFound, direct.Code)

	wrapped, ok := directory.AsAPIError(fmt.Errorf("call failed: %w", apiErr))
	assert.True(t, ok)
	assert.Equal(t, directory.ErrCodeNotFound, wrapped.Code)

	_, ok = directory.AsAPIError(errors.New("plain error"))
	assert.False(t, ok)

	_, ok = directory.AsAPIError(nil)
	assert.False(t, ok)
}
