package directory_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/identityops/idassign/cache"
	"github.com/identityops/idassign/directory"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/test/mock"
)

func TestMain(m *testing.M) {
	logger.InitTestLogger()
	os.Exit(m.Run())
}

func TestCachingClient_ListAccountsCachesAcrossCalls(t *testing.T) {
	inner := new(mock.MockDirectoryClient)
	inner.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{{ID: "111111111111", Name: "prod"}}, nil).Once()

	client := directory.NewCachingClient(inner, cache.NewMemoryStore(), time.Minute)

	for i := 0; i < 3; i++ {
		accounts, err := client.ListAccounts(context.Background())
		assert.NoError(t, err)
		assert.Len(t, accounts, 1)
		assert.Equal(t, "prod", accounts[0].Name)
	}

	inner.AssertNumberOfCalls(t, "ListAccounts", 1)
}

func TestCachingClient_ListPermissionSetsCachesAcrossCalls(t *testing.T) {
	inner := new(mock.MockDirectoryClient)
	inner.On("ListPermissionSets", tmock.Anything).
		Return([]directory.PermissionSet{{Name: "ReadOnly", ARN: "arn:ps/ro"}}, nil).Once()

	client := directory.NewCachingClient(inner, cache.NewMemoryStore(), time.Minute)

	for i := 0; i < 3; i++ {
		sets, err := client.ListPermissionSets(context.Background())
		assert.NoError(t, err)
		assert.Len(t, sets, 1)
	}

	inner.AssertNumberOfCalls(t, "ListPermissionSets", 1)
}

func TestCachingClient_ErrorsAreNotCached(t *testing.T) {
	inner := new(mock.MockDirectoryClient)
	inner.On("ListAccounts", tmock.Anything).
		Return(nil, &directory.APIError{Code: directory.ErrCodeServiceUnavailable, Message: "down"}).Once()
	inner.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{{ID: "111111111111", Name: "prod"}}, nil).Once()

	client := directory.NewCachingClient(inner, cache.NewMemoryStore(), time.Minute)

	_, err := client.ListAccounts(context.Background())
	assert.Error(t, err)

	accounts, err := client.ListAccounts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, accounts, 1)
	inner.AssertNumberOfCalls(t, "ListAccounts", 2)
}

func TestCachingClient_PerNameQueriesPassThrough(t *testing.T) {
	inner := new(mock.MockDirectoryClient)
	inner.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{{ID: "u-1", Name: "alice"}}, nil).Twice()

	client := directory.NewCachingClient(inner, cache.NewMemoryStore(), time.Minute)

	_, err := client.ListUsers(context.Background(), "alice")
	assert.NoError(t, err)
	_, err = client.ListUsers(context.Background(), "alice")
	assert.NoError(t, err)

	inner.AssertNumberOfCalls(t, "ListUsers", 2)
}

func TestCachingClient_InvalidateForcesRefresh(t *testing.T) {
	inner := new(mock.MockDirectoryClient)
	inner.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{{ID: "111111111111", Name: "prod"}}, nil).Twice()

	client := directory.NewCachingClient(inner, cache.NewMemoryStore(), time.Minute)

	_, err := client.ListAccounts(context.Background())
	assert.NoError(t, err)

	assert.NoError(t, client.Invalidate(context.Background()))

	_, err = client.ListAccounts(context.Background())
	assert.NoError(t, err)
	inner.AssertNumberOfCalls(t, "ListAccounts", 2)
}
