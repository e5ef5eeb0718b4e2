package resolver_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/identityops/idassign/directory"
	iderrors "github.com/identityops/idassign/errors"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/model"
	"github.com/identityops/idassign/resolver"
	"github.com/identityops/idassign/test/mock"
)

func TestMain(m *testing.M) {
	logger.InitTestLogger()
	os.Exit(m.Run())
}

func TestResolvePrincipal_User(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{{ID: "u-123", Name: "alice"}}, nil).Once()

	r := resolver.New(client)
	result, err := r.ResolvePrincipal(context.Background(), "alice", model.PrincipalTypeUser)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "u-123", result.ResolvedValue)
	client.AssertExpectations(t)
}

func TestResolvePrincipal_CachesLookups(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{{ID: "u-123", Name: "alice"}}, nil).Once()

	r := resolver.New(client)
	for i := 0; i < 5; i++ {
		result, err := r.ResolvePrincipal(context.Background(), "alice", model.PrincipalTypeUser)
		assert.NoError(t, err)
		assert.Equal(t, "u-123", result.ResolvedValue)
	}

	client.AssertNumberOfCalls(t, "ListUsers", 1)
}

func TestResolvePrincipal_CacheKeyIncludesType(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "ops").
		Return([]directory.Principal{{ID: "u-1", Name: "ops"}}, nil).Once()
	client.On("ListGroups", tmock.Anything, "ops").
		Return([]directory.Principal{{ID: "g-1", Name: "ops"}}, nil).Once()

	r := resolver.New(client)
	user, err := r.ResolvePrincipal(context.Background(), "ops", model.PrincipalTypeUser)
	assert.NoError(t, err)
	group, err := r.ResolvePrincipal(context.Background(), "ops", model.PrincipalTypeGroup)
	assert.NoError(t, err)

	assert.Equal(t, "u-1", user.ResolvedValue)
	assert.Equal(t, "g-1", group.ResolvedValue)
	client.AssertExpectations(t)
}

func TestResolvePrincipal_NotFound(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "ghost").
		Return([]directory.Principal{}, nil).Once()

	r := resolver.New(client)
	result, err := r.ResolvePrincipal(context.Background(), "ghost", model.PrincipalTypeUser)

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "not found")
}

func TestResolvePrincipal_Ambiguous(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListGroups", tmock.Anything, "admins").
		Return([]directory.Principal{{ID: "g-1"}, {ID: "g-2"}}, nil).Once()

	r := resolver.New(client)
	result, err := r.ResolvePrincipal(context.Background(), "admins", model.PrincipalTypeGroup)

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "ambiguous")
	assert.Contains(t, result.ErrorMessage, "2 matches")
}

func TestResolvePrincipal_FailureIsCached(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "ghost").
		Return([]directory.Principal{}, nil).Once()

	r := resolver.New(client)
	for i := 0; i < 3; i++ {
		result, err := r.ResolvePrincipal(context.Background(), "ghost", model.PrincipalTypeUser)
		assert.NoError(t, err)
		assert.False(t, result.Success)
	}
	client.AssertNumberOfCalls(t, "ListUsers", 1)
}

func TestResolvePrincipal_UnsupportedType(t *testing.T) {
	client := new(mock.MockDirectoryClient)

	r := resolver.New(client)
	_, err := r.ResolvePrincipal(context.Background(), "alice", model.PrincipalType("ROLE"))

	assert.ErrorIs(t, err, iderrors.ErrUnsupportedPrincipalType)
	client.AssertNotCalled(t, "ListUsers", tmock.Anything, tmock.Anything)
	client.AssertNotCalled(t, "ListGroups", tmock.Anything, tmock.Anything)
}

func TestResolvePermissionSet_ExactMatch(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListPermissionSets", tmock.Anything).
		Return([]directory.PermissionSet{
			{Name: "ReadOnly", ARN: "arn:ps/ro"},
			{Name: "ReadOnlyPlus", ARN: "arn:ps/rop"},
		}, nil).Once()

	r := resolver.New(client)
	result := r.ResolvePermissionSet(context.Background(), "ReadOnly")

	assert.True(t, result.Success)
	assert.Equal(t, "arn:ps/ro", result.ResolvedValue)
}

func TestResolvePermissionSet_NotFound(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListPermissionSets", tmock.Anything).
		Return([]directory.PermissionSet{{Name: "AdminAccess", ARN: "arn:ps/admin"}}, nil).Once()

	r := resolver.New(client)
	result := r.ResolvePermissionSet(context.Background(), "ReadOnly")

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "permission set not found")
	assert.Contains(t, result.ErrorMessage, "ReadOnly")
}

func TestResolveAccount_SingleEnumeration(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{
			{ID: "111111111111", Name: "prod"},
			{ID: "222222222222", Name: "staging"},
		}, nil).Once()

	r := resolver.New(client)
	prod := r.ResolveAccount(context.Background(), "prod")
	staging := r.ResolveAccount(context.Background(), "staging")
	missing := r.ResolveAccount(context.Background(), "sandbox")

	assert.True(t, prod.Success)
	assert.Equal(t, "111111111111", prod.ResolvedValue)
	assert.True(t, staging.Success)
	assert.Equal(t, "222222222222", staging.ResolvedValue)
	assert.False(t, missing.Success)
	assert.Contains(t, missing.ErrorMessage, "not found")

	client.AssertNumberOfCalls(t, "ListAccounts", 1)
}

func TestResolveAccount_LoadFailureRetriesNextLookup(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListAccounts", tmock.Anything).
		Return(nil, errors.New("service unavailable")).Once()
	client.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{{ID: "111111111111", Name: "prod"}}, nil).Once()

	r := resolver.New(client)
	first := r.ResolveAccount(context.Background(), "prod")
	assert.False(t, first.Success)
	assert.Contains(t, first.ErrorMessage, "failed to list accounts")

	second := r.ResolveAccount(context.Background(), "prod")
	assert.True(t, second.Success)
	assert.Equal(t, "111111111111", second.ResolvedValue)

	client.AssertNumberOfCalls(t, "ListAccounts", 2)
}

func TestResolve_MergesIndependentFailures(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "ghost").
		Return([]directory.Principal{}, nil).Once()
	client.On("ListPermissionSets", tmock.Anything).
		Return([]directory.PermissionSet{{Name: "ReadOnly", ARN: "arn:ps/ro"}}, nil).Once()
	client.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{{ID: "111111111111", Name: "prod"}}, nil).Once()

	r := resolver.New(client)
	resolved, err := r.Resolve(context.Background(), model.AssignmentRequest{
		PrincipalName:     "ghost",
		PrincipalType:     model.PrincipalTypeUser,
		PermissionSetName: "ReadOnly",
		AccountName:       "prod",
	})

	assert.NoError(t, err)
	assert.False(t, resolved.ResolutionSuccess)
	assert.Len(t, resolved.ResolutionErrors, 1)
	// The other two lookups still ran and populated their fields.
	assert.Equal(t, "arn:ps/ro", resolved.PermissionSetARN)
	assert.Equal(t, "111111111111", resolved.AccountID)
	assert.Empty(t, resolved.PrincipalID)
}

func TestWarm_DeduplicatesNames(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{{ID: "u-1", Name: "alice"}}, nil).Once()
	client.On("ListPermissionSets", tmock.Anything).
		Return([]directory.PermissionSet{{Name: "ReadOnly", ARN: "arn:ps/ro"}}, nil).Once()
	client.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{
			{ID: "111111111111", Name: "prod"},
			{ID: "222222222222", Name: "staging"},
		}, nil).Once()

	requests := []model.AssignmentRequest{
		{PrincipalName: "alice", PrincipalType: model.PrincipalTypeUser, PermissionSetName: "ReadOnly", AccountName: "prod"},
		{PrincipalName: "alice", PrincipalType: model.PrincipalTypeUser, PermissionSetName: "ReadOnly", AccountName: "staging"},
		{PrincipalName: "alice", PrincipalType: model.PrincipalTypeUser, PermissionSetName: "ReadOnly", AccountName: "prod"},
	}

	r := resolver.New(client)
	err := r.Warm(context.Background(), requests)
	assert.NoError(t, err)

	resolved, err := r.ResolveAll(context.Background(), requests)
	assert.NoError(t, err)
	assert.Len(t, resolved, 3)
	for _, rr := range resolved {
		assert.True(t, rr.ResolutionSuccess)
	}

	client.AssertNumberOfCalls(t, "ListUsers", 1)
	client.AssertNumberOfCalls(t, "ListPermissionSets", 1)
	client.AssertNumberOfCalls(t, "ListAccounts", 1)
}

func TestInvalidatePrincipal_ForcesFreshLookup(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{}, nil).Once()
	client.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{{ID: "u-1", Name: "alice"}}, nil).Once()

	r := resolver.New(client)
	first, err := r.ResolvePrincipal(context.Background(), "alice", model.PrincipalTypeUser)
	assert.NoError(t, err)
	assert.False(t, first.Success)

	r.InvalidatePrincipal("alice", model.PrincipalTypeUser)

	second, err := r.ResolvePrincipal(context.Background(), "alice", model.PrincipalTypeUser)
	assert.NoError(t, err)
	assert.True(t, second.Success)
	client.AssertNumberOfCalls(t, "ListUsers", 2)
}

func TestInvalidateAccount_ReloadsTree(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{{ID: "111111111111", Name: "prod"}}, nil).Once()
	client.On("ListAccounts", tmock.Anything).
		Return([]directory.Account{
			{ID: "111111111111", Name: "prod"},
			{ID: "333333333333", Name: "sandbox"},
		}, nil).Once()

	r := resolver.New(client)
	missing := r.ResolveAccount(context.Background(), "sandbox")
	assert.False(t, missing.Success)

	r.InvalidateAccount("sandbox")

	found := r.ResolveAccount(context.Background(), "sandbox")
	assert.True(t, found.Success)
	assert.Equal(t, "333333333333", found.ResolvedValue)
	client.AssertNumberOfCalls(t, "ListAccounts", 2)
}

func TestClear_DropsAllCaches(t *testing.T) {
	client := new(mock.MockDirectoryClient)
	client.On("ListUsers", tmock.Anything, "alice").
		Return([]directory.Principal{{ID: "u-1", Name: "alice"}}, nil).Twice()

	r := resolver.New(client)
	_, err := r.ResolvePrincipal(context.Background(), "alice", model.PrincipalTypeUser)
	assert.NoError(t, err)

	r.Clear()

	_, err = r.ResolvePrincipal(context.Background(), "alice", model.PrincipalTypeUser)
	assert.NoError(t, err)
	client.AssertNumberOfCalls(t, "ListUsers", 2)
}
