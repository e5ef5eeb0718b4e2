// test/mock/directory.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/identityops/idassign/directory"
	"github.com/identityops/idassign/oplog"
)

// MockDirectoryClient is a mock implementation of directory.Client
type MockDirectoryClient struct {
	mock.Mock
}

func (m *MockDirectoryClient) ListUsers(ctx context.Context, nameFilter string) ([]directory.Principal, error) {
	args := m.Called(ctx, nameFilter)
	principals, _ := args.Get(0).([]directory.Principal)
	return principals, args.Error(1)
}

func (m *MockDirectoryClient) ListGroups(ctx context.Context, nameFilter string) ([]directory.Principal, error) {
	args := m.Called(ctx, nameFilter)
	principals, _ := args.Get(0).([]directory.Principal)
	return principals, args.Error(1)
}

func (m *MockDirectoryClient) ListPermissionSets(ctx context.Context) ([]directory.PermissionSet, error) {
	args := m.Called(ctx)
	sets, _ := args.Get(0).([]directory.PermissionSet)
	return sets, args.Error(1)
}

func (m *MockDirectoryClient) ListAccounts(ctx context.Context) ([]directory.Account, error) {
	args := m.Called(ctx)
	accounts, _ := args.Get(0).([]directory.Account)
	return accounts, args.Error(1)
}

func (m *MockDirectoryClient) ListAssignments(ctx context.Context, accountID, permissionSetARN string) ([]directory.Assignment, error) {
	args := m.Called(ctx, accountID, permissionSetARN)
	assignments, _ := args.Get(0).([]directory.Assignment)
	return assignments, args.Error(1)
}

func (m *MockDirectoryClient) CreateAssignment(ctx context.Context, a directory.Assignment) (directory.OperationResult, error) {
	args := m.Called(ctx, a)
	result, _ := args.Get(0).(directory.OperationResult)
	return result, args.Error(1)
}

func (m *MockDirectoryClient) DeleteAssignment(ctx context.Context, a directory.Assignment) (directory.OperationResult, error) {
	args := m.Called(ctx, a)
	result, _ := args.Get(0).(directory.OperationResult)
	return result, args.Error(1)
}

// MockOperationLogger is a mock implementation of oplog.Logger
type MockOperationLogger struct {
	mock.Mock
}

func (m *MockOperationLogger) Log(ctx context.Context, entry oplog.Entry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}
