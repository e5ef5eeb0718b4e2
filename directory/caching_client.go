// directory/caching_client.go
package directory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/identityops/idassign/cache"
	logger "github.com/identityops/idassign/logging"
)

const (
	accountsCacheKey       = "directory:accounts"
	permissionSetsCacheKey = "directory:permission-sets"
)

// CachingClient decorates a Client so the expensive full listings (accounts,
// permission sets) are served from the pluggable cache layer across CLI
// invocations. Mutating calls and per-name queries always pass through.
type CachingClient struct {
	inner Client
	store cache.Store
	ttl   time.Duration
}

func NewCachingClient(inner Client, store cache.Store, ttl time.Duration) *CachingClient {
	return &CachingClient{inner: inner, store: store, ttl: ttl}
}

func (c *CachingClient) ListUsers(ctx context.Context, nameFilter string) ([]Principal, error) {
	return c.inner.ListUsers(ctx, nameFilter)
}

func (c *CachingClient) ListGroups(ctx context.Context, nameFilter string) ([]Principal, error) {
	return c.inner.ListGroups(ctx, nameFilter)
}

func (c *CachingClient) ListPermissionSets(ctx context.Context) ([]PermissionSet, error) {
	var cached []PermissionSet
	if hit, err := c.store.Get(ctx, permissionSetsCacheKey, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Warn("Failed to read permission sets from cache", zap.Error(err))
	}

	sets, err := c.inner.ListPermissionSets(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, permissionSetsCacheKey, sets, c.ttl); err != nil {
		logger.Warn("Failed to cache permission sets", zap.Error(err))
	}
	return sets, nil
}

func (c *CachingClient) ListAccounts(ctx context.Context) ([]Account, error) {
	var cached []Account
	if hit, err := c.store.Get(ctx, accountsCacheKey, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Warn("Failed to read accounts from cache", zap.Error(err))
	}

	accounts, err := c.inner.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, accountsCacheKey, accounts, c.ttl); err != nil {
		logger.Warn("Failed to cache accounts", zap.Error(err))
	}
	return accounts, nil
}

func (c *CachingClient) ListAssignments(ctx context.Context, accountID, permissionSetARN string) ([]Assignment, error) {
	return c.inner.ListAssignments(ctx, accountID, permissionSetARN)
}

func (c *CachingClient) CreateAssignment(ctx context.Context, a Assignment) (OperationResult, error) {
	return c.inner.CreateAssignment(ctx, a)
}

func (c *CachingClient) DeleteAssignment(ctx context.Context, a Assignment) (OperationResult, error) {
	return c.inner.DeleteAssignment(ctx, a)
}

// Invalidate drops the cached listings, forcing fresh enumeration on next
// use.
func (c *CachingClient) Invalidate(ctx context.Context) error {
	if err := c.store.Delete(ctx, accountsCacheKey); err != nil {
		return err
	}
	return c.store.Delete(ctx, permissionSetsCacheKey)
}

var _ Client = (*CachingClient)(nil)
