// resolver/resolver.go
package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/identityops/idassign/directory"
	iderrors "github.com/identityops/idassign/errors"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/model"
)

// Resolver converts the three human-readable name fields of an assignment
// request into the directory's native identifiers, memoizing every lookup
// for the duration of one run.
//
// The caches are owned exclusively by one Resolver for one run and are not
// safe for concurrent use; resolution happens before batch execution, never
// interleaved with it.
type Resolver struct {
	client directory.Client

	principalCache     map[string]model.ResolutionResult // keyed "TYPE:name"
	permissionSetCache map[string]model.ResolutionResult // keyed by name
	accountCache       map[string]model.ResolutionResult // keyed by name
	accountsLoaded     bool
}

func New(client directory.Client) *Resolver {
	return &Resolver{
		client:             client,
		principalCache:     make(map[string]model.ResolutionResult),
		permissionSetCache: make(map[string]model.ResolutionResult),
		accountCache:       make(map[string]model.ResolutionResult),
	}
}

func principalKey(name string, principalType model.PrincipalType) string {
	return fmt.Sprintf("%s:%s", principalType, name)
}

// ResolvePrincipal looks up a user or group by exact name. Zero matches and
// multiple matches are both lookup failures; ambiguity is never guessed
// away. Only an unsupported principal type is a hard error.
func (r *Resolver) ResolvePrincipal(ctx context.Context, name string, principalType model.PrincipalType) (model.ResolutionResult, error) {
	if !principalType.Valid() {
		return model.ResolutionResult{}, fmt.Errorf("%w: %q", iderrors.ErrUnsupportedPrincipalType, principalType)
	}

	key := principalKey(name, principalType)
	if cached, ok := r.principalCache[key]; ok {
		return cached, nil
	}

	var (
		matches []directory.Principal
		err     error
	)
	switch principalType {
	case model.PrincipalTypeUser:
		matches, err = r.client.ListUsers(ctx, name)
	case model.PrincipalTypeGroup:
		matches, err = r.client.ListGroups(ctx, name)
	}

	result := model.ResolutionResult{}
	switch {
	case err != nil:
		result.ErrorMessage = fmt.Sprintf("failed to look up %s %q: %v", principalType, name, err)
	case len(matches) == 0:
		result.ErrorMessage = fmt.Sprintf("%s %q: %v", principalType, name, iderrors.ErrPrincipalNotFound)
	case len(matches) > 1:
		result.ErrorMessage = fmt.Sprintf("%s %q: %v (%d matches)", principalType, name, iderrors.ErrAmbiguousPrincipal, len(matches))
	default:
		result.Success = true
		result.ResolvedValue = matches[0].ID
	}

	r.principalCache[key] = result
	return result, nil
}

// ResolvePermissionSet matches a permission set by exact name against the
// full enumeration, one remote enumeration per distinct name query.
func (r *Resolver) ResolvePermissionSet(ctx context.Context, name string) model.ResolutionResult {
	if cached, ok := r.permissionSetCache[name]; ok {
		return cached
	}

	result := model.ResolutionResult{}
	sets, err := r.client.ListPermissionSets(ctx)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to list permission sets: %v", err)
	} else {
		for _, ps := range sets {
			if ps.Name == name {
				result.Success = true
				result.ResolvedValue = ps.ARN
				break
			}
		}
		if !result.Success {
			result.ErrorMessage = fmt.Sprintf("%v: %q", iderrors.ErrPermissionSetNotFound, name)
		}
	}

	r.permissionSetCache[name] = result
	return result
}

// ResolveAccount serves account lookups from a full organization-tree
// listing populated once per run on first use. Accounts are looked up many
// times against a bounded total set, so one enumeration beats per-name
// queries.
func (r *Resolver) ResolveAccount(ctx context.Context, name string) model.ResolutionResult {
	if cached, ok := r.accountCache[name]; ok {
		return cached
	}

	if !r.accountsLoaded {
		accounts, err := r.client.ListAccounts(ctx)
		if err != nil {
			// Do not mark the tree loaded; a later lookup may succeed.
			result := model.ResolutionResult{ErrorMessage: fmt.Sprintf("failed to list accounts: %v", err)}
			return result
		}
		for _, acct := range accounts {
			r.accountCache[acct.Name] = model.ResolutionResult{Success: true, ResolvedValue: acct.ID}
		}
		r.accountsLoaded = true
	}

	if cached, ok := r.accountCache[name]; ok {
		return cached
	}

	result := model.ResolutionResult{ErrorMessage: fmt.Sprintf("%v: %q", iderrors.ErrAccountNotFound, name)}
	r.accountCache[name] = result
	return result
}

// Resolve runs the three lookups for one request independently, merging
// their errors. Lookup failures never abort each other; only a programming
// contract violation (unsupported principal type) returns an error.
func (r *Resolver) Resolve(ctx context.Context, req model.AssignmentRequest) (model.ResolvedRequest, error) {
	resolved := model.ResolvedRequest{AssignmentRequest: req}

	principal, err := r.ResolvePrincipal(ctx, req.PrincipalName, req.PrincipalType)
	if err != nil {
		return resolved, err
	}
	if principal.Success {
		resolved.PrincipalID = principal.ResolvedValue
	} else {
		resolved.ResolutionErrors = append(resolved.ResolutionErrors, principal.ErrorMessage)
	}

	permSet := r.ResolvePermissionSet(ctx, req.PermissionSetName)
	if permSet.Success {
		resolved.PermissionSetARN = permSet.ResolvedValue
	} else {
		resolved.ResolutionErrors = append(resolved.ResolutionErrors, permSet.ErrorMessage)
	}

	account := r.ResolveAccount(ctx, req.AccountName)
	if account.Success {
		resolved.AccountID = account.ResolvedValue
	} else {
		resolved.ResolutionErrors = append(resolved.ResolutionErrors, account.ErrorMessage)
	}

	resolved.ResolutionSuccess = principal.Success && permSet.Success && account.Success
	return resolved, nil
}

// Warm resolves every distinct (kind, name) pair across the input list once,
// so repeated names in a large file cost one remote call each.
func (r *Resolver) Warm(ctx context.Context, requests []model.AssignmentRequest) error {
	type principalRef struct {
		name          string
		principalType model.PrincipalType
	}
	principals := make(map[principalRef]struct{})
	permSets := make(map[string]struct{})
	accounts := make(map[string]struct{})

	for _, req := range requests {
		principals[principalRef{req.PrincipalName, req.PrincipalType}] = struct{}{}
		permSets[req.PermissionSetName] = struct{}{}
		accounts[req.AccountName] = struct{}{}
	}

	logger.Info("Warming resolution cache",
		zap.Int("principals", len(principals)),
		zap.Int("permissionSets", len(permSets)),
		zap.Int("accounts", len(accounts)))

	for ref := range principals {
		if _, err := r.ResolvePrincipal(ctx, ref.name, ref.principalType); err != nil {
			return err
		}
	}
	for name := range permSets {
		r.ResolvePermissionSet(ctx, name)
	}
	for name := range accounts {
		r.ResolveAccount(ctx, name)
	}
	return nil
}

// ResolveAll resolves every request in order. Warm should normally be called
// first so the remote cost is one call per distinct name.
func (r *Resolver) ResolveAll(ctx context.Context, requests []model.AssignmentRequest) ([]model.ResolvedRequest, error) {
	resolved := make([]model.ResolvedRequest, 0, len(requests))
	for _, req := range requests {
		rr, err := r.Resolve(ctx, req)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rr)
	}
	return resolved, nil
}

// InvalidatePrincipal forces a fresh lookup for one principal.
func (r *Resolver) InvalidatePrincipal(name string, principalType model.PrincipalType) {
	delete(r.principalCache, principalKey(name, principalType))
}

// InvalidatePermissionSet forces a fresh lookup for one permission set.
func (r *Resolver) InvalidatePermissionSet(name string) {
	delete(r.permissionSetCache, name)
}

// InvalidateAccount forces a reload of the account tree for one name.
func (r *Resolver) InvalidateAccount(name string) {
	delete(r.accountCache, name)
	r.accountsLoaded = false
}

// Clear drops every cached resolution, forcing re-lookup when the directory
// is known to have changed mid-session.
func (r *Resolver) Clear() {
	r.principalCache = make(map[string]model.ResolutionResult)
	r.permissionSetCache = make(map[string]model.ResolutionResult)
	r.accountCache = make(map[string]model.ResolutionResult)
	r.accountsLoaded = false
}
