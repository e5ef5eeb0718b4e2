// executor/executor.go
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/identityops/idassign/directory"
	"github.com/identityops/idassign/events"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/model"
	"github.com/identityops/idassign/oplog"
	"github.com/identityops/idassign/retry"
)

// Operation selects the mutating call applied to every request.
type Operation string

const (
	OperationGrant  Operation = "grant"
	OperationRevoke Operation = "revoke"
)

const (
	DefaultBatchSize   = 10
	DefaultItemTimeout = 5 * time.Minute
)

// ProgressFunc is invoked after each chunk with the number of items that
// reached a terminal state and the run total.
type ProgressFunc func(processedCount, totalCount int)

// Config holds the per-run execution knobs.
type Config struct {
	// BatchSize is both the chunk length and the peak concurrency against
	// the remote API.
	BatchSize int
	// ContinueOnError keeps later chunks running after failures. When
	// false, no chunk starts after one containing a failure has drained.
	ContinueOnError bool
	// DryRun validates and reports without calling the mutating API.
	DryRun bool
	// ItemTimeout bounds worst-case latency of a single hung item.
	ItemTimeout time.Duration
	// Retry classifies transient failures and computes backoff.
	Retry retry.Policy
}

// DefaultConfig mirrors the engine defaults: chunks of 10, keep going on
// failure, 5-minute item timeout, stock retry policy.
func DefaultConfig() Config {
	return Config{
		BatchSize:       DefaultBatchSize,
		ContinueOnError: true,
		ItemTimeout:     DefaultItemTimeout,
		Retry:           retry.Default(),
	}
}

// Executor applies one operation to every resolved request, chunk by chunk.
// Chunks run strictly sequentially; items within a chunk run concurrently
// against a worker group capped at BatchSize. Every item is isolated: no
// failure, panic, or timeout in one item can abort a sibling.
type Executor struct {
	client   directory.Client
	opLogger oplog.Logger
	eventBus *events.EventBus
	config   Config
}

// New builds an Executor. opLogger and eventBus may be nil; both are
// best-effort collaborators whose absence or failure never affects results.
func New(client directory.Client, opLogger oplog.Logger, eventBus *events.EventBus, config Config) *Executor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.ItemTimeout <= 0 {
		config.ItemTimeout = DefaultItemTimeout
	}
	return &Executor{
		client:   client,
		opLogger: opLogger,
		eventBus: eventBus,
		config:   config,
	}
}

// Execute runs the operation across all requests and always returns a
// ResultSet, even under heavy partial failure. progressFn may be nil.
func (e *Executor) Execute(ctx context.Context, op Operation, requests []model.ResolvedRequest, progressFn ProgressFunc) *model.ResultSet {
	results := &model.ResultSet{
		TotalRequested:  len(requests),
		BatchSize:       e.config.BatchSize,
		ContinueOnError: e.config.ContinueOnError,
		DryRun:          e.config.DryRun,
		StartTime:       time.Now(),
	}

	logger.Info("Starting bulk execution",
		zap.String("operation", string(op)),
		zap.Int("totalRequests", len(requests)),
		zap.Int("batchSize", e.config.BatchSize),
		zap.Bool("dryRun", e.config.DryRun),
		zap.Bool("continueOnError", e.config.ContinueOnError))

	if e.eventBus != nil {
		e.eventBus.Publish(ctx, events.TypeRunStarted, events.RunProgress{TotalCount: len(requests)})
	}

	for start := 0; start < len(requests); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(requests) {
			end = len(requests)
		}
		chunk := requests[start:end]

		chunkResults := e.executeChunk(ctx, op, chunk)
		chunkFailed := false
		for _, result := range chunkResults {
			results.Add(result)
			if result.Status == model.ItemStatusFailed {
				chunkFailed = true
			}
			if e.eventBus != nil {
				e.eventBus.Publish(ctx, events.TypeItemCompleted, result)
			}
		}

		if progressFn != nil {
			progressFn(results.Processed(), results.TotalRequested)
		}
		if e.eventBus != nil {
			e.eventBus.Publish(ctx, events.TypeRunProgress, events.RunProgress{
				ProcessedCount: results.Processed(),
				TotalCount:     results.TotalRequested,
			})
		}

		// Cooperative halt: in-flight items always finish, later chunks
		// never start.
		if chunkFailed && !e.config.ContinueOnError {
			logger.Warn("Halting run after failed chunk",
				zap.Int("processed", results.Processed()),
				zap.Int("total", results.TotalRequested))
			break
		}
	}

	results.EndTime = time.Now()

	if !e.config.DryRun {
		e.logOperations(ctx, op, results)
	}

	if e.eventBus != nil {
		e.eventBus.Publish(ctx, events.TypeRunCompleted, events.RunProgress{
			ProcessedCount: results.Processed(),
			TotalCount:     results.TotalRequested,
		})
	}

	logger.Info("Bulk execution finished",
		zap.String("operation", string(op)),
		zap.Int("successful", len(results.Successful)),
		zap.Int("failed", len(results.Failed)),
		zap.Int("skipped", len(results.Skipped)),
		zap.Duration("duration", results.Duration()))

	return results
}

// executeChunk fans the chunk out to a bounded worker group and collects
// every result before returning. Collection is single-threaded relative to
// the workers; completion order within the chunk is unspecified.
func (e *Executor) executeChunk(ctx context.Context, op Operation, chunk []model.ResolvedRequest) []model.ItemResult {
	resultCh := make(chan model.ItemResult, len(chunk))

	g := new(errgroup.Group)
	g.SetLimit(e.config.BatchSize)

	for _, req := range chunk {
		req := req
		g.Go(func() error {
			resultCh <- e.processItem(ctx, op, req)
			// Item failures are captured in the result, never returned:
			// returning an error would cancel siblings.
			return nil
		})
	}

	_ = g.Wait()
	close(resultCh)

	results := make([]model.ItemResult, 0, len(chunk))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

// processItem is the isolation boundary: validation, dry-run short-circuit,
// timeout, retries, and panic recovery all terminate in exactly one
// ItemResult.
func (e *Executor) processItem(ctx context.Context, op Operation, req model.ResolvedRequest) (result model.ItemResult) {
	start := time.Now()
	result = newItemResult(req)

	defer func() {
		if r := recover(); r != nil {
			result.Status = model.ItemStatusFailed
			result.ErrorMessage = fmt.Sprintf("unexpected error: %v", r)
			result.ProcessingTime = time.Since(start)
			logger.Error("Recovered panic while processing item",
				zap.String("item", req.Key()),
				zap.Any("panic", r))
		}
	}()

	// Validation happens before any network call.
	if !req.ResolutionSuccess {
		result.Status = model.ItemStatusFailed
		result.ErrorMessage = "resolution failed: " + strings.Join(req.ResolutionErrors, "; ")
		result.ProcessingTime = time.Since(start)
		return result
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		result.Status = model.ItemStatusFailed
		result.ErrorMessage = "missing resolved fields: " + strings.Join(missing, ", ")
		result.ProcessingTime = time.Since(start)
		return result
	}

	if e.config.DryRun {
		result.Status = model.ItemStatusSuccess
		result.ProcessingTime = time.Since(start)
		return result
	}

	done := make(chan model.ItemResult, 1)
	itemCtx, cancel := context.WithTimeout(ctx, e.config.ItemTimeout)
	defer cancel()

	go func() {
		done <- e.executeWithRetry(itemCtx, op, req, result)
	}()

	select {
	case result = <-done:
	case <-time.After(e.config.ItemTimeout):
		// Unblocks this worker even if the remote call ignores the
		// context; the abandoned goroutine exits when its call returns.
		result.Status = model.ItemStatusFailed
		result.ErrorMessage = fmt.Sprintf("timed out after %s", e.config.ItemTimeout)
	}

	result.ProcessingTime = time.Since(start)
	return result
}

// executeWithRetry drives the operation for one item, retrying transient
// failures with backoff up to the policy's cap.
func (e *Executor) executeWithRetry(ctx context.Context, op Operation, req model.ResolvedRequest, result model.ItemResult) model.ItemResult {
	var lastErr error
	for attempt := 0; ; attempt++ {
		var (
			status model.ItemStatus
			msg    string
			err    error
		)
		switch op {
		case OperationGrant:
			status, msg, err = e.grant(ctx, req)
		case OperationRevoke:
			status, msg, err = e.revoke(ctx, req)
		default:
			result.Status = model.ItemStatusFailed
			result.ErrorMessage = fmt.Sprintf("unknown operation %q", op)
			return result
		}

		if err == nil {
			result.Status = status
			result.ErrorMessage = msg
			return result
		}

		lastErr = err
		if !e.config.Retry.ShouldRetry(err) || attempt >= e.config.Retry.MaxRetries {
			break
		}

		result.RetryCount++
		delay := e.config.Retry.Delay(attempt)
		logger.Warn("Retrying item after transient failure",
			zap.String("item", req.Key()),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result.Status = model.ItemStatusFailed
			result.ErrorMessage = ctx.Err().Error()
			return result
		}
	}

	result.Status = model.ItemStatusFailed
	result.ErrorMessage = lastErr.Error()
	return result
}

// grant creates the assignment unless it already exists. Existence and
// conflict-on-create both convert to skipped so success keeps meaning
// "newly created".
func (e *Executor) grant(ctx context.Context, req model.ResolvedRequest) (model.ItemStatus, string, error) {
	assignment := toAssignment(req)

	exists, err := e.assignmentExists(ctx, assignment)
	if err != nil {
		return model.ItemStatusFailed, "", err
	}
	if exists {
		return model.ItemStatusSkipped, "already exists", nil
	}

	opResult, err := e.client.CreateAssignment(ctx, assignment)
	if err != nil {
		if apiErr, ok := directory.AsAPIError(err); ok && apiErr.Code == directory.ErrCodeConflict {
			// Another actor created it between the existence check and
			// the create call.
			return model.ItemStatusSkipped, "already exists", nil
		}
		return model.ItemStatusFailed, "", err
	}

	if opResult.Status == directory.OperationFailed {
		return model.ItemStatusFailed, "", fmt.Errorf("assignment creation failed: %s", opResult.FailureReason)
	}
	// succeeded and in_progress both count: the directory finishes
	// provisioning asynchronously.
	return model.ItemStatusSuccess, "", nil
}

// revoke deletes the assignment unless it is already gone. Absence and
// not-found-on-delete both convert to skipped.
func (e *Executor) revoke(ctx context.Context, req model.ResolvedRequest) (model.ItemStatus, string, error) {
	assignment := toAssignment(req)

	exists, err := e.assignmentExists(ctx, assignment)
	if err != nil {
		return model.ItemStatusFailed, "", err
	}
	if !exists {
		return model.ItemStatusSkipped, "already revoked", nil
	}

	opResult, err := e.client.DeleteAssignment(ctx, assignment)
	if err != nil {
		if apiErr, ok := directory.AsAPIError(err); ok && apiErr.Code == directory.ErrCodeNotFound {
			// Raced with another revocation.
			return model.ItemStatusSkipped, "already revoked", nil
		}
		return model.ItemStatusFailed, "", err
	}

	if opResult.Status == directory.OperationFailed {
		return model.ItemStatusFailed, "", fmt.Errorf("assignment deletion failed: %s", opResult.FailureReason)
	}
	return model.ItemStatusSuccess, "", nil
}

// assignmentExists lists the current assignments for the target account and
// permission set and filters client-side by principal.
func (e *Executor) assignmentExists(ctx context.Context, assignment directory.Assignment) (bool, error) {
	current, err := e.client.ListAssignments(ctx, assignment.AccountID, assignment.PermissionSetARN)
	if err != nil {
		return false, fmt.Errorf("failed to check existing assignments: %w", err)
	}
	for _, a := range current {
		if a.PrincipalID == assignment.PrincipalID && a.PrincipalType == assignment.PrincipalType {
			return true, nil
		}
	}
	return false, nil
}

// logOperations groups successful items by (principal, permission set) and
// hands each group to the operation log once, with every affected account.
// Fire-and-forget: a logging failure never fails the run.
func (e *Executor) logOperations(ctx context.Context, op Operation, results *model.ResultSet) {
	if e.opLogger == nil || len(results.Successful) == 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Operation log panicked", zap.Any("panic", r))
		}
	}()

	type groupKey struct {
		principalID      string
		permissionSetARN string
	}
	groups := make(map[groupKey]*oplog.Entry)
	order := make([]groupKey, 0)

	for _, item := range results.Successful {
		key := groupKey{item.PrincipalID, item.PermissionSetARN}
		entry, ok := groups[key]
		if !ok {
			entry = &oplog.Entry{
				OperationType:     string(op),
				PrincipalID:       item.PrincipalID,
				PrincipalType:     item.PrincipalType,
				PrincipalName:     item.PrincipalName,
				PermissionSetARN:  item.PermissionSetARN,
				PermissionSetName: item.PermissionSetName,
			}
			groups[key] = entry
			order = append(order, key)
		}
		entry.AccountIDs = append(entry.AccountIDs, item.AccountID)
		entry.AccountNames = append(entry.AccountNames, item.AccountName)
		entry.AccountResults = append(entry.AccountResults, oplog.AccountResult{
			AccountID:   item.AccountID,
			AccountName: item.AccountName,
			Success:     true,
			Duration:    item.ProcessingTime,
		})
	}

	for _, key := range order {
		entry := groups[key]
		operationID, err := e.opLogger.Log(ctx, *entry)
		if err != nil {
			logger.Warn("Failed to write operation log entry",
				zap.Error(err),
				zap.String("principal", entry.PrincipalName),
				zap.String("permissionSet", entry.PermissionSetName))
			continue
		}
		logger.Info("Operation logged",
			zap.String("operationID", operationID),
			zap.String("principal", entry.PrincipalName),
			zap.Int("accounts", len(entry.AccountIDs)))
	}
}

func newItemResult(req model.ResolvedRequest) model.ItemResult {
	return model.ItemResult{
		PrincipalName:     req.PrincipalName,
		PrincipalType:     req.PrincipalType,
		PrincipalID:       req.PrincipalID,
		PermissionSetName: req.PermissionSetName,
		PermissionSetARN:  req.PermissionSetARN,
		AccountName:       req.AccountName,
		AccountID:         req.AccountID,
		SourceRow:         req.SourceRow,
		SourceIndex:       req.SourceIndex,
	}
}

func toAssignment(req model.ResolvedRequest) directory.Assignment {
	return directory.Assignment{
		PrincipalID:      req.PrincipalID,
		PrincipalType:    req.PrincipalType,
		PermissionSetARN: req.PermissionSetARN,
		AccountID:        req.AccountID,
	}
}
