package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/identityops/idassign/audit"
	"github.com/identityops/idassign/cache"
	"github.com/identityops/idassign/config"
	"github.com/identityops/idassign/directory"
	"github.com/identityops/idassign/events"
	"github.com/identityops/idassign/executor"
	"github.com/identityops/idassign/input"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/model"
	"github.com/identityops/idassign/oplog"
	"github.com/identityops/idassign/progress"
	"github.com/identityops/idassign/report"
	"github.com/identityops/idassign/resolver"
	"github.com/identityops/idassign/retry"
)

type bulkFlags struct {
	file            string
	format          string
	batchSize       int
	continueOnError bool
	dryRun          bool
	yes             bool
	details         bool
	operationID     string
}

func registerBulkFlags(cmd *cobra.Command, flags *bulkFlags) {
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Input file with assignment requests (required)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Input format: csv or json (default: by file extension)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Chunk size and peak concurrency (default from config)")
	cmd.Flags().BoolVar(&flags.continueOnError, "continue-on-error", true, "Keep processing after failures")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate and preview without calling the directory")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&flags.details, "details", false, "Print every target's outcome after the summary")
	cmd.Flags().StringVar(&flags.operationID, "operation-id", "", "Resume displayed progress for a prior operation id")
	_ = cmd.MarkFlagRequired("file")
}

func parseInputFile(flags bulkFlags) ([]model.AssignmentRequest, []input.ValidationError, error) {
	format := flags.format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(flags.file), ".")
	}
	switch strings.ToLower(format) {
	case "csv":
		return input.ParseCSVFile(flags.file)
	case "json":
		return input.ParseJSONFile(flags.file)
	default:
		return nil, nil, fmt.Errorf("unsupported input format %q (want csv or json)", format)
	}
}

// buildDirectoryClient wires the HTTP client behind the pluggable cache
// layer: redis when reachable, in-process otherwise.
func buildDirectoryClient() directory.Client {
	client := directory.NewHTTPClient(config.GetString("api.url"), config.GetString("api.token"))

	var store cache.Store
	redisStore, err := cache.NewRedisStore(config.GetString("redis.addr"), config.GetString("redis.password"), config.GetInt("redis.db"), "idassign:cache")
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
		store = cache.NewMemoryStore()
	} else {
		store = redisStore
	}

	return directory.NewCachingClient(client, store, config.GetDuration("redis.defaultCacheTTL"))
}

func buildOperationLogger() oplog.Logger {
	opLogger, err := oplog.NewRedisLogger(config.GetString("redis.addr"), config.GetString("redis.password"), config.GetInt("redis.db"), 0)
	if err != nil {
		logger.Warn("Redis unavailable, operation log disabled", zap.Error(err))
		return nil
	}
	return opLogger
}

func buildAuditService() audit.Service {
	repo, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Warn("Elasticsearch unavailable, audit trail disabled", zap.Error(err))
		return nil
	}
	return audit.NewService(repo)
}

func runBulk(cmd *cobra.Command, op executor.Operation, flags bulkFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	requests, validationErrs, err := parseInputFile(flags)
	if err != nil {
		return err
	}
	report.RenderValidationErrors(validationErrs)
	if len(requests) == 0 {
		return fmt.Errorf("no valid requests in %s", flags.file)
	}

	client := buildDirectoryClient()

	res := resolver.New(client)
	spinner, _ := pterm.DefaultSpinner.Start("Resolving names...")
	if err := res.Warm(ctx, requests); err != nil {
		spinner.Fail("Resolution aborted")
		return err
	}
	resolved, err := res.ResolveAll(ctx, requests)
	if err != nil {
		spinner.Fail("Resolution aborted")
		return err
	}
	spinner.Success("Names resolved")

	report.RenderPreview(resolved)

	if !flags.yes && !flags.dryRun {
		confirmed, _ := pterm.DefaultInteractiveConfirm.
			WithDefaultText(fmt.Sprintf("Apply %s to %d request(s)?", op, len(resolved))).
			Show()
		if !confirmed {
			pterm.Info.Println("Aborted.")
			return nil
		}
	}

	operationID := flags.operationID
	if operationID == "" {
		operationID = uuid.NewString()
	}
	pterm.Info.Printf("Operation id: %s\n", operationID)

	snapshotStore, err := progress.NewFileStore(filepath.Join(config.StateDir(), "progress"))
	if err != nil {
		logger.Warn("Progress persistence disabled", zap.Error(err))
		snapshotStore = nil
	}
	tracker := progress.NewTracker(operationID, string(op), len(resolved), snapshotStore, config.GetDuration("engine.snapshotInterval"))

	bus := events.NewEventBus()
	bus.Start(ctx)
	tracker.Attach(bus)

	batchSize := flags.batchSize
	if batchSize <= 0 {
		batchSize = config.GetInt("engine.batchSize")
	}
	continueOnError := flags.continueOnError
	if !cmd.Flags().Changed("continue-on-error") {
		continueOnError = config.GetBool("engine.continueOnError")
	}
	execConfig := executor.Config{
		BatchSize:       batchSize,
		ContinueOnError: continueOnError,
		DryRun:          flags.dryRun,
		ItemTimeout:     config.GetDuration("engine.itemTimeout"),
		Retry: retry.Policy{
			BaseDelay:  config.GetDuration("engine.retryBaseDelay"),
			MaxDelay:   config.GetDuration("engine.retryMaxDelay"),
			MaxRetries: config.GetInt("engine.maxRetries"),
		},
	}

	exec := executor.New(client, buildOperationLogger(), bus, execConfig)

	bar, _ := report.NewProgressBar(fmt.Sprintf("%s assignments", op), len(resolved))
	lastProcessed := 0
	results := exec.Execute(ctx, op, resolved, func(processed, total int) {
		if bar != nil {
			bar.Add(processed - lastProcessed)
		} else {
			report.RenderLive(tracker)
		}
		lastProcessed = processed
	})
	if bar != nil {
		_, _ = bar.Stop()
	}

	report.RenderResults(results)
	if flags.details {
		report.RenderOutcomes(tracker)
	}
	writeAuditRecord(ctx, op, operationID, results)

	if len(results.Failed) > 0 {
		return fmt.Errorf("%d request(s) failed", len(results.Failed))
	}
	return nil
}

// writeAuditRecord indexes the run in the audit trail. Best-effort: audit
// failure never changes the run outcome.
func writeAuditRecord(ctx context.Context, op executor.Operation, operationID string, results *model.ResultSet) {
	auditService := buildAuditService()
	if auditService == nil {
		return
	}

	operator := os.Getenv("USER")
	details, _ := json.Marshal(map[string]interface{}{
		"batch_size":        results.BatchSize,
		"continue_on_error": results.ContinueOnError,
	})
	record := audit.Record{
		Timestamp:      time.Now(),
		Operator:       operator,
		OperationType:  string(op),
		OperationID:    operationID,
		TotalRequested: results.TotalRequested,
		SuccessCount:   len(results.Successful),
		FailureCount:   len(results.Failed),
		SkipCount:      len(results.Skipped),
		DryRun:         results.DryRun,
		DurationMillis: results.Duration().Milliseconds(),
		Details:        details,
	}
	if err := auditService.LogOperation(ctx, record); err != nil {
		logger.Warn("Failed to write audit record", zap.Error(err), zap.String("operationID", operationID))
	}
}
