// report/report.go
package report

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/identityops/idassign/input"
	"github.com/identityops/idassign/model"
	"github.com/identityops/idassign/progress"
)

// RenderValidationErrors prints parse-time problems with their row
// provenance.
func RenderValidationErrors(errs []input.ValidationError) {
	if len(errs) == 0 {
		return
	}
	pterm.Warning.Printf("%d input row(s) failed validation:\n", len(errs))
	table := pterm.TableData{{"ROW", "PROBLEM"}}
	for _, e := range errs {
		table = append(table, []string{fmt.Sprintf("%d", e.SourceIndex), e.Message})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

// RenderPreview prints the resolved request list before execution so the
// operator can confirm what is about to change.
func RenderPreview(requests []model.ResolvedRequest) {
	pterm.DefaultSection.Println("Planned Assignments")

	resolved := 0
	table := pterm.TableData{{"PRINCIPAL", "TYPE", "PERMISSION SET", "ACCOUNT", "RESOLUTION"}}
	for _, req := range requests {
		status := pterm.Green("ok")
		if !req.ResolutionSuccess {
			status = pterm.Red("failed")
		} else {
			resolved++
		}
		table = append(table, []string{
			req.PrincipalName,
			string(req.PrincipalType),
			req.PermissionSetName,
			req.AccountName,
			status,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()

	if resolved < len(requests) {
		pterm.Warning.Printf("%d of %d request(s) failed resolution and will be reported as failures.\n",
			len(requests)-resolved, len(requests))
	}
	for _, req := range requests {
		for _, msg := range req.ResolutionErrors {
			pterm.Error.Printf("  row %d: %s\n", req.SourceIndex, msg)
		}
	}
}

// RenderResults prints the final run report. Skipped is always shown as its
// own outcome so a no-op is never confused with a success or an error.
func RenderResults(results *model.ResultSet) {
	pterm.DefaultSection.Println("Run Summary")

	if results.DryRun {
		pterm.Info.Println("Dry run: no changes were made.")
	}

	pterm.Printf("Total requested: %d\n", results.TotalRequested)
	pterm.Printf("Succeeded:       %d\n", len(results.Successful))
	pterm.Printf("Skipped:         %d (already in desired state)\n", len(results.Skipped))
	pterm.Printf("Failed:          %d\n", len(results.Failed))
	pterm.Printf("Success rate:    %.1f%%\n", results.SuccessRate())
	pterm.Printf("Duration:        %s\n", results.Duration().Round(time.Millisecond))

	if len(results.Failed) > 0 {
		pterm.Error.Printf("%d request(s) failed:\n", len(results.Failed))
		table := pterm.TableData{{"PRINCIPAL", "PERMISSION SET", "ACCOUNT", "RETRIES", "ERROR"}}
		for _, item := range results.Failed {
			table = append(table, []string{
				item.PrincipalName,
				item.PermissionSetName,
				item.AccountName,
				fmt.Sprintf("%d", item.RetryCount),
				item.ErrorMessage,
			})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	}

	if len(results.Skipped) > 0 {
		pterm.Info.Printf("%d request(s) were already in the desired state.\n", len(results.Skipped))
	}
}

// RenderSnapshot prints one persisted progress snapshot for the status
// command.
func RenderSnapshot(snapshot model.ProgressSnapshot) {
	pterm.DefaultSection.Printf("Operation %s\n", snapshot.OperationID)
	if snapshot.OperationType != "" {
		pterm.Printf("Type:       %s\n", snapshot.OperationType)
	}
	pterm.Printf("Progress:   %d/%d\n", snapshot.ProcessedItems, snapshot.TotalItems)
	pterm.Printf("Succeeded:  %d  Skipped: %d  Failed: %d\n",
		snapshot.SuccessCount, snapshot.SkipCount, snapshot.FailureCount)
	pterm.Printf("Rate:       %.1f items/s\n", snapshot.ItemsPerSecond)
	if !snapshot.EstimatedCompletion.IsZero() {
		pterm.Printf("ETA:        %s\n", snapshot.EstimatedCompletion.Format(time.RFC1123))
	}
	pterm.Printf("Updated:    %s\n", snapshot.LastUpdate.Format(time.RFC1123))
}

// NewProgressBar builds the live terminal progress bar fed by executor
// progress callbacks.
func NewProgressBar(title string, total int) (*pterm.ProgressbarPrinter, error) {
	return pterm.DefaultProgressbar.WithTitle(title).WithTotal(total).Start()
}

// RenderOutcomes prints every target's final status in completion order,
// for the detailed post-run view.
func RenderOutcomes(tracker *progress.Tracker) {
	outcomes := tracker.Outcomes()
	if len(outcomes) == 0 {
		return
	}
	pterm.DefaultSection.Println("Per-Target Outcomes")
	table := pterm.TableData{{"TARGET", "STATUS"}}
	for _, outcome := range outcomes {
		table = append(table, []string{outcome.Target, string(outcome.Status)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

// RenderLive prints the rolling most-recent view during execution.
func RenderLive(tracker *progress.Tracker) {
	for _, outcome := range tracker.Recent() {
		switch outcome.Status {
		case model.ItemStatusSuccess:
			pterm.Success.Printf("%s\n", outcome.Target)
		case model.ItemStatusSkipped:
			pterm.Info.Printf("%s (skipped)\n", outcome.Target)
		default:
			pterm.Error.Printf("%s\n", outcome.Target)
		}
	}
	pterm.Printf("Rate: %.1f items/s  ETA: %s\n", tracker.Rate(), tracker.ETA())
}
