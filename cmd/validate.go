package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/identityops/idassign/report"
	"github.com/identityops/idassign/resolver"
)

var validateFlags bulkFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and resolve an input file without making changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		requests, validationErrs, err := parseInputFile(validateFlags)
		if err != nil {
			return err
		}
		report.RenderValidationErrors(validationErrs)
		if len(requests) == 0 {
			return fmt.Errorf("no valid requests in %s", validateFlags.file)
		}

		res := resolver.New(buildDirectoryClient())
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

		unresolved := 0
		for _, req := range resolved {
			if !req.ResolutionSuccess {
				unresolved++
			}
		}
		if len(validationErrs) > 0 || unresolved > 0 {
			return fmt.Errorf("%d row(s) failed validation, %d request(s) failed resolution", len(validationErrs), unresolved)
		}
		pterm.Success.Printf("All %d request(s) are valid and resolvable.\n", len(resolved))
		return nil
	},
}

func init() {
	registerBulkFlags(validateCmd, &validateFlags)
	rootCmd.AddCommand(validateCmd)
}
