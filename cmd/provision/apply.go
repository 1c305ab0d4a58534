package provision

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acoder2b/iamcdkapp/internal/reports"
)

func Apply() *cobra.Command {
	var (
		dryRunFlag bool
		silentFlag bool
	)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "create and update the declared roles and policies",
		Long: `apply reconciles every declared stack against the live account: missing
	resources are created, drifted ones updated, and nothing is ever deleted`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := run(cmd.Context(), dryRunFlag)
			if err != nil {
				return err
			}

			handoff := reports.ApplyHandoff(results)
			if dryRunFlag || silentFlag {
				fmt.Println(reports.StyleMessage(handoff.String()))
				return nil
			}
			reports.CommandSummary(handoff)

			return nil
		},
	}

	applyCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "report intended changes without calling mutating APIs")
	applyCmd.Flags().BoolVar(&silentFlag, "silent", false, "print the summary instead of the scrollable screen")

	return applyCmd
}
