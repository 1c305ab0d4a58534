package provision

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acoder2b/iamcdkapp/internal/reports"
)

func Plan() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "show what apply would change",
		Long:  "plan runs the apply pipeline without calling mutating APIs and prints the intended actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := run(cmd.Context(), true)
			if err != nil {
				return err
			}

			handoff := reports.ApplyHandoff(results)
			fmt.Println(reports.StyleMessage(handoff.String()))

			return nil
		},
	}

	return planCmd
}
