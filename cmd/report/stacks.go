package report

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/reports"
)

func Stacks() *cobra.Command {
	stacksCmd := &cobra.Command{
		Use:   "stacks",
		Short: "export the raw stack role resources",
		Long:  "stacks exports every IAM role resource of every CloudFormation stack in the configured region",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := awsinternal.NewConfig(ctx, regionFlag)
			if err != nil {
				return err
			}
			conf := awsinternal.NewConfiguration(cfg)

			identity, err := conf.GetCallerIdentity(ctx)
			if err != nil {
				return err
			}

			resources, err := conf.StackRoleResources(ctx)
			if err != nil {
				return err
			}

			rows := make([]reports.StackResourceRow, 0, len(resources))
			for _, resource := range resources {
				rows = append(rows, reports.StackResourceRow{
					StackName:  resource.StackName,
					LogicalID:  resource.LogicalID,
					PhysicalID: resource.PhysicalID,
					Type:       resource.Type,
					Status:     resource.Status,
				})
			}

			path := filepath.Join(outputDirFlag, reports.StackRolesCSVFileName(identity.AccountID, time.Now()))
			if err := reports.ExportCSV(path, func(w io.Writer) error {
				return reports.WriteStackResourcesCSV(w, rows)
			}); err != nil {
				return err
			}

			fmt.Println(reports.StyleMessage(string(reports.PrintSectionStackRolesExport(path, rows))))

			return nil
		},
	}

	return stacksCmd
}
