package report

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/discovery"
	"github.com/acoder2b/iamcdkapp/internal/reports"
)

var (
	regionFlag    string
	outputDirFlag string
)

func NewCommand() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "export CSV reports of the account's IAM role inventory",
		Long: `report exports CSV views of the account's roles: the full inventory with
	CloudFormation ownership, the unmanaged subset, and the raw stack role
	resources`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("To export a report, run:")
			fmt.Println("  iamcdkapp report roles")
		},
	}

	reportCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "AWS region to use")
	reportCmd.PersistentFlags().StringVar(&outputDirFlag, "output-dir", ".", "directory to write reports into")

	reportCmd.AddCommand(Roles(), Unmanaged(), Stacks())

	return reportCmd
}

// roleRows builds the report rows: every role passing the exclusion rules,
// marked with the CloudFormation stack that owns it, scanned across all
// enabled regions.
func roleRows(ctx context.Context, conf *awsinternal.Configuration) ([]reports.RoleRow, error) {
	stackRoles, err := conf.StackRolesAllRegions(ctx)
	if err != nil {
		return nil, err
	}

	all, err := conf.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	rules := discovery.DefaultExcludeRules()
	var rows []reports.RoleRow
	for _, role := range all {
		name := awssdk.ToString(role.RoleName)
		if rules.ExcludesRole(awssdk.ToString(role.Path), name) {
			continue
		}
		stackName, underCFN := stackRoles[name]
		rows = append(rows, reports.RoleRow{
			RoleName:  name,
			RoleARN:   awssdk.ToString(role.Arn),
			UnderCFN:  underCFN,
			StackName: stackName,
		})
	}
	return rows, nil
}
