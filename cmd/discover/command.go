package discover

import (
	"fmt"

	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/discovery"
)

var (
	regionFlag       string
	outputDirFlag    string
	excludeRolesFlag []string
)

func NewCommand() *cobra.Command {
	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "snapshot unmanaged IAM resources into configuration files",
		Long: `discover walks the account's IAM inventory, filters out reserved and
	CloudFormation-owned resources, and writes the remainder as declarative
	configuration snapshots`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("To discover IAM resources, run:")
			fmt.Println("  iamcdkapp discover all")
		},
	}

	discoverCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "AWS region to use")
	discoverCmd.PersistentFlags().StringVar(&outputDirFlag, "output-dir", ".", "directory to write snapshots into")
	discoverCmd.PersistentFlags().StringSliceVar(&excludeRolesFlag, "exclude-role", nil, "exact role names to leave out of the snapshot, repeatable")

	discoverCmd.AddCommand(All(), Roles(), Policies())

	return discoverCmd
}

// newCollector applies the --exclude-role names on top of the default rules.
func newCollector(conf *awsinternal.Configuration) *discovery.Collector {
	collector := discovery.NewCollector(conf)
	collector.Rules.RoleNames = excludeRolesFlag
	return collector
}
