package discover

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/discovery"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
	"github.com/acoder2b/iamcdkapp/internal/reports"
)

func All() *cobra.Command {
	allCmd := &cobra.Command{
		Use:   "all",
		Short: "snapshot unmanaged roles and managed policies together",
		Long: `all writes the combined roles-and-policies snapshot for the account,
	split into parts when it grows past the per-stack resource limit`,
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

			inventory, err := conf.StackIAMInventory(ctx, identity.AccountID)
			if err != nil {
				return err
			}

			collector := newCollector(conf)
			roles, err := collector.Roles(ctx, inventory.Roles)
			if err != nil {
				return err
			}
			policies, err := collector.Policies(ctx, inventory.PolicyARNs)
			if err != nil {
				return err
			}

			snapshot := discovery.CombinedSnapshot(identity.AccountID, cfg.Region, roles, policies)

			var files []string
			for i, part := range iamconfig.Split(snapshot, iamconfig.MaxResourcesPerFile) {
				path := filepath.Join(outputDirFlag, discovery.CombinedFileName(identity.AccountID, iamconfig.PartSuffix(i)))
				if err := iamconfig.WriteFile(part, path); err != nil {
					return err
				}
				files = append(files, path)
			}

			section := reports.PrintSectionSnapshot(identity.AccountID, files, len(roles), len(policies))
			fmt.Println(reports.StyleMessage(string(section)))

			return nil
		},
	}

	return allCmd
}
