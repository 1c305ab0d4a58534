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

func Policies() *cobra.Command {
	policiesCmd := &cobra.Command{
		Use:   "policies",
		Short: "snapshot unmanaged customer managed policies",
		Long:  "policies writes the account's unmanaged customer managed policies as a policies-only snapshot",
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
			policies, err := collector.Policies(ctx, inventory.PolicyARNs)
			if err != nil {
				return err
			}

			snapshot := discovery.PoliciesSnapshot(identity.AccountID, cfg.Region, policies)
			path := filepath.Join(outputDirFlag, discovery.PoliciesFileName(identity.AccountID))
			if err := iamconfig.WriteFile(snapshot, path); err != nil {
				return err
			}

			section := reports.PrintSectionSnapshot(identity.AccountID, []string{path}, 0, len(policies))
			fmt.Println(reports.StyleMessage(string(section)))

			return nil
		},
	}

	return policiesCmd
}
