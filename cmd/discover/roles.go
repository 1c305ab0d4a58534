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

func Roles() *cobra.Command {
	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "snapshot unmanaged roles into the account's roles file",
		Long: `roles appends the account's unmanaged roles into the per-account roles
	configuration file, creating it when absent`,
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

			path := filepath.Join(outputDirFlag, discovery.RolesFileName(identity.AccountID))
			if err := iamconfig.AppendRoles(path, identity.AccountID, cfg.Region, roles); err != nil {
				return err
			}

			section := reports.PrintSectionSnapshot(identity.AccountID, []string{path}, len(roles), 0)
			fmt.Println(reports.StyleMessage(string(section)))

			return nil
		},
	}

	return rolesCmd
}
