package provision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/acoder2b/iamcdkapp/configs"
	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
	"github.com/acoder2b/iamcdkapp/internal/provision"
)

var (
	configDirFlag   string
	regionFlag      string
	allAccountsFlag bool
)

func NewCommand() *cobra.Command {
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "provision the declared IAM configuration",
		Long: `provision loads every configuration file in the config directory, merges
	them per account and stack, and reconciles each stack against the
	target account`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("To provision the declared configuration, run:")
			fmt.Println("  iamcdkapp provision apply")
		},
	}

	defaults := configs.ReadConfig()
	provisionCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", defaults.ConfigDirectory, "directory holding the configuration files")
	provisionCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "AWS region to use")
	provisionCmd.PersistentFlags().BoolVar(&allAccountsFlag, "all-accounts", false, "apply stacks whose account does not match the caller's account")

	provisionCmd.AddCommand(Apply(), Plan())

	return provisionCmd
}

// run loads and merges the configuration directory and reconciles every
// stack, skipping stacks for other accounts unless --all-accounts is set.
func run(ctx context.Context, dryRun bool) ([]*provision.Result, error) {
	documents, err := iamconfig.LoadDir(configDirFlag)
	if err != nil {
		return nil, err
	}
	stacks := iamconfig.Merge(documents)
	log.Info().Msgf("loaded %d configuration files into %d stacks", len(documents), len(stacks))

	cfg, err := awsinternal.NewConfig(ctx, regionFlag)
	if err != nil {
		return nil, err
	}
	conf := awsinternal.NewConfiguration(cfg)

	identity, err := conf.GetCallerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	var results []*provision.Result
	for _, stack := range stacks {
		if stack.AccountID != identity.AccountID && !allAccountsFlag {
			log.Warn().Msgf("skipping stack %s: declared for account %s but the caller is %s",
				stack.Name(), stack.AccountID, identity.AccountID)
			continue
		}

		applier := provision.NewApplier(conf, stack.AccountID, dryRun)
		result, err := applier.ApplyStack(ctx, stack)
		if err != nil {
			return nil, fmt.Errorf("applying stack %s: %w", stack.Name(), err)
		}
		results = append(results, result)
	}

	return results, nil
}
