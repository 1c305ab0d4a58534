package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
)

func WhoamiCommand() *cobra.Command {
	var regionFlag string

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "print the AWS caller identity",
		Long:  "print the account id, ARN, and user id of the configured AWS credentials",
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

			fmt.Printf("Account: %s\n", identity.AccountID)
			fmt.Printf("Arn: %s\n", identity.ARN)
			fmt.Printf("UserId: %s\n", identity.UserID)

			return nil
		},
	}

	whoamiCmd.Flags().StringVar(&regionFlag, "region", "", "AWS region to use")

	return whoamiCmd
}
