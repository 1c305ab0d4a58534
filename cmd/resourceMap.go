package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/resourcemap"
)

func ResourceMapCommand() *cobra.Command {
	var (
		accountIDFlag       string
		accountFileNameFlag bool
		outputDirFlag       string
	)

	resourceMapCmd := &cobra.Command{
		Use:   "resource-map <template>",
		Short: "index the IAM resources of a synthesized template",
		Long: `resource-map parses a CloudFormation or CDK-synthesized template and
	writes a JSON index of its IAM roles and managed policies by logical id,
	named after the stack the template belongs to`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading template %s: %w", args[0], err)
			}

			accountID := accountIDFlag
			if accountID == "" {
				cfg, err := awsinternal.NewConfig(ctx, "")
				if err != nil {
					return err
				}
				identity, err := awsinternal.NewConfiguration(cfg).GetCallerIdentity(ctx)
				if err != nil {
					return err
				}
				accountID = identity.AccountID
			}

			index, err := resourcemap.Parse(data, accountID)
			if err != nil {
				return err
			}

			fileName, err := index.FileName(accountID, accountFileNameFlag)
			if err != nil {
				return err
			}

			return index.WriteFile(filepath.Join(outputDirFlag, fileName))
		},
	}

	resourceMapCmd.Flags().StringVar(&accountIDFlag, "account-id", "", "account id for policy ARNs, defaults to the caller's account")
	resourceMapCmd.Flags().BoolVar(&accountFileNameFlag, "account-file-name", false, "name the output resource-map-<account>.json instead of <stack>.json")
	resourceMapCmd.Flags().StringVar(&outputDirFlag, "output-dir", ".", "directory to write the resource map into")

	return resourceMapCmd
}
