package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acoder2b/iamcdkapp/cmd/discover"
	"github.com/acoder2b/iamcdkapp/cmd/provision"
	"github.com/acoder2b/iamcdkapp/cmd/report"
	"github.com/acoder2b/iamcdkapp/configs"
	"github.com/acoder2b/iamcdkapp/internal/logging"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iamcdkapp",
		Short: "declarative IAM role and policy automation",
		Long: `iamcdkapp snapshots the IAM roles and customer managed policies of an
	AWS account into declarative YAML, provisions that configuration
	back against the account, and exports CSV reports of the role
	inventory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configs.InitializeViperConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Println("To learn more about iamcdkapp, run:\n\tiamcdkapp help")

			return cmd.Help()
		},
	}

	cmd.AddCommand(
		versionCmd,
		WhoamiCommand(),
		DetectCommand(),
		AppendCommand(),
		ResourceMapCommand(),
		discover.NewCommand(),
		provision.NewCommand(),
		report.NewCommand(),
	)

	cobra.OnInitialize(logging.Init)

	return cmd
}

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		return fmt.Errorf("error executing command: %w", err)
	}

	return nil
}
