package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

func AppendCommand() *cobra.Command {
	var (
		sourceFlag string
		targetFlag string
	)

	appendCmd := &cobra.Command{
		Use:   "append",
		Short: "append the roles of one configuration file into another",
		Long: `append merges the roles declared in the source configuration file into
	the target file's roles list, creating the target when it doesn't exist`,
		RunE: func(_ *cobra.Command, _ []string) error {
			source, err := iamconfig.Load(sourceFlag)
			if err != nil {
				return err
			}
			if len(source.Roles) == 0 {
				return fmt.Errorf("source file %s declares no roles", sourceFlag)
			}

			accountID := ""
			if len(source.AccountIDs) > 0 {
				accountID = source.AccountIDs[0]
			}

			if err := iamconfig.AppendRoles(targetFlag, accountID, source.RegionOrDefault(), source.Roles); err != nil {
				return err
			}
			log.Info().Msgf("appended %d roles from %s into %s", len(source.Roles), sourceFlag, targetFlag)

			return nil
		},
	}

	appendCmd.Flags().StringVar(&sourceFlag, "source", "", "configuration file to read roles from (required)")
	appendCmd.Flags().StringVar(&targetFlag, "target", "", "configuration file to append roles into (required)")
	appendCmd.MarkFlagRequired("source")
	appendCmd.MarkFlagRequired("target")

	return appendCmd
}
