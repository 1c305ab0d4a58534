package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acoder2b/iamcdkapp/configs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version number for iamcdkapp-cli",
	Long:  "print the version number for iamcdkapp-cli",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("iamcdkapp-cli golang utility version: %s\n", configs.Version)
	},
}
