package configs

// code from: https://github.com/carolynvs/stingoftheviper

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// it follows Viper precedence:
// 1. explicit call to Set
// 2. flag
// 3. env
// 4. config
// 5. key/value store
// 6. default

const (
	// The name of our config file, without the file extension because viper
	// supports many different config file languages.
	defaultConfigFilename = "iamcdkapp-config"

	// The environment variable prefix of all environment variables bound to
	// our command line flags. For example, --input is bound to
	// IAMCDKAPP_INPUT.
	envPrefix = "IAMCDKAPP"
)

func InitializeViperConfig(cmd *cobra.Command) error {
	v := viper.New()

	v.SetConfigName(defaultConfigFilename)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	bindFlags(cmd, v)

	return nil
}

// Bind each cobra flag to its associated viper configuration (config file and
// environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to
		// their equivalent keys with underscores, e.g. --config-dir to
		// IAMCDKAPP_CONFIG_DIR
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

		// Apply the viper config value to the flag when the flag is not set
		// and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
}
