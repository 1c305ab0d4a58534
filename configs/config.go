package configs

import (
	stdLog "log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const DefaultVersion = "development"

// Version is used on the version command. The value is updated at build time
// via ldflag; built releases carry a semver value like 1.4.0.
var Version = DefaultVersion

// Config host application configuration
type Config struct {
	LocalOs           string
	LocalArchitecture string

	ConfigDirectory string `env:"IAM_ROLE_CONFIG_DIRECTORY" envDefault:"config"`
	AwsRegion       string `env:"AWS_REGION"`
	AwsProfile      string `env:"AWS_PROFILE"`
	LogPath         string `env:"IAMCDKAPP_LOG_PATH" envDefault:"logs"`

	HomePath      string
	AppFolderPath string
}

// ReadConfig loads the process environment, an optional .env file, and the
// derived paths into a Config.
func ReadConfig() *Config {
	config := Config{}

	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Msg("no .env file found, using the process environment")
	}

	if err := env.Parse(&config); err != nil {
		stdLog.Panicf("unable to load environment variables: %s", err)
	}

	config.LocalOs = runtime.GOOS
	config.LocalArchitecture = runtime.GOARCH

	homePath, err := os.UserHomeDir()
	if err != nil {
		stdLog.Panicf("unable to resolve the user home directory: %s", err)
	}
	config.HomePath = homePath
	config.AppFolderPath = filepath.Join(homePath, ".iamcdkapp")

	return &config
}
