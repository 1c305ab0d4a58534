package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/discovery"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

func DetectCommand() *cobra.Command {
	var (
		inputFlag     string
		outputDirFlag string
		regionFlag    string
	)

	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "build role configuration from a CSV of role names",
		Long: `detect reads a roles CSV (RoleName, RoleArn header), fetches the live
	state of each role, and writes a roles-only configuration snapshot`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			names, err := roleNamesFromCSV(inputFlag)
			if err != nil {
				return err
			}
			log.Info().Msgf("read %d role names from %s", len(names), inputFlag)

			cfg, err := awsinternal.NewConfig(ctx, regionFlag)
			if err != nil {
				return err
			}
			conf := awsinternal.NewConfiguration(cfg)

			identity, err := conf.GetCallerIdentity(ctx)
			if err != nil {
				return err
			}

			collector := discovery.NewCollector(conf)
			roles, err := collector.RolesByName(ctx, names)
			if err != nil {
				return err
			}

			config := &iamconfig.Config{
				AccountIDs: iamconfig.StringOrList{identity.AccountID},
				Region:     cfg.Region,
				Roles:      roles,
			}

			fileName := fmt.Sprintf("iam_roles_%s.yaml", time.Now().Format("20060102_150405"))
			return iamconfig.WriteFile(config, filepath.Join(outputDirFlag, fileName))
		},
	}

	detectCmd.Flags().StringVar(&inputFlag, "input", "", "roles CSV to read (required)")
	detectCmd.Flags().StringVar(&outputDirFlag, "output-dir", ".", "directory to write the snapshot into")
	detectCmd.Flags().StringVar(&regionFlag, "region", "", "AWS region to use")
	detectCmd.MarkFlagRequired("input")

	return detectCmd
}

// roleNamesFromCSV reads the RoleName column of a roles export. The header
// row must carry RoleName and RoleArn.
func roleNamesFromCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roles CSV %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading roles CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("roles CSV %s is empty", path)
	}

	nameColumn := -1
	arnColumn := -1
	for i, column := range records[0] {
		switch column {
		case "RoleName":
			nameColumn = i
		case "RoleArn":
			arnColumn = i
		}
	}
	if nameColumn < 0 || arnColumn < 0 {
		return nil, fmt.Errorf("roles CSV %s must carry RoleName and RoleArn header columns", path)
	}

	var names []string
	for _, record := range records[1:] {
		if nameColumn >= len(record) || record[nameColumn] == "" {
			continue
		}
		names = append(names, record[nameColumn])
	}
	return names, nil
}
