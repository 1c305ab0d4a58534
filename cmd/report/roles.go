package report

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/reports"
)

func Roles() *cobra.Command {
	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "export every role with its CloudFormation ownership",
		Long:  "roles exports the full role inventory with whether CloudFormation owns each role, and which stack",
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

			rows, err := roleRows(ctx, conf)
			if err != nil {
				return err
			}

			path := filepath.Join(outputDirFlag, reports.RolesCSVFileName(identity.AccountID, time.Now()))
			if err := reports.ExportCSV(path, func(w io.Writer) error {
				return reports.WriteRolesCSV(w, rows)
			}); err != nil {
				return err
			}

			fmt.Println(reports.StyleMessage(string(reports.PrintSectionRolesExport(path, rows))))

			return nil
		},
	}

	return rolesCmd
}
