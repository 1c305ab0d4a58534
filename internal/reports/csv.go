package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// timestampLayout matches the suffix the export filenames carry.
const timestampLayout = "20060102_150405"

// RoleRow is one line of a roles export.
type RoleRow struct {
	RoleName  string
	RoleARN   string
	UnderCFN  bool
	StackName string
}

// StackResourceRow is one line of a stack resources export.
type StackResourceRow struct {
	StackName  string
	LogicalID  string
	PhysicalID string
	Type       string
	Status     string
}

// RolesCSVFileName returns the export filename for an account's role report.
func RolesCSVFileName(accountID string, now time.Time) string {
	return fmt.Sprintf("iam_roles_%s_%s.csv", accountID, now.Format(timestampLayout))
}

// StackRolesCSVFileName returns the export filename for an account's stack
// role resources report.
func StackRolesCSVFileName(accountID string, now time.Time) string {
	return fmt.Sprintf("cf_iam_roles_%s_%s.csv", accountID, now.Format(timestampLayout))
}

// WriteRolesCSV writes the full role report: every role with whether
// CloudFormation owns it, and which stack.
func WriteRolesCSV(w io.Writer, rows []RoleRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"RoleName", "RoleArn", "UnderCFN", "CFNStackName"}); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, row := range rows {
		underCFN := "No"
		if row.UnderCFN {
			underCFN = "Yes"
		}
		if err := writer.Write([]string{row.RoleName, row.RoleARN, underCFN, row.StackName}); err != nil {
			return fmt.Errorf("writing report row for %s: %w", row.RoleName, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteUnmanagedRolesCSV writes the report of roles CloudFormation does not
// own.
func WriteUnmanagedRolesCSV(w io.Writer, rows []RoleRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"RoleName", "RoleArn"}); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, row := range rows {
		if row.UnderCFN {
			continue
		}
		if err := writer.Write([]string{row.RoleName, row.RoleARN}); err != nil {
			return fmt.Errorf("writing report row for %s: %w", row.RoleName, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteStackResourcesCSV writes the raw stack role resource report.
func WriteStackResourcesCSV(w io.Writer, rows []StackResourceRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"StackName", "LogicalID", "PhysicalID", "Type", "Status"}); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.StackName, row.LogicalID, row.PhysicalID, row.Type, row.Status}); err != nil {
			return fmt.Errorf("writing report row for %s: %w", row.LogicalID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportCSV writes a report file at path using the given writer function.
func ExportCSV(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}
	return nil
}
