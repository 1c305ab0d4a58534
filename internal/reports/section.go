package reports

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/acoder2b/iamcdkapp/internal/provision"
)

const sectionWidth = 70

func sectionHeader(title string) string {
	return fmt.Sprintf("\n--- %s %s", title, strings.Repeat("-", max(0, sectionWidth-len(title)-5)))
}

// PrintSectionRolesExport summarizes a roles report export.
func PrintSectionRolesExport(path string, rows []RoleRow) []byte {
	managed := 0
	for _, row := range rows {
		if row.UnderCFN {
			managed++
		}
	}

	var data bytes.Buffer
	data.WriteString(sectionHeader("IAM Roles Report"))
	data.WriteString(fmt.Sprintf("\n File: %s", path))
	data.WriteString(fmt.Sprintf("\n Roles: %s", humanize.Comma(int64(len(rows)))))
	data.WriteString(fmt.Sprintf("\n Under CloudFormation: %s", humanize.Comma(int64(managed))))
	data.WriteString(fmt.Sprintf("\n Unmanaged: %s", humanize.Comma(int64(len(rows)-managed))))
	return data.Bytes()
}

// PrintSectionStackRolesExport summarizes a stack role resources export.
func PrintSectionStackRolesExport(path string, rows []StackResourceRow) []byte {
	stacks := map[string]struct{}{}
	for _, row := range rows {
		stacks[row.StackName] = struct{}{}
	}

	var data bytes.Buffer
	data.WriteString(sectionHeader("CloudFormation IAM Roles Report"))
	data.WriteString(fmt.Sprintf("\n File: %s", path))
	data.WriteString(fmt.Sprintf("\n Role resources: %s", humanize.Comma(int64(len(rows)))))
	data.WriteString(fmt.Sprintf("\n Stacks: %s", humanize.Comma(int64(len(stacks)))))
	return data.Bytes()
}

// PrintSectionSnapshot summarizes a discovery snapshot export.
func PrintSectionSnapshot(accountID string, files []string, roleCount, policyCount int) []byte {
	var data bytes.Buffer
	data.WriteString(sectionHeader("Configuration Snapshot"))
	data.WriteString(fmt.Sprintf("\n Account: %s", accountID))
	data.WriteString(fmt.Sprintf("\n Roles: %s", humanize.Comma(int64(roleCount))))
	data.WriteString(fmt.Sprintf("\n Policies: %s", humanize.Comma(int64(policyCount))))
	data.WriteString("\n Files: ")
	for _, file := range files {
		data.WriteString(fmt.Sprintf("\n  %s", file))
	}
	return data.Bytes()
}

// PrintSectionApply summarizes one stack's apply result.
func PrintSectionApply(result *provision.Result) []byte {
	var data bytes.Buffer
	data.WriteString(sectionHeader(result.StackName))
	data.WriteString(fmt.Sprintf("\n Account: %s", result.AccountID))
	if result.DryRun {
		data.WriteString(fmt.Sprintf("\n Mode: %s", color.YellowString("dry-run")))
	}
	data.WriteString(fmt.Sprintf("\n Created: %s  Updated: %s  Unchanged: %s",
		color.GreenString("%d", result.Count(provision.ActionCreate)),
		color.YellowString("%d", result.Count(provision.ActionUpdate)),
		color.WhiteString("%d", result.Count(provision.ActionUnchanged))))

	for _, action := range result.Actions {
		if action.Kind == provision.ActionUnchanged {
			continue
		}
		verb := color.GreenString(string(action.Kind))
		if action.Kind == provision.ActionUpdate {
			verb = color.YellowString(string(action.Kind))
		}
		data.WriteString(fmt.Sprintf("\n  %s %s %s", verb, action.Resource, action.Name))
		if action.Detail != "" {
			data.WriteString(fmt.Sprintf(" (%s)", action.Detail))
		}
	}
	return data.Bytes()
}

// ApplyHandoff assembles the apply summary for every stack into one buffer.
func ApplyHandoff(results []*provision.Result) bytes.Buffer {
	var data bytes.Buffer
	data.WriteString(strings.Repeat("-", sectionWidth))
	data.WriteString(fmt.Sprintf("\nApplied %s stack(s)", humanize.Comma(int64(len(results)))))
	for _, result := range results {
		data.Write(PrintSectionApply(result))
	}
	data.WriteString("\n" + strings.Repeat("-", sectionWidth))
	return data
}
