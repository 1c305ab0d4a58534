package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRolesCSVFileName(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 5, 0, time.UTC)

	require.Equal(t, "iam_roles_123456789012_20240315_093005.csv", RolesCSVFileName("123456789012", now))
	require.Equal(t, "cf_iam_roles_123456789012_20240315_093005.csv", StackRolesCSVFileName("123456789012", now))
}

func TestWriteRolesCSV(t *testing.T) {
	rows := []RoleRow{
		{RoleName: "deployer", RoleARN: "arn:aws:iam::123456789012:role/deployer", UnderCFN: true, StackName: "pipeline"},
		{RoleName: "ops", RoleARN: "arn:aws:iam::123456789012:role/ops"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRolesCSV(&buf, rows))

	want := "RoleName,RoleArn,UnderCFN,CFNStackName\n" +
		"deployer,arn:aws:iam::123456789012:role/deployer,Yes,pipeline\n" +
		"ops,arn:aws:iam::123456789012:role/ops,No,\n"
	require.Equal(t, want, buf.String())
}

func TestWriteUnmanagedRolesCSV(t *testing.T) {
	rows := []RoleRow{
		{RoleName: "deployer", RoleARN: "arn:aws:iam::123456789012:role/deployer", UnderCFN: true, StackName: "pipeline"},
		{RoleName: "ops", RoleARN: "arn:aws:iam::123456789012:role/ops"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUnmanagedRolesCSV(&buf, rows))

	want := "RoleName,RoleArn\n" +
		"ops,arn:aws:iam::123456789012:role/ops\n"
	require.Equal(t, want, buf.String())
}

func TestWriteStackResourcesCSV(t *testing.T) {
	rows := []StackResourceRow{
		{StackName: "pipeline", LogicalID: "DeployRole", PhysicalID: "deployer", Type: "AWS::IAM::Role", Status: "CREATE_COMPLETE"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStackResourcesCSV(&buf, rows))

	want := "StackName,LogicalID,PhysicalID,Type,Status\n" +
		"pipeline,DeployRole,deployer,AWS::IAM::Role,CREATE_COMPLETE\n"
	require.Equal(t, want, buf.String())
}
