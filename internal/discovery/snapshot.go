package discovery

import (
	"fmt"

	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

// Stack names stamped into generated snapshots. The provisioning pipeline
// adopts resources under these stacks on its first run.
const (
	CombinedStackName = "iam-role-policies-pipeline-stack"
	PoliciesStackName = "iampipeline-iampolicies-stack"
)

// CombinedSnapshot builds the roles-and-policies snapshot for an account.
func CombinedSnapshot(accountID, region string, roles []iamconfig.Role, policies []iamconfig.Policy) *iamconfig.Config {
	return &iamconfig.Config{
		AccountIDs:  iamconfig.StringOrList{accountID},
		Region:      region,
		StackName:   CombinedStackName,
		IAMPolicies: policies,
		Roles:       roles,
	}
}

// PoliciesSnapshot builds the policies-only snapshot for an account.
func PoliciesSnapshot(accountID, region string, policies []iamconfig.Policy) *iamconfig.Config {
	return &iamconfig.Config{
		AccountIDs:  iamconfig.StringOrList{accountID},
		Region:      region,
		StackName:   PoliciesStackName,
		IAMPolicies: policies,
	}
}

// CombinedFileName returns the snapshot file name for an account. suffix
// carries the -PartN marker when the snapshot is split.
func CombinedFileName(accountID, suffix string) string {
	return fmt.Sprintf("iamrole-policies-%s%s.yaml", accountID, suffix)
}

// RolesFileName returns the append-mode roles file name for an account.
func RolesFileName(accountID string) string {
	return fmt.Sprintf("iamrole-%s.yaml", accountID)
}

// PoliciesFileName returns the policies snapshot file name for an account.
func PoliciesFileName(accountID string) string {
	return fmt.Sprintf("iampolicy-%s.yaml", accountID)
}
