package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog/log"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

// Applier reconciles declared stacks against the live account. It only
// creates and updates; deletion stays with the operator.
type Applier struct {
	AWS       *awsinternal.Configuration
	AccountID string
	DryRun    bool
}

// NewApplier builds an applier targeting the given account.
func NewApplier(conf *awsinternal.Configuration, accountID string, dryRun bool) *Applier {
	return &Applier{AWS: conf, AccountID: accountID, DryRun: dryRun}
}

// ApplyStack reconciles every policy and role the stack declares, policies
// first so role attachments can reference them.
func (a *Applier) ApplyStack(ctx context.Context, stack *iamconfig.Stack) (*Result, error) {
	result := &Result{
		AccountID: stack.AccountID,
		StackName: stack.Name(),
		DryRun:    a.DryRun,
	}
	log.Info().Msgf("applying stack %s to account %s (%d policies, %d roles)",
		result.StackName, stack.AccountID, len(stack.Policies), len(stack.Roles))

	for i := range stack.Policies {
		if err := a.applyPolicy(ctx, result, &stack.Policies[i]); err != nil {
			return nil, err
		}
	}
	for i := range stack.Roles {
		if err := a.applyRole(ctx, result, &stack.Roles[i]); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// PolicyARN returns the ARN a managed policy declaration resolves to in the
// target account.
func PolicyARN(accountID, path, policyName string) string {
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("arn:aws:iam::%s:policy%s%s", accountID, path, policyName)
}

func (a *Applier) applyPolicy(ctx context.Context, result *Result, pol *iamconfig.Policy) error {
	arn := PolicyARN(a.AccountID, pol.Path, pol.PolicyName)

	desired, err := json.Marshal(pol.PolicyDocument)
	if err != nil {
		return fmt.Errorf("unable to encode document for policy %s: %w", pol.PolicyName, err)
	}
	desiredJSON := string(desired)

	detail, err := a.AWS.GetPolicyDetail(ctx, arn)
	if err != nil {
		return err
	}

	if detail == nil {
		result.record(ActionCreate, "policy", pol.PolicyName, "create managed policy")
		if a.DryRun {
			return nil
		}
		if _, err := a.AWS.CreatePolicy(ctx, pol.PolicyName, pol.Path, pol.Description, desiredJSON, iamTags(pol.Tags)); err != nil {
			return err
		}
		return nil
	}

	if DocumentsEquivalent(detail.Document, desiredJSON) {
		result.record(ActionUnchanged, "policy", pol.PolicyName, "")
		return nil
	}

	result.record(ActionUpdate, "policy", pol.PolicyName, "publish new default version")
	if a.DryRun {
		return nil
	}
	if err := a.AWS.CreatePolicyVersion(ctx, arn, desiredJSON); err != nil {
		return err
	}
	return a.AWS.TagPolicy(ctx, arn, iamTags(pol.Tags))
}

func (a *Applier) applyRole(ctx context.Context, result *Result, role *iamconfig.Role) error {
	trustJSON, err := TrustPolicyJSON(role)
	if err != nil {
		return err
	}

	live, err := a.AWS.GetRole(ctx, role.RoleName)
	if err != nil {
		return err
	}

	if live == nil {
		return a.createRole(ctx, result, role, trustJSON)
	}
	return a.updateRole(ctx, result, role, live, trustJSON)
}

func (a *Applier) createRole(ctx context.Context, result *Result, role *iamconfig.Role, trustJSON string) error {
	detail := fmt.Sprintf("create role with %d managed and %d inline policies",
		len(role.ManagedPolicies), len(role.InlinePolicies))
	result.record(ActionCreate, "role", role.RoleName, detail)
	if a.DryRun {
		return nil
	}

	if _, err := a.AWS.CreateRole(ctx, role.RoleName, role.IAMPath, role.Description,
		trustJSON, role.SessionDurationOrDefault(), role.Boundary(), iamTags(role.Tags)); err != nil {
		return err
	}

	for _, arn := range role.ManagedPolicies {
		if err := a.AWS.AttachRolePolicy(ctx, role.RoleName, arn); err != nil {
			return err
		}
	}
	return a.putInlinePolicies(ctx, role, nil)
}

func (a *Applier) updateRole(ctx context.Context, result *Result, role *iamconfig.Role, live *iamtypes.Role, trustJSON string) error {
	var changes []string

	description := awssdk.ToString(live.Description)
	session := awssdk.ToInt32(live.MaxSessionDuration)
	if description != role.Description || session != role.SessionDurationOrDefault() {
		changes = append(changes, "role settings")
		if !a.DryRun {
			if err := a.AWS.UpdateRole(ctx, role.RoleName, role.Description, role.SessionDurationOrDefault()); err != nil {
				return err
			}
		}
	}

	liveTrust := awsinternal.DecodePolicyDocument(awssdk.ToString(live.AssumeRolePolicyDocument))
	if !DocumentsEquivalent(liveTrust, trustJSON) {
		changes = append(changes, "trust policy")
		if !a.DryRun {
			if err := a.AWS.UpdateAssumeRolePolicy(ctx, role.RoleName, trustJSON); err != nil {
				return err
			}
		}
	}

	if boundary := role.Boundary(); boundary != "" {
		liveBoundary := ""
		if live.PermissionsBoundary != nil {
			liveBoundary = awssdk.ToString(live.PermissionsBoundary.PermissionsBoundaryArn)
		}
		if boundary != liveBoundary {
			changes = append(changes, "permissions boundary")
			if !a.DryRun {
				if err := a.AWS.PutRolePermissionsBoundary(ctx, role.RoleName, boundary); err != nil {
					return err
				}
			}
		}
	}

	missing, err := a.missingManagedPolicies(ctx, role)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		changes = append(changes, fmt.Sprintf("%d managed policy attachments", len(missing)))
		if !a.DryRun {
			for _, arn := range missing {
				if err := a.AWS.AttachRolePolicy(ctx, role.RoleName, arn); err != nil {
					return err
				}
			}
		}
	}

	drifted, err := a.driftedInlinePolicies(ctx, role)
	if err != nil {
		return err
	}
	if len(drifted) > 0 {
		changes = append(changes, fmt.Sprintf("inline policies: %s", strings.Join(drifted, ", ")))
		if !a.DryRun {
			if err := a.putInlinePolicies(ctx, role, drifted); err != nil {
				return err
			}
		}
	}

	if !a.DryRun && len(role.Tags) > 0 {
		if err := a.AWS.TagRole(ctx, role.RoleName, iamTags(role.Tags)); err != nil {
			return err
		}
	}

	if len(changes) == 0 {
		result.record(ActionUnchanged, "role", role.RoleName, "")
		return nil
	}
	result.record(ActionUpdate, "role", role.RoleName, strings.Join(changes, "; "))
	return nil
}

// missingManagedPolicies returns the declared managed policy ARNs not yet
// attached to the live role.
func (a *Applier) missingManagedPolicies(ctx context.Context, role *iamconfig.Role) ([]string, error) {
	if len(role.ManagedPolicies) == 0 {
		return nil, nil
	}

	attached, err := a.AWS.ListAttachedRolePolicyARNs(ctx, role.RoleName)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(attached))
	for _, arn := range attached {
		have[arn] = struct{}{}
	}

	var missing []string
	for _, arn := range role.ManagedPolicies {
		if _, ok := have[arn]; !ok {
			missing = append(missing, arn)
		}
	}
	return missing, nil
}

// driftedInlinePolicies returns the names of declared inline policies that
// are missing from the live role or differ from it.
func (a *Applier) driftedInlinePolicies(ctx context.Context, role *iamconfig.Role) ([]string, error) {
	if len(role.InlinePolicies) == 0 {
		return nil, nil
	}

	liveInline, err := a.AWS.ListInlineRolePolicies(ctx, role.RoleName)
	if err != nil {
		return nil, err
	}
	live := make(map[string]string, len(liveInline))
	for _, doc := range liveInline {
		live[doc.PolicyName] = doc.Document
	}

	var drifted []string
	for _, inline := range role.InlinePolicies {
		desired, err := inlinePolicyJSON(inline)
		if err != nil {
			return nil, err
		}
		liveDoc, ok := live[inline.PolicyName]
		if !ok || !DocumentsEquivalent(liveDoc, desired) {
			drifted = append(drifted, inline.PolicyName)
		}
	}
	return drifted, nil
}

// putInlinePolicies writes the role's inline policies. When only is non-nil,
// just the named policies are written.
func (a *Applier) putInlinePolicies(ctx context.Context, role *iamconfig.Role, only []string) error {
	wanted := map[string]struct{}{}
	for _, name := range only {
		wanted[name] = struct{}{}
	}

	for _, inline := range role.InlinePolicies {
		if only != nil {
			if _, ok := wanted[inline.PolicyName]; !ok {
				continue
			}
		}
		document, err := inlinePolicyJSON(inline)
		if err != nil {
			return err
		}
		if err := a.AWS.PutRolePolicy(ctx, role.RoleName, inline.PolicyName, document); err != nil {
			return err
		}
	}
	return nil
}

func inlinePolicyJSON(inline iamconfig.InlinePolicy) (string, error) {
	document := iamconfig.StripEmptyConditions(inline.PolicyDocument)
	out, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("unable to encode inline policy %s: %w", inline.PolicyName, err)
	}
	return string(out), nil
}

func iamTags(tags []iamconfig.Tag) []iamtypes.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]iamtypes.Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, iamtypes.Tag{
			Key:   awssdk.String(tag.Key),
			Value: awssdk.String(tag.Value),
		})
	}
	return out
}
