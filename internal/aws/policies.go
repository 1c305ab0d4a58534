package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog/log"
)

// ListLocalPolicies returns every customer managed policy in the account.
func (conf *Configuration) ListLocalPolicies(ctx context.Context) ([]iamtypes.Policy, error) {
	var policies []iamtypes.Policy

	paginator := iam.NewListPoliciesPaginator(conf.IAM, &iam.ListPoliciesInput{
		Scope: iamtypes.PolicyScopeTypeLocal,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing IAM policies: %w", err)
		}
		policies = append(policies, page.Policies...)
	}

	log.Info().Msgf("total customer-managed policies fetched: %d", len(policies))
	return policies, nil
}

// PolicyDetail is the full state of a customer managed policy: its default
// version document plus the metadata the snapshot schema carries.
type PolicyDetail struct {
	PolicyName  string
	Description string
	Path        string
	Document    string
	Tags        []iamtypes.Tag
}

// GetPolicyDetail fetches a policy, its default version document, and its
// tags. A missing policy comes back as (nil, nil).
func (conf *Configuration) GetPolicyDetail(ctx context.Context, policyARN string) (*PolicyDetail, error) {
	out, err := conf.IAM.GetPolicy(ctx, &iam.GetPolicyInput{
		PolicyArn: awssdk.String(policyARN),
	})
	if err != nil {
		if IsNoSuchEntity(err) {
			log.Warn().Msgf("the policy %s does not exist", policyARN)
			return nil, nil
		}
		return nil, fmt.Errorf("fetching IAM policy details for %s: %w", policyARN, err)
	}
	policy := out.Policy

	version, err := conf.IAM.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
		PolicyArn: awssdk.String(policyARN),
		VersionId: policy.DefaultVersionId,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching default version for policy %s: %w", policyARN, err)
	}

	tags, err := conf.IAM.ListPolicyTags(ctx, &iam.ListPolicyTagsInput{
		PolicyArn: awssdk.String(policyARN),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching tags for policy %s: %w", policyARN, err)
	}

	return &PolicyDetail{
		PolicyName:  awssdk.ToString(policy.PolicyName),
		Description: awssdk.ToString(policy.Description),
		Path:        awssdk.ToString(policy.Path),
		Document:    DecodePolicyDocument(awssdk.ToString(version.PolicyVersion.Document)),
		Tags:        tags.Tags,
	}, nil
}

// maxPolicyVersions is the IAM limit on managed policy versions.
const maxPolicyVersions = 5

// PruneOldestPolicyVersion deletes the oldest non-default version of a
// policy when it already carries the maximum number of versions, making room
// for CreatePolicyVersion.
func (conf *Configuration) PruneOldestPolicyVersion(ctx context.Context, policyARN string) error {
	out, err := conf.IAM.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{
		PolicyArn: awssdk.String(policyARN),
	})
	if err != nil {
		return fmt.Errorf("listing versions for policy %s: %w", policyARN, err)
	}
	if len(out.Versions) < maxPolicyVersions {
		return nil
	}

	// Versions come back newest first.
	for i := len(out.Versions) - 1; i >= 0; i-- {
		version := out.Versions[i]
		if version.IsDefaultVersion {
			continue
		}
		versionID := awssdk.ToString(version.VersionId)
		if _, err := conf.IAM.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
			PolicyArn: awssdk.String(policyARN),
			VersionId: awssdk.String(versionID),
		}); err != nil {
			return fmt.Errorf("deleting version %s of policy %s: %w", versionID, policyARN, err)
		}
		log.Info().Msgf("pruned version %s of policy %s", versionID, policyARN)
		return nil
	}
	return nil
}
