package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog/log"
)

// CreateRole creates an IAM role and returns it. boundaryARN and tags are
// optional.
func (conf *Configuration) CreateRole(ctx context.Context, roleName, path, description, trustPolicyJSON string, sessionSeconds int32, boundaryARN string, tags []iamtypes.Tag) (*iamtypes.Role, error) {
	input := &iam.CreateRoleInput{
		RoleName:                 &roleName,
		AssumeRolePolicyDocument: &trustPolicyJSON,
		MaxSessionDuration:       awssdk.Int32(sessionSeconds),
	}
	if path != "" {
		input.Path = &path
	}
	if description != "" {
		input.Description = &description
	}
	if boundaryARN != "" {
		input.PermissionsBoundary = &boundaryARN
	}
	if len(tags) > 0 {
		input.Tags = tags
	}

	out, err := conf.IAM.CreateRole(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create role %s: %w", roleName, err)
	}
	log.Info().Msgf("created role %s", roleName)
	return out.Role, nil
}

// UpdateRole updates a role's description and max session duration.
func (conf *Configuration) UpdateRole(ctx context.Context, roleName, description string, sessionSeconds int32) error {
	input := &iam.UpdateRoleInput{
		RoleName:           &roleName,
		MaxSessionDuration: awssdk.Int32(sessionSeconds),
	}
	if description != "" {
		input.Description = &description
	}

	if _, err := conf.IAM.UpdateRole(ctx, input); err != nil {
		return fmt.Errorf("failed to update role %s: %w", roleName, err)
	}
	return nil
}

// UpdateAssumeRolePolicy replaces a role's trust policy document.
func (conf *Configuration) UpdateAssumeRolePolicy(ctx context.Context, roleName, trustPolicyJSON string) error {
	_, err := conf.IAM.UpdateAssumeRolePolicy(ctx, &iam.UpdateAssumeRolePolicyInput{
		RoleName:       &roleName,
		PolicyDocument: &trustPolicyJSON,
	})
	if err != nil {
		return fmt.Errorf("failed to update trust policy for role %s: %w", roleName, err)
	}
	log.Info().Msgf("updated trust policy for role %s", roleName)
	return nil
}

// TagRole applies tags to a role.
func (conf *Configuration) TagRole(ctx context.Context, roleName string, tags []iamtypes.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := conf.IAM.TagRole(ctx, &iam.TagRoleInput{
		RoleName: &roleName,
		Tags:     tags,
	})
	if err != nil {
		return fmt.Errorf("failed to tag role %s: %w", roleName, err)
	}
	return nil
}

// PutRolePermissionsBoundary sets a role's permissions boundary.
func (conf *Configuration) PutRolePermissionsBoundary(ctx context.Context, roleName, boundaryARN string) error {
	_, err := conf.IAM.PutRolePermissionsBoundary(ctx, &iam.PutRolePermissionsBoundaryInput{
		RoleName:            &roleName,
		PermissionsBoundary: &boundaryARN,
	})
	if err != nil {
		return fmt.Errorf("failed to set permissions boundary on role %s: %w", roleName, err)
	}
	return nil
}

// AttachRolePolicy attaches a managed policy to a role.
func (conf *Configuration) AttachRolePolicy(ctx context.Context, roleName, policyARN string) error {
	_, err := conf.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  &roleName,
		PolicyArn: &policyARN,
	})
	if err != nil {
		return fmt.Errorf("failed to attach policy %s to role %s: %w", policyARN, roleName, err)
	}
	log.Info().Msgf("attached policy %s to role %s", policyARN, roleName)
	return nil
}

// PutRolePolicy writes an inline policy on a role.
func (conf *Configuration) PutRolePolicy(ctx context.Context, roleName, policyName, documentJSON string) error {
	_, err := conf.IAM.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       &roleName,
		PolicyName:     &policyName,
		PolicyDocument: &documentJSON,
	})
	if err != nil {
		return fmt.Errorf("failed to put inline policy %s on role %s: %w", policyName, roleName, err)
	}
	log.Info().Msgf("put inline policy %s on role %s", policyName, roleName)
	return nil
}

// CreatePolicy creates a customer managed policy and returns its ARN.
func (conf *Configuration) CreatePolicy(ctx context.Context, policyName, path, description, documentJSON string, tags []iamtypes.Tag) (string, error) {
	input := &iam.CreatePolicyInput{
		PolicyName:     &policyName,
		PolicyDocument: &documentJSON,
	}
	if path != "" {
		input.Path = &path
	}
	if description != "" {
		input.Description = &description
	}
	if len(tags) > 0 {
		input.Tags = tags
	}

	out, err := conf.IAM.CreatePolicy(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to create policy %s: %w", policyName, err)
	}
	arn := awssdk.ToString(out.Policy.Arn)
	log.Info().Msgf("created policy %s", arn)
	return arn, nil
}

// CreatePolicyVersion publishes a new default version of a managed policy,
// pruning the oldest non-default version first when the policy is at the
// version limit.
func (conf *Configuration) CreatePolicyVersion(ctx context.Context, policyARN, documentJSON string) error {
	if err := conf.PruneOldestPolicyVersion(ctx, policyARN); err != nil {
		return err
	}

	_, err := conf.IAM.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      &policyARN,
		PolicyDocument: &documentJSON,
		SetAsDefault:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to create policy version for %s: %w", policyARN, err)
	}
	log.Info().Msgf("published new default version of policy %s", policyARN)
	return nil
}

// TagPolicy applies tags to a managed policy.
func (conf *Configuration) TagPolicy(ctx context.Context, policyARN string, tags []iamtypes.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := conf.IAM.TagPolicy(ctx, &iam.TagPolicyInput{
		PolicyArn: &policyARN,
		Tags:      tags,
	})
	if err != nil {
		return fmt.Errorf("failed to tag policy %s: %w", policyARN, err)
	}
	return nil
}
