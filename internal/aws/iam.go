package aws

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog/log"
)

// IsNoSuchEntity reports whether err is the IAM not-found error.
func IsNoSuchEntity(err error) bool {
	var notFound *iamtypes.NoSuchEntityException
	return errors.As(err, &notFound)
}

// ListRoles returns every role in the account.
func (conf *Configuration) ListRoles(ctx context.Context) ([]iamtypes.Role, error) {
	var roles []iamtypes.Role

	paginator := iam.NewListRolesPaginator(conf.IAM, &iam.ListRolesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing IAM roles: %w", err)
		}
		roles = append(roles, page.Roles...)
	}

	log.Info().Msgf("total roles fetched: %d", len(roles))
	return roles, nil
}

// GetRole fetches the full state of one role. A missing role comes back as
// (nil, nil) so callers can skip it without unwrapping errors.
func (conf *Configuration) GetRole(ctx context.Context, roleName string) (*iamtypes.Role, error) {
	out, err := conf.IAM.GetRole(ctx, &iam.GetRoleInput{
		RoleName: awssdk.String(roleName),
	})
	if err != nil {
		if IsNoSuchEntity(err) {
			log.Warn().Msgf("the role %s does not exist", roleName)
			return nil, nil
		}
		return nil, fmt.Errorf("fetching IAM role state for %s: %w", roleName, err)
	}
	return out.Role, nil
}

// ListAttachedRolePolicyARNs returns the ARNs of the managed policies
// attached to a role.
func (conf *Configuration) ListAttachedRolePolicyARNs(ctx context.Context, roleName string) ([]string, error) {
	var arns []string

	paginator := iam.NewListAttachedRolePoliciesPaginator(conf.IAM, &iam.ListAttachedRolePoliciesInput{
		RoleName: awssdk.String(roleName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing attached policies for role %s: %w", roleName, err)
		}
		for _, attached := range page.AttachedPolicies {
			arns = append(arns, awssdk.ToString(attached.PolicyArn))
		}
	}
	return arns, nil
}

// NamedDocument pairs an inline policy name with its decoded JSON document.
type NamedDocument struct {
	PolicyName string
	Document   string
}

// ListInlineRolePolicies fetches each inline policy embedded in a role,
// URL-decoding the documents the API hands back.
func (conf *Configuration) ListInlineRolePolicies(ctx context.Context, roleName string) ([]NamedDocument, error) {
	var documents []NamedDocument

	paginator := iam.NewListRolePoliciesPaginator(conf.IAM, &iam.ListRolePoliciesInput{
		RoleName: awssdk.String(roleName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing inline policies for role %s: %w", roleName, err)
		}
		for _, policyName := range page.PolicyNames {
			out, err := conf.IAM.GetRolePolicy(ctx, &iam.GetRolePolicyInput{
				RoleName:   awssdk.String(roleName),
				PolicyName: awssdk.String(policyName),
			})
			if err != nil {
				return nil, fmt.Errorf("fetching inline policy %s for role %s: %w", policyName, roleName, err)
			}
			documents = append(documents, NamedDocument{
				PolicyName: policyName,
				Document:   DecodePolicyDocument(awssdk.ToString(out.PolicyDocument)),
			})
		}
	}
	return documents, nil
}

// DecodePolicyDocument reverses the URL encoding IAM applies to policy
// documents in its responses. Undecodable input is returned as-is.
func DecodePolicyDocument(document string) string {
	decoded, err := url.QueryUnescape(document)
	if err != nil {
		return document
	}
	return decoded
}
