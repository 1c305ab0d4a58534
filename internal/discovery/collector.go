package discovery

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog/log"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

// Collector walks an account's IAM inventory and produces declarative
// configuration for the resources no pipeline already owns.
type Collector struct {
	AWS   *awsinternal.Configuration
	Rules ExcludeRules
}

// NewCollector builds a collector with the default exclusion rules.
func NewCollector(conf *awsinternal.Configuration) *Collector {
	return &Collector{AWS: conf, Rules: DefaultExcludeRules()}
}

// Roles returns the declarative form of every manageable role in the
// account. Roles present in the CloudFormation inventory are skipped, keyed
// by role name.
func (c *Collector) Roles(ctx context.Context, stackRoles map[string]string) ([]iamconfig.Role, error) {
	all, err := c.AWS.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	var out []iamconfig.Role
	for _, role := range all {
		name := awssdk.ToString(role.RoleName)
		path := awssdk.ToString(role.Path)

		if c.Rules.ExcludesRole(path, name) {
			log.Debug().Msgf("skipping reserved role %s (path %s)", name, path)
			continue
		}
		if stack, ok := stackRoles[name]; ok {
			log.Debug().Msgf("skipping role %s, owned by stack %s", name, stack)
			continue
		}

		full, err := c.AWS.GetRole(ctx, name)
		if err != nil {
			return nil, err
		}
		if full == nil {
			continue
		}

		attached, err := c.AWS.ListAttachedRolePolicyARNs(ctx, name)
		if err != nil {
			return nil, err
		}
		inline, err := c.AWS.ListInlineRolePolicies(ctx, name)
		if err != nil {
			return nil, err
		}

		config, err := RoleConfig(*full, attached, inline)
		if err != nil {
			return nil, fmt.Errorf("unable to normalize role %s: %w", name, err)
		}
		out = append(out, config)
	}

	log.Info().Msgf("collected %d unmanaged roles out of %d in the account", len(out), len(all))
	return out, nil
}

// RolesByName returns the declarative form of the named roles. Roles that
// don't exist are logged and skipped.
func (c *Collector) RolesByName(ctx context.Context, names []string) ([]iamconfig.Role, error) {
	var out []iamconfig.Role
	for _, name := range names {
		full, err := c.AWS.GetRole(ctx, name)
		if err != nil {
			return nil, err
		}
		if full == nil {
			continue
		}

		attached, err := c.AWS.ListAttachedRolePolicyARNs(ctx, name)
		if err != nil {
			return nil, err
		}
		inline, err := c.AWS.ListInlineRolePolicies(ctx, name)
		if err != nil {
			return nil, err
		}

		config, err := RoleConfig(*full, attached, inline)
		if err != nil {
			return nil, fmt.Errorf("unable to normalize role %s: %w", name, err)
		}
		out = append(out, config)
	}
	return out, nil
}

// Policies returns the declarative form of every manageable customer managed
// policy. Policies whose ARN appears in the CloudFormation inventory are
// skipped.
func (c *Collector) Policies(ctx context.Context, stackPolicyARNs map[string]string) ([]iamconfig.Policy, error) {
	all, err := c.AWS.ListLocalPolicies(ctx)
	if err != nil {
		return nil, err
	}

	var out []iamconfig.Policy
	for _, policy := range all {
		name := awssdk.ToString(policy.PolicyName)
		arn := awssdk.ToString(policy.Arn)

		if c.Rules.ExcludesPolicyPath(awssdk.ToString(policy.Path)) {
			log.Debug().Msgf("skipping service-role policy %s", name)
			continue
		}
		if stack, ok := stackPolicyARNs[arn]; ok {
			log.Debug().Msgf("skipping policy %s, owned by stack %s", name, stack)
			continue
		}

		detail, err := c.AWS.GetPolicyDetail(ctx, arn)
		if err != nil {
			return nil, err
		}
		if detail == nil {
			continue
		}

		config, err := PolicyConfig(detail)
		if err != nil {
			return nil, fmt.Errorf("unable to normalize policy %s: %w", name, err)
		}
		out = append(out, config)
	}

	log.Info().Msgf("collected %d unmanaged policies out of %d in the account", len(out), len(all))
	return out, nil
}
