package iamconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultRegion is assumed when a configuration file omits `region`.
	DefaultRegion = "us-east-1"

	// DefaultStackName groups configuration files that don't declare a stack.
	DefaultStackName = "default"

	// DefaultSessionDuration is applied when a role omits `sessionDuration`.
	DefaultSessionDuration = 3600

	// DeletionPolicyRetain marks a resource as protected from deletion.
	DeletionPolicyRetain = "RETAIN"

	// TrustPolicyVersion is the policy language version stamped on trust
	// policies that don't carry one.
	TrustPolicyVersion = "2012-10-17"
)

// Config is one normalized configuration document. A single file may target
// multiple accounts; its roles and policies apply to each of them.
type Config struct {
	AccountIDs  StringOrList `yaml:"account_id"`
	Region      string       `yaml:"region,omitempty"`
	StackName   string       `yaml:"stack_name,omitempty"`
	IAMPolicies []Policy     `yaml:"iam_policies,omitempty"`
	Roles       []Role       `yaml:"roles,omitempty"`
}

// RegionOrDefault returns the configured region, falling back to DefaultRegion.
func (c *Config) RegionOrDefault() string {
	if c.Region == "" {
		return DefaultRegion
	}
	return c.Region
}

// StackNameOrDefault returns the configured stack name, falling back to
// DefaultStackName.
func (c *Config) StackNameOrDefault() string {
	if c.StackName == "" {
		return DefaultStackName
	}
	return c.StackName
}

// Role is a single IAM role declaration.
type Role struct {
	RoleName        string         `yaml:"roleName"`
	Description     string         `yaml:"description,omitempty"`
	SessionDuration int32          `yaml:"sessionDuration,omitempty"`
	IAMPath         string         `yaml:"iamPath,omitempty"`
	TrustPolicy     *TrustPolicy   `yaml:"trustPolicy,omitempty"`
	ExternalIDs     []string       `yaml:"externalIds,omitempty"`
	ManagedPolicies []string       `yaml:"managedPolicies,omitempty"`
	InlinePolicies  InlinePolicies `yaml:"inlinePolicies,omitempty"`

	// Both spellings show up in configuration files in the wild. Boundary()
	// resolves them.
	PermissionBoundary  string `yaml:"permissionBoundary,omitempty"`
	PermissionsBoundary string `yaml:"permissionsBoundary,omitempty"`

	Tags           []Tag  `yaml:"tags,omitempty"`
	DeletionPolicy string `yaml:"deletionPolicy,omitempty"`
}

// Boundary returns the permissions boundary ARN, preferring the
// `permissionBoundary` key over the `permissionsBoundary` variant.
func (r *Role) Boundary() string {
	if r.PermissionBoundary != "" {
		return r.PermissionBoundary
	}
	return r.PermissionsBoundary
}

// SessionDurationOrDefault returns the configured max session duration,
// falling back to DefaultSessionDuration.
func (r *Role) SessionDurationOrDefault() int32 {
	if r.SessionDuration <= 0 {
		return DefaultSessionDuration
	}
	return r.SessionDuration
}

// Retained reports whether the role is marked with a RETAIN deletion policy.
func (r *Role) Retained() bool {
	return r.DeletionPolicy == DeletionPolicyRetain
}

// Policy is a single customer managed policy declaration.
type Policy struct {
	PolicyName     string         `yaml:"policyName"`
	DeletionPolicy string         `yaml:"deletionPolicy,omitempty"`
	PolicyDocument map[string]any `yaml:"policyDocument,omitempty"`
	Description    string         `yaml:"description,omitempty"`
	Path           string         `yaml:"path,omitempty"`
	Tags           []Tag          `yaml:"tags,omitempty"`
}

// Retained reports whether the policy is marked with a RETAIN deletion policy.
func (p *Policy) Retained() bool {
	return p.DeletionPolicy == DeletionPolicyRetain
}

// Tag is a key/value resource tag.
type Tag struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// TrustPolicy is an assume-role policy document in configuration form.
type TrustPolicy struct {
	Version   string           `yaml:"Version"`
	Statement []TrustStatement `yaml:"Statement"`
}

// TrustStatement is one statement of a trust policy. Principal values are
// normalized to lists regardless of how the source document spells them.
type TrustStatement struct {
	Effect    string                    `yaml:"Effect,omitempty"`
	Principal map[string]StringOrList   `yaml:"Principal,omitempty"`
	Action    StringOrList              `yaml:"Action,omitempty"`
	Condition map[string]map[string]any `yaml:"Condition,omitempty"`
}

// StringOrList accepts a scalar or a sequence and always holds a list.
type StringOrList []string

func (s *StringOrList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = StringOrList{value.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := value.Decode(&values); err != nil {
			return err
		}
		*s = values
		return nil
	default:
		return fmt.Errorf("expected string or list of strings, got yaml node kind %d", value.Kind)
	}
}

// InlinePolicy is a named policy document embedded in a role.
type InlinePolicy struct {
	PolicyName     string         `yaml:"policyName"`
	PolicyDocument map[string]any `yaml:"policyDocument"`
}

// InlinePolicies accepts either a mapping of policy name to document or a
// list of {policyName, policyDocument} entries. It marshals back to the
// mapping form, preserving order.
type InlinePolicies []InlinePolicy

func (p *InlinePolicies) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			var doc map[string]any
			if err := value.Content[i+1].Decode(&doc); err != nil {
				return err
			}
			*p = append(*p, InlinePolicy{
				PolicyName:     value.Content[i].Value,
				PolicyDocument: doc,
			})
		}
		return nil
	case yaml.SequenceNode:
		var entries []InlinePolicy
		if err := value.Decode(&entries); err != nil {
			return err
		}
		*p = entries
		return nil
	default:
		return fmt.Errorf("expected mapping or list of inline policies, got yaml node kind %d", value.Kind)
	}
}

func (p InlinePolicies) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, entry := range p {
		keyNode := &yaml.Node{}
		keyNode.SetString(entry.PolicyName)
		docNode := &yaml.Node{}
		if err := docNode.Encode(entry.PolicyDocument); err != nil {
			return nil, fmt.Errorf("encoding inline policy %q: %w", entry.PolicyName, err)
		}
		node.Content = append(node.Content, keyNode, docNode)
	}
	return node, nil
}
