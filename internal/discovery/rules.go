package discovery

import "strings"

// ExcludeRules filters the account inventory down to resources this tool is
// allowed to manage.
type ExcludeRules struct {
	// PathPrefixes excludes roles whose IAM path starts with any entry.
	PathPrefixes []string
	// NamePrefixes excludes roles whose name starts with any entry.
	NamePrefixes []string
	// RoleNames excludes exact role names.
	RoleNames []string
}

// DefaultExcludeRules covers the reserved namespaces: service-linked roles,
// service roles, and the CDK bootstrap, StackSet, and Control Tower roles
// the provisioning pipelines own.
func DefaultExcludeRules() ExcludeRules {
	return ExcludeRules{
		PathPrefixes: []string{
			"/aws-reserved/",
			"/aws-service-role/",
			"/service-role/",
			"/cdk-hnb",
		},
		NamePrefixes: []string{
			"cdk-hnb659fds",
			"StackSet",
			"stackset",
			"AWSControlTower",
		},
	}
}

// ExcludesRole reports whether a role is outside the manageable set.
func (r ExcludeRules) ExcludesRole(path, name string) bool {
	for _, prefix := range r.PathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, prefix := range r.NamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, excluded := range r.RoleNames {
		if name == excluded {
			return true
		}
	}
	return false
}

// ExcludesPolicyPath reports whether a managed policy lives under a reserved
// path. Service roles carry their policies under /service-role/.
func (r ExcludeRules) ExcludesPolicyPath(path string) bool {
	return strings.Contains(path, "/service-role/")
}
