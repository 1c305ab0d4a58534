package provision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

// TrustPolicyDocument builds the assume-role policy document for a role
// declaration. Every principal value is normalized to list form, `AWS`
// principals given as bare account numbers become account root ARNs, the
// action is always sts:AssumeRole, and configured external IDs are injected
// into each statement's StringEquals condition.
func TrustPolicyDocument(role *iamconfig.Role) (map[string]any, error) {
	if role.TrustPolicy == nil || len(role.TrustPolicy.Statement) == 0 {
		return nil, fmt.Errorf("role %s declares no trust policy statements", role.RoleName)
	}

	statements := make([]map[string]any, 0, len(role.TrustPolicy.Statement))
	for _, stmt := range role.TrustPolicy.Statement {
		principal := make(map[string]any, len(stmt.Principal))
		for kind, values := range stmt.Principal {
			expanded := make([]string, 0, len(values))
			for _, value := range values {
				if kind == "AWS" {
					value = accountPrincipalARN(value)
				}
				expanded = append(expanded, value)
			}
			principal[kind] = expanded
		}

		condition := cloneCondition(stmt.Condition)
		if len(role.ExternalIDs) > 0 {
			if condition == nil {
				condition = map[string]map[string]any{}
			}
			if condition["StringEquals"] == nil {
				condition["StringEquals"] = map[string]any{}
			}
			condition["StringEquals"]["sts:ExternalId"] = externalIDValue(role.ExternalIDs)
		}

		entry := map[string]any{
			"Effect":    "Allow",
			"Principal": principal,
			"Action":    []string{"sts:AssumeRole"},
		}
		if len(condition) > 0 {
			entry["Condition"] = condition
		}
		statements = append(statements, entry)
	}

	return map[string]any{
		"Version":   iamconfig.TrustPolicyVersion,
		"Statement": statements,
	}, nil
}

// TrustPolicyJSON renders the trust policy document as the JSON string the
// IAM API accepts.
func TrustPolicyJSON(role *iamconfig.Role) (string, error) {
	document, err := TrustPolicyDocument(role)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("unable to encode trust policy for role %s: %w", role.RoleName, err)
	}
	return string(out), nil
}

// accountPrincipalARN turns a bare account number into the account root
// principal ARN. Anything else passes through unchanged.
func accountPrincipalARN(value string) string {
	if value == "" || strings.ContainsFunc(value, func(r rune) bool { return r < '0' || r > '9' }) {
		return value
	}
	return fmt.Sprintf("arn:aws:iam::%s:root", value)
}

func externalIDValue(ids []string) any {
	if len(ids) == 1 {
		return ids[0]
	}
	return ids
}

func cloneCondition(condition map[string]map[string]any) map[string]map[string]any {
	if len(condition) == 0 {
		return nil
	}
	out := make(map[string]map[string]any, len(condition))
	for operator, values := range condition {
		if len(values) == 0 {
			continue
		}
		inner := make(map[string]any, len(values))
		for key, value := range values {
			inner[key] = value
		}
		out[operator] = inner
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
