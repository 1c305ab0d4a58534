package discovery

import (
	"encoding/json"
	"fmt"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

// RoleConfig converts a live IAM role into its declarative form. The trust
// policy document must already be URL-decoded.
func RoleConfig(role iamtypes.Role, attachedARNs []string, inline []awsinternal.NamedDocument) (iamconfig.Role, error) {
	name := awssdk.ToString(role.RoleName)

	out := iamconfig.Role{
		RoleName:        name,
		IAMPath:         awssdk.ToString(role.Path),
		Description:     awssdk.ToString(role.Description),
		DeletionPolicy:  iamconfig.DeletionPolicyRetain,
		ManagedPolicies: attachedARNs,
		Tags:            tagsFromIAM(role.Tags),
	}

	if role.MaxSessionDuration != nil {
		out.SessionDuration = *role.MaxSessionDuration
	}
	if role.PermissionsBoundary != nil {
		out.PermissionsBoundary = awssdk.ToString(role.PermissionsBoundary.PermissionsBoundaryArn)
	}

	trust, err := TrustPolicyFromJSON(awsinternal.DecodePolicyDocument(awssdk.ToString(role.AssumeRolePolicyDocument)))
	if err != nil {
		return iamconfig.Role{}, fmt.Errorf("role %s: %w", name, err)
	}
	out.TrustPolicy = trust

	for _, doc := range inline {
		document, err := documentFromJSON(doc.Document)
		if err != nil {
			return iamconfig.Role{}, fmt.Errorf("role %s inline policy %s: %w", name, doc.PolicyName, err)
		}
		out.InlinePolicies = append(out.InlinePolicies, iamconfig.InlinePolicy{
			PolicyName:     doc.PolicyName,
			PolicyDocument: iamconfig.StripEmptyConditions(document),
		})
	}

	return out, nil
}

// PolicyConfig converts a customer managed policy into its declarative form.
func PolicyConfig(detail *awsinternal.PolicyDetail) (iamconfig.Policy, error) {
	document, err := documentFromJSON(detail.Document)
	if err != nil {
		return iamconfig.Policy{}, fmt.Errorf("policy %s: %w", detail.PolicyName, err)
	}
	return iamconfig.Policy{
		PolicyName:     detail.PolicyName,
		DeletionPolicy: iamconfig.DeletionPolicyRetain,
		PolicyDocument: document,
		Description:    detail.Description,
		Path:           detail.Path,
		Tags:           tagsFromIAM(detail.Tags),
	}, nil
}

// TrustPolicyFromJSON parses an assume-role policy document and normalizes
// every principal and action into list form.
func TrustPolicyFromJSON(document string) (*iamconfig.TrustPolicy, error) {
	var raw struct {
		Version   string          `json:"Version"`
		Statement json.RawMessage `json:"Statement"`
	}
	if err := json.Unmarshal([]byte(document), &raw); err != nil {
		return nil, fmt.Errorf("unable to parse trust policy: %w", err)
	}

	statements, err := statementsFromRaw(raw.Statement)
	if err != nil {
		return nil, err
	}

	trust := &iamconfig.TrustPolicy{Version: raw.Version}
	if trust.Version == "" {
		trust.Version = iamconfig.TrustPolicyVersion
	}

	for _, stmt := range statements {
		normalized := iamconfig.TrustStatement{
			Effect: stmt.Effect,
			Action: listOfStrings(stmt.Action),
		}
		if len(stmt.Principal) > 0 {
			normalized.Principal = make(map[string]iamconfig.StringOrList, len(stmt.Principal))
			for kind, value := range stmt.Principal {
				normalized.Principal[kind] = listOfStrings(value)
			}
		}
		if len(stmt.Condition) > 0 {
			normalized.Condition = stmt.Condition
		}
		trust.Statement = append(trust.Statement, normalized)
	}

	return trust, nil
}

type rawTrustStatement struct {
	Effect    string                    `json:"Effect"`
	Principal map[string]any            `json:"Principal"`
	Action    any                       `json:"Action"`
	Condition map[string]map[string]any `json:"Condition"`
}

// statementsFromRaw accepts both the list and the single-object Statement
// encodings IAM emits.
func statementsFromRaw(raw json.RawMessage) ([]rawTrustStatement, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []rawTrustStatement
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single rawTrustStatement
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("unable to parse trust policy statements: %w", err)
	}
	return []rawTrustStatement{single}, nil
}

// listOfStrings flattens a JSON value that may be a scalar or a list into a
// list of strings. Bare numbers become their decimal rendering, which keeps
// account IDs intact.
func listOfStrings(value any) iamconfig.StringOrList {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return iamconfig.StringOrList{v}
	case []any:
		out := make(iamconfig.StringOrList, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	default:
		return iamconfig.StringOrList{scalarString(v)}
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func documentFromJSON(document string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(document), &out); err != nil {
		return nil, fmt.Errorf("unable to parse policy document: %w", err)
	}
	return out, nil
}

func tagsFromIAM(tags []iamtypes.Tag) []iamconfig.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]iamconfig.Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, iamconfig.Tag{
			Key:   awssdk.ToString(tag.Key),
			Value: awssdk.ToString(tag.Value),
		})
	}
	return out
}
