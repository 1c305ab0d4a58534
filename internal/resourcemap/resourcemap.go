package resourcemap

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	typeRole          = "AWS::IAM::Role"
	typeManagedPolicy = "AWS::IAM::ManagedPolicy"
	cdkPathKey        = "aws:cdk:path"
)

// Map indexes the IAM resources of a synthesized CloudFormation template by
// logical id, in the shape the provisioning pipeline imports from.
type Map struct {
	StackName string
	Resources map[string]map[string]string
}

// Parse reads a CloudFormation or CDK-synthesized template, in YAML or JSON
// form, and extracts its IAM roles and managed policies. The stack name is
// taken from the first aws:cdk:path metadata entry.
func Parse(data []byte, accountID string) (*Map, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unable to parse template: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("template is empty")
	}

	resources := mappingValue(root.Content[0], "Resources")
	if resources == nil {
		return nil, fmt.Errorf("template has no Resources section")
	}

	out := &Map{Resources: map[string]map[string]string{}}
	for i := 0; i+1 < len(resources.Content); i += 2 {
		logicalID := resources.Content[i].Value
		resource := resources.Content[i+1]

		if out.StackName == "" {
			if metadata := mappingValue(resource, "Metadata"); metadata != nil {
				if path := mappingValue(metadata, cdkPathKey); path != nil {
					out.StackName = strings.Split(path.Value, "/")[0]
				}
			}
		}

		typeNode := mappingValue(resource, "Type")
		if typeNode == nil {
			continue
		}
		properties := mappingValue(resource, "Properties")

		switch typeNode.Value {
		case typeRole:
			name := propertyString(properties, "RoleName")
			if name == "" {
				log.Warn().Msgf("role %s carries no literal RoleName, skipping", logicalID)
				continue
			}
			out.Resources[logicalID] = map[string]string{"RoleName": name}
		case typeManagedPolicy:
			name := propertyString(properties, "ManagedPolicyName")
			if name == "" {
				log.Warn().Msgf("managed policy %s carries no literal ManagedPolicyName, skipping", logicalID)
				continue
			}
			out.Resources[logicalID] = map[string]string{
				"PolicyArn": fmt.Sprintf("arn:aws:iam::%s:policy/%s", accountID, name),
			}
		}
	}

	return out, nil
}

// FileName resolves the output filename. When the template carries no
// aws:cdk:path metadata the caller must opt into the account-keyed fallback
// name.
func (m *Map) FileName(accountID string, accountFileName bool) (string, error) {
	if accountFileName {
		return fmt.Sprintf("resource-map-%s.json", accountID), nil
	}
	if m.StackName == "" {
		return "", fmt.Errorf("template carries no %s metadata; use --account-file-name to name the output by account", cdkPathKey)
	}
	return m.StackName + ".json", nil
}

// WriteFile writes the logical-id index as indented JSON.
func (m *Map) WriteFile(path string) error {
	data, err := json.MarshalIndent(m.Resources, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding resource map: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing resource map %s: %w", path, err)
	}
	log.Info().Msgf("resource map %s created with %d entries", path, len(m.Resources))
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// propertyString returns a literal scalar property. Intrinsic functions
// (Fn::Sub and friends) come back empty.
func propertyString(properties *yaml.Node, key string) string {
	node := mappingValue(properties, key)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}
