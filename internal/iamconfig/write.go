package iamconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// snapshotIndent matches the indentation the provisioning pipeline expects.
const snapshotIndent = 4

// Marshal renders a configuration document in block style with the field
// order the schema declares.
func Marshal(config *Config) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(snapshotIndent)
	if err := encoder.Encode(config); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes a configuration document to path, replacing any previous
// content.
func WriteFile(config *Config, path string) error {
	data, err := Marshal(config)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration file %s: %w", path, err)
	}
	log.Info().Msgf("configuration file %s created", path)
	return nil
}

// AppendRoles extends the `roles` list of the configuration file at path,
// creating a skeleton document for the account when the file doesn't exist.
func AppendRoles(path, accountID, region string, roles []Role) error {
	config := &Config{
		AccountIDs: StringOrList{accountID},
		Region:     region,
	}

	if _, err := os.Stat(path); err == nil {
		existing, err := Load(path)
		if err != nil {
			return err
		}
		config = existing
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking configuration file %s: %w", path, err)
	} else {
		log.Info().Msgf("no existing configuration file found, creating %s", path)
	}

	config.Roles = append(config.Roles, roles...)
	return WriteFile(config, path)
}

// MaxResourcesPerFile caps how many combined roles and policies a single
// snapshot file may carry before it is split into parts.
const MaxResourcesPerFile = 450

// ResourceCount returns the combined number of roles and managed policies.
func (c *Config) ResourceCount() int {
	return len(c.Roles) + len(c.IAMPolicies)
}

// Split breaks a snapshot into chunks of at most max combined resources. The
// first chunk keeps the original stack name; later chunks get a -PartN
// suffix so each provisions as its own stack. A snapshot within the limit
// comes back unchanged as a single chunk.
func Split(config *Config, max int) []*Config {
	if max <= 0 || config.ResourceCount() <= max {
		return []*Config{config}
	}

	parts := []*Config{}
	part := newPart(config, 0)
	count := 0

	flush := func() {
		if count > 0 {
			parts = append(parts, part)
			part = newPart(config, len(parts))
			count = 0
		}
	}

	for _, policy := range config.IAMPolicies {
		part.IAMPolicies = append(part.IAMPolicies, policy)
		count++
		if count == max {
			flush()
		}
	}
	for _, role := range config.Roles {
		part.Roles = append(part.Roles, role)
		count++
		if count == max {
			flush()
		}
	}
	flush()

	return parts
}

func newPart(config *Config, index int) *Config {
	part := &Config{
		AccountIDs: config.AccountIDs,
		Region:     config.Region,
		StackName:  config.StackName,
	}
	if index > 0 {
		part.StackName = fmt.Sprintf("%s-Part%d", config.StackName, index)
	}
	return part
}

// PartSuffix returns the filename suffix for the Nth chunk of a split
// snapshot; the first chunk has none.
func PartSuffix(index int) string {
	if index == 0 {
		return ""
	}
	return fmt.Sprintf("-Part%d", index)
}
