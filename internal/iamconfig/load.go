package iamconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Load reads and parses one configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %s: %w", path, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration file %s: %w", path, err)
	}

	log.Info().Msgf("loaded configuration from %s", path)
	return config, nil
}

// LoadDir reads every *.yaml file in dir, sorted by name.
func LoadDir(dir string) ([]*Config, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("listing configuration files in %s: %w", dir, err)
	}
	sort.Strings(paths)

	configs := make([]*Config, 0, len(paths))
	for _, path := range paths {
		config, err := Load(path)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// Stack is the merged unit of provisioning: every role and policy declared
// for one account under one stack name.
type Stack struct {
	AccountID string
	StackName string
	Region    string
	Roles     []Role
	Policies  []Policy
}

// Name returns the qualified stack identifier used for logs and state.
func (s *Stack) Name() string {
	return fmt.Sprintf("IamRoleConfigStack-%s-%s", s.AccountID, s.StackName)
}

// Merge combines configuration documents that share an account id and stack
// name by concatenating their role and policy lists. Entries are not
// deduplicated by name; duplicate declarations surface as provisioning
// conflicts rather than being silently dropped here.
func Merge(configs []*Config) []*Stack {
	type stackKey struct {
		accountID string
		stackName string
	}

	merged := map[stackKey]*Stack{}
	order := []stackKey{}

	for _, config := range configs {
		for _, accountID := range config.AccountIDs {
			key := stackKey{accountID: accountID, stackName: config.StackNameOrDefault()}
			stack, ok := merged[key]
			if !ok {
				stack = &Stack{
					AccountID: accountID,
					StackName: key.stackName,
					Region:    config.RegionOrDefault(),
				}
				merged[key] = stack
				order = append(order, key)
			}
			stack.Roles = append(stack.Roles, config.Roles...)
			stack.Policies = append(stack.Policies, config.IAMPolicies...)
		}
	}

	stacks := make([]*Stack, 0, len(order))
	for _, key := range order {
		stacks = append(stacks, merged[key])
	}
	return stacks
}
