package aws

import (
	"context"
	"fmt"
	"os"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRegion is where IAM and the snapshot pipeline live; IAM itself is
// global but the control-plane calls still need a region.
const DefaultRegion = "us-east-1"

// ResolveRegion picks the effective region: explicit value first, then the
// usual environment variables.
func ResolveRegion(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	}
	if region == "" {
		region = strings.TrimSpace(os.Getenv("AWS_DEFAULT_REGION"))
	}
	return region
}

// ResolveProfile picks the shared-config profile from the environment.
func ResolveProfile() string {
	profile := strings.TrimSpace(os.Getenv("AWS_PROFILE"))
	if profile == "" {
		profile = strings.TrimSpace(os.Getenv("AWS_DEFAULT_PROFILE"))
	}
	return profile
}

// NewConfig loads the default SDK configuration for the resolved profile and
// region, defaulting to us-east-1 when nothing else is configured.
func NewConfig(ctx context.Context, region string) (awssdk.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if profile := ResolveProfile(); profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}
	if region = ResolveRegion(region); region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = DefaultRegion
	}
	return cfg, nil
}
