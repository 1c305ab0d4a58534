package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// ResourceTypeRole is the CloudFormation resource type for IAM roles.
	ResourceTypeRole = "AWS::IAM::Role"
	// ResourceTypeManagedPolicy is the CloudFormation resource type for IAM
	// managed policies.
	ResourceTypeManagedPolicy = "AWS::IAM::ManagedPolicy"
)

// completedStackStatuses limits stack scans to stacks that finished
// provisioning; anything mid-rollback or deleted doesn't own resources.
var completedStackStatuses = []cfntypes.StackStatus{
	cfntypes.StackStatusCreateComplete,
	cfntypes.StackStatusUpdateComplete,
}

// StackIAMInventory maps the IAM resources owned by CloudFormation stacks:
// role physical ids and managed policy ARNs, each to the owning stack name.
type StackIAMInventory struct {
	Roles      map[string]string
	PolicyARNs map[string]string
}

// PolicyARNFromPhysicalID promotes a managed policy physical resource id to
// an ARN. Some stacks report the ARN directly, others only the generated
// policy name.
func PolicyARNFromPhysicalID(accountID, physicalID string) string {
	if strings.HasPrefix(physicalID, "arn:aws:iam::") {
		return physicalID
	}
	return fmt.Sprintf("arn:aws:iam::%s:policy/%s", accountID, physicalID)
}

// StackIAMInventory walks every completed stack in the configured region and
// collects the IAM roles and managed policies it provisioned.
func (conf *Configuration) StackIAMInventory(ctx context.Context, accountID string) (*StackIAMInventory, error) {
	inventory := &StackIAMInventory{
		Roles:      map[string]string{},
		PolicyARNs: map[string]string{},
	}

	stacksPaginator := cloudformation.NewListStacksPaginator(conf.CloudFormation, &cloudformation.ListStacksInput{
		StackStatusFilter: completedStackStatuses,
	})
	for stacksPaginator.HasMorePages() {
		page, err := stacksPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing CloudFormation stacks: %w", err)
		}
		for _, summary := range page.StackSummaries {
			stackName := awssdk.ToString(summary.StackName)
			log.Debug().Msgf("checking resources for stack %s", stackName)

			resourcesPaginator := cloudformation.NewListStackResourcesPaginator(conf.CloudFormation, &cloudformation.ListStackResourcesInput{
				StackName: awssdk.String(stackName),
			})
			for resourcesPaginator.HasMorePages() {
				resourcesPage, err := resourcesPaginator.NextPage(ctx)
				if err != nil {
					return nil, fmt.Errorf("listing resources for stack %s: %w", stackName, err)
				}
				for _, resource := range resourcesPage.StackResourceSummaries {
					physicalID := awssdk.ToString(resource.PhysicalResourceId)
					switch awssdk.ToString(resource.ResourceType) {
					case ResourceTypeRole:
						inventory.Roles[physicalID] = stackName
					case ResourceTypeManagedPolicy:
						arn := PolicyARNFromPhysicalID(accountID, physicalID)
						inventory.PolicyARNs[arn] = stackName
						log.Info().Msgf("managed policy %s is provisioned by CloudFormation stack %s", arn, stackName)
					}
				}
			}
		}
	}

	log.Info().Msgf("CloudFormation inventory: %d roles, %d managed policies", len(inventory.Roles), len(inventory.PolicyARNs))
	return inventory, nil
}

// StackRoleResource is one IAM role resource row from a stack, in the shape
// the stack-resource report exports.
type StackRoleResource struct {
	StackName  string
	LogicalID  string
	PhysicalID string
	Type       string
	Status     string
}

// StackRoleResources lists the raw IAM role resources of every stack in the
// configured region.
func (conf *Configuration) StackRoleResources(ctx context.Context) ([]StackRoleResource, error) {
	var resources []StackRoleResource

	paginator := cloudformation.NewDescribeStacksPaginator(conf.CloudFormation, &cloudformation.DescribeStacksInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describing CloudFormation stacks: %w", err)
		}
		for _, stack := range page.Stacks {
			stackName := awssdk.ToString(stack.StackName)
			described, err := conf.CloudFormation.DescribeStackResources(ctx, &cloudformation.DescribeStackResourcesInput{
				StackName: awssdk.String(stackName),
			})
			if err != nil {
				return nil, fmt.Errorf("describing resources for stack %s: %w", stackName, err)
			}
			for _, resource := range described.StackResources {
				if awssdk.ToString(resource.ResourceType) != ResourceTypeRole {
					continue
				}
				physicalID := awssdk.ToString(resource.PhysicalResourceId)
				if physicalID == "" {
					log.Warn().Msgf("missing physical resource id for %s in stack %s", awssdk.ToString(resource.LogicalResourceId), stackName)
				}
				resources = append(resources, StackRoleResource{
					StackName:  stackName,
					LogicalID:  awssdk.ToString(resource.LogicalResourceId),
					PhysicalID: physicalID,
					Type:       awssdk.ToString(resource.ResourceType),
					Status:     string(resource.ResourceStatus),
				})
			}
		}
	}
	return resources, nil
}

// regionScanConcurrency bounds the all-regions stack scan fan-out.
const regionScanConcurrency = 4

// StackRolesAllRegions scans every enabled region for CloudFormation-owned
// IAM roles and returns physical id -> stack name. Regions that reject the
// credentials are skipped with a warning.
func (conf *Configuration) StackRolesAllRegions(ctx context.Context) (map[string]string, error) {
	regions, err := conf.EnabledRegions(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	merged := map[string]string{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(regionScanConcurrency)

	for _, region := range regions {
		region := region
		group.Go(func() error {
			regional := &Configuration{CloudFormation: conf.CloudFormationForRegion(region)}
			inventory, err := regional.StackIAMInventory(groupCtx, "")
			if err != nil {
				if isRegionDisabled(err) {
					log.Warn().Msgf("region %s is not enabled for this account, skipping", region)
					return nil
				}
				return fmt.Errorf("scanning region %s: %w", region, err)
			}
			mu.Lock()
			for physicalID, stackName := range inventory.Roles {
				merged[physicalID] = stackName
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	log.Info().Msgf("total IAM roles found in CloudFormation stacks across all enabled regions: %d", len(merged))
	return merged, nil
}

// isRegionDisabled matches the errors STS-backed services return in regions
// the account has not opted into.
func isRegionDisabled(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidClientTokenId", "UnrecognizedClientException", "AuthFailure":
			return true
		}
	}
	return strings.Contains(err.Error(), "InvalidClientTokenId")
}
