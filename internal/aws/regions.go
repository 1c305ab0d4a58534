package aws

import (
	"context"
	"fmt"
	"sort"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// EnabledRegions returns the names of every region enabled for the account.
func (conf *Configuration) EnabledRegions(ctx context.Context) ([]string, error) {
	out, err := conf.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: awssdk.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving enabled regions: %w", err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, region := range out.Regions {
		regions = append(regions, awssdk.ToString(region.RegionName))
	}
	sort.Strings(regions)
	return regions, nil
}
