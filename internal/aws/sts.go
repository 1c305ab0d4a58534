package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"
)

// CallerIdentity identifies the credentials the tool is running with.
type CallerIdentity struct {
	AccountID string
	ARN       string
	UserID    string
}

// GetCallerIdentity returns the account and principal behind the current
// credentials.
func (conf *Configuration) GetCallerIdentity(ctx context.Context) (*CallerIdentity, error) {
	out, err := conf.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("could not get caller identity: %w", err)
	}

	identity := &CallerIdentity{
		AccountID: awssdk.ToString(out.Account),
		ARN:       awssdk.ToString(out.Arn),
		UserID:    awssdk.ToString(out.UserId),
	}
	log.Info().Msgf("fetched account id: %s", identity.AccountID)
	return identity, nil
}
