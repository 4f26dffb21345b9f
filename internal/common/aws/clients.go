// internal/common/aws/clients.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
)

// Clients shares one loaded AWS configuration between SNS and SES.
type Clients struct {
	SNS *SNSClient
	SES *SESClient
}

// NewClients resolves credentials from the default chain for region.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Clients{
		SNS: NewSNSClient(cfg),
		SES: NewSESClient(cfg),
	}, nil
}
