package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmBatchSize is the GetParameters per-call name limit.
const ssmBatchSize = 10

// SSMAPI is the subset of the SSM client used by SSMStore.
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMStore reads parameters from AWS Systems Manager Parameter Store.
type SSMStore struct {
	client SSMAPI
}

// NewSSMStore creates a store backed by the SSM client.
func NewSSMStore(client SSMAPI) *SSMStore {
	return &SSMStore{client: client}
}

// NewSSMStoreFromConfig creates a store from an AWS configuration.
func NewSSMStoreFromConfig(cfg aws.Config) *SSMStore {
	return NewSSMStore(ssm.NewFromConfig(cfg))
}

// Parameters implements Store. Names reported invalid by SSM are omitted.
func (s *SSMStore) Parameters(ctx context.Context, names []string) (map[string]string, error) {
	ret := make(map[string]string, len(names))
	for start := 0; start < len(names); start += ssmBatchSize {
		end := min(start+ssmBatchSize, len(names))
		output, err := s.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          names[start:end],
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get parameters %v: %w", names[start:end], err)
		}
		for _, parameter := range output.Parameters {
			ret[aws.ToString(parameter.Name)] = aws.ToString(parameter.Value)
		}
	}
	return ret, nil
}
