package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// CognitoAPI is the subset of the Cognito identity provider client used by CognitoSecrets.
type CognitoAPI interface {
	DescribeUserPoolClient(ctx context.Context, params *cognitoidentityprovider.DescribeUserPoolClientInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolClientOutput, error)
}

// CognitoSecrets resolves app client secrets from a Cognito user pool.
type CognitoSecrets struct {
	client CognitoAPI
}

// NewCognitoSecrets creates a secret source backed by the Cognito client.
func NewCognitoSecrets(client CognitoAPI) *CognitoSecrets {
	return &CognitoSecrets{client: client}
}

// NewCognitoSecretsFromConfig creates a secret source from an AWS configuration.
func NewCognitoSecretsFromConfig(cfg aws.Config) *CognitoSecrets {
	return NewCognitoSecrets(cognitoidentityprovider.NewFromConfig(cfg))
}

// ClientSecret implements SecretSource.
func (c *CognitoSecrets) ClientSecret(ctx context.Context, userPoolID, clientID string) (string, error) {
	output, err := c.client.DescribeUserPoolClient(ctx, &cognitoidentityprovider.DescribeUserPoolClientInput{
		UserPoolId: aws.String(userPoolID),
		ClientId:   aws.String(clientID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe user pool client %s: %w", clientID, err)
	}
	if output.UserPoolClient == nil {
		return "", fmt.Errorf("user pool client %s not found", clientID)
	}
	return aws.ToString(output.UserPoolClient.ClientSecret), nil
}
