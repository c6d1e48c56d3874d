package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	values map[string]string
	calls  [][]string
	err    error
}

func (f *fakeSSM) GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, params.Names)
	output := &ssm.GetParametersOutput{}
	for _, name := range params.Names {
		if value, ok := f.values[name]; ok {
			output.Parameters = append(output.Parameters, ssmtypes.Parameter{Name: aws.String(name), Value: aws.String(value)})
			continue
		}
		output.InvalidParameters = append(output.InvalidParameters, name)
	}
	return output, nil
}

type fakeCognito struct {
	secret string
	input  *cognitoidentityprovider.DescribeUserPoolClientInput
}

func (f *fakeCognito) DescribeUserPoolClient(ctx context.Context, params *cognitoidentityprovider.DescribeUserPoolClientInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolClientOutput, error) {
	f.input = params
	return &cognitoidentityprovider.DescribeUserPoolClientOutput{
		UserPoolClient: &cognitotypes.UserPoolClientType{ClientSecret: aws.String(f.secret)},
	}, nil
}

func defaultParameters() map[string]string {
	return map[string]string{
		"/agentcore/mcp-calculator-runtime-arn": "arn:aws:bedrock-agentcore:ap-southeast-2:123456789012:runtime/mcpCalculator-x",
		"/agentcore/cognito-client-id":          "client-1",
		"/agentcore/cognito-token-endpoint":     "https://agentcore-mcp.auth.ap-southeast-2.amazoncognito.com/oauth2/token",
		"/agentcore/cognito-user-pool-id":       "ap-southeast-2_pool",
	}
}

func TestLoadFromSSM(t *testing.T) {
	store := &fakeSSM{values: defaultParameters()}
	secrets := &fakeCognito{secret: "s3cr3t"}
	cfg, err := Load(context.Background(), "ap-southeast-2", NewSSMStore(store), NewCognitoSecrets(secrets), Keys{})
	require.NoError(t, err)
	assert.Equal(t, "client-1", cfg.ClientID)
	assert.Equal(t, "s3cr3t", cfg.ClientSecret)
	assert.Equal(t, "ap-southeast-2_pool", cfg.UserPoolID)
	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.Equal(t, "ap-southeast-2_pool", aws.ToString(secrets.input.UserPoolId))
	assert.Equal(t, "client-1", aws.ToString(secrets.input.ClientId))
	require.Len(t, store.calls, 1)
	assert.Len(t, store.calls[0], 5)
}

func TestLoadMissing(t *testing.T) {
	values := defaultParameters()
	delete(values, "/agentcore/cognito-client-id")
	delete(values, "/agentcore/cognito-user-pool-id")
	_, err := Load(context.Background(), "ap-southeast-2", NewSSMStore(&fakeSSM{values: values}), NewCognitoSecrets(&fakeCognito{}), Keys{})
	var configErr *ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.ElementsMatch(t, []string{"/agentcore/cognito-client-id", "/agentcore/cognito-user-pool-id"}, configErr.Missing)
}

func TestLoadStoreFailure(t *testing.T) {
	_, err := Load(context.Background(), "", NewSSMStore(&fakeSSM{err: errors.New("throttled")}), nil, Keys{})
	var configErr *ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "configuration error: failed to read parameters: throttled", err.Error())
}

func TestConfigurationErrorMessage(t *testing.T) {
	var testCases = []struct {
		description string
		err         *ConfigurationError
		expect      string
	}{
		{description: "missing", err: &ConfigurationError{Missing: []string{"/a", "/b"}}, expect: "configuration error: missing required parameters: /a, /b"},
		{description: "key with cause", err: &ConfigurationError{Key: "k", Message: "bad", Cause: errors.New("boom")}, expect: "configuration error: k: bad: boom"},
		{description: "key", err: &ConfigurationError{Key: "k", Message: "bad"}, expect: "configuration error: k: bad"},
		{description: "cause", err: &ConfigurationError{Message: "failed to read parameters", Cause: errors.New("AccessDeniedException")}, expect: "configuration error: failed to read parameters: AccessDeniedException"},
		{description: "message", err: &ConfigurationError{Message: "bad"}, expect: "configuration error: bad"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, testCase.err.Error())
		})
	}
}

func TestLoadEmptySecret(t *testing.T) {
	_, err := Load(context.Background(), "", NewSSMStore(&fakeSSM{values: defaultParameters()}), NewCognitoSecrets(&fakeCognito{}), Keys{})
	var configErr *ConfigurationError
	assert.True(t, errors.As(err, &configErr))
}

func TestFileStore(t *testing.T) {
	location := filepath.Join(t.TempDir(), "parameters.yaml")
	document := `
/dev/mcp-calculator-runtime-arn: arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/calc
/dev/cognito-client-id: local-client
/dev/cognito-client-secret: local-secret
/dev/cognito-token-endpoint: http://127.0.0.1:9999/token
/dev/cognito-user-pool-id: us-east-1_local
`
	require.NoError(t, os.WriteFile(location, []byte(document), 0o600))

	cfg, err := Load(context.Background(), "us-east-1", NewFileStore(location), nil, Keys{Prefix: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "local-secret", cfg.ClientSecret)
	assert.Equal(t, "http://127.0.0.1:9999/token", cfg.TokenEndpoint)
}

func TestKeysName(t *testing.T) {
	assert.Equal(t, "/agentcore/cognito-client-id", Keys{}.Name(ClientIDKey))
	assert.Equal(t, "/stage/cognito-client-id", Keys{Prefix: "/stage/"}.Name(ClientIDKey))
}
