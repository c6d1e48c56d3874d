package agentcore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/viant/agentcore/agent"
	"github.com/viant/agentcore/agent/bedrock"
	"github.com/viant/agentcore/client"
	"github.com/viant/agentcore/client/auth"
	"github.com/viant/agentcore/client/streamable"
	"github.com/viant/agentcore/config"
	"github.com/viant/agentcore/endpoint"
	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
	"github.com/viant/agentcore/registry"
)

const abortTimeout = 5 * time.Second

// Service owns one authenticated tool session and the agent answering prompts with it.
type Service struct {
	options  *Options
	config   *config.Config
	runtime  *endpoint.Runtime
	session  *client.Session
	registry *registry.Registry
	agent    *agent.Agent
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Config returns the loaded parameters.
func (s *Service) Config() *config.Config {
	return s.config
}

// Runtime returns the resolved invocation target.
func (s *Service) Runtime() *endpoint.Runtime {
	return s.runtime
}

// Session returns the open tool session.
func (s *Service) Session() *client.Session {
	return s.session
}

// Registry returns the discovered tools.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Metrics returns the service collectors.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// Respond answers prompt within the configured request timeout.
func (s *Service) Respond(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.options.RequestTimeout)
	defer cancel()
	return s.agent.Respond(ctx, prompt)
}

// Shutdown terminates the tool session.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.session.Close(ctx)
}

// New loads the parameters, acquires the first credential, opens the tool session and
// discovers its tools, all within Options.StartupTimeout. Any failure is fatal: a
// partially opened session is closed.
func New(ctx context.Context, options *Options) (*Service, error) {
	if options == nil {
		options = &Options{}
	}
	options.Init()
	ctx, cancel := context.WithTimeout(ctx, options.StartupTimeout)
	defer cancel()
	logger := options.Logger
	if logger == nil {
		logger = logging.New(&logging.Config{Level: options.LogLevel, Format: logging.Format(options.LogFormat)})
	}
	m := options.Metrics
	if m == nil {
		m = metrics.New()
	}
	ret := &Service{options: options, metrics: m, logger: logger}

	awsConfig, err := ret.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	store := options.Store
	switch {
	case store != nil:
	case options.ParametersURL != "":
		store = config.NewFileStore(options.ParametersURL)
	default:
		store = config.NewSSMStoreFromConfig(awsConfig)
	}
	secrets := options.Secrets
	if secrets == nil {
		secrets = config.NewCognitoSecretsFromConfig(awsConfig)
	}
	if ret.config, err = config.Load(ctx, options.Region, store, secrets, config.Keys{Prefix: options.Prefix}); err != nil {
		return nil, err
	}
	if ret.runtime, err = endpoint.New(endpoint.Template(options.Template), options.Region, ret.config.RuntimeARN, options.Qualifier); err != nil {
		return nil, err
	}
	logger.Info("configuration loaded", "runtime", ret.runtime.ResourceID, "region", ret.runtime.Region)

	providerOptions := []auth.ProviderOption{
		auth.WithScopes(options.Scope),
		auth.WithLogger(logger),
		auth.WithMetrics(m),
		auth.WithHTTPClient(&http.Client{Transport: options.RoundTripper, Timeout: options.RequestTimeout}),
	}
	factoryOptions := []streamable.FactoryOption{
		streamable.WithLogger(logger),
		streamable.WithTimeout(options.RequestTimeout),
	}
	if options.RoundTripper != nil {
		factoryOptions = append(factoryOptions, streamable.WithRoundTripper(options.RoundTripper))
	}
	provider := auth.NewProvider(ret.config.ClientID, ret.config.ClientSecret, ret.config.TokenEndpoint, providerOptions...)
	tokenStore := options.TokenStore
	if tokenStore == nil {
		tokenStore = auth.NewMemoryStore()
	}
	credentials := auth.NewCache(provider, auth.TokenKey{Issuer: ret.config.TokenEndpoint, Scopes: options.Scope}, auth.WithStore(tokenStore))
	if _, err = credentials.Credential(ctx); err != nil {
		return nil, err
	}
	factoryOptions = append(factoryOptions, streamable.WithUnauthorized(credentials.Invalidate))

	ret.session, err = client.New(ret.runtime.URL, streamable.NewFactory(factoryOptions...), credentials,
		client.WithLogger(logger), client.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	if _, err = ret.session.Open(ctx); err != nil {
		ret.abort(ctx)
		return nil, err
	}
	if ret.registry, err = registry.Discover(ctx, ret.session); err != nil {
		ret.abort(ctx)
		return nil, fmt.Errorf("failed to discover tools: %w", err)
	}
	logger.Info("tools discovered", "session", ret.session.ID(), "tools", ret.registry.Names())

	reasoner := options.Reasoner
	if reasoner == nil {
		reasoner = bedrock.NewFromConfig(awsConfig, options.ModelID, bedrock.WithLogger(logger))
	}
	ret.agent = agent.New(reasoner, ret.registry,
		agent.WithMaxRounds(options.MaxRounds),
		agent.WithMaxParallel(options.MaxParallel),
		agent.WithLogger(logger),
		agent.WithMetrics(m))
	return ret, nil
}

func (s *Service) awsConfig(ctx context.Context) (aws.Config, error) {
	if s.options.AWSConfig != nil {
		return *s.options.AWSConfig, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.options.Region))
	if err != nil {
		return aws.Config{}, &config.ConfigurationError{Key: "region", Message: "failed to load AWS configuration", Cause: err}
	}
	return cfg, nil
}

func (s *Service) abort(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()
	if err := s.session.Close(ctx); err != nil {
		s.logger.Warn("failed to close session", "error", err)
	}
}
