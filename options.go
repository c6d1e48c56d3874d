package agentcore

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/viant/agentcore/agent"
	"github.com/viant/agentcore/client/auth"
	"github.com/viant/agentcore/config"
	"github.com/viant/agentcore/endpoint"
	"github.com/viant/agentcore/internal/metrics"
)

// Options defines options for configuring the bridge service.
type Options struct {
	Region         string        `yaml:"region,omitempty" json:"region,omitempty" short:"r" long:"region" description:"AWS region" default:"ap-southeast-2"`
	Prefix         string        `yaml:"prefix,omitempty" json:"prefix,omitempty" short:"P" long:"prefix" description:"parameter store prefix" default:"/agentcore"`
	ParametersURL  string        `yaml:"parametersURL,omitempty" json:"parametersURL,omitempty" short:"f" long:"parameters" description:"YAML parameters file URL, replaces the parameter store"`
	Qualifier      string        `yaml:"qualifier,omitempty" json:"qualifier,omitempty" short:"q" long:"qualifier" description:"runtime qualifier" default:"DEFAULT"`
	Template       string        `yaml:"template,omitempty" json:"template,omitempty" short:"t" long:"endpoint-template" description:"runtime invocation URL template with {region} and {resource} placeholders"`
	Scope          string        `yaml:"scope,omitempty" json:"scope,omitempty" short:"s" long:"scope" description:"OAuth2 scope" default:"agentcore/invoke"`
	ModelID        string        `yaml:"modelID,omitempty" json:"modelID,omitempty" short:"m" long:"model" description:"Bedrock model id"`
	MaxRounds      int           `yaml:"maxRounds,omitempty" json:"maxRounds,omitempty" long:"max-rounds" description:"max tool rounds per prompt" default:"8"`
	MaxParallel    int           `yaml:"maxParallel,omitempty" json:"maxParallel,omitempty" long:"max-parallel" description:"max concurrent tool calls per round" default:"4"`
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty" long:"timeout" description:"prompt response timeout" default:"2m"`
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty" json:"startupTimeout,omitempty" long:"startup-timeout" description:"bound on loading parameters, acquiring the first token and discovering tools" default:"30s"`
	Addr           string        `yaml:"addr,omitempty" json:"addr,omitempty" short:"a" long:"addr" description:"listen address" default:":8080"`
	LogLevel       string        `yaml:"logLevel,omitempty" json:"logLevel,omitempty" short:"l" long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogFormat      string        `yaml:"logFormat,omitempty" json:"logFormat,omitempty" long:"log-format" description:"log format" default:"json" choice:"json" choice:"text"`

	// Store replaces the parameter store.
	Store config.Store `yaml:"-" json:"-"`
	// Secrets replaces the Cognito client secret lookup.
	Secrets config.SecretSource `yaml:"-" json:"-"`
	// Reasoner replaces the Bedrock reasoning process.
	Reasoner agent.Reasoner `yaml:"-" json:"-"`
	// RoundTripper is used for both token and MCP requests.
	RoundTripper http.RoundTripper `yaml:"-" json:"-"`
	// TokenStore shares tokens across service instances.
	TokenStore auth.Store       `yaml:"-" json:"-"`
	AWSConfig  *aws.Config      `yaml:"-" json:"-"`
	Logger     *slog.Logger     `yaml:"-" json:"-"`
	Metrics    *metrics.Metrics `yaml:"-" json:"-"`
}

// Init fills in defaults for options not set by flags.
func (o *Options) Init() {
	if o.Region == "" {
		o.Region = "ap-southeast-2"
	}
	if o.Prefix == "" {
		o.Prefix = config.DefaultPrefix
	}
	if o.Qualifier == "" {
		o.Qualifier = endpoint.DefaultQualifier
	}
	if o.Template == "" {
		o.Template = string(endpoint.DefaultTemplate)
	}
	if o.Scope == "" {
		o.Scope = auth.DefaultScope
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = agent.DefaultMaxRounds
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = agent.DefaultMaxParallel
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 2 * time.Minute
	}
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = 30 * time.Second
	}
	if o.Addr == "" {
		o.Addr = ":8080"
	}
}
