// Package endpoint resolves a remote runtime identifier into its invocation URL.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/viant/agentcore/config"
)

const (
	regionPlaceholder   = "{region}"
	resourcePlaceholder = "{resource}"

	// DefaultQualifier selects the default runtime deployment.
	DefaultQualifier = "DEFAULT"

	runtimeService = "bedrock-agentcore"
	runtimePrefix  = "runtime/"
)

// Template is an invocation URL template with {region} and {resource} placeholders.
type Template string

// DefaultTemplate is the AgentCore runtime invocation endpoint.
const DefaultTemplate Template = "https://bedrock-agentcore.{region}.amazonaws.com/runtimes/{resource}/invocations"

// Resolve interpolates the escaped resource identifier and region into the template and
// appends the qualifier as a query parameter.
func (t Template) Resolve(region, resourceID, qualifier string) string {
	replacer := strings.NewReplacer(regionPlaceholder, region, resourcePlaceholder, Escape(resourceID))
	return replacer.Replace(string(t)) + "?qualifier=" + url.QueryEscape(qualifier)
}

// Resolve resolves against DefaultTemplate.
func Resolve(region, resourceID, qualifier string) string {
	return DefaultTemplate.Resolve(region, resourceID, qualifier)
}

// Escape percent-encodes s as a single path segment; only unreserved characters
// (ALPHA, DIGIT, '-', '.', '_', '~') are left as is.
func Escape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// Runtime is a resolved invocation target.
type Runtime struct {
	Region     string
	ResourceID string
	Qualifier  string
	URL        string
}

// New validates the runtime resource name and resolves its invocation URL.
// An empty region falls back to the region embedded in the resource name.
func New(template Template, region, resourceID, qualifier string) (*Runtime, error) {
	if template == "" {
		template = DefaultTemplate
	}
	if qualifier == "" {
		qualifier = DefaultQualifier
	}
	parsed, err := arn.Parse(resourceID)
	if err != nil {
		return nil, &config.ConfigurationError{Key: "runtime-arn", Message: "malformed runtime resource name", Cause: err}
	}
	if parsed.Service != runtimeService || !strings.HasPrefix(parsed.Resource, runtimePrefix) {
		return nil, &config.ConfigurationError{Key: "runtime-arn", Message: fmt.Sprintf("%q is not a %s runtime", resourceID, runtimeService)}
	}
	if region == "" {
		region = parsed.Region
	}
	if region == "" {
		return nil, &config.ConfigurationError{Key: "region", Message: "region is required"}
	}
	return &Runtime{
		Region:     region,
		ResourceID: resourceID,
		Qualifier:  qualifier,
		URL:        template.Resolve(region, resourceID, qualifier),
	}, nil
}
