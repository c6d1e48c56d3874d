// Package registry exposes the tools discovered on a session as invocable capabilities.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/mcp-protocol/schema"
)

// Definition describes a capability to the reasoning process.
type Definition struct {
	Name        string
	Description string
	// InputSchema is the JSON schema of the arguments object.
	InputSchema map[string]interface{}
}

// Capability is a tool binding the dispatch loop can invoke without knowing what backs it.
type Capability interface {
	Definition() *Definition
	Invoke(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error)
}

// Invoker calls a tool by name on a remote server.
type Invoker interface {
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*schema.CallToolResult, error)
}

// Lister discovers tool descriptors.
type Lister interface {
	ListTools(ctx context.Context) ([]schema.Tool, error)
}

// UnknownToolError reports a tool name absent from the registry.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q, available tools: %s", e.Name, strings.Join(e.Available, ", "))
}

// Registry maps tool names to capabilities. It is read-only after construction.
type Registry struct {
	order        []string
	capabilities map[string]Capability
}

// New creates a registry from capabilities; names must be unique.
func New(capabilities ...Capability) (*Registry, error) {
	ret := &Registry{capabilities: make(map[string]Capability, len(capabilities))}
	for _, capability := range capabilities {
		name := capability.Definition().Name
		if name == "" {
			return nil, fmt.Errorf("tool name was empty")
		}
		if _, ok := ret.capabilities[name]; ok {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		ret.capabilities[name] = capability
		ret.order = append(ret.order, name)
	}
	return ret, nil
}

// FromDescriptors binds remote tool descriptors to invoker.
func FromDescriptors(invoker Invoker, descriptors []schema.Tool) (*Registry, error) {
	capabilities := make([]Capability, 0, len(descriptors))
	for i := range descriptors {
		tool, err := newRemoteTool(invoker, &descriptors[i])
		if err != nil {
			return nil, err
		}
		capabilities = append(capabilities, tool)
	}
	return New(capabilities...)
}

// Discover lists the remote catalog once and binds it to the session.
func Discover(ctx context.Context, session interface {
	Lister
	Invoker
}) (*Registry, error) {
	descriptors, err := session.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	return FromDescriptors(session, descriptors)
}

// Lookup returns the capability named name.
func (r *Registry) Lookup(name string) (Capability, error) {
	if capability, ok := r.capabilities[name]; ok {
		return capability, nil
	}
	available := append([]string(nil), r.order...)
	sort.Strings(available)
	return nil, &UnknownToolError{Name: name, Available: available}
}

// All returns the capabilities in discovery order.
func (r *Registry) All() []Capability {
	ret := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		ret = append(ret, r.capabilities[name])
	}
	return ret
}

// Definitions returns the definitions in discovery order.
func (r *Registry) Definitions() []*Definition {
	ret := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		ret = append(ret, r.capabilities[name].Definition())
	}
	return ret
}

// Names returns the tool names in discovery order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// remoteTool invokes a tool through an Invoker.
type remoteTool struct {
	definition *Definition
	invoker    Invoker
}

func newRemoteTool(invoker Invoker, descriptor *schema.Tool) (*remoteTool, error) {
	inputSchema, err := asMap(descriptor.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("invalid input schema for tool %q: %w", descriptor.Name, err)
	}
	if _, ok := inputSchema["type"]; !ok {
		inputSchema["type"] = "object"
	}
	definition := &Definition{Name: descriptor.Name, InputSchema: inputSchema}
	if descriptor.Description != nil {
		definition.Description = *descriptor.Description
	}
	return &remoteTool{definition: definition, invoker: invoker}, nil
}

func (t *remoteTool) Definition() *Definition {
	return t.definition
}

func (t *remoteTool) Invoke(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error) {
	return t.invoker.CallTool(ctx, t.definition.Name, arguments)
}

func asMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ret := map[string]interface{}{}
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
