// Package bedrock implements agent.Reasoner on the Amazon Bedrock Converse API.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/viant/agentcore/agent"
	"github.com/viant/agentcore/internal/logging"
)

// DefaultModelID is the inference profile used unless overridden.
const DefaultModelID = "apac.anthropic.claude-sonnet-4-20250514-v1:0"

// ConverseAPI is the subset of the Bedrock runtime client used by the reasoner.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Reasoner asks a Bedrock model for the next assistant turn.
type Reasoner struct {
	client      ConverseAPI
	modelID     string
	maxTokens   int32
	temperature *float32
	logger      *slog.Logger
}

// Option configures a Reasoner.
type Option func(*Reasoner)

// WithMaxTokens bounds the length of each model turn.
func WithMaxTokens(n int32) Option {
	return func(r *Reasoner) {
		r.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(r *Reasoner) {
		r.temperature = &t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reasoner) {
		r.logger = logging.WithComponent(logger, "bedrock")
	}
}

// New creates a reasoner for modelID.
func New(client ConverseAPI, modelID string, options ...Option) *Reasoner {
	if modelID == "" {
		modelID = DefaultModelID
	}
	ret := &Reasoner{
		client:    client,
		modelID:   modelID,
		maxTokens: 1024,
		logger:    logging.WithComponent(nil, "bedrock"),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// NewFromConfig creates a reasoner backed by a Bedrock runtime client.
func NewFromConfig(cfg aws.Config, modelID string, options ...Option) *Reasoner {
	return New(bedrockruntime.NewFromConfig(cfg), modelID, options...)
}

// Next implements agent.Reasoner.
func (r *Reasoner) Next(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
	input, err := r.converseInput(request)
	if err != nil {
		return nil, err
	}
	output, err := r.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("converse with %s failed: %w", r.modelID, err)
	}
	message, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("converse with %s returned no message", r.modelID)
	}
	turn, err := asTurn(&message.Value)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("model turn", "stopReason", string(output.StopReason), "toolCalls", len(turn.ToolCalls()))
	return turn, nil
}

func (r *Reasoner) converseInput(request *agent.Request) (*bedrockruntime.ConverseInput, error) {
	messages, err := asMessages(request.Turns)
	if err != nil {
		return nil, err
	}
	ret := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(r.modelID),
		Messages: messages,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(r.maxTokens),
			Temperature: r.temperature,
		},
	}
	if request.System != "" {
		ret.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: request.System}}
	}
	if len(request.Tools) > 0 {
		config := &types.ToolConfiguration{}
		for _, definition := range request.Tools {
			spec := types.ToolSpecification{
				Name:        aws.String(definition.Name),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(definition.InputSchema)},
			}
			if definition.Description != "" {
				spec.Description = aws.String(definition.Description)
			}
			config.Tools = append(config.Tools, &types.ToolMemberToolSpec{Value: spec})
		}
		ret.ToolConfig = config
	}
	return ret, nil
}

func asMessages(turns []*agent.Turn) ([]types.Message, error) {
	var ret []types.Message
	for _, turn := range turns {
		message := types.Message{Role: types.ConversationRoleUser}
		if turn.Role == agent.RoleAssistant {
			message.Role = types.ConversationRoleAssistant
		}
		for _, segment := range turn.Segments {
			switch {
			case segment.ToolCall != nil:
				arguments := segment.ToolCall.Arguments
				if arguments == nil {
					arguments = map[string]interface{}{}
				}
				message.Content = append(message.Content, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(segment.ToolCall.ID),
					Name:      aws.String(segment.ToolCall.Name),
					Input:     document.NewLazyDocument(arguments),
				}})
			case segment.ToolResult != nil:
				status := types.ToolResultStatusSuccess
				if segment.ToolResult.IsError {
					status = types.ToolResultStatusError
				}
				message.Content = append(message.Content, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
					ToolUseId: aws.String(segment.ToolResult.CallID),
					Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: segment.ToolResult.Text}},
					Status:    status,
				}})
			case segment.Text != "":
				message.Content = append(message.Content, &types.ContentBlockMemberText{Value: segment.Text})
			}
		}
		if len(message.Content) == 0 {
			continue
		}
		ret = append(ret, message)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("conversation was empty")
	}
	return ret, nil
}

func asTurn(message *types.Message) (*agent.Turn, error) {
	ret := &agent.Turn{Role: agent.RoleAssistant}
	for _, block := range message.Content {
		switch content := block.(type) {
		case *types.ContentBlockMemberText:
			ret.Segments = append(ret.Segments, &agent.Segment{Text: content.Value})
		case *types.ContentBlockMemberToolUse:
			arguments, err := asArguments(content.Value.Input)
			if err != nil {
				return nil, fmt.Errorf("invalid input for tool %s: %w", aws.ToString(content.Value.Name), err)
			}
			ret.Segments = append(ret.Segments, &agent.Segment{ToolCall: &agent.ToolCall{
				ID:        aws.ToString(content.Value.ToolUseId),
				Name:      aws.ToString(content.Value.Name),
				Arguments: arguments,
			}})
		}
	}
	return ret, nil
}

// asArguments decodes a tool input document with encoding/json number semantics.
func asArguments(input document.Interface) (map[string]interface{}, error) {
	ret := map[string]interface{}{}
	if input == nil {
		return ret, nil
	}
	data, err := input.MarshalSmithyDocument()
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
