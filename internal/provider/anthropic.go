// Package provider adapts model-provider SDKs to eino's ChatModel interface.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

const defaultMaxTokens = 1024

var ErrToolsUnsupported = errors.New("anthropic adapter: persona agents do not use tools")

// messagesAPI is the slice of the SDK client the adapter needs.
type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicConfig configures the Anthropic chat model.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   *int
	Temperature *float32
	TopP        *float32
}

// AnthropicChatModel implements model.ChatModel on top of the Anthropic Messages API.
type AnthropicChatModel struct {
	messages    messagesAPI
	model       string
	maxTokens   int
	temperature *float32
	topP        *float32
}

var _ model.ChatModel = (*AnthropicChatModel)(nil)

// NewAnthropicChatModel creates a client from cfg. An empty APIKey falls back to ANTHROPIC_API_KEY.
func NewAnthropicChatModel(_ context.Context, cfg AnthropicConfig) (*AnthropicChatModel, error) {
	opts := make([]option.RequestOption, 0, 2)
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return newAnthropicChatModel(&client.Messages, cfg), nil
}

func newAnthropicChatModel(api messagesAPI, cfg AnthropicConfig) *AnthropicChatModel {
	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		name = string(DefaultModel)
	}
	maxTokens := defaultMaxTokens
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		maxTokens = *cfg.MaxTokens
	}
	return &AnthropicChatModel{
		messages:    api,
		model:       name,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

// Generate sends the conversation and returns the concatenated text blocks.
func (m *AnthropicChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	params, err := m.buildParams(input, opts...)
	if err != nil {
		return nil, err
	}

	msg, err := m.messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out := schema.AssistantMessage(text.String(), nil)
	out.ResponseMeta = &schema.ResponseMeta{
		FinishReason: string(msg.StopReason),
		Usage: &schema.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
	return out, nil
}

// Stream returns the full response as a single-chunk stream.
// TODO: switch to Messages.NewStreaming once delta events are needed for Anthropic personas.
func (m *AnthropicChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools is not supported; personas answer from instruction text alone.
func (m *AnthropicChatModel) BindTools(tools []*schema.ToolInfo) error {
	if len(tools) == 0 {
		return nil
	}
	return ErrToolsUnsupported
}

func (m *AnthropicChatModel) buildParams(input []*schema.Message, opts ...model.Option) (anthropic.MessageNewParams, error) {
	common := model.GetCommonOptions(&model.Options{
		Temperature: m.temperature,
		TopP:        m.topP,
		MaxTokens:   &m.maxTokens,
		Model:       &m.model,
	}, opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: int64(m.maxTokens),
	}
	if common.Model != nil && *common.Model != "" {
		params.Model = anthropic.Model(*common.Model)
	}
	if common.MaxTokens != nil && *common.MaxTokens > 0 {
		params.MaxTokens = int64(*common.MaxTokens)
	}
	if common.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*common.Temperature))
	}
	if common.TopP != nil {
		params.TopP = anthropic.Float(float64(*common.TopP))
	}
	if len(common.Stop) > 0 {
		params.StopSequences = common.Stop
	}

	var (
		system   []anthropic.TextBlockParam
		messages []anthropic.MessageParam
		lastRole schema.RoleType
	)
	for _, msg := range input {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case schema.User, schema.Assistant:
			block := anthropic.NewTextBlock(msg.Content)
			// The API rejects consecutive turns from the same role, so fold them together.
			if len(messages) > 0 && lastRole == msg.Role {
				last := &messages[len(messages)-1]
				last.Content = append(last.Content, block)
				continue
			}
			if msg.Role == schema.User {
				messages = append(messages, anthropic.NewUserMessage(block))
			} else {
				messages = append(messages, anthropic.NewAssistantMessage(block))
			}
			lastRole = msg.Role
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("anthropic adapter: unsupported role %q", msg.Role)
		}
	}
	if len(messages) == 0 {
		return anthropic.MessageNewParams{}, errors.New("anthropic adapter: no user or assistant messages")
	}

	params.System = system
	params.Messages = messages
	return params, nil
}
