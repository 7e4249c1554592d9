// Package aitest provides scripted chat models for tests.
package aitest

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Responder produces a reply for one model call.
type Responder func(input []*schema.Message) (string, error)

// ChatModel is a model.ChatModel whose replies come from a Responder.
type ChatModel struct {
	respond Responder

	mu    sync.Mutex
	calls [][]*schema.Message
}

var _ model.ChatModel = (*ChatModel)(nil)

// NewChatModel wraps respond.
func NewChatModel(respond Responder) *ChatModel {
	return &ChatModel{respond: respond}
}

// Echo replies with a fixed string.
func Echo(reply string) *ChatModel {
	return NewChatModel(func([]*schema.Message) (string, error) { return reply, nil })
}

func (m *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.record(input)
	content, err := m.respond(input)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream splits the reply on spaces so callers see more than one chunk.
func (m *ChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)
	content, err := m.respond(input)
	if err != nil {
		return nil, err
	}
	words := strings.SplitAfter(content, " ")
	chunks := make([]*schema.Message, 0, len(words))
	for _, w := range words {
		chunks = append(chunks, schema.AssistantMessage(w, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (m *ChatModel) BindTools([]*schema.ToolInfo) error { return nil }

// Calls returns every input the model has seen, in call order.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

func (m *ChatModel) record(input []*schema.Message) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()
}

// SystemPrompt returns the first system message of input.
func SystemPrompt(input []*schema.Message) string {
	for _, msg := range input {
		if msg.Role == schema.System {
			return msg.Content
		}
	}
	return ""
}

// LastUser returns the content of the last user message of input.
func LastUser(input []*schema.Message) string {
	for i := len(input) - 1; i >= 0; i-- {
		if input[i].Role == schema.User {
			return input[i].Content
		}
	}
	return ""
}
