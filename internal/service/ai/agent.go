package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-council/backend/internal/memory"
)

// AgentSpec is the immutable part of an agent: who it is and what it was told.
type AgentSpec struct {
	ID          string
	Name        string
	Instruction string
}

// AgentOptions tunes how an agent uses its memory and the model.
type AgentOptions struct {
	HistoryLimit int
	Streaming    bool
}

// Agent pairs an instruction with a model client and a memory handle.
type Agent struct {
	spec         AgentSpec
	memory       memory.Store
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
	streaming    bool
}

// NewAgent compiles the prompt chain for spec on top of chatModel.
func NewAgent(ctx context.Context, spec AgentSpec, chatModel model.ChatModel, mem memory.Store, opts AgentOptions) (*Agent, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("agent %s: chat model is required", spec.ID)
	}
	if strings.TrimSpace(spec.Instruction) == "" {
		return nil, fmt.Errorf("agent %s: instruction is required", spec.ID)
	}
	if mem == nil {
		mem = memory.NewInMemory()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chain for agent %s: %w", spec.ID, err)
	}

	return &Agent{
		spec:         spec,
		memory:       mem,
		chain:        runnable,
		historyLimit: opts.HistoryLimit,
		streaming:    opts.Streaming,
	}, nil
}

func (a *Agent) ID() string   { return a.spec.ID }
func (a *Agent) Name() string { return a.spec.Name }

// StreamingEnabled 指示是否开启流式输出。
func (a *Agent) StreamingEnabled() bool { return a.streaming }

// Ask runs one turn against the agent and records it in the agent's memory.
func (a *Agent) Ask(ctx context.Context, sessionID, query string) (*schema.Message, error) {
	input, err := a.buildChainInput(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}

	response, err := a.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("agent %s: failed to run chain: %w", a.spec.Name, err)
	}

	if err := a.Remember(ctx, sessionID, query, response.Content); err != nil {
		log.Printf("[ai] failed to persist memory for agent=%s session=%s: %v", a.spec.ID, sessionID, err)
	}

	log.Printf("[ai] generated response for session=%s, agent=%s, length=%d", sessionID, a.spec.ID, len(response.Content))
	return response, nil
}

// Stream streams the agent's reply. The caller records the finished turn with Remember.
func (a *Agent) Stream(ctx context.Context, sessionID, query string) (*schema.StreamReader[*schema.Message], error) {
	input, err := a.buildChainInput(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}

	stream, err := a.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("agent %s: failed to stream chain output: %w", a.spec.Name, err)
	}
	return stream, nil
}

// Remember appends a finished exchange to the agent's memory.
func (a *Agent) Remember(ctx context.Context, sessionID, query, answer string) error {
	return a.memory.Append(ctx, sessionID,
		memory.Message{Role: memory.RoleUser, Text: query},
		memory.Message{Role: memory.RoleAssistant, Text: answer},
	)
}

// History returns what the agent remembers for sessionID.
func (a *Agent) History(ctx context.Context, sessionID string) ([]memory.Message, error) {
	return a.memory.Load(ctx, sessionID)
}

func (a *Agent) buildChainInput(ctx context.Context, sessionID, query string) (map[string]any, error) {
	history, err := a.memory.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("agent %s: failed to load memory: %w", a.spec.ID, err)
	}

	return map[string]any{
		"system":  a.spec.Instruction,
		"history": buildHistoryMessages(history, a.historyLimit),
		"query":   query,
	}, nil
}

func buildHistoryMessages(messages []memory.Message, limit int) []*schema.Message {
	if len(messages) == 0 || limit <= 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case memory.RoleUser:
			history = append(history, schema.UserMessage(msg.Text))
		case memory.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return history
}
