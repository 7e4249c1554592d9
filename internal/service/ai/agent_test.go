package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-council/backend/internal/memory"
	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	"github.com/zhouzirui/z-council/backend/internal/service/ai/aitest"
)

func TestAgentAskUsesInstructionAndMemory(t *testing.T) {
	ctx := context.Background()
	fake := aitest.Echo("Reflect before you leap.")
	mem := memory.NewInMemory()

	agent, err := NewAgent(ctx, AgentSpec{ID: "sage", Name: "Sage", Instruction: "You are Sage."}, fake, mem, AgentOptions{HistoryLimit: 10})
	if err != nil {
		t.Fatalf("NewAgent err: %v", err)
	}

	if _, err := agent.Ask(ctx, "s1", "first question"); err != nil {
		t.Fatalf("Ask err: %v", err)
	}
	reply, err := agent.Ask(ctx, "s1", "second question")
	if err != nil {
		t.Fatalf("Ask err: %v", err)
	}
	if reply.Content != "Reflect before you leap." {
		t.Fatalf("unexpected reply %q", reply.Content)
	}

	calls := fake.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(calls))
	}
	second := calls[1]
	if aitest.SystemPrompt(second) != "You are Sage." {
		t.Fatalf("system prompt not applied: %q", aitest.SystemPrompt(second))
	}
	// system + remembered user/assistant + new user
	if len(second) != 4 {
		t.Fatalf("expected history to be replayed, got %d messages", len(second))
	}

	history, _ := agent.History(ctx, "s1")
	if len(history) != 4 {
		t.Fatalf("expected 4 remembered turns, got %d", len(history))
	}
}

func TestAgentHistoryLimit(t *testing.T) {
	msgs := []memory.Message{
		{Role: memory.RoleUser, Text: "1"},
		{Role: memory.RoleAssistant, Text: "2"},
		{Role: memory.RoleUser, Text: "3"},
		{Role: memory.RoleAssistant, Text: "4"},
	}
	got := buildHistoryMessages(msgs, 2)
	if len(got) != 2 || got[0].Content != "3" || got[1].Role != schema.Assistant {
		t.Fatalf("unexpected window: %+v", got)
	}
	if buildHistoryMessages(msgs, 0) != nil {
		t.Fatal("zero limit should disable history")
	}
}

func TestAgentStream(t *testing.T) {
	ctx := context.Background()
	agent, err := NewAgent(ctx, AgentSpec{ID: "judge", Name: "Judge", Instruction: "You are Judge."}, aitest.Echo("one two three"), nil, AgentOptions{Streaming: true})
	if err != nil {
		t.Fatalf("NewAgent err: %v", err)
	}

	stream, err := agent.Stream(ctx, "s", "q")
	if err != nil {
		t.Fatalf("Stream err: %v", err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv err: %v", err)
		}
		b.WriteString(chunk.Content)
	}
	if b.String() != "one two three" {
		t.Fatalf("unexpected stream content %q", b.String())
	}
}

func TestAgentPropagatesModelError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("rate limited")
	fake := aitest.NewChatModel(func([]*schema.Message) (string, error) { return "", boom })

	agent, err := NewAgent(ctx, AgentSpec{ID: "oracle", Name: "Oracle", Instruction: "You are Oracle."}, fake, nil, AgentOptions{})
	if err != nil {
		t.Fatalf("NewAgent err: %v", err)
	}
	if _, err := agent.Ask(ctx, "s", "q"); !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestNewAgentValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewAgent(ctx, AgentSpec{ID: "x", Instruction: "i"}, nil, nil, AgentOptions{}); err == nil {
		t.Fatal("expected error without chat model")
	}
	if _, err := NewAgent(ctx, AgentSpec{ID: "x"}, aitest.Echo(""), nil, AgentOptions{}); err == nil {
		t.Fatal("expected error without instruction")
	}
}

func TestServiceBuildsAgentPerDefinition(t *testing.T) {
	svc, err := NewService(context.Background(), persona.NewSeedRegistry(), aitest.Echo("ok"), nil, AgentOptions{})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	for _, id := range []string{persona.SageID, persona.OracleID, persona.JudgeID, persona.JudgeRoundsID} {
		if _, ok := svc.Agent(id); !ok {
			t.Fatalf("agent %s missing", id)
		}
	}
	if _, ok := svc.Agent("nobody"); ok {
		t.Fatal("unexpected agent for unknown id")
	}
}
