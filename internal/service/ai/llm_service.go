package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/z-council/backend/internal/memory"
	"github.com/zhouzirui/z-council/backend/internal/model/persona"
)

// Service owns one Agent per persona and per coordinator, all sharing a chat model.
type Service struct {
	agents map[string]*Agent
}

// NewService builds agents for every definition in personas. Each agent gets its own memory handle.
func NewService(ctx context.Context, personas persona.Store, chatModel model.ChatModel, memories memory.Factory, opts AgentOptions) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if memories == nil {
		memories = memory.InMemoryFactory()
	}

	specs := make([]AgentSpec, 0)
	for _, p := range personas.List() {
		specs = append(specs, AgentSpec{ID: p.ID, Name: p.Name, Instruction: p.Instruction})
	}
	for _, c := range personas.Coordinators() {
		specs = append(specs, AgentSpec{ID: c.ID, Name: c.Name, Instruction: c.Instruction})
	}

	svc := &Service{
		agents: make(map[string]*Agent, len(specs)),
	}
	for _, spec := range specs {
		mem, err := memories(spec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory for agent %s: %w", spec.ID, err)
		}
		agent, err := NewAgent(ctx, spec, chatModel, mem, opts)
		if err != nil {
			return nil, err
		}
		svc.agents[spec.ID] = agent
	}

	log.Printf("[ai] initialized %d agents", len(svc.agents))
	return svc, nil
}

// Agent returns the agent registered under id.
func (s *Service) Agent(id string) (*Agent, bool) {
	agent, ok := s.agents[id]
	return agent, ok
}
