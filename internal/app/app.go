// Package app assembles the council runtime from configuration.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/z-council/backend/internal/config"
	"github.com/zhouzirui/z-council/backend/internal/memory"
	"github.com/zhouzirui/z-council/backend/internal/metrics"
	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	"github.com/zhouzirui/z-council/backend/internal/service/ai"
	"github.com/zhouzirui/z-council/backend/internal/service/chat"
	"github.com/zhouzirui/z-council/backend/internal/service/council"
)

// App holds the wired services. Agents, Council and Sessions are nil when no LLM provider is configured.
type App struct {
	Personas *persona.Registry
	Chat     *chat.Service
	Metrics  *metrics.Council
	Agents   *ai.Service
	Council  *council.Service
	Sessions *council.Sessions
}

// Build loads definitions, checks the default coordinator and, when credentials are present, connects the model.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	registry, err := persona.LoadRegistry(cfg.Council.DefinitionsPath)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	if _, ok := registry.FindCoordinator(cfg.Council.DefaultCoordinator); !ok {
		return nil, fmt.Errorf("%w: COUNCIL_DEFAULT=%s", council.ErrUnknownCoordinator, cfg.Council.DefaultCoordinator)
	}

	a := &App{
		Personas: registry,
		Chat:     chat.NewService(),
		Metrics:  metrics.NewCouncil(),
	}

	if !cfg.AI.Enabled() {
		log.Printf("[app] %s 凭证未配置，跳过 AI 功能初始化", cfg.AI.Provider)
		return a, nil
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	memories := memory.InMemoryFactory()
	if cfg.Council.MemoryDir != "" {
		memories = memory.FileFactory(cfg.Council.MemoryDir)
		log.Printf("[app] agent memory persisted under %s", cfg.Council.MemoryDir)
	}

	a.Agents, err = ai.NewService(ctx, registry, chatModel, memories, ai.AgentOptions{
		HistoryLimit: cfg.Council.HistoryLimit,
		Streaming:    cfg.AI.StreamResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("create agents: %w", err)
	}

	a.Council = council.NewService(registry, a.Agents, council.Options{
		Timeout: cfg.Council.Timeout,
		Metrics: a.Metrics,
	})
	a.Sessions = council.NewSessions(a.Chat, a.Council)

	log.Printf("[app] council ready provider=%s coordinators=%d default=%s", cfg.AI.Provider, len(registry.Coordinators()), cfg.Council.DefaultCoordinator)
	return a, nil
}
