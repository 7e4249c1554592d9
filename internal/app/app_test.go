package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zhouzirui/z-council/backend/internal/config"
	"github.com/zhouzirui/z-council/backend/internal/service/council"
)

func TestBuildWithoutCredentials(t *testing.T) {
	cfg := &config.Config{
		AI:      config.AIConfig{Provider: config.ProviderAnthropic},
		Council: config.CouncilConfig{DefaultCoordinator: "judge"},
	}

	a, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if a.Sessions != nil || a.Agents != nil {
		t.Fatal("LLM services should be absent without credentials")
	}
	if len(a.Personas.Coordinators()) != 4 {
		t.Fatalf("expected seeded coordinators, got %d", len(a.Personas.Coordinators()))
	}
}

func TestBuildWithAnthropicKey(t *testing.T) {
	cfg := &config.Config{
		AI:      config.AIConfig{Provider: config.ProviderAnthropic, AnthropicAPIKey: "test-key"},
		Council: config.CouncilConfig{DefaultCoordinator: "judge-rounds", MemoryDir: t.TempDir(), HistoryLimit: 4},
	}

	a, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if a.Sessions == nil {
		t.Fatal("expected council sessions")
	}
	if _, ok := a.Agents.Agent("oracle"); !ok {
		t.Fatal("expected oracle agent")
	}
}

func TestBuildRejectsUnknownDefault(t *testing.T) {
	cfg := &config.Config{Council: config.CouncilConfig{DefaultCoordinator: "nobody"}}
	if _, err := Build(context.Background(), cfg); !errors.Is(err, council.ErrUnknownCoordinator) {
		t.Fatalf("expected ErrUnknownCoordinator, got %v", err)
	}
}

func TestBuildUsesDefinitionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "council.yaml")
	defs := `coordinators:
  - id: solo
    name: Solo Judge
    instruction: Ask Sage, then write a Synthesis and a Recommended Path.
    collaborators: [sage]
    max_iterations: 2
`
	if err := os.WriteFile(path, []byte(defs), 0o644); err != nil {
		t.Fatalf("write defs: %v", err)
	}

	cfg := &config.Config{Council: config.CouncilConfig{DefinitionsPath: path, DefaultCoordinator: "solo"}}
	a, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if _, ok := a.Personas.FindCoordinator("solo"); !ok {
		t.Fatal("definitions file not merged")
	}
}
