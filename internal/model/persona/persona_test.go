package persona

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeedPersonasHaveNameAndInstruction(t *testing.T) {
	for _, p := range Seed() {
		if strings.TrimSpace(p.Name) == "" {
			t.Fatalf("persona %s has empty name", p.ID)
		}
		if strings.TrimSpace(p.Instruction) == "" {
			t.Fatalf("persona %s has empty instruction", p.ID)
		}
	}
}

func TestSeedCoordinatorsShape(t *testing.T) {
	for _, c := range SeedCoordinators() {
		if len(c.Collaborators) != 2 || c.Collaborators[0] != SageID || c.Collaborators[1] != OracleID {
			t.Fatalf("coordinator %s collaborators = %v, want [sage oracle]", c.ID, c.Collaborators)
		}
		if c.MaxIterations <= 0 {
			t.Fatalf("coordinator %s max iterations = %d", c.ID, c.MaxIterations)
		}
		if !c.Mode.Known() {
			t.Fatalf("coordinator %s has unknown mode %q", c.ID, c.Mode)
		}
		for _, header := range []string{"Synthesis", "Recommended Path"} {
			if !strings.Contains(c.Instruction, header) {
				t.Fatalf("coordinator %s instruction missing %q", c.ID, header)
			}
		}
	}
}

func TestSeedDraftsDifferInDispatch(t *testing.T) {
	if NewJudge().Dispatch != DispatchSequential {
		t.Fatalf("default judge should dispatch sequentially")
	}
	if NewJudgeParallel().Dispatch != DispatchParallel {
		t.Fatalf("parallel judge should dispatch in parallel")
	}
}

func TestCoordinatorValidate(t *testing.T) {
	base := NewJudge()

	noCollab := base
	noCollab.Collaborators = nil
	if err := noCollab.Validate(); !errors.Is(err, ErrNoCollaborators) {
		t.Fatalf("expected ErrNoCollaborators, got %v", err)
	}

	zeroIter := base
	zeroIter.MaxIterations = 0
	if err := zeroIter.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for zero iterations, got %v", err)
	}

	badMode := base
	badMode.Mode = "swarm"
	if err := badMode.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for unknown mode, got %v", err)
	}
}

func TestRegistryRejectsUnknownCollaborator(t *testing.T) {
	c := NewJudge()
	c.Collaborators = []string{SageID, "ghost"}
	if _, err := NewRegistry(Seed(), []Coordinator{c}); err == nil {
		t.Fatal("expected error for unknown collaborator")
	}
}

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	if _, err := NewRegistry([]Persona{NewSage(), NewSage()}, nil); err == nil {
		t.Fatal("expected error for duplicate persona id")
	}
}

func TestRegistryReturnsCopies(t *testing.T) {
	r := NewSeedRegistry()
	c, ok := r.FindCoordinator(JudgeID)
	if !ok {
		t.Fatal("judge not found")
	}
	c.Collaborators[0] = "mutated"

	again, _ := r.FindCoordinator(JudgeID)
	if again.Collaborators[0] != SageID {
		t.Fatalf("registry state mutated through returned coordinator: %v", again.Collaborators)
	}

	collaborators, err := r.Collaborators(again)
	if err != nil {
		t.Fatalf("Collaborators err: %v", err)
	}
	if collaborators[0].Name != "Sage" || collaborators[1].Name != "Oracle" {
		t.Fatalf("unexpected collaborators: %+v", collaborators)
	}
}

func TestLoadRegistryOverlaysDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "council.yaml")
	content := `personas:
  - id: sage
    name: Sage
    instruction: You are a terse Sage.
  - id: skeptic
    name: Skeptic
    instruction: Doubt everything politely.
coordinators:
  - id: tribunal
    name: Tribunal
    instruction: "Gather views, cross-rate, then write Synthesis and Recommended Path."
    collaborators: [sage, oracle, skeptic]
    max_iterations: 16
    dispatch: parallel
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry err: %v", err)
	}

	sage, _ := r.FindByID(SageID)
	if sage.Instruction != "You are a terse Sage." {
		t.Fatalf("sage not overridden: %q", sage.Instruction)
	}
	if _, ok := r.FindByID("skeptic"); !ok {
		t.Fatal("skeptic not registered")
	}

	tribunal, ok := r.FindCoordinator("tribunal")
	if !ok {
		t.Fatal("tribunal not registered")
	}
	if tribunal.Mode != ModeSupervisor {
		t.Fatalf("expected default supervisor mode, got %q", tribunal.Mode)
	}
	if len(tribunal.Collaborators) != 3 {
		t.Fatalf("unexpected collaborators: %v", tribunal.Collaborators)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("personas: [")); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}
