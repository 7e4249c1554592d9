package persona

import (
	"errors"
	"fmt"
	"strings"
)

// CollaborationMode 选择协调者采用的内建编排方式。
type CollaborationMode string

const (
	ModeSupervisor       CollaborationMode = "supervisor"
	ModeSupervisorRouter CollaborationMode = "supervisor_router"
)

// Known reports whether the runtime recognizes the mode.
func (m CollaborationMode) Known() bool {
	switch m {
	case ModeSupervisor, ModeSupervisorRouter:
		return true
	default:
		return false
	}
}

// DispatchMode controls whether collaborators are consulted one by one or all at once.
type DispatchMode string

const (
	DispatchSequential DispatchMode = "sequential"
	DispatchParallel   DispatchMode = "parallel"
)

var (
	ErrInvalidDefinition = errors.New("invalid definition")
	ErrNoCollaborators   = errors.New("coordinator has no collaborators")
)

// Persona captures a leaf advisor: a behavioural contract expressed as instruction text.
type Persona struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title,omitempty" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Instruction string `json:"instruction" yaml:"instruction"`
}

// Validate checks the fields every persona must carry.
func (p Persona) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: persona id is required", ErrInvalidDefinition)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: persona %s has no name", ErrInvalidDefinition, p.ID)
	}
	if strings.TrimSpace(p.Instruction) == "" {
		return fmt.Errorf("%w: persona %s has no instruction", ErrInvalidDefinition, p.ID)
	}
	return nil
}

// Coordinator 描述一个监督者：引用若干 persona，并用指令文本声明多步协作流程。
type Coordinator struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Description   string            `json:"description,omitempty" yaml:"description"`
	Instruction   string            `json:"instruction" yaml:"instruction"`
	Collaborators []string          `json:"collaborators" yaml:"collaborators"`
	Mode          CollaborationMode `json:"collaborationMode" yaml:"collaboration_mode"`
	MaxIterations int               `json:"maxIterations" yaml:"max_iterations"`
	Dispatch      DispatchMode      `json:"dispatch" yaml:"dispatch"`
	Draft         string            `json:"draft,omitempty" yaml:"draft"`
}

// Validate checks the coordinator on its own; collaborator resolution happens in the registry.
func (c Coordinator) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: coordinator id is required", ErrInvalidDefinition)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: coordinator %s has no name", ErrInvalidDefinition, c.ID)
	}
	if strings.TrimSpace(c.Instruction) == "" {
		return fmt.Errorf("%w: coordinator %s has no instruction", ErrInvalidDefinition, c.ID)
	}
	if len(c.Collaborators) == 0 {
		return fmt.Errorf("%w: %s", ErrNoCollaborators, c.ID)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: coordinator %s max iterations must be positive, got %d", ErrInvalidDefinition, c.ID, c.MaxIterations)
	}
	if !c.Mode.Known() {
		return fmt.Errorf("%w: coordinator %s has unknown collaboration mode %q", ErrInvalidDefinition, c.ID, c.Mode)
	}
	switch c.Dispatch {
	case DispatchSequential, DispatchParallel:
	default:
		return fmt.Errorf("%w: coordinator %s has unknown dispatch mode %q", ErrInvalidDefinition, c.ID, c.Dispatch)
	}
	return nil
}

// withDefaults fills the optional fields a definitions file may leave out.
func (c Coordinator) withDefaults() Coordinator {
	if c.Mode == "" {
		c.Mode = ModeSupervisor
	}
	if c.Dispatch == "" {
		c.Dispatch = DispatchSequential
	}
	c.Collaborators = append([]string(nil), c.Collaborators...)
	return c
}
