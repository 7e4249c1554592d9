package persona

import (
	"fmt"
)

// Store exposes persona and coordinator retrieval for handlers and the council runtime.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Coordinators() []Coordinator
	FindCoordinator(id string) (Coordinator, bool)
	Collaborators(c Coordinator) ([]Persona, error)
}

// Registry implements Store over validated, immutable definitions.
type Registry struct {
	personas     []Persona
	coordinators []Coordinator
}

// NewRegistry validates the definitions and returns a Registry holding copies of them.
// Every coordinator collaborator must name a persona in the same registry.
func NewRegistry(personas []Persona, coordinators []Coordinator) (*Registry, error) {
	r := &Registry{
		personas:     make([]Persona, 0, len(personas)),
		coordinators: make([]Coordinator, 0, len(coordinators)),
	}

	seen := make(map[string]struct{}, len(personas)+len(coordinators))
	for _, p := range personas {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDefinition, p.ID)
		}
		seen[p.ID] = struct{}{}
		r.personas = append(r.personas, p)
	}

	for _, c := range coordinators {
		c = c.withDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDefinition, c.ID)
		}
		for _, id := range c.Collaborators {
			if _, ok := r.FindByID(id); !ok {
				return nil, fmt.Errorf("%w: coordinator %s references unknown persona %q", ErrInvalidDefinition, c.ID, id)
			}
		}
		seen[c.ID] = struct{}{}
		r.coordinators = append(r.coordinators, c)
	}

	return r, nil
}

// NewSeedRegistry returns a Registry with the built-in advisors and Judge drafts.
func NewSeedRegistry() *Registry {
	r, err := NewRegistry(Seed(), SeedCoordinators())
	if err != nil {
		panic(fmt.Sprintf("persona: invalid seed definitions: %v", err))
	}
	return r
}

// List returns the registered personas.
func (r *Registry) List() []Persona {
	return append([]Persona(nil), r.personas...)
}

// FindByID looks up a persona by identifier.
func (r *Registry) FindByID(id string) (Persona, bool) {
	for _, item := range r.personas {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Coordinators returns the registered coordinators.
func (r *Registry) Coordinators() []Coordinator {
	out := make([]Coordinator, len(r.coordinators))
	for i, c := range r.coordinators {
		c.Collaborators = append([]string(nil), c.Collaborators...)
		out[i] = c
	}
	return out
}

// FindCoordinator looks up a coordinator by identifier.
func (r *Registry) FindCoordinator(id string) (Coordinator, bool) {
	for _, c := range r.coordinators {
		if c.ID == id {
			c.Collaborators = append([]string(nil), c.Collaborators...)
			return c, true
		}
	}
	return Coordinator{}, false
}

// Collaborators resolves a coordinator's collaborator list in order.
func (r *Registry) Collaborators(c Coordinator) ([]Persona, error) {
	out := make([]Persona, 0, len(c.Collaborators))
	for _, id := range c.Collaborators {
		p, ok := r.FindByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: coordinator %s references unknown persona %q", ErrInvalidDefinition, c.ID, id)
		}
		out = append(out, p)
	}
	return out, nil
}
