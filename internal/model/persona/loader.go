package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definitions is the on-disk layout of a definitions file.
type Definitions struct {
	Personas     []Persona     `yaml:"personas"`
	Coordinators []Coordinator `yaml:"coordinators"`
}

// LoadFile reads a YAML definitions file.
func LoadFile(path string) (Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definitions{}, fmt.Errorf("read definitions %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML definitions.
func Parse(data []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return Definitions{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return defs, nil
}

// Merge overlays defs on top of the seed: entries with a seeded id replace it, others are appended.
func Merge(basePersonas []Persona, baseCoordinators []Coordinator, defs Definitions) ([]Persona, []Coordinator) {
	personas := append([]Persona(nil), basePersonas...)
	for _, p := range defs.Personas {
		replaced := false
		for i := range personas {
			if personas[i].ID == p.ID {
				personas[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			personas = append(personas, p)
		}
	}

	coordinators := append([]Coordinator(nil), baseCoordinators...)
	for _, c := range defs.Coordinators {
		replaced := false
		for i := range coordinators {
			if coordinators[i].ID == c.ID {
				coordinators[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			coordinators = append(coordinators, c)
		}
	}

	return personas, coordinators
}

// LoadRegistry builds a Registry from the seed, optionally overlaid with a definitions file.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(Seed(), SeedCoordinators())
	}
	defs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	personas, coordinators := Merge(Seed(), SeedCoordinators(), defs)
	return NewRegistry(personas, coordinators)
}
