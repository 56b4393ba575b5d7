package memory

import (
	"fmt"
	"os"

	"github.com/aretw0/aware/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML description of a world.
//
//	locations:
//	  - id: hall
//	    exits:
//	      - {id: hall-yard, name: "out;o", to: yard, return_id: yard-hall}
//	entities:
//	  - {id: guard, location: hall}
type Fixture struct {
	Locations []FixtureLocation `yaml:"locations"`
	Entities  []FixtureEntity   `yaml:"entities"`
}

// FixtureLocation declares a location and its outbound exits.
type FixtureLocation struct {
	ID    domain.LocationID `yaml:"id"`
	Exits []domain.Exit     `yaml:"exits"`
}

// FixtureEntity places an entity; an empty location means nowhere.
type FixtureEntity struct {
	ID       domain.EntityID   `yaml:"id"`
	Location domain.LocationID `yaml:"location"`
}

// NewFromFixture builds a world from a fixture.
func NewFromFixture(f Fixture) (*World, error) {
	w := NewWorld()
	for _, loc := range f.Locations {
		if loc.ID == "" {
			return nil, fmt.Errorf("location missing id")
		}
		w.AddLocation(loc.ID)
	}
	for _, loc := range f.Locations {
		for _, exit := range loc.Exits {
			if exit.To == "" {
				return nil, fmt.Errorf("exit %q of %s has no destination", exit.Name, loc.ID)
			}
			exit.From = loc.ID
			w.AddExit(exit)
		}
	}
	for _, e := range f.Entities {
		if e.ID == "" {
			return nil, fmt.Errorf("entity missing id")
		}
		w.Place(e.ID, e.Location)
	}
	return w, nil
}

// LoadWorld reads a YAML fixture file.
func LoadWorld(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse world fixture: %w", err)
	}
	return NewFromFixture(f)
}
