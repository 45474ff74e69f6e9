// Package profiles maps named denomination profiles to the currency
// unit sets the allocator runs against. Profiles come from a YAML file
// or fall back to the built-in USD set.
package profiles

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tippool/internal/core"
)

// Registry holds the configured profiles in file order.
type Registry struct {
	names []string
	sets  map[string]core.DenominationSet
}

type fileFormat struct {
	Profiles []struct {
		Name          string   `yaml:"name"`
		Denominations []string `yaml:"denominations"`
	} `yaml:"profiles"`
}

// Default returns a registry holding only the built-in "usd" profile.
func Default() *Registry {
	return &Registry{
		names: []string{"usd"},
		sets:  map[string]core.DenominationSet{"usd": core.USDDenominations},
	}
}

// LoadFile reads profiles from a YAML file. Every set is validated up
// front so a broken profile fails at startup, not mid-distribution.
//
// File shape:
//
//	profiles:
//	  - name: usd
//	    denominations: ["100", "50", "20", "10", "5", "1", "0.25", "0.10", "0.05", "0.01"]
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates YAML profile data.
func Parse(raw []byte) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse profiles yaml: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("profiles file defines no profiles")
	}

	r := &Registry{sets: make(map[string]core.DenominationSet)}
	for _, p := range f.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile with empty name")
		}
		if _, dup := r.sets[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		set := make(core.DenominationSet, 0, len(p.Denominations))
		for _, v := range p.Denominations {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("profile %q: bad denomination %q: %w", p.Name, v, err)
			}
			set = append(set, core.Money{Cents: d.Shift(2).Round(0).IntPart()})
		}
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		r.names = append(r.names, p.Name)
		r.sets[p.Name] = set
	}
	return r, nil
}

// Get looks up a profile by name.
func (r *Registry) Get(name string) (core.DenominationSet, bool) {
	set, ok := r.sets[name]
	return set, ok
}

// Names lists profile names in file order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
