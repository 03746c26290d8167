package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/sports/american_football_nfl"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/contracts"
)

var (
	// ErrSportNotFound is returned for a sport key nobody registered
	ErrSportNotFound = errors.New("sport module not found")

	// ErrSportDisabled is returned for a registered sport that is switched off
	ErrSportDisabled = errors.New("sport module disabled")
)

// Registry manages available sport modules
type Registry struct {
	modules map[string]contracts.SportModule
	enabled map[string]bool
}

// New creates a registry with all available sports. When enabled is
// non-empty only the listed sport keys are served.
func New(enabled ...string) *Registry {
	r := &Registry{
		modules: make(map[string]contracts.SportModule),
	}

	r.Register(american_football_nfl.New())

	if len(enabled) > 0 {
		r.enabled = make(map[string]bool, len(enabled))
		for _, key := range enabled {
			r.enabled[key] = true
		}
	}

	return r
}

// Register adds a sport module to the registry
func (r *Registry) Register(module contracts.SportModule) {
	r.modules[module.GetSportKey()] = module
}

// GetModule retrieves an enabled sport module by key
func (r *Registry) GetModule(sportKey string) (contracts.SportModule, error) {
	module, ok := r.modules[sportKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSportNotFound, sportKey)
	}
	if !r.isEnabled(module) {
		return nil, fmt.Errorf("%w: %s", ErrSportDisabled, sportKey)
	}
	return module, nil
}

// EnabledSports returns all enabled sport modules ordered by key
func (r *Registry) EnabledSports() []contracts.SportModule {
	var enabled []contracts.SportModule
	for _, m := range r.modules {
		if r.isEnabled(m) {
			enabled = append(enabled, m)
		}
	}
	sort.Slice(enabled, func(i, j int) bool {
		return enabled[i].GetSportKey() < enabled[j].GetSportKey()
	})
	return enabled
}

// AllSportKeys returns all registered sport keys
func (r *Registry) AllSportKeys() []string {
	keys := make([]string, 0, len(r.modules))
	for key := range r.modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) isEnabled(m contracts.SportModule) bool {
	if !m.IsEnabled() {
		return false
	}
	return r.enabled == nil || r.enabled[m.GetSportKey()]
}
