package weapon

import (
	"math/rand"
	"time"
)

// Melee stats used when a melee entry has no explicit stats
var meleeStats = Stats{
	RateOfFire: 120,
	Accuracy:   1,
	Range:      2,
}

// Factory builds weapon instances from an injected registry.
type Factory struct {
	registry *Registry
	rng      *rand.Rand
}

// NewFactory creates a factory. Weapons it builds share rng; a nil rng gets
// a time-seeded one.
func NewFactory(registry *Registry, rng *rand.Rand) *Factory {
	if registry == nil {
		registry = NewRegistry()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Factory{registry: registry, rng: rng}
}

// Create builds the weapon registered as id. Unknown ids return (nil, false).
func (f *Factory) Create(id string) (*Weapon, bool) {
	e, ok := f.registry.Lookup(id)
	if !ok {
		return nil, false
	}

	spec := Specialization{Kind: KindStandard}
	if e.Specialization != nil {
		spec = *e.Specialization
	}

	stats := e.Stats
	if spec.Kind == KindMelee && stats.RateOfFire == 0 {
		stats = meleeStats
		stats.Damage = spec.QuickDamage
	}
	if stats.RateOfFire == 0 && spec.Kind != KindMelee {
		// Specialization registered without base stats
		return nil, false
	}

	return New(e.ID, e.Category, stats, spec, f.rng), true
}

// Available returns the registry entries in id order
func (f *Factory) Available() []Entry {
	ids := f.registry.IDs()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.registry.Lookup(id); ok {
			if e.Specialization != nil && e.Specialization.Kind == KindMelee {
				e.Category = CategoryMelee
				if e.Stats.RateOfFire == 0 {
					e.Stats = meleeStats
					e.Stats.Damage = e.Specialization.QuickDamage
				}
			}
			out = append(out, e)
		}
	}
	return out
}

// Registry returns the factory's registry
func (f *Factory) Registry() *Registry { return f.registry }
