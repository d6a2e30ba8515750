package weapon

import (
	"sort"
	"time"
)

// Entry is one registered weapon: its class, base stats and optional
// specialization.
type Entry struct {
	ID             string          `json:"id"`
	Category       Category        `json:"category"`
	Stats          Stats           `json:"stats"`
	Specialization *Specialization `json:"specialization,omitempty"`
}

// Registry maps weapon identifiers to their definitions. It is plain data
// handed to a Factory; nothing reads it as global state.
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Add registers (or replaces) the base stats for id.
func (r *Registry) Add(id string, category Category, stats Stats) *Registry {
	if e, ok := r.entries[id]; ok {
		e.Category = category
		e.Stats = stats
		return r
	}
	r.entries[id] = &Entry{ID: id, Category: category, Stats: stats}
	return r
}

// Specialize attaches a specialization to id, creating the entry if needed.
// A melee entry without stats gets them synthesized by the factory.
func (r *Registry) Specialize(id string, spec Specialization) *Registry {
	e, ok := r.entries[id]
	if !ok {
		e = &Entry{ID: id}
		r.entries[id] = e
	}
	s := spec
	e.Specialization = &s
	return r
}

// Lookup returns a copy of the entry for id
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	out := *e
	if e.Specialization != nil {
		s := *e.Specialization
		out.Specialization = &s
	}
	return out, true
}

// IDs returns every registered identifier, sorted
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered weapons
func (r *Registry) Len() int { return len(r.entries) }

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// DefaultRegistry returns the standard armory.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Add("AR-1", CategoryAssaultRifle, Stats{Damage: 25, RateOfFire: 600, MagazineSize: 30, ReloadTime: seconds(2.5), Accuracy: 0.85, Range: 75})
	r.Add("BR-2", CategoryAssaultRifle, Stats{Damage: 20, RateOfFire: 800, MagazineSize: 36, ReloadTime: seconds(2.2), Accuracy: 0.9, Range: 85})
	r.Add("SM-1", CategorySMG, Stats{Damage: 18, RateOfFire: 900, MagazineSize: 35, ReloadTime: seconds(1.8), Accuracy: 0.75, Range: 45})
	r.Add("SM-2", CategorySMG, Stats{Damage: 20, RateOfFire: 750, MagazineSize: 25, ReloadTime: seconds(1.5), Accuracy: 0.8, Range: 55})
	r.Add("SG-1", CategoryShotgun, Stats{Damage: 120, RateOfFire: 60, MagazineSize: 6, ReloadTime: seconds(0.5), Accuracy: 0.7, Range: 20})
	r.Add("SG-2", CategoryShotgun, Stats{Damage: 80, RateOfFire: 180, MagazineSize: 8, ReloadTime: seconds(2.8), Accuracy: 0.65, Range: 15})
	r.Add("P-1", CategoryPistol, Stats{Damage: 30, RateOfFire: 380, MagazineSize: 12, ReloadTime: seconds(1.5), Accuracy: 0.85, Range: 40})
	r.Add("P-2", CategoryPistol, Stats{Damage: 45, RateOfFire: 150, MagazineSize: 8, ReloadTime: seconds(1.8), Accuracy: 0.9, Range: 50})
	r.Add("MP-1", CategoryMachinePistol, Stats{Damage: 15, RateOfFire: 1000, MagazineSize: 21, ReloadTime: seconds(1.6), Accuracy: 0.75, Range: 35})
	r.Add("SR-1", CategorySniperRifle, Stats{Damage: 150, RateOfFire: 45, MagazineSize: 5, ReloadTime: seconds(3.0), Accuracy: 1.0, Range: 100})
	r.Add("SR-2", CategorySniperRifle, Stats{Damage: 85, RateOfFire: 90, MagazineSize: 10, ReloadTime: seconds(2.8), Accuracy: 0.95, Range: 90})
	r.Add("RL-1", CategoryRocketLauncher, Stats{Damage: 120, RateOfFire: 30, MagazineSize: 1, ReloadTime: seconds(3.5), Accuracy: 0.9, Range: 80})
	r.Add("GL-1", CategoryGrenadeLauncher, Stats{Damage: 85, RateOfFire: 90, MagazineSize: 6, ReloadTime: seconds(3.0), Accuracy: 0.85, Range: 60})

	r.Specialize("BR-2", Burst(3, 50*time.Millisecond))
	r.Specialize("MP-1", Burst(3, 30*time.Millisecond))
	r.Specialize("SG-1", Shotgun(12, 25))
	r.Specialize("SG-2", Shotgun(8, 35))
	r.Specialize("RL-1", Explosive(3, 80))
	r.Specialize("GL-1", Explosive(2.5, 65))
	r.Specialize("COMBAT_KNIFE", Melee(35, 85, time.Second))
	r.Specialize("ENERGY_SWORD", Melee(50, 100, time.Second))

	return r
}
