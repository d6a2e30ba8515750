package game

import "math"

// Position is a point on the match map
type Position struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// Distance returns the euclidean distance to o
func (p Position) Distance(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// BaseStats configure every base in a match
type BaseStats struct {
	MaxHealth      float64       `json:"maxHealth" mapstructure:"max_health"`
	DefenseRating  float64       `json:"defenseRating" mapstructure:"defense_rating"` // percent of damage absorbed
	GenerationRate ResourceTable `json:"generationRate" mapstructure:"generation_rate"`
	MaxGarrison    int           `json:"maxGarrison" mapstructure:"max_garrison"`
}

// Base is a team structure with health, a resource store and a garrison.
// Destruction (health 0) is terminal: repair does not revive it.
type Base struct {
	id       string
	team     TeamType
	stats    BaseStats
	position Position

	health    float64
	resources map[ResourceKind]*Resource
	garrison  int
}

// NewBase creates a base at full health
func NewBase(id string, team TeamType, stats BaseStats, position Position) *Base {
	return &Base{
		id:        id,
		team:      team,
		stats:     stats,
		position:  position,
		health:    stats.MaxHealth,
		resources: make(map[ResourceKind]*Resource),
	}
}

// ID returns the base identifier
func (b *Base) ID() string { return b.id }

// Team returns the owning team
func (b *Base) Team() TeamType { return b.team }

// Position returns the base location
func (b *Base) Position() Position { return b.position }

// Health returns the current health
func (b *Base) Health() float64 { return b.health }

// MaxHealth returns the configured maximum health
func (b *Base) MaxHealth() float64 { return b.stats.MaxHealth }

// GarrisonCount returns how many players are stationed inside
func (b *Base) GarrisonCount() int { return b.garrison }

// MaxGarrison returns the garrison capacity
func (b *Base) MaxGarrison() int { return b.stats.MaxGarrison }

// IsDestroyed reports whether the base has no health left
func (b *Base) IsDestroyed() bool { return b.health <= 0 }

// TakeDamage applies raw damage reduced by the defense rating and returns
// the new health. Mitigation applies to each call separately.
func (b *Base) TakeDamage(raw float64) float64 {
	if raw <= 0 || b.IsDestroyed() {
		return b.health
	}
	mitigated := raw * (1 - b.stats.DefenseRating/100)
	if mitigated < 0 {
		mitigated = 0
	}
	b.health = math.Max(0, math.Min(b.stats.MaxHealth, b.health-mitigated))
	return b.health
}

// Repair restores health up to the maximum. A destroyed base stays at 0.
func (b *Base) Repair(amount float64) float64 {
	if amount <= 0 || b.IsDestroyed() {
		return b.health
	}
	b.health = math.Min(b.stats.MaxHealth, b.health+amount)
	return b.health
}

// AddResource merges r into the store. The base keeps its own copy and
// enforces no cap.
func (b *Base) AddResource(r *Resource) bool {
	if r == nil {
		return false
	}
	if existing, ok := b.resources[r.Kind]; ok {
		existing.Add(r.Amount)
		return true
	}
	b.resources[r.Kind] = r.Clone()
	return true
}

// ConsumeResource removes amount of kind, dropping the entry when it hits 0.
func (b *Base) ConsumeResource(kind ResourceKind, amount float64) bool {
	r, ok := b.resources[kind]
	if !ok || !r.Subtract(amount) {
		return false
	}
	if r.IsEmpty() {
		delete(b.resources, kind)
	}
	return true
}

// GarrisonPlayer stations one player inside if there is room
func (b *Base) GarrisonPlayer() bool {
	if b.garrison >= b.stats.MaxGarrison {
		return false
	}
	b.garrison++
	return true
}

// UngarrisonPlayer releases one stationed player
func (b *Base) UngarrisonPlayer() bool {
	if b.garrison <= 0 {
		return false
	}
	b.garrison--
	return true
}

// GenerateResources adds one tick of production for every configured kind.
func (b *Base) GenerateResources() {
	for kind, rate := range b.stats.GenerationRate {
		r, ok := b.resources[kind]
		if !ok {
			r = NewResource(kind, 0)
			b.resources[kind] = r
		}
		r.Add(rate)
	}
}

// Resources returns a copy of the store
func (b *Base) Resources() ResourceTable {
	out := make(ResourceTable, len(b.resources))
	for kind, r := range b.resources {
		out[kind] = r.Amount
	}
	return out
}

// ResourceAmount returns the stored amount of kind
func (b *Base) ResourceAmount(kind ResourceKind) float64 {
	if r, ok := b.resources[kind]; ok {
		return r.Amount
	}
	return 0
}
