package game

import "sort"

// TeamType identifies one of the two sides
type TeamType string

const (
	TeamRed  TeamType = "red"
	TeamBlue TeamType = "blue"
)

// Teams lists both sides in evaluation order. Red is checked first, which
// makes it the winner when both sides satisfy a condition on the same tick.
var Teams = []TeamType{TeamRed, TeamBlue}

// Opponent returns the other side
func (t TeamType) Opponent() TeamType {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Valid reports whether t names a side
func (t TeamType) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

// TeamStats configure both teams
type TeamStats struct {
	MaxPlayers        int           `json:"maxPlayers" mapstructure:"max_players"`
	StartingResources ResourceTable `json:"startingResources" mapstructure:"starting_resources"`
	ResourceCaps      ResourceTable `json:"resourceCaps" mapstructure:"resource_caps"`
}

// Team holds the players, bases and capped resource pool of one side.
type Team struct {
	kind  TeamType
	stats TeamStats

	players   map[string]struct{}
	bases     map[string]*Base
	resources map[ResourceKind]*Resource
	score     float64
}

// NewTeam creates a team seeded with its starting resources
func NewTeam(kind TeamType, stats TeamStats) *Team {
	t := &Team{
		kind:      kind,
		stats:     stats,
		players:   make(map[string]struct{}),
		bases:     make(map[string]*Base),
		resources: make(map[ResourceKind]*Resource),
	}
	for k, amount := range stats.StartingResources {
		t.resources[k] = NewResource(k, amount)
	}
	return t
}

// Type returns which side this is
func (t *Team) Type() TeamType { return t.kind }

// AddPlayer adds a player if the roster has room. Re-adding a member
// succeeds without changing the count.
func (t *Team) AddPlayer(id string) bool {
	if _, ok := t.players[id]; ok {
		return true
	}
	if len(t.players) >= t.stats.MaxPlayers {
		return false
	}
	t.players[id] = struct{}{}
	return true
}

// RemovePlayer drops a player from the roster
func (t *Team) RemovePlayer(id string) bool {
	if _, ok := t.players[id]; !ok {
		return false
	}
	delete(t.players, id)
	return true
}

// HasPlayer reports roster membership
func (t *Team) HasPlayer(id string) bool {
	_, ok := t.players[id]
	return ok
}

// PlayerCount returns the roster size
func (t *Team) PlayerCount() int { return len(t.players) }

// Players returns the roster sorted by id
func (t *Team) Players() []string {
	out := make([]string, 0, len(t.players))
	for id := range t.players {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AddBase attaches a base to the team
func (t *Team) AddBase(b *Base) {
	t.bases[b.ID()] = b
}

// RemoveBase detaches a base
func (t *Team) RemoveBase(id string) bool {
	if _, ok := t.bases[id]; !ok {
		return false
	}
	delete(t.bases, id)
	return true
}

// Bases returns the team's bases sorted by id
func (t *Team) Bases() []*Base {
	out := make([]*Base, 0, len(t.bases))
	for _, b := range t.bases {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// BaseCount returns how many bases the team owns
func (t *Team) BaseCount() int { return len(t.bases) }

// SurvivingBases counts bases that are not destroyed
func (t *Team) SurvivingBases() int {
	n := 0
	for _, b := range t.bases {
		if !b.IsDestroyed() {
			n++
		}
	}
	return n
}

// AllBasesDestroyed reports whether the team owns bases and every one is
// destroyed. A team with no bases is not considered eliminated.
func (t *Team) AllBasesDestroyed() bool {
	return len(t.bases) > 0 && t.SurvivingBases() == 0
}

// AddResource credits r to the pool. The whole amount is rejected if the
// result would exceed the kind's cap, and kinds without a cap are rejected.
func (t *Team) AddResource(r *Resource) bool {
	if r == nil || r.Amount < 0 {
		return false
	}
	limit, capped := t.stats.ResourceCaps[r.Kind]
	if !capped {
		return false
	}

	existing, ok := t.resources[r.Kind]
	if !ok {
		if r.Amount > limit {
			return false
		}
		t.resources[r.Kind] = r.Clone()
		return true
	}

	if existing.Amount+r.Amount > limit {
		return false
	}
	existing.Add(r.Amount)
	return true
}

// ConsumeResource spends amount of kind from the pool
func (t *Team) ConsumeResource(kind ResourceKind, amount float64) bool {
	r, ok := t.resources[kind]
	if !ok {
		return false
	}
	return r.Subtract(amount)
}

// ResourceAmount returns the pooled amount of kind
func (t *Team) ResourceAmount(kind ResourceKind) float64 {
	if r, ok := t.resources[kind]; ok {
		return r.Amount
	}
	return 0
}

// Resources returns a copy of the pool
func (t *Team) Resources() ResourceTable {
	out := make(ResourceTable, len(t.resources))
	for kind, r := range t.resources {
		out[kind] = r.Amount
	}
	return out
}

// TotalResources sums every kind in the pool
func (t *Team) TotalResources() float64 {
	total := 0.0
	for _, r := range t.resources {
		total += r.Amount
	}
	return total
}

// UpdateResources runs generation on every surviving base and feeds each
// base's whole store into the pool. Kinds that would break the team cap are
// dropped for this tick; the base keeps its own uncapped store.
func (t *Team) UpdateResources() {
	for _, b := range t.Bases() {
		if b.IsDestroyed() {
			continue
		}
		b.GenerateResources()
		for kind, amount := range b.Resources() {
			t.AddResource(NewResource(kind, amount))
		}
	}
}

// AddScore increases the score. Negative points are ignored.
func (t *Team) AddScore(points float64) {
	if points <= 0 {
		return
	}
	t.score += points
}

// Score returns the current score
func (t *Team) Score() float64 { return t.score }

// Stats returns the team configuration
func (t *Team) Stats() TeamStats {
	return TeamStats{
		MaxPlayers:        t.stats.MaxPlayers,
		StartingResources: t.stats.StartingResources.Clone(),
		ResourceCaps:      t.stats.ResourceCaps.Clone(),
	}
}
