package game

import (
	"fmt"
	"time"
)

// MapSize is the playable area
type MapSize struct {
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// ResourceNode is a map feature that produces one resource kind. Nodes are
// descriptive: they are reported to clients but do not feed team pools.
type ResourceNode struct {
	Kind           ResourceKind `json:"kind" mapstructure:"kind"`
	Position       Position     `json:"position" mapstructure:"position"`
	GenerationRate float64      `json:"generationRate" mapstructure:"generation_rate"`
}

// MatchConfig is everything needed to set up a match.
type MatchConfig struct {
	MapSize           MapSize            `json:"mapSize" mapstructure:"map_size"`
	BaseLocations     []Position         `json:"baseLocations" mapstructure:"base_locations"`
	TeamStats         TeamStats          `json:"teamStats" mapstructure:"team_stats"`
	BaseStats         BaseStats          `json:"baseStats" mapstructure:"base_stats"`
	VictoryConditions []VictoryCondition `json:"victoryConditions" mapstructure:"victory_conditions"`
	ResourceNodes     []ResourceNode     `json:"resourceNodes" mapstructure:"resource_nodes"`
	Duration          time.Duration      `json:"duration" mapstructure:"duration"`
	StageOneDuration  time.Duration      `json:"stageOneDuration" mapstructure:"stage_one_duration"`
}

const (
	// DefaultMatchDuration is the length of the territorial stage
	DefaultMatchDuration = 600 * time.Second
	// DefaultStageOneDuration is the warm-up before the match starts
	DefaultStageOneDuration = 60 * time.Second
)

// DefaultMatchConfig returns the standard 5v5-base map.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MapSize: MapSize{Width: 5000, Height: 5000},
		BaseLocations: []Position{
			// Red
			{X: 500, Y: 500},
			{X: 1500, Y: 1000},
			{X: 1000, Y: 1500},
			{X: 2000, Y: 2000},
			{X: 1500, Y: 2500},
			// Blue
			{X: 4500, Y: 4500},
			{X: 3500, Y: 4000},
			{X: 4000, Y: 3500},
			{X: 3000, Y: 3000},
			{X: 3500, Y: 2500},
		},
		TeamStats: TeamStats{
			MaxPlayers:        50,
			StartingResources: ResourceTable{Energy: 1000, Materials: 800, Ammunition: 1000, Supplies: 500},
			ResourceCaps:      ResourceTable{Energy: 5000, Materials: 4000, Ammunition: 3000, Supplies: 2000},
		},
		BaseStats: BaseStats{
			MaxHealth:      10000,
			DefenseRating:  25,
			GenerationRate: ResourceTable{Energy: 5, Materials: 3, Ammunition: 2, Supplies: 1},
			MaxGarrison:    10,
		},
		VictoryConditions: []VictoryCondition{
			{Type: ConditionScore, Threshold: 10000, TimeLimit: 600},
			{Type: ConditionDomination, Threshold: 0.8, TimeLimit: 600},
			{Type: ConditionResources, Threshold: 20000, TimeLimit: 600},
			{Type: ConditionElimination, Threshold: 1, TimeLimit: 600},
		},
		ResourceNodes: []ResourceNode{
			{Kind: Energy, Position: Position{X: 2500, Y: 2500}, GenerationRate: 10},
			{Kind: Materials, Position: Position{X: 2300, Y: 2700}, GenerationRate: 8},
			{Kind: Ammunition, Position: Position{X: 2700, Y: 2300}, GenerationRate: 6},
			{Kind: Supplies, Position: Position{X: 2500, Y: 2700}, GenerationRate: 4},
			{Kind: Energy, Position: Position{X: 1000, Y: 1000}, GenerationRate: 5},
			{Kind: Materials, Position: Position{X: 1500, Y: 500}, GenerationRate: 4},
			{Kind: Energy, Position: Position{X: 4000, Y: 4000}, GenerationRate: 5},
			{Kind: Materials, Position: Position{X: 3500, Y: 4500}, GenerationRate: 4},
		},
		Duration:         DefaultMatchDuration,
		StageOneDuration: DefaultStageOneDuration,
	}
}

// Outcome describes how a match ended
type Outcome struct {
	Winner    TeamType      `json:"winner,omitempty"` // empty on a tie
	Tie       bool          `json:"tie"`
	Reason    ConditionType `json:"reason,omitempty"` // empty when decided by time
	TimeUp    bool          `json:"timeUp"`
	ElapsedMs int64         `json:"elapsedMs"`
}

// Manager runs one match: it owns both teams, every base and the timer,
// and evaluates victory once per Tick. It is not safe for concurrent use.
type Manager struct {
	config MatchConfig
	timer  *Timer

	teams     map[TeamType]*Team
	bases     map[string]*Base
	baseOrder []string

	over    bool
	outcome Outcome

	// OnEnd is called once when the match finishes
	OnEnd func(Outcome)
}

// NewManager sets up teams and bases from cfg and starts the timer.
// Bases in the first half of BaseLocations belong to red, the rest to blue.
func NewManager(cfg MatchConfig, clock Clock) *Manager {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultMatchDuration
	}
	m := &Manager{
		config: cfg,
		timer:  NewTimer(cfg.Duration, clock),
		teams:  make(map[TeamType]*Team, 2),
		bases:  make(map[string]*Base, len(cfg.BaseLocations)),
	}

	for _, t := range Teams {
		m.teams[t] = NewTeam(t, cfg.TeamStats)
	}

	half := float64(len(cfg.BaseLocations)) / 2
	for i, loc := range cfg.BaseLocations {
		owner := TeamBlue
		if float64(i) < half {
			owner = TeamRed
		}
		b := NewBase(fmt.Sprintf("base_%d", i), owner, cfg.BaseStats, loc)
		m.bases[b.ID()] = b
		m.baseOrder = append(m.baseOrder, b.ID())
		m.teams[owner].AddBase(b)
	}

	return m
}

// Tick advances the match by one step. Does nothing once the match is over.
func (m *Manager) Tick() {
	if m.over {
		return
	}

	red, blue := m.teams[TeamRed], m.teams[TeamBlue]

	if m.timer.IsTimeUp() {
		winner, ok := TimeUpWinner(red, blue)
		m.endGame(Outcome{Winner: winner, Tie: !ok, TimeUp: true})
		return
	}

	for _, t := range Teams {
		m.teams[t].UpdateResources()
	}

	elapsed := m.timer.Elapsed()
	for _, cond := range m.config.VictoryConditions {
		if !cond.ActiveAt(elapsed) {
			continue
		}
		if winner, ok := cond.Evaluate(red, blue, len(m.bases)); ok {
			m.endGame(Outcome{Winner: winner, Reason: cond.Type})
			return
		}
	}
}

func (m *Manager) endGame(o Outcome) {
	m.over = true
	m.timer.Pause()
	o.ElapsedMs = m.timer.Elapsed().Milliseconds()
	m.outcome = o
	if m.OnEnd != nil {
		m.OnEnd(o)
	}
}

// IsOver reports whether the match has ended
func (m *Manager) IsOver() bool { return m.over }

// Winner returns the winning team; false while running or after a tie
func (m *Manager) Winner() (TeamType, bool) {
	if !m.over || m.outcome.Tie {
		return "", false
	}
	return m.outcome.Winner, true
}

// Outcome returns how the match ended (zero value while running)
func (m *Manager) Outcome() Outcome { return m.outcome }

// Pause freezes the match clock
func (m *Manager) Pause() { m.timer.Pause() }

// Resume continues the match clock. A finished match stays paused.
func (m *Manager) Resume() {
	if m.over {
		return
	}
	m.timer.Resume()
}

// IsPaused reports whether the match clock is frozen
func (m *Manager) IsPaused() bool { return m.timer.IsPaused() }

// Timer returns the match timer
func (m *Manager) Timer() *Timer { return m.timer }

// Now returns the match time in milliseconds, the clock weapons run on
func (m *Manager) Now() int64 { return m.timer.Elapsed().Milliseconds() }

// Config returns the match configuration
func (m *Manager) Config() MatchConfig { return m.config }

// Team returns one side
func (m *Manager) Team(t TeamType) (*Team, bool) {
	team, ok := m.teams[t]
	return team, ok
}

// Base looks up a base by id
func (m *Manager) Base(id string) (*Base, bool) {
	b, ok := m.bases[id]
	return b, ok
}

// Bases returns every base in configuration order
func (m *Manager) Bases() []*Base {
	out := make([]*Base, 0, len(m.baseOrder))
	for _, id := range m.baseOrder {
		out = append(out, m.bases[id])
	}
	return out
}

// ResourceNodes returns a copy of the configured nodes
func (m *Manager) ResourceNodes() []ResourceNode {
	out := make([]ResourceNode, len(m.config.ResourceNodes))
	copy(out, m.config.ResourceNodes)
	return out
}

// DamageBase applies raw damage to a base. Fails for unknown bases or after
// the match has ended.
func (m *Manager) DamageBase(id string, raw float64) (float64, bool) {
	b, ok := m.bases[id]
	if !ok || m.over {
		return 0, false
	}
	return b.TakeDamage(raw), true
}

// RepairBase heals a base. Fails for unknown bases or after the match.
func (m *Manager) RepairBase(id string, amount float64) (float64, bool) {
	b, ok := m.bases[id]
	if !ok || m.over {
		return 0, false
	}
	return b.Repair(amount), true
}

// Garrison stations a player in a base
func (m *Manager) Garrison(id string) bool {
	b, ok := m.bases[id]
	if !ok || m.over {
		return false
	}
	return b.GarrisonPlayer()
}

// Ungarrison releases a player from a base
func (m *Manager) Ungarrison(id string) bool {
	b, ok := m.bases[id]
	if !ok || m.over {
		return false
	}
	return b.UngarrisonPlayer()
}

// AddScore credits points to a team
func (m *Manager) AddScore(t TeamType, points float64) bool {
	team, ok := m.teams[t]
	if !ok || m.over || points <= 0 {
		return false
	}
	team.AddScore(points)
	return true
}

// AddPlayer puts a player on a team. A player can only be on one side.
func (m *Manager) AddPlayer(t TeamType, id string) bool {
	team, ok := m.teams[t]
	if !ok || m.over || id == "" {
		return false
	}
	if m.teams[t.Opponent()].HasPlayer(id) {
		return false
	}
	return team.AddPlayer(id)
}

// PlayerTeam returns which side a player is on
func (m *Manager) PlayerTeam(id string) (TeamType, bool) {
	for _, t := range Teams {
		if m.teams[t].HasPlayer(id) {
			return t, true
		}
	}
	return "", false
}
