package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallMatch is a 2v2-base match with only the given conditions
func smallMatch(conditions ...VictoryCondition) MatchConfig {
	cfg := DefaultMatchConfig()
	cfg.BaseLocations = []Position{{X: 100, Y: 100}, {X: 200, Y: 200}, {X: 800, Y: 800}, {X: 900, Y: 900}}
	cfg.VictoryConditions = conditions
	return cfg
}

func newTestManager(t *testing.T, cfg MatchConfig) (*Manager, *ManualClock) {
	t.Helper()
	clock := NewManualClock(epoch)
	return NewManager(cfg, clock), clock
}

func team(t *testing.T, m *Manager, tt TeamType) *Team {
	t.Helper()
	tm, ok := m.Team(tt)
	require.True(t, ok)
	return tm
}

func destroy(t *testing.T, m *Manager, ids ...string) {
	t.Helper()
	for _, id := range ids {
		b, ok := m.Base(id)
		require.True(t, ok, id)
		b.TakeDamage(1e9)
		require.True(t, b.IsDestroyed())
	}
}

func TestManagerBaseAssignment(t *testing.T) {
	m, _ := newTestManager(t, DefaultMatchConfig())

	bases := m.Bases()
	require.Len(t, bases, 10)
	for i, b := range bases {
		want := TeamRed
		if i >= 5 {
			want = TeamBlue
		}
		assert.Equal(t, want, b.Team(), b.ID())
	}
	assert.Equal(t, "base_0", bases[0].ID())
	assert.Equal(t, Position{X: 4500, Y: 4500}, bases[5].Position())
	assert.Equal(t, 5, team(t, m, TeamRed).BaseCount())
	assert.Equal(t, 5, team(t, m, TeamBlue).BaseCount())
}

func TestManagerOddBaseCountFavorsRed(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.BaseLocations = cfg.BaseLocations[:3]
	m, _ := newTestManager(t, cfg)

	assert.Equal(t, 2, team(t, m, TeamRed).BaseCount())
	assert.Equal(t, 1, team(t, m, TeamBlue).BaseCount())
}

func TestManagerScoreVictory(t *testing.T) {
	m, _ := newTestManager(t, DefaultMatchConfig())
	team(t, m, TeamRed).AddScore(10000)

	m.Tick()

	require.True(t, m.IsOver())
	winner, ok := m.Winner()
	require.True(t, ok)
	assert.Equal(t, TeamRed, winner)
	assert.Equal(t, ConditionScore, m.Outcome().Reason)
	assert.True(t, m.IsPaused(), "timer pauses when the match ends")
}

func TestManagerTimeUpScoreDecides(t *testing.T) {
	m, clock := newTestManager(t, smallMatch())
	team(t, m, TeamRed).AddScore(500)
	team(t, m, TeamBlue).AddScore(300)
	// Blue has more resources, but score is decisive first
	team(t, m, TeamBlue).AddResource(NewResource(Energy, 1000))

	clock.Advance(DefaultMatchDuration + time.Second)
	m.Tick()

	require.True(t, m.IsOver())
	winner, ok := m.Winner()
	require.True(t, ok)
	assert.Equal(t, TeamRed, winner)
	assert.True(t, m.Outcome().TimeUp)
	assert.Empty(t, m.Outcome().Reason)
}

func TestManagerTimeUpTieBreakCascade(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, m *Manager)
		winner TeamType
		tie    bool
	}{
		{
			name: "surviving bases",
			setup: func(t *testing.T, m *Manager) {
				destroy(t, m, "base_0")
				team(t, m, TeamRed).AddResource(NewResource(Energy, 2000))
			},
			winner: TeamBlue,
		},
		{
			name: "total resources",
			setup: func(t *testing.T, m *Manager) {
				team(t, m, TeamRed).ConsumeResource(Supplies, 1)
			},
			winner: TeamBlue,
		},
		{
			name:  "true tie",
			setup: func(t *testing.T, m *Manager) {},
			tie:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, clock := newTestManager(t, smallMatch())
			tt.setup(t, m)

			clock.Advance(DefaultMatchDuration)
			m.Tick()

			require.True(t, m.IsOver())
			winner, ok := m.Winner()
			assert.Equal(t, tt.tie, m.Outcome().Tie)
			assert.Equal(t, !tt.tie, ok)
			if !tt.tie {
				assert.Equal(t, tt.winner, winner)
			}
		})
	}
}

func TestManagerEliminationIgnoresScore(t *testing.T) {
	m, _ := newTestManager(t, smallMatch(VictoryCondition{Type: ConditionElimination, Threshold: 1}))
	team(t, m, TeamRed).AddScore(100)
	team(t, m, TeamBlue).AddScore(9000)

	m.Tick()
	require.False(t, m.IsOver())

	destroy(t, m, "base_2", "base_3")
	m.Tick()

	winner, ok := m.Winner()
	require.True(t, ok)
	assert.Equal(t, TeamRed, winner)
	assert.Equal(t, ConditionElimination, m.Outcome().Reason)
}

func TestManagerDomination(t *testing.T) {
	m, _ := newTestManager(t, smallMatch(VictoryCondition{Type: ConditionDomination, Threshold: 0.5}))
	destroy(t, m, "base_0")

	m.Tick()

	winner, ok := m.Winner()
	require.True(t, ok)
	assert.Equal(t, TeamBlue, winner)
}

func TestManagerResourcesVictory(t *testing.T) {
	cfg := smallMatch(VictoryCondition{Type: ConditionResources, Threshold: 3400})
	cfg.BaseStats.GenerationRate = ResourceTable{Energy: 10}
	m, _ := newTestManager(t, cfg)

	// Starting total is 3300; each red base feeds its cumulative store
	m.Tick()
	assert.Equal(t, 3320.0, team(t, m, TeamRed).TotalResources())
	assert.False(t, m.IsOver())

	m.Tick() // +40
	m.Tick() // +60
	require.True(t, m.IsOver())
	winner, _ := m.Winner()
	assert.Equal(t, TeamRed, winner, "red wins a simultaneous crossing")
}

func TestManagerFirstConditionWins(t *testing.T) {
	m, _ := newTestManager(t, smallMatch(
		VictoryCondition{Type: ConditionScore, Threshold: 50},
		VictoryCondition{Type: ConditionElimination, Threshold: 1},
	))
	team(t, m, TeamBlue).AddScore(50)
	destroy(t, m, "base_2", "base_3")

	m.Tick()

	winner, _ := m.Winner()
	assert.Equal(t, TeamBlue, winner)
	assert.Equal(t, ConditionScore, m.Outcome().Reason)
}

func TestManagerConditionTimeLimit(t *testing.T) {
	m, clock := newTestManager(t, smallMatch(VictoryCondition{Type: ConditionScore, Threshold: 100, TimeLimit: 10}))

	clock.Advance(11 * time.Second)
	team(t, m, TeamRed).AddScore(100)
	m.Tick()

	assert.False(t, m.IsOver(), "expired condition is not evaluated")
}

func TestManagerOverIsTerminal(t *testing.T) {
	m, clock := newTestManager(t, DefaultMatchConfig())
	team(t, m, TeamBlue).AddScore(20000)
	m.Tick()
	require.True(t, m.IsOver())

	before := team(t, m, TeamRed).Resources()
	clock.Advance(time.Hour)
	m.Tick()
	m.Resume()

	assert.Equal(t, before, team(t, m, TeamRed).Resources())
	assert.True(t, m.IsPaused())

	_, ok := m.DamageBase("base_0", 100)
	assert.False(t, ok)
	assert.False(t, m.AddScore(TeamRed, 10))
	assert.False(t, m.Garrison("base_0"))
	winner, _ := m.Winner()
	assert.Equal(t, TeamBlue, winner)
}

func TestManagerPausedMatchDoesNotTimeOut(t *testing.T) {
	m, clock := newTestManager(t, smallMatch())
	clock.Advance(time.Minute)
	m.Pause()
	clock.Advance(DefaultMatchDuration)

	m.Tick()
	assert.False(t, m.IsOver())
	assert.Equal(t, "09:00", m.Timer().RemainingFormatted())

	m.Resume()
	clock.Advance(9 * time.Minute)
	m.Tick()
	assert.True(t, m.IsOver())
}

func TestManagerCombatOperations(t *testing.T) {
	m, _ := newTestManager(t, DefaultMatchConfig())

	health, ok := m.DamageBase("base_0", 1000)
	require.True(t, ok)
	assert.Equal(t, 9250.0, health)

	health, ok = m.RepairBase("base_0", 100)
	require.True(t, ok)
	assert.Equal(t, 9350.0, health)

	_, ok = m.DamageBase("base_99", 1)
	assert.False(t, ok)

	assert.True(t, m.Garrison("base_1"))
	assert.True(t, m.Ungarrison("base_1"))
	assert.False(t, m.Ungarrison("base_1"))

	assert.True(t, m.AddPlayer(TeamRed, "alice"))
	assert.False(t, m.AddPlayer(TeamBlue, "alice"), "one side per player")
	side, ok := m.PlayerTeam("alice")
	require.True(t, ok)
	assert.Equal(t, TeamRed, side)

	assert.False(t, m.AddScore(TeamType("green"), 10))
	assert.False(t, m.AddScore(TeamRed, -10))
}

func TestManagerStatus(t *testing.T) {
	m, clock := newTestManager(t, DefaultMatchConfig())
	team(t, m, TeamBlue).AddScore(42)
	destroy(t, m, "base_6")
	clock.Advance(30 * time.Second)

	s := m.Status()
	assert.False(t, s.IsOver)
	assert.Equal(t, "09:30", s.RemainingTime)
	require.Len(t, s.Teams, 2)
	assert.Equal(t, TeamRed, s.Teams[0].Team)
	assert.Equal(t, TeamBlue, s.Teams[1].Team)

	blue, ok := s.TeamStatus(TeamBlue)
	require.True(t, ok)
	assert.Equal(t, 42.0, blue.Score)
	assert.Equal(t, 4, blue.SurvivingBases)
	assert.Equal(t, 1000.0, blue.Resources[Energy])
	assert.Equal(t, 500.0, blue.Resources[Supplies])

	require.Len(t, s.Bases, 10)
	assert.True(t, s.Bases[6].Destroyed)

	// Snapshot maps are detached from the match
	s.Teams[0].Resources[Energy] = 0
	assert.Equal(t, 1000.0, team(t, m, TeamRed).ResourceAmount(Energy))
}

func TestManagerResourceNodes(t *testing.T) {
	m, _ := newTestManager(t, DefaultMatchConfig())
	nodes := m.ResourceNodes()
	require.Len(t, nodes, 8)
	assert.Equal(t, Energy, nodes[0].Kind)

	nodes[0].GenerationRate = 0
	assert.Equal(t, 10.0, m.ResourceNodes()[0].GenerationRate)
}
