package game

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, mutate func(*MatchConfig)) (*Engine, *ManualClock) {
	t.Helper()
	cfg := DefaultMatchConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := NewManualClock(epoch)
	e := NewEngine(EngineConfig{
		MatchID:  "test-match",
		TickRate: 30,
		Match:    cfg,
		Clock:    clock,
		Seed:     1,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, e.StartEventLog(""))
	t.Cleanup(e.StopEventLog)
	return e, clock
}

// noWarmup starts the match without stage one
func noWarmup(cfg *MatchConfig) { cfg.StageOneDuration = 0 }

// TestNewEngineDefaults verifies engine creation with correct defaults
func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(EngineConfig{Match: DefaultMatchConfig(), Logger: zerolog.Nop()})
	require.NotNil(t, e)

	assert.NotEmpty(t, e.MatchID())
	assert.NotZero(t, e.Seed())
	assert.Len(t, e.Weapons(), 15)
	assert.Len(t, e.ResourceNodes(), 8)

	snap := e.Snapshot()
	require.NotNil(t, snap, "status is published on creation")
	assert.Equal(t, StageOne, snap.Stage)
}

// TestEngineStartStop verifies engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	e := NewEngine(EngineConfig{TickRate: 50, Logger: zerolog.Nop()})

	e.Start()
	e.Start()
	time.Sleep(100 * time.Millisecond)
	e.Stop()

	// Should not panic on double stop
	e.Stop()
	assert.Positive(t, e.Snapshot().Tick)
}

func TestEngineWarmupHoldsMatchClock(t *testing.T) {
	e, clock := newTestEngine(t, nil)

	s := e.Status()
	assert.Equal(t, StageOne, s.Stage)
	assert.Equal(t, "01:00", s.RemainingTime)

	_, ok := e.DamageBase("base_0", 100)
	assert.False(t, ok, "combat is closed during warm-up")
	assert.True(t, e.AddPlayer(TeamRed, "alice"), "players may join during warm-up")

	clock.Advance(30 * time.Second)
	e.Tick()
	assert.Equal(t, "00:30", e.Snapshot().RemainingTime)

	clock.Advance(30 * time.Second)
	e.Tick()
	s = e.Status()
	assert.Equal(t, StageTwo, s.Stage)
	assert.Equal(t, "10:00", s.RemainingTime, "match clock starts with stage two")

	_, ok = e.DamageBase("base_0", 100)
	assert.True(t, ok)
}

func TestEngineTickGeneratesResources(t *testing.T) {
	e, _ := newTestEngine(t, noWarmup)

	e.Tick()
	red, ok := e.Snapshot().TeamStatus(TeamRed)
	require.True(t, ok)
	// Five bases each add 5 energy on the first tick
	assert.Equal(t, 1025.0, red.Resources[Energy])
	assert.Equal(t, int64(1), e.Snapshot().Tick)
}

func TestEngineScoreVictory(t *testing.T) {
	e, _ := newTestEngine(t, noWarmup)

	var mu sync.Mutex
	var ended []Outcome
	e.SetCallbacks(nil, func(o Outcome) {
		mu.Lock()
		ended = append(ended, o)
		mu.Unlock()
	}, nil)

	total, ok := e.AddScore(TeamRed, 10000)
	require.True(t, ok)
	assert.Equal(t, 10000.0, total)

	e.Tick()
	s := e.Snapshot()
	assert.True(t, s.IsOver)
	assert.Equal(t, TeamRed, s.Winner)
	assert.Equal(t, StageThree, s.Stage)
	require.NotNil(t, s.Outcome)
	assert.Equal(t, ConditionScore, s.Outcome.Reason)

	e.Tick()
	mu.Lock()
	assert.Len(t, ended, 1, "end hook fires once")
	mu.Unlock()

	_, ok = e.AddScore(TeamBlue, 1)
	assert.False(t, ok)
	assert.False(t, e.Pause(), "finished match cannot be paused")
}

func TestEnginePauseResume(t *testing.T) {
	e, clock := newTestEngine(t, noWarmup)

	require.True(t, e.Pause())
	assert.False(t, e.Pause())
	assert.True(t, e.Status().Paused)

	status := e.Status()
	before, _ := status.TeamStatus(TeamRed)
	clock.Advance(time.Hour)
	e.Tick()
	after, _ := e.Snapshot().TeamStatus(TeamRed)
	assert.Equal(t, before.Resources, after.Resources, "paused ticks do not generate")
	assert.False(t, e.Snapshot().IsOver)

	_, ok := e.DamageBase("base_5", 10)
	assert.False(t, ok)

	require.True(t, e.Resume())
	assert.False(t, e.Resume())
	assert.Equal(t, "10:00", e.Status().RemainingTime)
}

func TestEngineAttackFlow(t *testing.T) {
	e, clock := newTestEngine(t, noWarmup)

	var mu sync.Mutex
	var hits []Hit
	e.SetCallbacks(nil, nil, func(h Hit) {
		mu.Lock()
		hits = append(hits, h)
		mu.Unlock()
	})

	assert.False(t, e.Equip("alice", "BR-2"), "player must be on a team")
	require.True(t, e.AddPlayer(TeamRed, "alice"))
	assert.False(t, e.Equip("alice", "NOPE"))
	require.True(t, e.Equip("alice", "BR-2"))

	hit, ok := e.Attack("alice", "base_5", AttackFire, true, 0)
	require.True(t, ok)
	assert.Greater(t, hit.Damage, 0.0)

	ws, ok := e.PlayerWeapon("alice")
	require.True(t, ok)
	assert.Equal(t, 35, ws.Ammo)

	clock.Advance(100 * time.Millisecond)
	e.Tick()

	ws, _ = e.PlayerWeapon("alice")
	assert.Equal(t, 33, ws.Ammo, "both burst follow-ups resolved")

	// Follow-ups due in the same tick land as one automatic hit
	mu.Lock()
	require.Len(t, hits, 2)
	assert.False(t, hits[0].Auto)
	assert.True(t, hits[1].Auto)
	assert.Less(t, hits[1].Health, hits[0].Health)
	mu.Unlock()

	var fired int
	for _, ev := range e.Events(0) {
		if ev.Type == EventTypeWeaponFired {
			fired++
		}
	}
	assert.Equal(t, 2, fired)

	board := e.Leaderboard(5)
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].PlayerID)
	assert.Equal(t, TeamRed, board[0].Team)
	assert.Equal(t, 2, board[0].Hits)
	assert.InDelta(t, hits[0].Damage+hits[1].Damage, board[0].Damage, 1e-9)
}

func TestEngineAttackReportsSettledBurst(t *testing.T) {
	e, clock := newTestEngine(t, noWarmup)

	var mu sync.Mutex
	var hits []Hit
	e.SetCallbacks(nil, nil, func(h Hit) {
		mu.Lock()
		hits = append(hits, h)
		mu.Unlock()
	})

	require.True(t, e.AddPlayer(TeamRed, "alice"))
	require.True(t, e.Equip("alice", "BR-2"))
	_, ok := e.Attack("alice", "base_7", AttackFire, true, 0)
	require.True(t, ok)

	// no tick in between
	clock.Advance(80 * time.Millisecond)
	_, ok = e.Attack("alice", "base_5", AttackFire, true, 0)
	assert.False(t, ok)

	ws, _ := e.PlayerWeapon("alice")
	assert.Equal(t, 34, ws.Ammo)

	mu.Lock()
	require.Len(t, hits, 2)
	assert.True(t, hits[1].Auto)
	assert.Equal(t, "base_7", hits[1].BaseID)
	mu.Unlock()

	board := e.Leaderboard(1)
	require.Len(t, board, 1)
	assert.Equal(t, 2, board[0].Hits)
}

func TestEngineBaseOperations(t *testing.T) {
	e, _ := newTestEngine(t, noWarmup)

	health, ok := e.DamageBase("base_2", 20000)
	require.True(t, ok)
	assert.Equal(t, 0.0, health)

	_, ok = e.RepairBase("base_2", 100)
	assert.False(t, ok, "destroyed base cannot be repaired")

	e.DamageBase("base_3", 400)
	health, ok = e.RepairBase("base_3", 100)
	require.True(t, ok)
	assert.Equal(t, 9800.0, health)

	n, ok := e.Garrison("base_3")
	require.True(t, ok)
	assert.Equal(t, 1, n)
	n, ok = e.Ungarrison("base_3")
	require.True(t, ok)
	assert.Equal(t, 0, n)
	_, ok = e.Ungarrison("base_3")
	assert.False(t, ok)
	_, ok = e.Garrison("nope")
	assert.False(t, ok)

	var destroyed bool
	for _, ev := range e.Events(0) {
		if ev.Type == EventTypeBaseDestroyed {
			destroyed = true
		}
	}
	assert.True(t, destroyed)
}

func TestEngineTickHook(t *testing.T) {
	e, _ := newTestEngine(t, noWarmup)

	var stats []TickStats
	e.SetCallbacks(func(s TickStats) { stats = append(stats, s) }, nil, nil)

	e.Tick()
	e.Tick()

	require.Len(t, stats, 2)
	assert.Equal(t, int64(2), stats[1].Tick)
	assert.Equal(t, StageTwo, stats[1].Stage)
}

func TestEngineTimeUp(t *testing.T) {
	e, clock := newTestEngine(t, noWarmup)
	e.AddScore(TeamBlue, 10)

	clock.Advance(DefaultMatchDuration)
	e.Tick()

	s := e.Snapshot()
	assert.True(t, s.IsOver)
	assert.Equal(t, TeamBlue, s.Winner)
	assert.True(t, s.Outcome.TimeUp)
	assert.Equal(t, "00:00", s.RemainingTime)
}
