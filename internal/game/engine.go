package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"arena-siege/internal/game/weapon"
)

// EngineConfig configures one hosted match
type EngineConfig struct {
	MatchID  string
	TickRate int
	Match    MatchConfig
	Registry *weapon.Registry
	Clock    Clock
	Seed     int64 // weapon RNG seed; 0 picks one from the clock
	Logger   zerolog.Logger
}

// TickStats describe one completed tick
type TickStats struct {
	Tick     int64
	Stage    Stage
	Duration time.Duration
	Hits     int
}

// Engine hosts a single match: it drives the stage progression, weapon
// events and match manager from a ticker, and serializes every outside call
// behind one mutex.
type Engine struct {
	mu sync.RWMutex

	matchID string
	manager *Manager
	stages  *Stages
	armory  *Armory
	leaders *Leaderboard
	paused  bool

	tickRate  int
	running   bool
	ticker    *time.Ticker
	stopChan  chan struct{}
	tickCount int64

	board    *StatusBoard
	eventLog *EventLog
	logger   zerolog.Logger

	// Event callbacks, run outside the engine lock
	onTick func(TickStats)
	onEnd  func(Outcome)
	onHit  func(Hit)

	pendingEnd  *Outcome
	pendingHits []Hit

	rngSeed int64
}

// NewEngine creates an engine in stage one with the match clock held until
// stage two begins.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 10
	}
	if cfg.MatchID == "" {
		cfg.MatchID = uuid.New().String()
	}
	if cfg.Registry == nil {
		cfg.Registry = weapon.DefaultRegistry()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Match.Duration <= 0 {
		cfg.Match.Duration = DefaultMatchDuration
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = cfg.Clock.Now().UnixNano()
	}

	logger := cfg.Logger.With().Str("match", cfg.MatchID).Logger()

	e := &Engine{
		matchID:  cfg.MatchID,
		manager:  NewManager(cfg.Match, cfg.Clock),
		stages:   NewStages(cfg.Match.StageOneDuration, cfg.Match.Duration, cfg.Clock),
		leaders:  NewLeaderboard(),
		armory:   NewArmory(weapon.NewFactory(cfg.Registry, rand.New(rand.NewSource(seed)))),
		tickRate: cfg.TickRate,
		stopChan: make(chan struct{}),
		board:    NewStatusBoard(),
		eventLog: NewEventLog(logger),
		logger:   logger,
		rngSeed:  seed,
	}

	// The match clock only runs during stage two
	e.manager.Pause()
	e.manager.OnEnd = e.handleEnd
	e.stages.OnStageChange = e.handleStageChange

	if cfg.Match.StageOneDuration <= 0 {
		e.stages.Skip()
	}

	e.publish()
	return e
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	e.logger.Info().Int("tickRate", e.tickRate).Msg("engine started")
}

// Stop stops the game loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	e.logger.Info().Int64("ticks", e.tickCount).Msg("engine stopped")
}

// Tick runs one simulation step. The ticker calls it; tests may call it
// directly.
func (e *Engine) Tick() {
	start := time.Now()

	e.mu.Lock()
	e.tickCount++
	e.stages.Update(e.manager.IsOver())

	hits := 0
	if e.stages.Current() == StageTwo && !e.paused {
		for _, h := range e.armory.Advance(e.manager) {
			e.recordHit(h)
			hits++
		}
		e.manager.Tick()
		e.stages.Update(e.manager.IsOver())
	}

	e.publish()
	stats := TickStats{Tick: e.tickCount, Stage: e.stages.Current(), Hits: hits}
	ended, hitList := e.drainCallbacks()
	onTick := e.onTick
	e.mu.Unlock()

	stats.Duration = time.Since(start)
	e.fire(ended, hitList)
	if onTick != nil {
		onTick(stats)
	}
}

// publish stores a fresh status on the board. Caller holds the lock.
func (e *Engine) publish() {
	s := e.statusLocked()
	e.board.Publish(&s)
}

func (e *Engine) statusLocked() Status {
	s := e.manager.Status()
	s.Tick = e.tickCount
	s.MatchID = e.matchID
	s.Stage = e.stages.Current()
	s.Paused = e.paused
	if s.Stage == StageOne {
		s.RemainingTime = e.stages.Timer().RemainingFormatted()
	}
	return s
}

func (e *Engine) handleStageChange(from, to Stage) {
	e.logger.Info().Str("from", string(from)).Str("to", string(to)).Msg("stage change")
	e.emit(EventTypeStageChange, "", StageChangePayload{From: from, To: to})
	if to == StageTwo && !e.paused {
		e.manager.Resume()
	}
}

func (e *Engine) handleEnd(o Outcome) {
	ev := e.logger.Info().Bool("timeUp", o.TimeUp).Int64("elapsedMs", o.ElapsedMs)
	if o.Tie {
		ev.Msg("match ended in a tie")
	} else {
		ev.Str("winner", string(o.Winner)).Str("reason", string(o.Reason)).Msg("match over")
	}
	e.emit(EventTypeMatchOver, "", o)
	out := o
	e.pendingEnd = &out
}

func (e *Engine) recordHit(h Hit) {
	e.emit(EventTypeWeaponFired, h.PlayerID, WeaponFiredPayload{
		PlayerID: h.PlayerID,
		WeaponID: h.WeaponID,
		Target:   h.BaseID,
		Damage:   h.Damage,
		Auto:     h.Auto,
	})
	e.emit(EventTypeBaseDamaged, h.PlayerID, BasePayload{BaseID: h.BaseID, Team: h.Team, Amount: h.Damage, Health: h.Health})
	if h.Destroyed {
		e.logger.Info().Str("base", h.BaseID).Str("team", string(h.Team)).Str("by", h.PlayerID).Msg("base destroyed")
		e.emit(EventTypeBaseDestroyed, h.PlayerID, BasePayload{BaseID: h.BaseID, Team: h.Team, Health: 0})
	}
	e.leaders.Record(h)
	e.pendingHits = append(e.pendingHits, h)
}

func (e *Engine) emit(t EventType, playerID string, payload interface{}) {
	e.eventLog.EmitSimple(t, e.tickCount, e.manager.Now(), playerID, payload)
}

// drainCallbacks hands queued callback work to the caller. Caller holds the lock.
func (e *Engine) drainCallbacks() (*Outcome, []Hit) {
	ended := e.pendingEnd
	hits := e.pendingHits
	e.pendingEnd = nil
	e.pendingHits = nil
	return ended, hits
}

// fire runs the hit and end hooks. Caller must not hold the lock.
func (e *Engine) fire(ended *Outcome, hits []Hit) {
	e.mu.RLock()
	onHit, onEnd := e.onHit, e.onEnd
	e.mu.RUnlock()

	if onHit != nil {
		for _, h := range hits {
			onHit(h)
		}
	}
	if ended != nil && onEnd != nil {
		onEnd(*ended)
	}
}

// SetCallbacks sets the tick, match-end and hit hooks
func (e *Engine) SetCallbacks(onTick func(TickStats), onEnd func(Outcome), onHit func(Hit)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = onTick
	e.onEnd = onEnd
	e.onHit = onHit
}

// Status builds a fresh status
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.statusLocked()
}

// Snapshot returns the status published by the last tick
func (e *Engine) Snapshot() *Status {
	return e.board.Latest()
}

// MatchID returns the match identifier
func (e *Engine) MatchID() string { return e.matchID }

// Pause freezes the match and stage clocks. Returns false if already paused.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused || e.manager.IsOver() {
		return false
	}
	e.paused = true
	e.manager.Pause()
	e.stages.Pause()
	e.emit(EventTypePause, "", nil)
	e.publish()
	e.logger.Info().Msg("match paused")
	return true
}

// Resume continues after Pause. Returns false if not paused.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return false
	}
	e.paused = false
	e.stages.Resume()
	if e.stages.Current() == StageTwo {
		e.manager.Resume()
	}
	e.emit(EventTypeResume, "", nil)
	e.publish()
	e.logger.Info().Msg("match resumed")
	return true
}

// combatOpen reports whether bases can be changed. Caller holds the lock.
func (e *Engine) combatOpen() bool {
	return e.stages.Current() == StageTwo && !e.paused && !e.manager.IsOver()
}

// DamageBase applies raw damage to a base
func (e *Engine) DamageBase(baseID string, amount float64) (float64, bool) {
	e.mu.Lock()
	if !e.combatOpen() {
		e.mu.Unlock()
		return 0, false
	}
	base, ok := e.manager.Base(baseID)
	if !ok {
		e.mu.Unlock()
		return 0, false
	}
	health, _ := e.manager.DamageBase(baseID, amount)
	e.emit(EventTypeBaseDamaged, "", BasePayload{BaseID: baseID, Team: base.Team(), Amount: amount, Health: health})
	if base.IsDestroyed() {
		e.emit(EventTypeBaseDestroyed, "", BasePayload{BaseID: baseID, Team: base.Team()})
	}
	e.mu.Unlock()
	return health, true
}

// RepairBase heals a base. Destroyed bases stay destroyed.
func (e *Engine) RepairBase(baseID string, amount float64) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.combatOpen() {
		return 0, false
	}
	base, ok := e.manager.Base(baseID)
	if !ok || base.IsDestroyed() {
		return 0, false
	}
	health, _ := e.manager.RepairBase(baseID, amount)
	e.emit(EventTypeBaseRepaired, "", BasePayload{BaseID: baseID, Team: base.Team(), Amount: amount, Health: health})
	return health, true
}

// Garrison stations a player in a base
func (e *Engine) Garrison(baseID string) (int, bool) {
	return e.garrison(baseID, true)
}

// Ungarrison releases a player from a base
func (e *Engine) Ungarrison(baseID string) (int, bool) {
	return e.garrison(baseID, false)
}

func (e *Engine) garrison(baseID string, enter bool) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	base, ok := e.manager.Base(baseID)
	if !ok {
		return 0, false
	}
	if enter {
		ok = e.manager.Garrison(baseID)
	} else {
		ok = e.manager.Ungarrison(baseID)
	}
	if ok {
		e.emit(EventTypeGarrison, "", BasePayload{BaseID: baseID, Team: base.Team(), Health: base.Health(), Garrison: base.GarrisonCount()})
	}
	return base.GarrisonCount(), ok
}

// AddScore credits points to a team
func (e *Engine) AddScore(team TeamType, points float64) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.manager.AddScore(team, points) {
		return 0, false
	}
	t, _ := e.manager.Team(team)
	e.emit(EventTypeScore, "", ScorePayload{Team: team, Points: points, Total: t.Score()})
	return t.Score(), true
}

// AddPlayer puts a player on a team
func (e *Engine) AddPlayer(team TeamType, playerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.manager.AddPlayer(team, playerID) {
		return false
	}
	e.emit(EventTypePlayerJoin, playerID, PlayerJoinPayload{PlayerID: playerID, Team: team})
	e.logger.Debug().Str("player", playerID).Str("team", string(team)).Msg("player joined")
	return true
}

// Equip gives a rostered player a weapon from the registry
func (e *Engine) Equip(playerID, weaponID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.manager.PlayerTeam(playerID); !ok {
		return false
	}
	if !e.armory.Equip(playerID, weaponID) {
		return false
	}
	e.emit(EventTypeEquip, playerID, EquipPayload{PlayerID: playerID, WeaponID: weaponID})
	return true
}

// Attack uses a player's weapon against an enemy base
func (e *Engine) Attack(playerID, baseID string, mode AttackMode, directHit bool, distance float64) (Hit, bool) {
	e.mu.Lock()
	if !e.combatOpen() {
		e.mu.Unlock()
		return Hit{}, false
	}
	hit, ok := e.armory.Attack(e.manager, playerID, baseID, mode, directHit, distance)
	for _, h := range e.armory.Settled() {
		e.recordHit(h)
	}
	if ok {
		e.recordHit(hit)
	}
	ended, hits := e.drainCallbacks()
	e.mu.Unlock()

	e.fire(ended, hits)
	return hit, ok
}

// WeaponState is the client view of an equipped weapon
type WeaponState struct {
	WeaponID  string      `json:"weaponId"`
	Kind      weapon.Kind `json:"kind"`
	Ammo      int         `json:"ammo"`
	Magazine  int         `json:"magazine"`
	Reloading bool        `json:"reloading"`
	ReadyAt   int64       `json:"readyAt,omitempty"`
}

// PlayerWeapon returns the state of a player's weapon
func (e *Engine) PlayerWeapon(playerID string) (WeaponState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.armory.Weapon(playerID)
	if !ok {
		return WeaponState{}, false
	}
	ws := WeaponState{
		WeaponID:  w.Name(),
		Kind:      w.Kind(),
		Ammo:      w.Ammo(),
		Magazine:  w.Stats().MagazineSize,
		Reloading: w.IsReloading(),
	}
	if ws.Reloading {
		ws.ReadyAt = w.ReadyAt()
	}
	return ws, true
}

// Leaderboard returns the top n players by base damage; n <= 0 returns all
func (e *Engine) Leaderboard(n int) []LeaderboardEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.leaders.Top(n)
}

// Weapons lists the weapon registry
func (e *Engine) Weapons() []weapon.Entry {
	return e.armory.Factory().Available()
}

// ResourceNodes returns the configured map resource nodes
func (e *Engine) ResourceNodes() []ResourceNode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.manager.ResourceNodes()
}

// Events returns the latest n event log entries
func (e *Engine) Events(n int) []Event {
	return e.eventLog.Recent(n)
}

// StartEventLog starts the event log writer (empty path keeps it in memory)
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and stops the event log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log counters
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// EventLogCounts returns the accepted and dropped event totals
func (e *Engine) EventLogCounts() (total, dropped uint64) {
	return e.eventLog.GetTotalCount(), e.eventLog.GetDroppedCount()
}

// Seed returns the weapon RNG seed for replays
func (e *Engine) Seed() int64 { return e.rngSeed }
