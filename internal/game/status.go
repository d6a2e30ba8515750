package game

import (
	"sync/atomic"
	"time"
)

// TeamStatus is one side's entry in a Status
type TeamStatus struct {
	Team           TeamType      `json:"team"`
	Score          float64       `json:"score"`
	Resources      ResourceTable `json:"resources"`
	SurvivingBases int           `json:"survivingBases"`
	Players        int           `json:"players"`
}

// BaseStatus is one base's entry in a Status
type BaseStatus struct {
	ID        string   `json:"id"`
	Team      TeamType `json:"team"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
	Garrison  int      `json:"garrison"`
	Position  Position `json:"position"`
	Destroyed bool     `json:"destroyed"`
}

// Status is an immutable copy of match state for clients.
// Teams are always listed red then blue.
type Status struct {
	Sequence      uint64       `json:"sequence"`
	Timestamp     time.Time    `json:"timestamp"`
	Tick          int64        `json:"tick"`
	MatchID       string       `json:"matchId"`
	Stage         Stage        `json:"stage"`
	IsOver        bool         `json:"isOver"`
	Winner        TeamType     `json:"winner,omitempty"`
	Outcome       *Outcome     `json:"outcome,omitempty"`
	Paused        bool         `json:"paused"`
	RemainingTime string       `json:"remainingTime"`
	ElapsedTime   string       `json:"elapsedTime"`
	MapSize       MapSize      `json:"mapSize"`
	Teams         []TeamStatus `json:"teams"`
	Bases         []BaseStatus `json:"bases"`
}

// Status builds a snapshot of the match. Every map and slice is a fresh copy.
func (m *Manager) Status() Status {
	s := Status{
		IsOver:        m.over,
		Paused:        m.timer.IsPaused(),
		RemainingTime: m.timer.RemainingFormatted(),
		ElapsedTime:   m.timer.ElapsedFormatted(),
		MapSize:       m.config.MapSize,
		Teams:         make([]TeamStatus, 0, len(Teams)),
		Bases:         make([]BaseStatus, 0, len(m.baseOrder)),
	}
	if m.over {
		o := m.outcome
		s.Outcome = &o
		s.Winner = o.Winner
	}

	for _, t := range Teams {
		team := m.teams[t]
		res := make(ResourceTable, len(StandardKinds))
		for _, kind := range StandardKinds {
			res[kind] = team.ResourceAmount(kind)
		}
		for kind, amount := range team.Resources() {
			res[kind] = amount
		}
		s.Teams = append(s.Teams, TeamStatus{
			Team:           t,
			Score:          team.Score(),
			Resources:      res,
			SurvivingBases: team.SurvivingBases(),
			Players:        team.PlayerCount(),
		})
	}

	for _, b := range m.Bases() {
		s.Bases = append(s.Bases, BaseStatus{
			ID:        b.ID(),
			Team:      b.Team(),
			Health:    b.Health(),
			MaxHealth: b.MaxHealth(),
			Garrison:  b.GarrisonCount(),
			Position:  b.Position(),
			Destroyed: b.IsDestroyed(),
		})
	}

	return s
}

// TeamStatus returns the entry for t
func (s *Status) TeamStatus(t TeamType) (TeamStatus, bool) {
	for _, ts := range s.Teams {
		if ts.Team == t {
			return ts, true
		}
	}
	return TeamStatus{}, false
}

// StatusBoard publishes the latest Status for lock-free readers.
// The engine writes once per tick; HTTP handlers and the broadcaster read.
type StatusBoard struct {
	current  atomic.Pointer[Status]
	sequence atomic.Uint64
}

// NewStatusBoard creates an empty board
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{}
}

// Publish stamps s with the next sequence number and makes it current.
// The caller must not modify s afterwards.
func (b *StatusBoard) Publish(s *Status) {
	s.Sequence = b.sequence.Add(1)
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	b.current.Store(s)
}

// Latest returns the most recent Status, or nil before the first publish
func (b *StatusBoard) Latest() *Status {
	return b.current.Load()
}

// Sequence returns the last published sequence number
func (b *StatusBoard) Sequence() uint64 {
	return b.sequence.Load()
}
