package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeStageChange
	EventTypePlayerJoin
	EventTypeEquip
	EventTypeWeaponFired
	EventTypeBaseDamaged
	EventTypeBaseDestroyed
	EventTypeBaseRepaired
	EventTypeGarrison
	EventTypeScore
	EventTypePause
	EventTypeResume
	EventTypeMatchOver
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is one entry in the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	Tick      int64           `json:"tick"`
	MatchTime int64           `json:"matchTime"` // ms of unpaused match time
	PlayerID  string          `json:"playerId,omitempty"` // Source player (for rate limiting)
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeStageChange:
		return "stage_change"
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypeEquip:
		return "equip"
	case EventTypeWeaponFired:
		return "weapon_fired"
	case EventTypeBaseDamaged:
		return "base_damaged"
	case EventTypeBaseDestroyed:
		return "base_destroyed"
	case EventTypeBaseRepaired:
		return "base_repaired"
	case EventTypeGarrison:
		return "garrison"
	case EventTypeScore:
		return "score"
	case EventTypePause:
		return "pause"
	case EventTypeResume:
		return "resume"
	case EventTypeMatchOver:
		return "match_over"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// StageChangePayload records a stage transition
type StageChangePayload struct {
	From Stage `json:"from"`
	To   Stage `json:"to"`
}

// PlayerJoinPayload records a roster change
type PlayerJoinPayload struct {
	PlayerID string   `json:"playerId"`
	Team     TeamType `json:"team"`
}

// EquipPayload records a weapon assignment
type EquipPayload struct {
	PlayerID string `json:"playerId"`
	WeaponID string `json:"weaponId"`
}

// WeaponFiredPayload records a shot, including automatic burst shots
type WeaponFiredPayload struct {
	PlayerID string  `json:"playerId"`
	WeaponID string  `json:"weaponId"`
	Target   string  `json:"target"`
	Damage   float64 `json:"damage"`
	Auto     bool    `json:"auto,omitempty"`
}

// BasePayload records a change to one base
type BasePayload struct {
	BaseID   string   `json:"baseId"`
	Team     TeamType `json:"team"`
	Amount   float64  `json:"amount"`
	Health   float64  `json:"health"`
	Garrison int      `json:"garrison,omitempty"`
}

// ScorePayload records points awarded to a team
type ScorePayload struct {
	Team   TeamType `json:"team"`
	Points float64  `json:"points"`
	Total  float64  `json:"total"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tick, matchTime int64, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Name:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		MatchTime: matchTime,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
