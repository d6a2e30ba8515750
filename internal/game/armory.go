package game

import (
	"sort"

	"arena-siege/internal/game/weapon"
)

// AttackMode selects how a weapon is used
type AttackMode string

const (
	AttackFire  AttackMode = "fire"
	AttackQuick AttackMode = "quick"
	AttackHeavy AttackMode = "heavy"
)

// Hit is the result of one shot against a base
type Hit struct {
	PlayerID  string   `json:"playerId"`
	WeaponID  string   `json:"weaponId"`
	BaseID    string   `json:"baseId"`
	Team      TeamType `json:"team"`
	Damage    float64  `json:"damage"`
	Health    float64  `json:"health"`
	Destroyed bool     `json:"destroyed"`
	Auto      bool     `json:"auto,omitempty"`
}

type loadout struct {
	weapon *weapon.Weapon
	target string
}

// Armory holds each player's equipped weapon and resolves attacks against
// bases in a match.
type Armory struct {
	factory  *weapon.Factory
	loadouts map[string]*loadout

	// Automatic hits applied while handling an attack, not yet reported
	settled []Hit
}

// NewArmory creates an armory that builds weapons with factory
func NewArmory(factory *weapon.Factory) *Armory {
	return &Armory{
		factory:  factory,
		loadouts: make(map[string]*loadout),
	}
}

// Equip gives player a fresh weapon. Unknown weapon ids fail.
func (a *Armory) Equip(playerID, weaponID string) bool {
	w, ok := a.factory.Create(weaponID)
	if !ok {
		return false
	}
	a.loadouts[playerID] = &loadout{weapon: w}
	return true
}

// Unequip removes a player's weapon along with any pending burst
func (a *Armory) Unequip(playerID string) {
	delete(a.loadouts, playerID)
}

// Weapon returns the player's weapon
func (a *Armory) Weapon(playerID string) (*weapon.Weapon, bool) {
	l, ok := a.loadouts[playerID]
	if !ok {
		return nil, false
	}
	return l.weapon, true
}

// Attack fires playerID's weapon at an enemy base. For explosives that miss
// the base directly, splash damage at distance is applied instead. The
// second result is false when the attack could not happen: no weapon,
// friendly or unknown target, match over, or the weapon refused to fire.
func (a *Armory) Attack(m *Manager, playerID, baseID string, mode AttackMode, directHit bool, distance float64) (Hit, bool) {
	l, ok := a.loadouts[playerID]
	if !ok || m.IsOver() {
		return Hit{}, false
	}
	a.settle(m, playerID, l)

	team, ok := m.PlayerTeam(playerID)
	if !ok {
		return Hit{}, false
	}
	base, ok := m.Base(baseID)
	if !ok || base.Team() == team || base.IsDestroyed() {
		return Hit{}, false
	}

	w := l.weapon
	if mode != AttackFire && w.Kind() != weapon.KindMelee {
		return Hit{}, false
	}

	damage := w.Fire(m.Now())
	if damage <= 0 {
		return Hit{}, false
	}

	switch {
	case mode == AttackHeavy:
		damage = w.HeavyAttack()
	case mode == AttackQuick:
		damage = w.QuickAttack()
	case w.Kind() == weapon.KindExplosive && !directHit:
		damage = w.CalculateDamageAtPoint(false, distance)
	}

	l.target = baseID
	return a.apply(m, playerID, w.Name(), base, damage, false), true
}

// Advance resolves scheduled weapon events up to the match time and applies
// automatic burst damage to each shooter's last target.
func (a *Armory) Advance(m *Manager) []Hit {
	now := m.Now()
	ids := make([]string, 0, len(a.loadouts))
	for id := range a.loadouts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	hits := a.Settled()
	for _, id := range ids {
		l := a.loadouts[id]
		if h, ok := a.autoHit(m, id, l, l.weapon.Advance(now)); ok {
			hits = append(hits, h)
		}
	}
	return hits
}

// Settled returns and clears the automatic hits applied during Attack calls
// since the last Advance.
func (a *Armory) Settled() []Hit {
	hits := a.settled
	a.settled = nil
	return hits
}

// settle lands burst shots that came due before a new trigger pull on the
// shooter's previous target.
func (a *Armory) settle(m *Manager, playerID string, l *loadout) {
	if h, ok := a.autoHit(m, playerID, l, l.weapon.Advance(m.Now())); ok {
		a.settled = append(a.settled, h)
	}
}

func (a *Armory) autoHit(m *Manager, playerID string, l *loadout, damage float64) (Hit, bool) {
	if damage <= 0 || l.target == "" || m.IsOver() {
		return Hit{}, false
	}
	base, ok := m.Base(l.target)
	if !ok || base.IsDestroyed() {
		return Hit{}, false
	}
	return a.apply(m, playerID, l.weapon.Name(), base, damage, true), true
}

func (a *Armory) apply(m *Manager, playerID, weaponID string, base *Base, damage float64, auto bool) Hit {
	health, _ := m.DamageBase(base.ID(), damage)
	return Hit{
		PlayerID:  playerID,
		WeaponID:  weaponID,
		BaseID:    base.ID(),
		Team:      base.Team(),
		Damage:    damage,
		Health:    health,
		Destroyed: base.IsDestroyed(),
		Auto:      auto,
	}
}

// Factory returns the weapon factory
func (a *Armory) Factory() *weapon.Factory { return a.factory }
