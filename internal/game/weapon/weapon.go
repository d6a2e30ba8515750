// Package weapon implements the damage model: a single weapon state machine
// whose fire behaviour branches on a tagged specialization (burst, shotgun,
// explosive, melee) instead of a type hierarchy.
//
// All timestamps are match-relative milliseconds supplied by the caller.
// Reloads and burst follow-up shots are scheduled events that resolve when
// the owner calls Advance or Fire, so nothing here depends on wall-clock
// delays or on how often the owner polls.
package weapon

import (
	"math"
	"math/rand"
	"time"

	"arena-siege/internal/game/schedule"
)

// Category is the weapon class shown to players.
type Category string

const (
	CategoryAssaultRifle    Category = "assault_rifle"
	CategorySMG             Category = "smg"
	CategoryShotgun         Category = "shotgun"
	CategoryPistol          Category = "pistol"
	CategoryMachinePistol   Category = "machine_pistol"
	CategorySniperRifle     Category = "sniper_rifle"
	CategoryRocketLauncher  Category = "rocket_launcher"
	CategoryGrenadeLauncher Category = "grenade_launcher"
	CategoryMelee           Category = "melee"
)

// Stats are the base numbers every weapon carries.
type Stats struct {
	Damage       float64       `json:"damage"`
	RateOfFire   float64       `json:"rateOfFire"` // rounds per minute
	MagazineSize int           `json:"magazineSize"`
	ReloadTime   time.Duration `json:"reloadTime"`
	Accuracy     float64       `json:"accuracy"` // 0..1
	Range        float64       `json:"range"`
}

// State is the reload state machine position.
type State uint8

const (
	StateReady State = iota
	StateReloading
)

// String returns the state name
func (s State) String() string {
	if s == StateReloading {
		return "reloading"
	}
	return "ready"
}

// Queue owners used for this weapon's scheduled events
const (
	ownerReload = "reload"
	ownerBurst  = "burst"
)

// Weapon is one instance held by one player.
type Weapon struct {
	name     string
	category Category
	stats    Stats
	spec     Specialization

	ammo         int
	state        State
	hasFired     bool
	lastFireTime int64
	readyAt      int64

	// Damage dealt by automatic burst shots since the last Advance
	autoDamage float64

	rng   *rand.Rand
	queue *schedule.Queue
}

// New creates a weapon with a full magazine. A nil rng gets a time-seeded one.
func New(name string, category Category, stats Stats, spec Specialization, rng *rand.Rand) *Weapon {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if spec.Kind == KindMelee {
		category = CategoryMelee
		stats.MagazineSize = 0
		stats.ReloadTime = 0
	}
	return &Weapon{
		name:     name,
		category: category,
		stats:    stats,
		spec:     spec,
		ammo:     stats.MagazineSize,
		state:    StateReady,
		rng:      rng,
		queue:    schedule.NewQueue(),
	}
}

// Fire attempts a shot at time now (ms) and returns the damage dealt.
//
// Zero means the shot did not happen: the weapon is reloading, the
// rate-of-fire gate has not elapsed, or the magazine was empty (which
// starts a reload).
//
// Events due by now run first. Burst damage they deal is held for the next
// Advance.
func (w *Weapon) Fire(now int64) float64 {
	w.queue.RunDue(now)
	if w.state == StateReloading {
		return 0
	}
	if !w.Unlimited() && w.ammo <= 0 {
		w.Reload(now)
		return 0
	}
	if w.hasFired && float64(now-w.lastFireTime) < w.fireDelay() {
		return 0
	}

	damage := w.discharge(now)

	switch w.spec.Kind {
	case KindBurst:
		w.queue.CancelOwner(ownerBurst)
		delay := w.spec.BurstDelay.Milliseconds()
		for i := 1; i < w.spec.BurstCount; i++ {
			w.queue.Schedule(now+int64(i)*delay, ownerBurst, w.burstShot)
		}
	case KindShotgun:
		damage = w.spread(damage)
	}

	return damage
}

// Reload starts a reload that completes ReloadTime after now.
// A second call while reloading does nothing. Melee weapons never reload.
func (w *Weapon) Reload(now int64) {
	if w.state == StateReloading || w.Unlimited() {
		return
	}
	w.state = StateReloading
	w.readyAt = now + w.stats.ReloadTime.Milliseconds()
	w.queue.CancelOwner(ownerBurst)
	w.queue.Schedule(w.readyAt, ownerReload, func(int64) {
		w.ammo = w.stats.MagazineSize
		w.state = StateReady
	})
}

// Advance resolves every scheduled event due by now and returns the damage
// dealt by automatic burst shots in that window.
func (w *Weapon) Advance(now int64) float64 {
	w.queue.RunDue(now)
	dealt := w.autoDamage
	w.autoDamage = 0
	return dealt
}

// CalculateDamageAtPoint returns explosive damage at distance from the
// impact. A direct hit deals the full weapon damage; splash falls off
// linearly from SplashDamage at 0 to nothing at SplashRadius.
// Non-explosive weapons only deal damage on a direct hit.
func (w *Weapon) CalculateDamageAtPoint(directHit bool, distance float64) float64 {
	if directHit {
		return w.stats.Damage
	}
	if w.spec.Kind != KindExplosive || w.spec.SplashRadius <= 0 {
		return 0
	}
	if distance < 0 {
		distance = 0
	}
	if distance >= w.spec.SplashRadius {
		return 0
	}
	return w.spec.SplashDamage * (1 - distance/w.spec.SplashRadius)
}

// QuickAttack returns the fixed quick melee damage (0 for firearms).
func (w *Weapon) QuickAttack() float64 {
	if w.spec.Kind != KindMelee {
		return 0
	}
	return w.spec.QuickDamage
}

// HeavyAttack returns the fixed heavy melee damage (0 for firearms).
func (w *Weapon) HeavyAttack() float64 {
	if w.spec.Kind != KindMelee {
		return 0
	}
	return w.spec.HeavyDamage
}

// Name returns the registry identifier
func (w *Weapon) Name() string { return w.name }

// Category returns the weapon class
func (w *Weapon) Category() Category { return w.category }

// Kind returns the specialization tag
func (w *Weapon) Kind() Kind { return w.spec.Kind }

// Specialization returns a copy of the specialization parameters
func (w *Weapon) Specialization() Specialization { return w.spec }

// Stats returns a copy of the base stats
func (w *Weapon) Stats() Stats { return w.stats }

// Ammo returns rounds left in the magazine
func (w *Weapon) Ammo() int { return w.ammo }

// State returns READY or RELOADING
func (w *Weapon) State() State { return w.state }

// IsReloading reports whether a reload is pending
func (w *Weapon) IsReloading() bool { return w.state == StateReloading }

// ReadyAt returns when the pending reload completes (meaningless while ready)
func (w *Weapon) ReadyAt() int64 { return w.readyAt }

// Unlimited reports whether the weapon has no magazine (melee)
func (w *Weapon) Unlimited() bool { return w.spec.Kind == KindMelee }

// PendingBurstShots returns how many automatic follow-up shots are queued
func (w *Weapon) PendingBurstShots() int { return w.queue.Pending(ownerBurst) }

// fireDelay is the minimum gap between successful shots in ms
func (w *Weapon) fireDelay() float64 {
	if w.stats.RateOfFire <= 0 {
		return 0
	}
	return 60000 / w.stats.RateOfFire
}

// discharge consumes a round and rolls the accuracy penalty.
func (w *Weapon) discharge(now int64) float64 {
	if !w.Unlimited() {
		w.ammo--
	}
	w.lastFireTime = now
	w.hasFired = true

	if w.spec.Kind == KindMelee {
		return w.spec.QuickDamage
	}

	accuracy := math.Max(0, math.Min(1, w.stats.Accuracy))
	penalty := w.rng.Float64() * (1 - accuracy)
	return w.stats.Damage * (1 - penalty)
}

// burstShot is a scheduled follow-up. It is gated by the burst spacing, not
// the rate of fire, and an empty magazine ends the burst with a reload.
func (w *Weapon) burstShot(at int64) {
	if w.state == StateReloading {
		w.queue.CancelOwner(ownerBurst)
		return
	}
	if w.ammo <= 0 {
		w.Reload(at)
		return
	}
	w.autoDamage += w.discharge(at)
}

// spread splits a shot across pellets, each attenuated by the cosine of a
// random angle within half the spread cone either side.
func (w *Weapon) spread(damage float64) float64 {
	pellets := w.spec.PelletCount
	if pellets <= 0 {
		return damage
	}
	perPellet := damage / float64(pellets)
	total := 0.0
	for i := 0; i < pellets; i++ {
		angle := w.rng.Float64()*w.spec.SpreadAngle - w.spec.SpreadAngle/2
		total += perPellet * math.Cos(angle*math.Pi/180)
	}
	return total
}
