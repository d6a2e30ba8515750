package weapon

import "time"

// Kind tags which fire behaviour a weapon uses.
type Kind uint8

const (
	KindStandard Kind = iota
	KindBurst
	KindShotgun
	KindExplosive
	KindMelee
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindBurst:
		return "burst"
	case KindShotgun:
		return "shotgun"
	case KindExplosive:
		return "explosive"
	case KindMelee:
		return "melee"
	default:
		return "standard"
	}
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Specialization holds the per-kind parameters. Only the fields for the
// weapon's Kind are read.
type Specialization struct {
	Kind Kind `json:"kind"`

	// Burst
	BurstCount int           `json:"burstCount,omitempty"`
	BurstDelay time.Duration `json:"burstDelay,omitempty"`

	// Shotgun
	PelletCount int     `json:"pelletCount,omitempty"`
	SpreadAngle float64 `json:"spreadAngle,omitempty"` // degrees

	// Explosive
	SplashRadius float64 `json:"splashRadius,omitempty"`
	SplashDamage float64 `json:"splashDamage,omitempty"`

	// Melee
	QuickDamage float64       `json:"quickDamage,omitempty"`
	HeavyDamage float64       `json:"heavyDamage,omitempty"`
	HeavyDelay  time.Duration `json:"heavyDelay,omitempty"`
}

// Burst returns a burst specialization. Follow-up shots are spaced by delay
// alone and are not held back by the rate-of-fire gate.
func Burst(count int, delay time.Duration) Specialization {
	return Specialization{Kind: KindBurst, BurstCount: count, BurstDelay: delay}
}

// Shotgun returns a pellet-spread specialization
func Shotgun(pellets int, spreadDegrees float64) Specialization {
	return Specialization{Kind: KindShotgun, PelletCount: pellets, SpreadAngle: spreadDegrees}
}

// Explosive returns a splash specialization
func Explosive(radius, damage float64) Specialization {
	return Specialization{Kind: KindExplosive, SplashRadius: radius, SplashDamage: damage}
}

// Melee returns a melee specialization
func Melee(quick, heavy float64, heavyDelay time.Duration) Specialization {
	return Specialization{Kind: KindMelee, QuickDamage: quick, HeavyDamage: heavy, HeavyDelay: heavyDelay}
}
