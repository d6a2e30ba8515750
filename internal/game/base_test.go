package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBaseStats() BaseStats {
	return BaseStats{
		MaxHealth:      1000,
		DefenseRating:  25,
		GenerationRate: ResourceTable{Energy: 5, Materials: 3},
		MaxGarrison:    2,
	}
}

func TestBaseTakeDamageMitigation(t *testing.T) {
	b := NewBase("base_0", TeamRed, testBaseStats(), Position{X: 10, Y: 20})

	assert.Equal(t, 925.0, b.TakeDamage(100))
	assert.Equal(t, 850.0, b.TakeDamage(100))

	// Two calls match one call with the sum of the mitigated amounts
	single := NewBase("base_1", TeamRed, testBaseStats(), Position{})
	assert.Equal(t, b.Health(), single.TakeDamage(200))
}

func TestBaseTakeDamageClampsAtZero(t *testing.T) {
	b := NewBase("base_0", TeamBlue, testBaseStats(), Position{})

	assert.Equal(t, 0.0, b.TakeDamage(1e6))
	assert.True(t, b.IsDestroyed())
	assert.Equal(t, 0.0, b.TakeDamage(10))
}

func TestBaseNegativeDamageIsIgnored(t *testing.T) {
	b := NewBase("base_0", TeamBlue, testBaseStats(), Position{})
	b.TakeDamage(400)
	before := b.Health()

	assert.Equal(t, before, b.TakeDamage(-500))
}

func TestBaseRepair(t *testing.T) {
	b := NewBase("base_0", TeamRed, testBaseStats(), Position{})
	b.TakeDamage(400) // 300 mitigated

	assert.Equal(t, 800.0, b.Repair(100))
	assert.Equal(t, 1000.0, b.Repair(5000), "repair clamps at max health")
}

func TestBaseDestroyedIsTerminal(t *testing.T) {
	b := NewBase("base_0", TeamRed, testBaseStats(), Position{})
	b.TakeDamage(5000)
	require.True(t, b.IsDestroyed())

	assert.Equal(t, 0.0, b.Repair(500))
	assert.True(t, b.IsDestroyed())
}

func TestBaseResources(t *testing.T) {
	b := NewBase("base_0", TeamRed, testBaseStats(), Position{})

	src := NewResource(Supplies, 10)
	assert.True(t, b.AddResource(src))
	assert.True(t, b.AddResource(NewResource(Supplies, 5)))
	assert.Equal(t, 15.0, b.ResourceAmount(Supplies))

	src.Add(100)
	assert.Equal(t, 15.0, b.ResourceAmount(Supplies), "base must hold its own copy")

	assert.False(t, b.ConsumeResource(Supplies, 16))
	assert.False(t, b.ConsumeResource(Energy, 1))

	assert.True(t, b.ConsumeResource(Supplies, 15))
	_, present := b.Resources()[Supplies]
	assert.False(t, present, "empty kind is removed from the store")
}

func TestBaseGenerateResources(t *testing.T) {
	b := NewBase("base_0", TeamRed, testBaseStats(), Position{})

	b.GenerateResources()
	b.GenerateResources()

	res := b.Resources()
	assert.Equal(t, 10.0, res[Energy])
	assert.Equal(t, 6.0, res[Materials])

	res[Energy] = 0
	assert.Equal(t, 10.0, b.ResourceAmount(Energy), "Resources returns a copy")
}

func TestBaseGarrison(t *testing.T) {
	b := NewBase("base_0", TeamRed, testBaseStats(), Position{})

	assert.False(t, b.UngarrisonPlayer())
	assert.True(t, b.GarrisonPlayer())
	assert.True(t, b.GarrisonPlayer())
	assert.False(t, b.GarrisonPlayer(), "garrison full")
	assert.Equal(t, 2, b.GarrisonCount())

	assert.True(t, b.UngarrisonPlayer())
	assert.Equal(t, 1, b.GarrisonCount())
}

func TestPositionDistance(t *testing.T) {
	assert.Equal(t, 5.0, Position{X: 0, Y: 0}.Distance(Position{X: 3, Y: 4}))
}
