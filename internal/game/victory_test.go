package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func victoryTeams() (*Team, *Team) {
	stats := TeamStats{MaxPlayers: 5, ResourceCaps: ResourceTable{Energy: 1000}}
	red, blue := NewTeam(TeamRed, stats), NewTeam(TeamBlue, stats)
	red.AddBase(NewBase("r0", TeamRed, BaseStats{MaxHealth: 10}, Position{}))
	blue.AddBase(NewBase("b0", TeamBlue, BaseStats{MaxHealth: 10}, Position{}))
	return red, blue
}

func TestVictoryConditionBothQualifyRedFirst(t *testing.T) {
	tests := []struct {
		name string
		cond VictoryCondition
		prep func(red, blue *Team)
	}{
		{"score", VictoryCondition{Type: ConditionScore, Threshold: 10}, func(red, blue *Team) {
			red.AddScore(10)
			blue.AddScore(50)
		}},
		{"resources", VictoryCondition{Type: ConditionResources, Threshold: 100}, func(red, blue *Team) {
			red.AddResource(NewResource(Energy, 100))
			blue.AddResource(NewResource(Energy, 900))
		}},
		{"domination", VictoryCondition{Type: ConditionDomination, Threshold: 0.5}, func(red, blue *Team) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			red, blue := victoryTeams()
			tt.prep(red, blue)
			winner, ok := tt.cond.Evaluate(red, blue, 2)
			assert.True(t, ok)
			assert.Equal(t, TeamRed, winner)
		})
	}
}

func TestVictoryEliminationDeclaresSurvivor(t *testing.T) {
	red, blue := victoryTeams()
	cond := VictoryCondition{Type: ConditionElimination, Threshold: 1}

	_, ok := cond.Evaluate(red, blue, 2)
	assert.False(t, ok)

	red.Bases()[0].TakeDamage(100)
	winner, ok := cond.Evaluate(red, blue, 2)
	assert.True(t, ok)
	assert.Equal(t, TeamBlue, winner)
}

func TestVictoryEliminationNeedsBases(t *testing.T) {
	stats := TeamStats{MaxPlayers: 1}
	cond := VictoryCondition{Type: ConditionElimination}
	_, ok := cond.Evaluate(NewTeam(TeamRed, stats), NewTeam(TeamBlue, stats), 0)
	assert.False(t, ok)

	dom := VictoryCondition{Type: ConditionDomination, Threshold: 0}
	_, ok = dom.Evaluate(NewTeam(TeamRed, stats), NewTeam(TeamBlue, stats), 0)
	assert.False(t, ok, "domination is undefined without bases")
}

func TestVictoryUnknownCondition(t *testing.T) {
	red, blue := victoryTeams()
	_, ok := VictoryCondition{Type: "capture_flag"}.Evaluate(red, blue, 2)
	assert.False(t, ok)
}

func TestVictoryConditionActiveAt(t *testing.T) {
	always := VictoryCondition{Type: ConditionScore}
	limited := VictoryCondition{Type: ConditionScore, TimeLimit: 60}

	assert.True(t, always.ActiveAt(time.Hour))
	assert.True(t, limited.ActiveAt(60*time.Second))
	assert.False(t, limited.ActiveAt(61*time.Second))
}

func TestTimeUpWinnerScoreShortCircuits(t *testing.T) {
	red, blue := victoryTeams()
	red.AddScore(500)
	blue.AddScore(300)
	red.Bases()[0].TakeDamage(100) // blue would win on bases

	winner, ok := TimeUpWinner(red, blue)
	assert.True(t, ok)
	assert.Equal(t, TeamRed, winner)
}

func TestStatusBoard(t *testing.T) {
	board := NewStatusBoard()
	assert.Nil(t, board.Latest())

	board.Publish(&Status{MatchID: "a"})
	board.Publish(&Status{MatchID: "b"})

	latest := board.Latest()
	assert.Equal(t, "b", latest.MatchID)
	assert.Equal(t, uint64(2), latest.Sequence)
	assert.False(t, latest.Timestamp.IsZero())
	assert.Equal(t, uint64(2), board.Sequence())
}
