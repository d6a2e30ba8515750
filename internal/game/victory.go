package game

import "time"

// ConditionType names a victory rule
type ConditionType string

const (
	ConditionScore       ConditionType = "score"
	ConditionDomination  ConditionType = "domination"
	ConditionResources   ConditionType = "resources"
	ConditionElimination ConditionType = "elimination"
)

// VictoryCondition is one configured rule. TimeLimit (seconds) restricts the
// rule to the first TimeLimit seconds of the match; 0 means always active.
type VictoryCondition struct {
	Type      ConditionType `json:"type" mapstructure:"type"`
	Threshold float64       `json:"threshold" mapstructure:"threshold"`
	TimeLimit float64       `json:"timeLimit,omitempty" mapstructure:"time_limit"`
}

// ActiveAt reports whether the rule is evaluated at the given elapsed time
func (c VictoryCondition) ActiveAt(elapsed time.Duration) bool {
	if c.TimeLimit <= 0 {
		return true
	}
	return elapsed.Seconds() <= c.TimeLimit
}

// Evaluate checks the rule for red then blue and returns the winner. Red is
// checked first, so it wins when both sides qualify on the same tick.
func (c VictoryCondition) Evaluate(red, blue *Team, totalBases int) (TeamType, bool) {
	for _, team := range []*Team{red, blue} {
		if c.satisfiedBy(team, red, blue, totalBases) {
			return team.Type(), true
		}
	}
	return "", false
}

func (c VictoryCondition) satisfiedBy(team, red, blue *Team, totalBases int) bool {
	switch c.Type {
	case ConditionScore:
		return team.Score() >= c.Threshold

	case ConditionDomination:
		if totalBases == 0 {
			return false
		}
		return float64(team.SurvivingBases())/float64(totalBases) >= c.Threshold

	case ConditionResources:
		return team.TotalResources() >= c.Threshold

	case ConditionElimination:
		// The survivor wins when the other side has lost every base
		other := blue
		if team == blue {
			other = red
		}
		return other.AllBasesDestroyed()
	}
	return false
}

// TimeUpWinner applies the tie-break cascade when the clock runs out:
// score, then surviving bases, then total resources. The second result is
// false for a true tie.
func TimeUpWinner(red, blue *Team) (TeamType, bool) {
	if w, ok := compare(red.Score(), blue.Score()); ok {
		return w, true
	}
	if w, ok := compare(float64(red.SurvivingBases()), float64(blue.SurvivingBases())); ok {
		return w, true
	}
	if w, ok := compare(red.TotalResources(), blue.TotalResources()); ok {
		return w, true
	}
	return "", false
}

func compare(red, blue float64) (TeamType, bool) {
	switch {
	case red > blue:
		return TeamRed, true
	case blue > red:
		return TeamBlue, true
	}
	return "", false
}
