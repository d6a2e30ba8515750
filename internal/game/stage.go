package game

import "time"

// Stage is the phase of a session
type Stage string

const (
	StageOne   Stage = "STAGE_ONE"
	StageTwo   Stage = "STAGE_TWO"
	StageThree Stage = "STAGE_THREE"
)

// Stages drives the session from the warm-up stage into the territorial
// match and on to the final stage once the match is decided.
type Stages struct {
	current  Stage
	timer    *Timer
	duration time.Duration

	// OnStageChange is called after every transition
	OnStageChange func(from, to Stage)
}

// NewStages starts stage one with a countdown of stageOne. matchDuration is
// the timer length used when stage two begins.
func NewStages(stageOne, matchDuration time.Duration, clock Clock) *Stages {
	return &Stages{
		current:  StageOne,
		timer:    NewTimer(stageOne, clock),
		duration: matchDuration,
	}
}

// Current returns the active stage
func (s *Stages) Current() Stage { return s.current }

// Timer returns the stage timer
func (s *Stages) Timer() *Timer { return s.timer }

// Update advances out of stage one when its timer runs out, and out of
// stage two when matchOver is true. Returns whether a transition happened.
func (s *Stages) Update(matchOver bool) bool {
	switch s.current {
	case StageOne:
		if !s.timer.IsTimeUp() {
			return false
		}
		s.timer.Reset(s.duration)
		s.transition(StageTwo)
		return true
	case StageTwo:
		if !matchOver {
			return false
		}
		s.timer.Pause()
		s.transition(StageThree)
		return true
	}
	return false
}

// Skip jumps straight from stage one to stage two
func (s *Stages) Skip() bool {
	if s.current != StageOne {
		return false
	}
	s.timer.Reset(s.duration)
	s.transition(StageTwo)
	return true
}

// Pause freezes the stage timer
func (s *Stages) Pause() { s.timer.Pause() }

// Resume continues the stage timer
func (s *Stages) Resume() {
	if s.current == StageThree {
		return
	}
	s.timer.Resume()
}

func (s *Stages) transition(to Stage) {
	from := s.current
	s.current = to
	if s.OnStageChange != nil {
		s.OnStageChange(from, to)
	}
}
