package execution

import (
	"fmt"

	"github.com/crossvenue/arbengine/internal/domain"
)

// legalTransitions enumerates the edges of the execution state
// machine (§4.7). SIMULATED can short-circuit to REJECTED since a
// failed simulation must never reach submission.
var legalTransitions = map[domain.ExecutionState][]domain.ExecutionState{
	domain.StateInit:      {domain.StateDescribed},
	domain.StateDescribed: {domain.StateBuilt},
	domain.StateBuilt:     {domain.StateSimulated},
	domain.StateSimulated: {domain.StateSubmitted, domain.StateRejected},
	domain.StateSubmitted: {domain.StateLanded, domain.StateRejected, domain.StateDropped, domain.StateTimeout},
}

// IllegalTransitionError reports an attempted jump the state machine
// does not allow.
type IllegalTransitionError struct {
	From domain.ExecutionState
	To   domain.ExecutionState
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("execution: illegal transition %s -> %s", e.From, e.To)
}

// StateMachine tracks one execution's progress through §4.7's states
// and refuses any transition not in legalTransitions.
type StateMachine struct {
	current domain.ExecutionState
}

// NewStateMachine starts a state machine at INIT.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: domain.StateInit}
}

// Current returns the machine's present state.
func (m *StateMachine) Current() domain.ExecutionState {
	return m.current
}

// Transition advances to next if legal, otherwise returns an
// IllegalTransitionError without mutating the machine.
func (m *StateMachine) Transition(next domain.ExecutionState) error {
	for _, allowed := range legalTransitions[m.current] {
		if allowed == next {
			m.current = next
			return nil
		}
	}
	return &IllegalTransitionError{From: m.current, To: next}
}
