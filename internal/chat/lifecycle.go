package chat

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"
)

// State is the lifecycle tag of a conversation.
type State string

const (
	// StateEphemeral conversations are per-message rows that never show up in
	// the conversation list.
	StateEphemeral State = "ephemeral"
	// StateSaved conversations were created by an explicit save and are listable.
	StateSaved State = "saved"
)

// TriggerSave moves a conversation from ephemeral to saved.
const TriggerSave = "Save"

// Lifecycle wraps the one-way ephemeral -> saved state machine around a state
// value owned by the caller.
type Lifecycle struct {
	sm *stateless.StateMachine
}

// NewLifecycle binds a state machine to *state. A zero state is ephemeral.
func NewLifecycle(state *State) *Lifecycle {
	if *state == "" {
		*state = StateEphemeral
	}
	sm := stateless.NewStateMachineWithExternalStorage(
		func(_ context.Context) (stateless.State, error) {
			return *state, nil
		},
		func(_ context.Context, s stateless.State) error {
			next, ok := s.(State)
			if !ok {
				return fmt.Errorf("unexpected lifecycle state %v", s)
			}
			*state = next
			return nil
		},
		stateless.FiringImmediate,
	)

	sm.Configure(StateEphemeral).
		Permit(TriggerSave, StateSaved)
	// Saved is terminal: no transitions leave it.
	sm.Configure(StateSaved)

	return &Lifecycle{sm: sm}
}

// Save fires the save transition. It fails when the conversation is already saved.
func (l *Lifecycle) Save(ctx context.Context) error {
	if err := l.sm.FireCtx(ctx, TriggerSave); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// CanSave reports whether the save transition is currently permitted.
func (l *Lifecycle) CanSave(ctx context.Context) bool {
	ok, err := l.sm.CanFireCtx(ctx, TriggerSave)
	return err == nil && ok
}
