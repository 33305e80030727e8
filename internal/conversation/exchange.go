package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"

	"github.com/comigor/chatbot-go/internal/logger"
)

// Exchange states
type exchangeState string

const (
	stateReceived     exchangeState = "Received"
	stateStoringUser  exchangeState = "StoringUser"
	stateCompleting   exchangeState = "Completing"
	stateStoringReply exchangeState = "StoringReply"
	stateDone         exchangeState = "Done"   // Terminal: reply returned to the caller
	stateFailed       exchangeState = "Failed" // Terminal: error returned to the caller
)

// Exchange triggers
type exchangeTrigger string

const (
	triggerStoreUser  exchangeTrigger = "StoreUser"
	triggerComplete   exchangeTrigger = "Complete"
	triggerStoreReply exchangeTrigger = "StoreReply"
	triggerFinish     exchangeTrigger = "Finish"
	triggerFail       exchangeTrigger = "Fail"
)

type step func(ctx context.Context) error

// exchangeSteps is the work done on entering each state. storeUser and
// storeReply are nil for exchanges that persist nothing.
type exchangeSteps struct {
	storeUser  step
	complete   step
	storeReply step
}

// exchange sequences one request/reply round trip. Each step runs in the
// OnEntry action of its state, so a step only runs after the previous one
// succeeded. A stored user message is never rolled back: Failed is reachable
// from every working state.
type exchange struct {
	kind  string
	sm    *stateless.StateMachine
	steps exchangeSteps
}

func newExchange(kind string, steps exchangeSteps) *exchange {
	e := &exchange{kind: kind, sm: stateless.NewStateMachine(stateReceived), steps: steps}
	sm := e.sm

	received := sm.Configure(stateReceived).Permit(triggerFail, stateFailed)
	if steps.storeUser != nil {
		received.Permit(triggerStoreUser, stateStoringUser)
		sm.Configure(stateStoringUser).
			OnEntry(e.run(steps.storeUser)).
			Permit(triggerComplete, stateCompleting).
			Permit(triggerFail, stateFailed)
	} else {
		received.Permit(triggerComplete, stateCompleting)
	}

	completing := sm.Configure(stateCompleting).
		OnEntry(e.run(steps.complete)).
		Permit(triggerFail, stateFailed)
	if steps.storeReply != nil {
		completing.Permit(triggerStoreReply, stateStoringReply)
		sm.Configure(stateStoringReply).
			OnEntry(e.run(steps.storeReply)).
			Permit(triggerFinish, stateDone).
			Permit(triggerFail, stateFailed)
	} else {
		completing.Permit(triggerFinish, stateDone)
	}

	sm.Configure(stateDone)
	sm.Configure(stateFailed)

	sm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		logger.FromContext(ctx).Debugw("exchange transition",
			"exchange", kind, "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})

	return e
}

func (e *exchange) run(s step) func(context.Context, ...any) error {
	return func(ctx context.Context, _ ...any) error {
		if s == nil {
			return fmt.Errorf("exchange %s: no action for %v", e.kind, e.sm.MustState())
		}
		return s(ctx)
	}
}

// plan lists the triggers that walk the machine from Received to Done.
func (e *exchange) plan() []exchangeTrigger {
	triggers := make([]exchangeTrigger, 0, 4)
	if e.steps.storeUser != nil {
		triggers = append(triggers, triggerStoreUser)
	}
	triggers = append(triggers, triggerComplete)
	if e.steps.storeReply != nil {
		triggers = append(triggers, triggerStoreReply)
	}
	return append(triggers, triggerFinish)
}

// Run drives the exchange to Done. The first failing step (or rejected
// transition) moves it to Failed and its error is returned.
func (e *exchange) Run(ctx context.Context) error {
	for _, trigger := range e.plan() {
		if err := e.sm.FireCtx(ctx, trigger); err != nil {
			if ferr := e.sm.FireCtx(ctx, triggerFail); ferr != nil {
				return errors.Join(err, fmt.Errorf("exchange %s: %w", e.kind, ferr))
			}
			return err
		}
	}
	return nil
}

func (e *exchange) state() exchangeState {
	return e.sm.MustState().(exchangeState)
}
