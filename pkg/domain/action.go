package domain

import (
	"fmt"
	"strings"
)

// ActionKind is the family of a service action.
type ActionKind string

const (
	ActionElaborate ActionKind = "elaborate"
	ActionExecute   ActionKind = "execute"
	ActionStep      ActionKind = "step"
)

// Action is the enumerated value sent in the "action" field of a request.
// Mode is only meaningful for ActionExecute.
type Action struct {
	Kind ActionKind
	Mode ExecutionMode
}

// Elaborate asks the service for the intermediate representations of a source.
func Elaborate() Action { return Action{Kind: ActionElaborate} }

// Execute asks the service to run the program in the given mode.
func Execute(mode ExecutionMode) Action { return Action{Kind: ActionExecute, Mode: mode} }

// Step asks the service for one interactive execution step.
func Step() Action { return Action{Kind: ActionStep} }

// String renders the wire form: elaborate, execute:<mode> or step.
func (a Action) String() string {
	if a.Kind == ActionExecute {
		return string(ActionExecute) + ":" + string(a.Mode)
	}
	return string(a.Kind)
}

// MarshalText implements encoding.TextMarshaler so Action travels as a JSON string.
func (a Action) MarshalText() ([]byte, error) {
	if a.Kind == "" {
		return nil, fmt.Errorf("%w: empty action", ErrUnknownAction)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction inverts Action.String.
func ParseAction(s string) (Action, error) {
	kind, mode, hasMode := strings.Cut(s, ":")
	switch ActionKind(kind) {
	case ActionElaborate, ActionStep:
		if hasMode {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
		}
		return Action{Kind: ActionKind(kind)}, nil
	case ActionExecute:
		m, err := ParseExecutionMode(mode)
		if err != nil {
			return Action{}, err
		}
		return Execute(m), nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
