package domain

import (
	"fmt"
	"strings"
)

// Model selects the memory object model used by the service.
type Model string

const (
	ModelConcrete Model = "concrete"
	ModelSymbolic Model = "symbolic"
)

// ParseModel accepts the wire names case-insensitively ("Symbolic" is found in old links).
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModelConcrete):
		return ModelConcrete, nil
	case string(ModelSymbolic):
		return ModelSymbolic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Toggle returns the other model.
func (m Model) Toggle() Model {
	if m == ModelConcrete {
		return ModelSymbolic
	}
	return ModelConcrete
}

// ExecutionMode selects how the service explores executions.
type ExecutionMode string

const (
	ModeRandom     ExecutionMode = "random"
	ModeExhaustive ExecutionMode = "exhaustive"
)

// ParseExecutionMode parses "random" or "exhaustive".
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch ExecutionMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRandom:
		return ModeRandom, nil
	case ModeExhaustive:
		return ModeExhaustive, nil
	}
	return "", fmt.Errorf("%w: execution mode %q", ErrUnknownAction, s)
}
