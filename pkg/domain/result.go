package domain

import (
	"encoding/json"
	"fmt"
)

// ResponseKind tags the response variants.
type ResponseKind string

const (
	KindElaboration ResponseKind = "elaboration"
	KindExecution   ResponseKind = "execution"
	KindStep        ResponseKind = "step"
)

// StatusFailure is reported by the service when the source itself is rejected.
// It is a result to display, not a transport failure.
const StatusFailure = "failure"

// Response is implemented by the typed results of each action.
type Response interface {
	Kind() ResponseKind
	sealed()
}

// Representations holds one text per intermediate representation.
type Representations struct {
	Cabs   string `json:"cabs,omitempty"`
	AilAST string `json:"ail_ast,omitempty"`
	Ail    string `json:"ail,omitempty"`
	Core   string `json:"core,omitempty"`
}

// For returns the representation shown in an IR tab.
func (r Representations) For(tab Tab) (string, bool) {
	switch tab {
	case TabCabs:
		return r.Cabs, true
	case TabAilAST:
		return r.AilAST, true
	case TabAil:
		return r.Ail, true
	case TabCore:
		return r.Core, true
	}
	return "", false
}

// ElaborationResult is returned for the elaborate action.
type ElaborationResult struct {
	Status  string          `json:"status"`
	PP      Representations `json:"pp"`
	AST     Representations `json:"ast"`
	Locs    json.RawMessage `json:"locs,omitempty"`
	Console string          `json:"console,omitempty"`
	Result  string          `json:"result,omitempty"`
}

func (*ElaborationResult) Kind() ResponseKind { return KindElaboration }
func (*ElaborationResult) sealed()            {}

// Failed reports a service-level failure status.
func (r *ElaborationResult) Failed() bool { return r.Status == StatusFailure }

// IR returns the pretty-printed text for an IR tab.
func (r *ElaborationResult) IR(tab Tab) (string, bool) {
	return r.PP.For(tab)
}

// ExecutionResult is returned for execute:<mode>.
type ExecutionResult struct {
	Status  string `json:"status"`
	Console string `json:"console,omitempty"`
	Result  string `json:"result,omitempty"`
}

func (*ExecutionResult) Kind() ResponseKind { return KindExecution }
func (*ExecutionResult) sealed()            {}

// Failed reports a service-level failure status.
func (r *ExecutionResult) Failed() bool { return r.Status == StatusFailure }

// StepResult is returned for the step action.
type StepResult struct {
	State InteractiveState `json:"state"`
	Steps Steps            `json:"steps"`
}

func (*StepResult) Kind() ResponseKind { return KindStep }
func (*StepResult) sealed()            {}

// InteractiveState is the view-level state attached to a step response.
type InteractiveState struct {
	Status  string          `json:"status,omitempty"`
	Console string          `json:"console,omitempty"`
	Result  string          `json:"result,omitempty"`
	TagDefs json.RawMessage `json:"tagDefs,omitempty"`
}

// Steps are the nodes and edges returned by one step request.
type Steps struct {
	Nodes []StepNode `json:"nodes"`
	Edges []StepEdge `json:"edges"`
}

// StepNode is one execution state produced by the service.
// State is opaque to the client and sent back verbatim on expansion.
type StepNode struct {
	ID    int             `json:"id"`
	Label string          `json:"label"`
	State json.RawMessage `json:"state,omitempty"`
	Loc   json.RawMessage `json:"loc,omitempty"`
}

// StepEdge links a node to one of its branch choices.
type StepEdge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DecodeResponse decodes a service payload into the variant expected for an action.
func DecodeResponse(action Action, data []byte) (Response, error) {
	var res Response
	switch action.Kind {
	case ActionElaborate:
		res = &ElaborationResult{}
	case ActionExecute:
		res = &ExecutionResult{}
	case ActionStep:
		res = &StepResult{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Kind)
	}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	return res, nil
}
