package domain

import "encoding/json"

// DefaultEndpoint is the path of the semantics service.
const DefaultEndpoint = "/cerberus"

// Request is the one body shape sent for every intent.
type Request struct {
	Action        Action              `json:"action"`
	Source        string              `json:"source"`
	Rewrite       bool                `json:"rewrite"`
	Sequentialise bool                `json:"sequentialise"`
	Model         Model               `json:"model"`
	Interactive   *InteractiveRequest `json:"interactive,omitempty"`
}

// InteractiveRequest carries the continuation needed to expand one step node.
type InteractiveRequest struct {
	LastID  int             `json:"lastId"`
	State   json.RawMessage `json:"state"`
	Active  int             `json:"active"`
	TagDefs json.RawMessage `json:"tagDefs"`
}

// NewRequest builds a request from a source text and the analysis settings.
func NewRequest(action Action, source string, s AnalysisSettings, interactive *InteractiveRequest) Request {
	return Request{
		Action:        action,
		Source:        source,
		Rewrite:       s.Rewrite,
		Sequentialise: s.Sequentialise,
		Model:         s.Model,
		Interactive:   interactive,
	}
}
