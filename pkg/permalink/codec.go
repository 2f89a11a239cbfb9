package permalink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/view"
	"github.com/mitchellh/mapstructure"
)

// minified maps snapshot keys to their short form. Values below the opaque keys
// belong to the service and are never rewritten.
var minified = map[string]string{
	"title":         "t",
	"source":        "s",
	"settings":      "c",
	"model":         "m",
	"rewrite":       "r",
	"sequentialise": "q",
	"activeTab":     "a",
	"interactive":   "i",
	"lastNodeId":    "l",
	"tagDefs":       "g",
	"nodes":         "n",
	"id":            "d",
	"label":         "b",
	"state":         "x",
	"parent":        "p",
	"expanded":      "e",
}

var opaque = map[string]bool{
	"state":   true,
	"tagDefs": true,
}

var unminified = func() map[string]string {
	m := make(map[string]string, len(minified))
	for long, short := range minified {
		m[short] = long
	}
	return m
}()

// Encode captures v under the analysis settings s as a fragment-safe token.
func Encode(v *view.View, s domain.AnalysisSettings) (string, error) {
	return EncodeSnapshot(v.Snapshot(s))
}

// EncodeSnapshot turns a snapshot into a token. The output is deterministic:
// the same snapshot always yields the same token.
func EncodeSnapshot(snap *domain.Snapshot) (string, error) {
	data, err := Marshal(snap)
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(data)), nil
}

// Marshal returns the minified JSON of a snapshot, before URL escaping.
func Marshal(snap *domain.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", domain.ErrMalformedPermalink)
	}
	if !utf8.ValidString(snap.Title) || !utf8.ValidString(snap.Source) {
		return nil, fmt.Errorf("%w: invalid UTF-8 in title or source", domain.ErrMalformedPermalink)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	tree, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rename(tree, minified)); err != nil {
		return nil, fmt.Errorf("failed to marshal permalink: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode reads a token produced by Encode. A leading '#' is accepted.
func Decode(token string) (*domain.Snapshot, error) {
	token = strings.TrimPrefix(token, "#")
	if token == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrMalformedPermalink)
	}
	text, err := url.PathUnescape(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPermalink, err)
	}
	return Unmarshal([]byte(text))
}

// DecodeSnapshot is Decode under the name used by snapshot consumers.
func DecodeSnapshot(token string) (*domain.Snapshot, error) {
	return Decode(token)
}

// Unmarshal reads minified JSON back into a snapshot.
// Title and source are required. Settings, when present, must carry all three fields.
func Unmarshal(data []byte) (*domain.Snapshot, error) {
	tree, err := parse(data)
	if err != nil {
		return nil, err
	}
	fields, ok := rename(tree, unminified).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an object", domain.ErrMalformedPermalink)
	}
	if err := checkSettings(fields["settings"]); err != nil {
		return nil, err
	}

	var snap domain.Snapshot
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		DecodeHook: rawMessageHook,
		Result:     &snap,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPermalink, err)
	}

	if _, ok := fields["title"].(string); !ok {
		return nil, fmt.Errorf("%w: missing title", domain.ErrMalformedPermalink)
	}
	if _, ok := fields["source"].(string); !ok {
		return nil, fmt.Errorf("%w: missing source", domain.ErrMalformedPermalink)
	}
	if snap.Settings != nil {
		m, err := domain.ParseModel(string(snap.Settings.Model))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPermalink, err)
		}
		snap.Settings.Model = m
	}
	if snap.ActiveTab != "" {
		if _, err := domain.ParseTab(string(snap.ActiveTab)); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPermalink, err)
		}
	}
	return &snap, nil
}

// checkSettings rejects a settings object that would decode to zero values
// for the keys it leaves out.
func checkSettings(v any) error {
	if v == nil {
		return nil
	}
	settings, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: settings is not an object", domain.ErrMalformedPermalink)
	}
	if m, ok := settings["model"].(string); !ok || m == "" {
		return fmt.Errorf("%w: settings without model", domain.ErrMalformedPermalink)
	}
	for _, key := range []string{"rewrite", "sequentialise"} {
		if _, ok := settings[key].(bool); !ok {
			return fmt.Errorf("%w: settings without %s", domain.ErrMalformedPermalink, key)
		}
	}
	return nil
}

func parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPermalink, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", domain.ErrMalformedPermalink)
	}
	return tree, nil
}

// rename rewrites object keys through table, leaving opaque values as they are.
func rename(node any, table map[string]string) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			name := k
			if short, ok := table[k]; ok {
				name = short
			}
			if opaque[k] || opaque[name] {
				out[name] = v
				continue
			}
			out[name] = rename(v, table)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = rename(v, table)
		}
		return out
	default:
		return node
	}
}

var rawMessageType = reflect.TypeOf(json.RawMessage(nil))

// rawMessageHook re-encodes opaque subtrees into json.RawMessage fields.
func rawMessageHook(from, to reflect.Type, data any) (any, error) {
	if to != rawMessageType {
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
