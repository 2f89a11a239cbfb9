package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Action
		wantErr bool
	}{
		{in: "elaborate", want: domain.Elaborate()},
		{in: "step", want: domain.Step()},
		{in: "execute:random", want: domain.Execute(domain.ModeRandom)},
		{in: "execute:exhaustive", want: domain.Execute(domain.ModeExhaustive)},
		{in: "execute:Random", want: domain.Execute(domain.ModeRandom)},
		{in: "elaborate:x", wantErr: true},
		{in: "step:1", wantErr: true},
		{in: "execute:bogus", wantErr: true},
		{in: "execute", wantErr: true},
		{in: "Elaborate", wantErr: true},
		{in: "foo", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseAction(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnknownAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAction_TextForm(t *testing.T) {
	for _, a := range []domain.Action{domain.Elaborate(), domain.Step(), domain.Execute(domain.ModeExhaustive)} {
		text, err := a.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, a.String(), string(text))

		back, err := domain.ParseAction(string(text))
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
	assert.Equal(t, "execute:exhaustive", domain.Execute(domain.ModeExhaustive).String())

	_, err := domain.Action{}.MarshalText()
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	var payload struct {
		Action domain.Action `json:"action"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"action":"execute:random"}`), &payload))
	assert.Equal(t, domain.Execute(domain.ModeRandom), payload.Action)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"action":"execute:bogus"}`), &payload), domain.ErrUnknownAction)
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Model
		wantErr bool
	}{
		{in: "concrete", want: domain.ModelConcrete},
		{in: "symbolic", want: domain.ModelSymbolic},
		{in: "Symbolic", want: domain.ModelSymbolic},
		{in: " CONCRETE ", want: domain.ModelConcrete},
		{in: "quantum", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseModel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnknownModel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, domain.ModelSymbolic, domain.ModelConcrete.Toggle())
	assert.Equal(t, domain.ModelConcrete, domain.ModelSymbolic.Toggle())
}

func TestDecodeResponse(t *testing.T) {
	t.Run("elaborate", func(t *testing.T) {
		res, err := domain.DecodeResponse(domain.Elaborate(), []byte(`{"status":"elaboration","pp":{"core":"proc main"},"ast":{}}`))
		require.NoError(t, err)
		elab, ok := res.(*domain.ElaborationResult)
		require.True(t, ok)
		assert.Equal(t, domain.KindElaboration, res.Kind())
		assert.False(t, elab.Failed())
		core, ok := elab.IR(domain.TabCore)
		assert.True(t, ok)
		assert.Equal(t, "proc main", core)
	})

	t.Run("execute", func(t *testing.T) {
		res, err := domain.DecodeResponse(domain.Execute(domain.ModeRandom), []byte(`{"status":"failure","console":"syntax error"}`))
		require.NoError(t, err)
		exec, ok := res.(*domain.ExecutionResult)
		require.True(t, ok)
		assert.Equal(t, domain.KindExecution, res.Kind())
		assert.True(t, exec.Failed())
		assert.Equal(t, "syntax error", exec.Console)
	})

	t.Run("step", func(t *testing.T) {
		res, err := domain.DecodeResponse(domain.Step(), []byte(`{"state":{},"steps":{"nodes":[{"id":1,"label":"init","state":"s1"}],"edges":[]}}`))
		require.NoError(t, err)
		step, ok := res.(*domain.StepResult)
		require.True(t, ok)
		assert.Equal(t, domain.KindStep, res.Kind())
		require.Len(t, step.Steps.Nodes, 1)
		assert.Equal(t, json.RawMessage(`"s1"`), step.Steps.Nodes[0].State)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := domain.DecodeResponse(domain.Action{Kind: "compile"}, []byte(`{}`))
		assert.ErrorIs(t, err, domain.ErrUnknownAction)
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := domain.DecodeResponse(domain.Elaborate(), []byte(`{"status":`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode elaborate response")
	})
}

func TestParseTab(t *testing.T) {
	tab, err := domain.ParseTab("")
	require.NoError(t, err)
	assert.Equal(t, domain.TabSource, tab)

	tab, err = domain.ParseTab("Ail_AST")
	require.NoError(t, err)
	assert.Equal(t, domain.TabAilAST, tab)

	_, err = domain.ParseTab("Nope")
	assert.ErrorIs(t, err, domain.ErrUnknownTab)
}
