package cerberus_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/pkg/adapters/memory"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/permalink"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const elabJSON = `{"status":"elaboration","pp":{"core":"proc main"},"ast":{}}`

func service(requests *[]domain.Request) ports.SemanticsService {
	return ports.SemanticsServiceFunc(func(ctx context.Context, req domain.Request) ([]byte, error) {
		if requests != nil {
			*requests = append(*requests, req)
		}
		switch req.Action.Kind {
		case domain.ActionElaborate:
			return []byte(elabJSON), nil
		case domain.ActionExecute:
			return []byte(`{"status":"done","result":"0"}`), nil
		}
		if req.Interactive == nil {
			return []byte(`{"state":{"tagDefs":{}},"steps":{"nodes":[{"id":1,"label":"init","state":"s1"},{"id":2,"label":"a","state":"s2"}],"edges":[{"from":1,"to":2}]}}`), nil
		}
		child := req.Interactive.LastID + 1
		return []byte(fmt.Sprintf(`{"state":{},"steps":{"nodes":[{"id":%d,"label":"next"}],"edges":[{"from":%d,"to":%d}]}}`,
			child, req.Interactive.Active, child)), nil
	})
}

func newClient(t *testing.T, requests *[]domain.Request, opts ...cerberus.Option) *cerberus.Client {
	t.Helper()
	opts = append([]cerberus.Option{
		cerberus.WithFetcher(memory.NewFetcher(map[string]string{
			"buffer.c":     "int main(void) { return 0; }",
			"defacto/q1.c": "int x;",
			"demo/hello.c": "int main(void) { puts(\"hi\"); }",
		})),
		cerberus.WithStore(memory.NewStore()),
		cerberus.WithShareBaseURL("https://cerberus.test/"),
	}, opts...)
	return cerberus.New(service(requests), opts...)
}

func TestOpenURL_DefaultExample(t *testing.T) {
	var requests []domain.Request
	client := newClient(t, &requests)

	v, err := client.OpenURL(context.Background(), "https://cerberus.test/")
	require.NoError(t, err)

	assert.Equal(t, cerberus.DefaultExampleTitle, v.Title())
	assert.Equal(t, "int main(void) { return 0; }", v.Source())
	assert.False(t, v.Dirty())
	require.NotNil(t, v.LastResult())
	assert.Equal(t, "proc main", v.LastResult().PP.Core)
	require.Len(t, requests, 1)
	assert.Equal(t, domain.ActionElaborate, requests[0].Action.Kind)

	active, err := client.View("")
	require.NoError(t, err)
	assert.Same(t, v, active)
}

func TestOpenURL_FixedLink(t *testing.T) {
	var requests []domain.Request
	client := newClient(t, &requests)

	v, err := client.OpenURL(context.Background(), "https://cerberus.test/?defacto/q1.c&model=symbolic&rewrite=true")
	require.NoError(t, err)

	assert.Equal(t, "defacto/q1.c", v.Title())
	assert.Equal(t, "int x;", v.Source())
	assert.Equal(t, domain.ModelSymbolic, client.Settings().Model)
	assert.True(t, client.Settings().Rewrite)
	require.Len(t, requests, 1)
	assert.Equal(t, domain.ModelSymbolic, requests[0].Model)
}

func TestOpenURL_MissingFileFails(t *testing.T) {
	client := newClient(t, nil)

	v, err := client.OpenURL(context.Background(), "https://cerberus.test/?nope.c")
	assert.Error(t, err)
	assert.Nil(t, v)
	assert.Empty(t, client.Session().Views())
}

func TestOpenURL_NoFetcher(t *testing.T) {
	client := cerberus.New(service(nil))

	_, err := client.OpenURL(context.Background(), "")
	assert.ErrorIs(t, err, cerberus.ErrNoFetcher)
}

func TestPermalink_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newClient(t, nil)
	v := client.NewView(ctx, "mine.c", "int y = 1;")
	client.UpdateSettings(ctx, func(s *domain.Settings) { s.Model = domain.ModelSymbolic })

	token, err := client.Permalink(v.ID())
	require.NoError(t, err)

	var requests []domain.Request
	other := newClient(t, &requests)
	restored, err := other.OpenURL(ctx, "https://cerberus.test/#"+token)
	require.NoError(t, err)

	assert.Equal(t, "mine.c", restored.Title())
	assert.Equal(t, "int y = 1;", restored.Source())
	assert.Equal(t, domain.ModelSymbolic, other.Settings().Model)
	assert.Len(t, requests, 1, "a permalink without a tree is elaborated")
}

func TestPermalink_WithTreeSkipsElaboration(t *testing.T) {
	ctx := context.Background()
	client := newClient(t, nil)
	v := client.NewView(ctx, "step.c", "int main(void) {}")
	_, err := client.Step(ctx, v.ID())
	require.NoError(t, err)
	_, err = client.StepExpand(ctx, v.ID(), 2)
	require.NoError(t, err)

	token, err := client.Permalink(v.ID())
	require.NoError(t, err)

	var requests []domain.Request
	other := newClient(t, &requests)
	restored, err := other.OpenURL(ctx, "#"+token)
	require.NoError(t, err)

	assert.Empty(t, requests)
	require.NotNil(t, restored.Interactive())
	assert.Equal(t, 3, restored.Interactive().LastNodeID())
	assert.Equal(t, domain.TabInteractive, restored.ActiveTab())
}

func TestShare_Long(t *testing.T) {
	ctx := context.Background()
	client := newClient(t, nil)
	v := client.NewView(ctx, "a.c", "int a;")

	link, err := client.Share(ctx, v.ID())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://cerberus.test/#"))

	st := permalink.Resolve(link, nil)
	require.Equal(t, permalink.StartupPermalink, st.Kind)
	assert.Equal(t, "int a;", st.Snapshot.Source)
}

func TestShare_Short(t *testing.T) {
	ctx := context.Background()
	client := newClient(t, nil)
	v := client.NewView(ctx, "a.c", "int a;")
	client.UpdateSettings(ctx, func(s *domain.Settings) { s.ShortShare = true })

	link, err := client.Share(ctx, v.ID())
	require.NoError(t, err)

	id, ok := cerberus.ParseShortURL(link)
	require.True(t, ok, link)
	assert.Equal(t, "https://cerberus.test/s/"+id, link)

	token, err := client.Permalink(v.ID())
	require.NoError(t, err)
	assert.Equal(t, cerberus.ShortID(token), id)

	snap, err := client.ResolveShort(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.c", snap.Title)
	assert.Equal(t, "int a;", snap.Source)

	_, err = client.ResolveShort(ctx, "0000000000")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestShare_ShortWithoutStore(t *testing.T) {
	ctx := context.Background()
	client := cerberus.New(service(nil), cerberus.WithSettings(domain.Settings{ShortShare: true, Model: domain.ModelConcrete}))
	v := client.NewView(ctx, "a.c", "")

	_, err := client.Share(ctx, v.ID())
	assert.ErrorIs(t, err, cerberus.ErrNoStore)
	_, err = client.ResolveShort(ctx, "0123456789")
	assert.ErrorIs(t, err, cerberus.ErrNoStore)
}

func TestShortID(t *testing.T) {
	a := cerberus.ShortID("token-a")
	assert.Len(t, a, cerberus.ShortIDLength)
	assert.Equal(t, a, cerberus.ShortID("token-a"))
	assert.NotEqual(t, a, cerberus.ShortID("token-b"))
}

func TestParseShortURL(t *testing.T) {
	tests := []struct {
		url  string
		id   string
		want bool
	}{
		{"https://cerberus.test/s/0123456789", "0123456789", true},
		{"https://cerberus.test/s/abcdef0123/", "abcdef0123", true},
		{"https://cerberus.test/s/abcdef0123?x=1#frag", "abcdef0123", true},
		{"/s/abcdef0123", "abcdef0123", true},
		{"https://cerberus.test/s/ABCDEF0123", "", false},
		{"https://cerberus.test/s/short", "", false},
		{"https://cerberus.test/#abcdef0123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := cerberus.ParseShortURL(tt.url)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestExecute_FailureStatusIsResult(t *testing.T) {
	ctx := context.Background()
	client := cerberus.New(ports.SemanticsServiceFunc(func(ctx context.Context, req domain.Request) ([]byte, error) {
		return json.Marshal(map[string]string{"status": "failure", "console": "undefined behaviour"})
	}))
	v := client.NewView(ctx, "ub.c", "int main(void) { int x; return x; }")

	res, err := client.Execute(ctx, v.ID(), domain.ModeExhaustive)
	require.NoError(t, err)
	assert.Equal(t, "failure", res.Status)
	assert.Same(t, res, v.LastExecution())
}
