package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/orchestrator"
	"github.com/aretw0/cerberus/pkg/session"
	"github.com/aretw0/cerberus/pkg/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	elabJSON = `{"status":"elaboration","pp":{"cabs":"cabs","ail_ast":"ail_ast","ail":"ail","core":"core"},"ast":{},"locs":[]}`
	openJSON = `{"state":{"tagDefs":{"t":1}},"steps":{
		"nodes":[{"id":1,"label":"init","state":"s1"},{"id":2,"label":"a","state":"s2"},{"id":3,"label":"b","state":"s3"}],
		"edges":[{"from":1,"to":2},{"from":1,"to":3}]}}`
)

// fakeService answers like the semantics service would and records every request.
type fakeService struct {
	mu       sync.Mutex
	requests []domain.Request
	respond  func(req domain.Request) ([]byte, error)
}

func newFakeService() *fakeService {
	f := &fakeService{}
	f.respond = f.standard
	return f
}

func (f *fakeService) Do(ctx context.Context, req domain.Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()
	return respond(req)
}

func (f *fakeService) standard(req domain.Request) ([]byte, error) {
	switch req.Action.Kind {
	case domain.ActionElaborate:
		return []byte(elabJSON), nil
	case domain.ActionExecute:
		return []byte(`{"status":"done","console":"hi","result":"0"}`), nil
	}
	if req.Interactive == nil {
		return []byte(openJSON), nil
	}
	child := req.Interactive.LastID + 1
	return []byte(fmt.Sprintf(`{"state":{"tagDefs":{"t":%d}},"steps":{"nodes":[{"id":%d,"label":"next","state":"s%d"}],"edges":[{"from":%d,"to":%d}]}}`,
		child, child, child, req.Interactive.Active, child)), nil
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeService) last() domain.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setup(t *testing.T, source string) (*orchestrator.Orchestrator, *fakeService, *view.View) {
	t.Helper()
	svc := newFakeService()
	sess := session.New()
	v := view.New("main.c", source)
	sess.Add(context.Background(), v)
	return orchestrator.New(svc, sess), svc, v
}

func TestElaborate_RequestBodyAndDirty(t *testing.T) {
	orch, svc, v := setup(t, "int main(){return 0;}")

	sent, err := orch.Elaborate(context.Background(), v, "")
	require.NoError(t, err)
	assert.True(t, sent)
	require.Equal(t, 1, svc.calls())

	body, err := json.Marshal(svc.last())
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"elaborate","source":"int main(){return 0;}","rewrite":false,"sequentialise":true,"model":"concrete"}`, string(body))

	assert.False(t, v.Dirty())
	core, ok := v.LastResult().IR(domain.TabCore)
	assert.True(t, ok)
	assert.Equal(t, "core", core)
}

func TestElaborate_CleanViewMakesNoCalls(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int x;")

	_, err := orch.Elaborate(ctx, v, "")
	require.NoError(t, err)
	require.Equal(t, 1, svc.calls())

	for i := 0; i < 3; i++ {
		sent, err := orch.Elaborate(ctx, v, domain.TabAil)
		require.NoError(t, err)
		assert.False(t, sent)
	}
	assert.Equal(t, 1, svc.calls())
	assert.Equal(t, domain.TabAil, v.ActiveTab())

	v.SetSource(ctx, "int y;")
	sent, err := orch.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, svc.calls())
}

func TestElaborate_EditDuringFlightKeepsDirty(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int x;")
	svc.respond = func(req domain.Request) ([]byte, error) {
		v.SetSource(ctx, "int y;")
		return []byte(elabJSON), nil
	}

	_, err := orch.Elaborate(ctx, v, "")
	require.NoError(t, err)
	assert.True(t, v.Dirty())
	assert.Equal(t, "int x;", v.ResultKey().Source)
}

func TestElaborate_SettingsChangeDuringFlightKeepsDirty(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int x;")
	svc.respond = func(req domain.Request) ([]byte, error) {
		orch.Session().UpdateSettings(ctx, func(s *domain.Settings) { s.Rewrite = true })
		return []byte(elabJSON), nil
	}

	_, err := orch.Elaborate(ctx, v, "")
	require.NoError(t, err)
	assert.True(t, v.Dirty())
}

func TestElaborate_ServiceFailureStatusIsAResult(t *testing.T) {
	orch, svc, v := setup(t, "int x")
	svc.respond = func(domain.Request) ([]byte, error) {
		return []byte(`{"status":"failure","console":"syntax error"}`), nil
	}

	_, err := orch.Elaborate(context.Background(), v, "")
	require.NoError(t, err)
	assert.True(t, v.LastResult().Failed())
	assert.True(t, orch.Session().Settings().AutoRefresh)
}

func TestRefresh_NoActiveView(t *testing.T) {
	orch := orchestrator.New(newFakeService(), session.New())
	_, err := orch.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveView)
}

func TestFailure_DisablesAutoRefresh(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.respond = func(domain.Request) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	sess := session.New()
	v := view.New("main.c", "int x;")
	sess.Add(ctx, v)

	reg := prometheus.NewRegistry()
	metrics := orchestrator.NewMetrics(reg)
	orch := orchestrator.New(svc, sess, orchestrator.WithMetrics(metrics))
	refresher := orchestrator.NewAutoRefresher(orch)

	require.True(t, sess.Settings().AutoRefresh)
	assert.True(t, refresher.Tick(ctx))
	assert.False(t, sess.Settings().AutoRefresh)
	assert.True(t, v.Dirty())

	for i := 0; i < 5; i++ {
		assert.False(t, refresher.Tick(ctx))
	}
	assert.Equal(t, 1, svc.calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("elaborate", orchestrator.OutcomeFailure)))

	// A manual action still reaches the service and reports the failure.
	_, err := orch.Execute(ctx, v, domain.ModeRandom)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.Equal(t, 2, svc.calls())
}

func TestAutoRefresher_SkipsCleanView(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	sess := session.New()
	sess.Add(ctx, view.New("main.c", "int x;"))
	metrics := orchestrator.NewMetrics(prometheus.NewRegistry())
	refresher := orchestrator.NewAutoRefresher(orchestrator.New(svc, sess, orchestrator.WithMetrics(metrics)))

	assert.True(t, refresher.Tick(ctx))
	assert.False(t, refresher.Tick(ctx))
	assert.False(t, refresher.Tick(ctx))
	assert.Equal(t, 1, svc.calls())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RefreshSkipped))
}

func TestAutoRefresher_RunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	refresher := orchestrator.NewAutoRefresher(orchestrator.New(newFakeService(), session.New()))
	assert.ErrorIs(t, refresher.Run(ctx), context.Canceled)
}

func TestExecute(t *testing.T) {
	orch, svc, v := setup(t, "int main(){}")

	res, err := orch.Execute(context.Background(), v, domain.ModeExhaustive)
	require.NoError(t, err)
	assert.Equal(t, "0", res.Result)
	assert.Equal(t, "execute:exhaustive", svc.last().Action.String())
	assert.Equal(t, domain.TabExecution, v.ActiveTab())
	assert.True(t, v.Dirty(), "execution does not clean the view")
}

func TestStep_OpensTree(t *testing.T) {
	orch, svc, v := setup(t, "int main(){}")

	tree, err := orch.Step(context.Background(), v)
	require.NoError(t, err)
	assert.Nil(t, svc.last().Interactive)
	assert.Same(t, tree, v.Interactive())
	assert.Equal(t, 3, tree.LastNodeID())
	assert.Equal(t, domain.TabInteractive, v.ActiveTab())
}

func TestStepExpand_SendsContinuation(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int main(){}")
	_, err := orch.Step(ctx, v)
	require.NoError(t, err)

	next, err := orch.StepExpand(ctx, v, 2)
	require.NoError(t, err)

	cont := svc.last().Interactive
	require.NotNil(t, cont)
	assert.Equal(t, 3, cont.LastID)
	assert.Equal(t, 2, cont.Active)
	assert.JSONEq(t, `"s2"`, string(cont.State))
	assert.JSONEq(t, `{"t":1}`, string(cont.TagDefs))

	assert.Equal(t, 4, next.LastNodeID())
	assert.Same(t, next, v.Interactive())
	n4, ok := next.Node(4)
	require.True(t, ok)
	assert.Equal(t, 2, n4.Parent)
	assert.JSONEq(t, `{"t":4}`, string(next.TagDefs()))
}

func TestStepExpand_DuplicateIsRejected(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int main(){}")
	_, err := orch.Step(ctx, v)
	require.NoError(t, err)
	_, err = orch.StepExpand(ctx, v, 2)
	require.NoError(t, err)
	calls := svc.calls()

	_, err = orch.StepExpand(ctx, v, 2)
	assert.ErrorIs(t, err, domain.ErrNodeExpanded)
	assert.Equal(t, calls, svc.calls())
	assert.Equal(t, 4, v.Interactive().LastNodeID())
}

func TestStepExpand_PendingIsRejected(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int main(){}")
	_, err := orch.Step(ctx, v)
	require.NoError(t, err)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	svc.respond = func(req domain.Request) ([]byte, error) {
		close(entered)
		<-unblock
		return newFakeService().standard(req)
	}

	done := make(chan error, 1)
	go func() {
		_, err := orch.StepExpand(ctx, v, 3)
		done <- err
	}()
	<-entered

	assert.True(t, orch.Busy().Busy())
	_, err = orch.StepExpand(ctx, v, 3)
	assert.ErrorIs(t, err, domain.ErrExpansionPending)

	close(unblock)
	require.NoError(t, <-done)
	assert.False(t, orch.Busy().Busy())
	assert.Equal(t, 4, v.Interactive().LastNodeID())
}

func TestStepExpand_Rejections(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int main(){}")

	_, err := orch.StepExpand(ctx, v, 1)
	assert.ErrorIs(t, err, domain.ErrNoInteractiveSession)

	_, err = orch.Step(ctx, v)
	require.NoError(t, err)
	calls := svc.calls()

	_, err = orch.StepExpand(ctx, v, 99)
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
	_, err = orch.StepExpand(ctx, v, 1)
	assert.ErrorIs(t, err, domain.ErrNodeExpanded)
	assert.Equal(t, calls, svc.calls())
}

func TestStepExpand_ResponseAfterResetIsDropped(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int main(){}")
	_, err := orch.Step(ctx, v)
	require.NoError(t, err)

	svc.respond = func(req domain.Request) ([]byte, error) {
		v.ResetInteractive(ctx)
		return newFakeService().standard(req)
	}

	_, err = orch.StepExpand(ctx, v, 2)
	assert.ErrorIs(t, err, domain.ErrStaleTree)
	assert.Nil(t, v.Interactive())
}

func TestStepExpand_CollidingIDsLeaveTreeUnchanged(t *testing.T) {
	ctx := context.Background()
	orch, svc, v := setup(t, "int main(){}")
	_, err := orch.Step(ctx, v)
	require.NoError(t, err)
	before := v.Interactive()

	svc.respond = func(domain.Request) ([]byte, error) {
		return []byte(`{"state":{},"steps":{"nodes":[{"id":3,"label":"dup"}],"edges":[]}}`), nil
	}
	_, err = orch.StepExpand(ctx, v, 2)
	assert.ErrorIs(t, err, domain.ErrNodeCollision)
	assert.Same(t, before, v.Interactive())
}

func TestElaborate_ClosesInteractiveSession(t *testing.T) {
	ctx := context.Background()
	orch, _, v := setup(t, "int main(){}")
	_, err := orch.Step(ctx, v)
	require.NoError(t, err)

	_, err = orch.Elaborate(ctx, v, "")
	require.NoError(t, err)
	assert.Nil(t, v.Interactive())
}
