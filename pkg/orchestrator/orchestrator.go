package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/aretw0/cerberus/pkg/session"
	"github.com/aretw0/cerberus/pkg/steptree"
	"github.com/aretw0/cerberus/pkg/view"
)

// Orchestrator sends intents to the semantics service on behalf of a session.
type Orchestrator struct {
	service ports.SemanticsService
	session *session.Session
	busy    *BusyGuard
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger configures a logger for the Orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithBusyGuard shares a busy guard with other components.
func WithBusyGuard(b *BusyGuard) Option {
	return func(o *Orchestrator) {
		o.busy = b
	}
}

// New creates an Orchestrator for sess talking to service.
func New(service ports.SemanticsService, sess *session.Session, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		service: service,
		session: sess,
		busy:    NewBusyGuard(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}

// Busy returns the guard tracking in-flight requests.
func (o *Orchestrator) Busy() *BusyGuard { return o.busy }

// Session returns the session the orchestrator works on.
func (o *Orchestrator) Session() *session.Session { return o.session }

// Submit sends action for v with the given analysis settings and decodes the
// response into the variant matching the action. The request is built from the
// view's text at call time. One attempt is made; a failure disables auto-refresh
// and is returned wrapped in ErrRequestFailed.
func (o *Orchestrator) Submit(ctx context.Context, action domain.Action, v *view.View, s domain.AnalysisSettings, interactive *domain.InteractiveRequest) (domain.Response, error) {
	return o.dispatch(ctx, v.ID(), domain.NewRequest(action, v.Source(), s, interactive))
}

func (o *Orchestrator) dispatch(ctx context.Context, viewID string, req domain.Request) (domain.Response, error) {
	release := o.busy.Acquire(ctx)
	defer release()

	action := req.Action.String()
	o.metrics.Inflight.Inc()
	start := time.Now()

	data, err := o.service.Do(ctx, req)
	var res domain.Response
	if err == nil {
		res, err = domain.DecodeResponse(req.Action, data)
	}

	o.metrics.Inflight.Dec()
	if err != nil {
		o.metrics.observe(action, OutcomeFailure, time.Since(start))
		o.logger.Error("request failed",
			"view_id", viewID,
			"action", action,
			"err", err,
		)
		if o.session.DisableAutoRefresh(ctx) {
			o.logger.Warn("auto refresh disabled after failed request", "view_id", viewID)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrRequestFailed, action, err)
	}
	o.metrics.observe(action, OutcomeSuccess, time.Since(start))
	o.logger.Debug("request completed",
		"view_id", viewID,
		"action", action,
		"duration", time.Since(start),
	)
	return res, nil
}

// Elaborate refreshes the intermediate representations of v. When tab is not empty
// it becomes the view's active tab first.
//
// A clean view is answered from cache with zero requests; the result is false.
// Otherwise the view is elaborated with the current settings and true is returned,
// even when the request fails.
// The dirty flag is cleared only if neither the text nor the settings changed
// while the request was in flight.
func (o *Orchestrator) Elaborate(ctx context.Context, v *view.View, tab domain.Tab) (bool, error) {
	if tab != "" {
		v.SetActiveTab(tab)
	}
	if !v.Dirty() {
		o.metrics.RefreshSkipped.Inc()
		return false, nil
	}

	key := v.Key(o.session.Settings().Analysis())
	res, err := o.dispatch(ctx, v.ID(), domain.NewRequest(domain.Elaborate(), key.Source, key.Settings, nil))
	if err != nil {
		return true, err
	}
	elab := res.(*domain.ElaborationResult)

	err = o.apply(ctx, v, func(ctx context.Context) error {
		v.ApplyElaboration(ctx, elab, key, o.session.Settings().Analysis())
		return nil
	})
	if elab.Failed() {
		o.logger.Info("elaboration reported failure", "view_id", v.ID())
	}
	return true, err
}

// Refresh elaborates the active view.
func (o *Orchestrator) Refresh(ctx context.Context) (bool, error) {
	v, err := o.session.Active()
	if err != nil {
		return false, err
	}
	return o.Elaborate(ctx, v, "")
}

// Execute runs the program of v in the given mode and stores the result on the view.
func (o *Orchestrator) Execute(ctx context.Context, v *view.View, mode domain.ExecutionMode) (*domain.ExecutionResult, error) {
	res, err := o.Submit(ctx, domain.Execute(mode), v, o.session.Settings().Analysis(), nil)
	if err != nil {
		return nil, err
	}
	exec := res.(*domain.ExecutionResult)
	err = o.apply(ctx, v, func(ctx context.Context) error {
		v.ApplyExecution(ctx, exec)
		return nil
	})
	return exec, err
}

// Step starts an interactive session on v, replacing any open tree.
func (o *Orchestrator) Step(ctx context.Context, v *view.View) (*steptree.Tree, error) {
	res, err := o.Submit(ctx, domain.Step(), v, o.session.Settings().Analysis(), nil)
	if err != nil {
		return nil, err
	}
	step := res.(*domain.StepResult)

	tree, err := steptree.Open(step)
	if err != nil {
		o.logger.Warn("cannot open step tree", "view_id", v.ID(), "err", err)
		return nil, err
	}
	err = o.apply(ctx, v, func(ctx context.Context) error {
		v.OpenInteractive(ctx, tree, &step.State)
		return nil
	})
	return tree, err
}

// StepExpand asks the service for the successors of an unexpanded node and attaches
// them to the view's tree. Requests for unknown, expanded or in-flight nodes are
// rejected without contacting the service. A response that no longer fits the tree
// (the session was reset, or its ids collide) is dropped and the tree is unchanged.
func (o *Orchestrator) StepExpand(ctx context.Context, v *view.View, nodeID int) (*steptree.Tree, error) {
	tree := v.Interactive()
	if tree == nil {
		return nil, domain.ErrNoInteractiveSession
	}
	cont, err := tree.Continuation(nodeID)
	if err != nil {
		o.logger.Warn("cannot expand step node", "view_id", v.ID(), "node_id", nodeID, "err", err)
		return nil, err
	}
	if !v.BeginExpand(nodeID) {
		return nil, fmt.Errorf("%w: %d", domain.ErrExpansionPending, nodeID)
	}
	defer v.EndExpand(nodeID)

	res, err := o.Submit(ctx, domain.Step(), v, o.session.Settings().Analysis(), cont)
	if err != nil {
		return nil, err
	}
	step := res.(*domain.StepResult)

	var next *steptree.Tree
	err = o.apply(ctx, v, func(ctx context.Context) error {
		cur := v.Interactive()
		if cur == nil || cur.Session() != tree.Session() {
			return domain.ErrStaleTree
		}
		grown, err := steptree.Expand(cur, nodeID, step)
		if err != nil {
			return err
		}
		if err := v.ReplaceInteractive(ctx, cur, grown, &step.State); err != nil {
			return err
		}
		next = grown
		return nil
	})
	if err != nil {
		o.logger.Warn("step response dropped", "view_id", v.ID(), "node_id", nodeID, "err", err)
		return nil, err
	}
	return next, nil
}

// apply runs fn under the view's lock. Responses are applied even if ctx was
// cancelled after dispatch.
func (o *Orchestrator) apply(ctx context.Context, v *view.View, fn func(context.Context) error) error {
	return o.session.Locks().WithLock(context.WithoutCancel(ctx), v.ID(), fn)
}
