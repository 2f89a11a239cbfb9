package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/permalink"
	"github.com/aretw0/cerberus/pkg/session"
	"github.com/aretw0/cerberus/pkg/steptree"
	"github.com/aretw0/cerberus/pkg/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller is the client surface the server exposes. *cerberus.Client implements it.
type Controller interface {
	Session() *session.Session
	View(viewID string) (*view.View, error)
	NewView(ctx context.Context, title, source string) *view.View
	OpenURL(ctx context.Context, rawURL string) (*view.View, error)
	Elaborate(ctx context.Context, viewID string, tab domain.Tab) (bool, error)
	Execute(ctx context.Context, viewID string, mode domain.ExecutionMode) (*domain.ExecutionResult, error)
	Step(ctx context.Context, viewID string) (*steptree.Tree, error)
	StepExpand(ctx context.Context, viewID string, nodeID int) (*steptree.Tree, error)
	UpdateSettings(ctx context.Context, fn func(*domain.Settings)) domain.Settings
	Share(ctx context.Context, viewID string) (string, error)
	ResolveShort(ctx context.Context, id string) (*domain.Snapshot, error)
}

var _ Controller = (*cerberus.Client)(nil)

// Server serves the controller API: views, settings, actions, share links,
// server-sent events and metrics.
type Server struct {
	Controller Controller
	Streams    *StreamManager

	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	unsubscribe func()
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithServerLogger configures a logger for the Server.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for ctrl and starts relaying session events to SSE clients.
// Call Close to stop relaying.
func NewServer(ctrl Controller, opts ...ServerOption) *Server {
	s := &Server{
		Controller: ctrl,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.unsubscribe = ctrl.Session().Subscribe(s.relay)
	return s
}

// NewHandler creates a new HTTP handler for the controller.
func NewHandler(ctrl Controller, opts ...ServerOption) http.Handler {
	return NewServer(ctrl, opts...).Handler()
}

// Close stops relaying session events.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) relay(_ context.Context, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.Streams.Broadcast(ev.ViewID, fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data))
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/settings", s.GetSettings)
	r.Patch("/settings", s.PatchSettings)
	r.Post("/open", s.Open)
	r.Get("/s/{short}", s.RedirectShort)
	r.Get("/events", s.SubscribeEvents)

	metrics := promhttp.Handler()
	if s.gatherer != nil {
		metrics = promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/views", func(r chi.Router) {
		r.Get("/", s.ListViews)
		r.Post("/", s.CreateView)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetView)
			r.Delete("/", s.DeleteView)
			r.Put("/source", s.PutSource)
			r.Post("/activate", s.ActivateView)
			r.Post("/elaborate", s.Elaborate)
			r.Post("/execute", s.Execute)
			r.Post("/step", s.Step)
			r.Post("/step/{node}", s.StepExpand)
			r.Get("/share", s.Share)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// viewResponse is the JSON form of a view.
type viewResponse struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Source      string                    `json:"source"`
	Dirty       bool                      `json:"dirty"`
	Active      bool                      `json:"active"`
	ActiveTab   domain.Tab                `json:"active_tab"`
	Result      *domain.ElaborationResult `json:"result,omitempty"`
	Execution   *domain.ExecutionResult   `json:"execution,omitempty"`
	Interactive *domain.TreeSnapshot      `json:"interactive,omitempty"`
	StepState   *domain.InteractiveState  `json:"step_state,omitempty"`
}

func (s *Server) toResponse(v *view.View) viewResponse {
	resp := viewResponse{
		ID:        v.ID(),
		Title:     v.Title(),
		Source:    v.Source(),
		Dirty:     v.Dirty(),
		ActiveTab: v.ActiveTab(),
		Result:    v.LastResult(),
		Execution: v.LastExecution(),
		StepState: v.LastStepState(),
	}
	if active, err := s.Controller.Session().Active(); err == nil {
		resp.Active = active.ID() == v.ID()
	}
	if tree := v.Interactive(); tree != nil {
		resp.Interactive = tree.Snapshot()
	}
	return resp
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cerberus-http",
		"version": strings.TrimSpace(cerberus.Version),
	})
}

// GetSettings handles the GET /settings request.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.Session().Settings())
}

type settingsPatch struct {
	Model         *string `json:"model"`
	Rewrite       *bool   `json:"rewrite"`
	Sequentialise *bool   `json:"sequentialise"`
	AutoRefresh   *bool   `json:"auto_refresh"`
	Colour        *bool   `json:"colour"`
	ColourCursor  *bool   `json:"colour_cursor"`
	ShortShare    *bool   `json:"short_share"`
}

// PatchSettings handles the PATCH /settings request. Omitted fields are kept.
func (s *Server) PatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch settingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	var model domain.Model
	if patch.Model != nil {
		m, err := domain.ParseModel(*patch.Model)
		if err != nil {
			s.writeError(w, err)
			return
		}
		model = m
	}

	updated := s.Controller.UpdateSettings(r.Context(), func(st *domain.Settings) {
		if patch.Model != nil {
			st.Model = model
		}
		setBool(&st.Rewrite, patch.Rewrite)
		setBool(&st.Sequentialise, patch.Sequentialise)
		setBool(&st.AutoRefresh, patch.AutoRefresh)
		setBool(&st.Colour, patch.Colour)
		setBool(&st.ColourCursor, patch.ColourCursor)
		setBool(&st.ShortShare, patch.ShortShare)
	})
	writeJSON(w, http.StatusOK, updated)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ListViews handles the GET /views request.
func (s *Server) ListViews(w http.ResponseWriter, r *http.Request) {
	views := s.Controller.Session().Views()
	resp := make([]viewResponse, len(views))
	for i, v := range views {
		resp[i] = s.toResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

type createViewRequest struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

// CreateView handles the POST /views request.
func (s *Server) CreateView(w http.ResponseWriter, r *http.Request) {
	var body createViewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Title == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	v := s.Controller.NewView(r.Context(), body.Title, body.Source)
	writeJSON(w, http.StatusCreated, s.toResponse(v))
}

// GetView handles the GET /views/{id} request.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	v, err := s.Controller.View(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toResponse(v))
}

// DeleteView handles the DELETE /views/{id} request.
func (s *Server) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.Controller.Session().Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sourceRequest struct {
	Source string `json:"source"`
}

// PutSource handles the PUT /views/{id}/source request.
func (s *Server) PutSource(w http.ResponseWriter, r *http.Request) {
	v, err := s.Controller.View(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	v.SetSource(r.Context(), body.Source)
	writeJSON(w, http.StatusOK, s.toResponse(v))
}

// ActivateView handles the POST /views/{id}/activate request.
func (s *Server) ActivateView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Controller.Session().Activate(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetView(w, r)
}

// Elaborate handles the POST /views/{id}/elaborate request.
func (s *Server) Elaborate(w http.ResponseWriter, r *http.Request) {
	var tab domain.Tab
	if q := r.URL.Query().Get("tab"); q != "" {
		t, err := domain.ParseTab(q)
		if err != nil {
			s.writeError(w, err)
			return
		}
		tab = t
	}
	id := chi.URLParam(r, "id")
	sent, err := s.Controller.Elaborate(r.Context(), id, tab)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := s.Controller.View(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requested": sent,
		"view":      s.toResponse(v),
	})
}

// Execute handles the POST /views/{id}/execute request.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	mode := domain.ModeRandom
	if q := r.URL.Query().Get("mode"); q != "" {
		m, err := domain.ParseExecutionMode(q)
		if err != nil {
			s.writeError(w, err)
			return
		}
		mode = m
	}
	res, err := s.Controller.Execute(r.Context(), chi.URLParam(r, "id"), mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Step handles the POST /views/{id}/step request.
func (s *Server) Step(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Controller.Step(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree.Snapshot())
}

// StepExpand handles the POST /views/{id}/step/{node} request.
func (s *Server) StepExpand(w http.ResponseWriter, r *http.Request) {
	node, err := strconv.Atoi(chi.URLParam(r, "node"))
	if err != nil {
		http.Error(w, "Invalid node id", http.StatusBadRequest)
		return
	}
	tree, err := s.Controller.StepExpand(r.Context(), chi.URLParam(r, "id"), node)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree.Snapshot())
}

// Share handles the GET /views/{id}/share request.
func (s *Server) Share(w http.ResponseWriter, r *http.Request) {
	link, err := s.Controller.Share(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

type openRequest struct {
	URL string `json:"url"`
}

// Open handles the POST /open request: it starts a view from a permalink, a fixed
// link or the default example.
func (s *Server) Open(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	v, err := s.Controller.OpenURL(r.Context(), body.URL)
	if v == nil {
		s.writeError(w, err)
		return
	}
	if err != nil {
		s.logger.Warn("Open: view added but elaboration failed", "view_id", v.ID(), "err", err)
	}
	writeJSON(w, http.StatusCreated, s.toResponse(v))
}

// RedirectShort handles the GET /s/{short} request.
func (s *Server) RedirectShort(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Controller.ResolveShort(r.Context(), chi.URLParam(r, "short"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, err := permalink.EncodeSnapshot(snap)
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/#"+token, http.StatusFound)
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional view_id query parameter restricts the stream to one view.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	topic := r.URL.Query().Get("view_id")
	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "view_id", topic)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "view_id", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprint(w, msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrViewNotFound),
		errors.Is(err, domain.ErrNoActiveView),
		errors.Is(err, domain.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRequestFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNoInteractiveSession),
		errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrNodeExpanded),
		errors.Is(err, domain.ErrExpansionPending),
		errors.Is(err, domain.ErrStaleTree),
		errors.Is(err, domain.ErrNodeCollision):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnknownModel),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrUnknownTab),
		errors.Is(err, domain.ErrMalformedPermalink),
		errors.Is(err, domain.ErrMalformedFixedLink):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
