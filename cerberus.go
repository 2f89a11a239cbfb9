package cerberus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/orchestrator"
	"github.com/aretw0/cerberus/pkg/permalink"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/aretw0/cerberus/pkg/session"
	"github.com/aretw0/cerberus/pkg/steptree"
	"github.com/aretw0/cerberus/pkg/view"
	"github.com/google/uuid"
)

// Default example loaded when a URL carries no link.
const (
	DefaultExample      = "buffer.c"
	DefaultExampleTitle = "example.c"
)

// ShortIDLength is the number of hex characters of a short share id.
const ShortIDLength = 10

const shortPath = "/s/"

var (
	// ErrNoFetcher is returned when a source must be fetched and no fetcher is configured.
	ErrNoFetcher = errors.New("no source fetcher configured")
	// ErrNoStore is returned by short sharing when no snapshot store is configured.
	ErrNoStore = errors.New("no snapshot store configured")
)

// Client is the high-level entry point of the cerberus library.
// It wires a Session, an Orchestrator and the permalink codec around a semantics service.
type Client struct {
	service      ports.SemanticsService
	session      *session.Session
	orch         *orchestrator.Orchestrator
	fetcher      ports.SourceFetcher
	store        ports.SnapshotStore
	metrics      *orchestrator.Metrics
	settings     domain.Settings
	shareBase    string
	example      string
	exampleTitle string
	logger       *slog.Logger
}

// New creates a Client talking to service.
func New(service ports.SemanticsService, opts ...Option) *Client {
	c := &Client{
		service:      service,
		settings:     domain.DefaultSettings(),
		example:      DefaultExample,
		exampleTitle: DefaultExampleTitle,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.session = session.New(
		session.WithSettings(c.settings),
		session.WithLogger(c.logger),
	)
	orchOpts := []orchestrator.Option{orchestrator.WithLogger(c.logger)}
	if c.metrics != nil {
		orchOpts = append(orchOpts, orchestrator.WithMetrics(c.metrics))
	}
	c.orch = orchestrator.New(service, c.session, orchOpts...)
	return c
}

// Session returns the session holding the views and settings.
func (c *Client) Session() *session.Session { return c.session }

// Orchestrator returns the request orchestrator.
func (c *Client) Orchestrator() *orchestrator.Orchestrator { return c.orch }

// Busy returns the guard tracking in-flight requests.
func (c *Client) Busy() *orchestrator.BusyGuard { return c.orch.Busy() }

// Store returns the configured snapshot store, or nil.
func (c *Client) Store() ports.SnapshotStore { return c.store }

// Settings returns a copy of the current settings.
func (c *Client) Settings() domain.Settings { return c.session.Settings() }

// UpdateSettings changes the settings. Analysis changes mark every view dirty.
func (c *Client) UpdateSettings(ctx context.Context, fn func(*domain.Settings)) domain.Settings {
	return c.session.UpdateSettings(ctx, fn)
}

// NewAutoRefresher creates the periodic refresher for this client.
func (c *Client) NewAutoRefresher(opts ...orchestrator.RefresherOption) *orchestrator.AutoRefresher {
	opts = append([]orchestrator.RefresherOption{orchestrator.WithRefreshLogger(c.logger)}, opts...)
	return orchestrator.NewAutoRefresher(c.orch, opts...)
}

// OpenURL resolves how to start from rawURL and opens the resulting view.
func (c *Client) OpenURL(ctx context.Context, rawURL string) (*view.View, error) {
	return c.Open(ctx, permalink.Resolve(rawURL, c.logger))
}

// Open creates the first view for a startup mode and elaborates it.
//
// A fetch failure is logged and returned; no view is added. When the view was added
// but the elaboration failed, both the view and the error are returned.
// A permalink that carries an interactive tree is not elaborated, since elaboration
// would close the restored session.
func (c *Client) Open(ctx context.Context, st permalink.Startup) (*view.View, error) {
	if st.Link != nil && st.Link.HasOverrides() {
		link := *st.Link
		c.session.UpdateSettings(ctx, func(s *domain.Settings) { *s = link.Apply(*s) })
	}

	var v *view.View
	switch st.Kind {
	case permalink.StartupPermalink:
		restored, err := c.session.AddSnapshot(ctx, st.Snapshot)
		if err != nil {
			c.logger.Warn("failed to restore permalink", "err", err)
			return nil, err
		}
		if restored.Interactive() != nil {
			return restored, nil
		}
		v = restored
	case permalink.StartupFixedLink:
		loaded, err := c.Load(ctx, st.Link.File)
		if err != nil {
			return nil, err
		}
		v = loaded
	default:
		source, err := c.fetch(ctx, c.example)
		if err != nil {
			return nil, err
		}
		v = c.NewView(ctx, c.exampleTitle, source)
	}

	if _, err := c.orch.Elaborate(ctx, v, ""); err != nil {
		return v, err
	}
	return v, nil
}

// NewView adds a view and makes it active.
func (c *Client) NewView(ctx context.Context, title, source string) *view.View {
	v := view.New(title, source)
	c.session.Add(ctx, v)
	return v
}

// Load fetches name and adds it as a new active view titled by name.
func (c *Client) Load(ctx context.Context, name string) (*view.View, error) {
	source, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.NewView(ctx, name, source), nil
}

func (c *Client) fetch(ctx context.Context, name string) (string, error) {
	if c.fetcher == nil {
		return "", ErrNoFetcher
	}
	source, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		c.logger.Error("failed to download source", "file", name, "err", err)
		return "", fmt.Errorf("failed to download %q: %w", name, err)
	}
	return source, nil
}

// View returns the view with the given id; the empty id means the active view.
func (c *Client) View(viewID string) (*view.View, error) {
	if viewID == "" {
		return c.session.Active()
	}
	return c.session.Get(viewID)
}

// Elaborate refreshes a view, see orchestrator.Orchestrator.Elaborate.
func (c *Client) Elaborate(ctx context.Context, viewID string, tab domain.Tab) (bool, error) {
	v, err := c.View(viewID)
	if err != nil {
		return false, err
	}
	return c.orch.Elaborate(ctx, v, tab)
}

// Refresh elaborates the active view if it is dirty.
func (c *Client) Refresh(ctx context.Context) (bool, error) {
	return c.orch.Refresh(ctx)
}

// Execute runs a view's program.
func (c *Client) Execute(ctx context.Context, viewID string, mode domain.ExecutionMode) (*domain.ExecutionResult, error) {
	v, err := c.View(viewID)
	if err != nil {
		return nil, err
	}
	return c.orch.Execute(ctx, v, mode)
}

// Step starts an interactive session on a view.
func (c *Client) Step(ctx context.Context, viewID string) (*steptree.Tree, error) {
	v, err := c.View(viewID)
	if err != nil {
		return nil, err
	}
	return c.orch.Step(ctx, v)
}

// StepExpand expands one node of a view's step tree.
func (c *Client) StepExpand(ctx context.Context, viewID string, nodeID int) (*steptree.Tree, error) {
	v, err := c.View(viewID)
	if err != nil {
		return nil, err
	}
	return c.orch.StepExpand(ctx, v, nodeID)
}

// Permalink encodes a view with the current analysis settings.
func (c *Client) Permalink(viewID string) (string, error) {
	v, err := c.View(viewID)
	if err != nil {
		return "", err
	}
	return permalink.Encode(v, c.session.Settings().Analysis())
}

// Share returns a URL reopening the view. With short sharing enabled the snapshot
// is stored under a short id and the URL is base/s/<id>; otherwise the whole state
// travels in the fragment.
func (c *Client) Share(ctx context.Context, viewID string) (string, error) {
	v, err := c.View(viewID)
	if err != nil {
		return "", err
	}
	settings := c.session.Settings()
	snap := v.Snapshot(settings.Analysis())
	token, err := permalink.EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	if !settings.ShortShare {
		return permalink.ShareURL(c.shareBase, token), nil
	}

	if c.store == nil {
		return "", ErrNoStore
	}
	id := ShortID(token)
	if err := c.store.Save(ctx, id, snap); err != nil {
		return "", fmt.Errorf("failed to store short link: %w", err)
	}
	c.logger.Debug("short link stored", "view_id", v.ID(), "short_id", id)
	return strings.TrimRight(c.shareBase, "/") + shortPath + id, nil
}

// ResolveShort loads the snapshot stored for a short id.
func (c *Client) ResolveShort(ctx context.Context, id string) (*domain.Snapshot, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	return c.store.Load(ctx, id)
}

// ShortID derives the deterministic short id of a permalink token.
func ShortID(token string) string {
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte(token))
	return strings.ReplaceAll(u.String(), "-", "")[:ShortIDLength]
}

// ParseShortURL extracts the id of a short share link such as https://host/s/0123456789.
func ParseShortURL(rawURL string) (string, bool) {
	rawURL, _, _ = strings.Cut(rawURL, "#")
	rawURL, _, _ = strings.Cut(rawURL, "?")
	i := strings.LastIndex(rawURL, shortPath)
	if i < 0 {
		return "", false
	}
	id := strings.TrimSuffix(rawURL[i+len(shortPath):], "/")
	if len(id) != ShortIDLength {
		return "", false
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", false
		}
	}
	return id, true
}
