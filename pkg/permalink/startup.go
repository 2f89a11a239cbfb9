package permalink

import (
	"log/slog"
	"strings"

	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
)

// StartupKind says how the client builds its first view.
type StartupKind string

const (
	StartupDefault   StartupKind = "default"
	StartupPermalink StartupKind = "permalink"
	StartupFixedLink StartupKind = "fixedlink"
)

// Startup is the outcome of Resolve.
// Snapshot is set for StartupPermalink. Link is set for StartupFixedLink, and for
// StartupDefault when a fixed link without a usable file still carried overrides.
type Startup struct {
	Kind     StartupKind
	Snapshot *domain.Snapshot
	Link     *FixedLink
}

// Resolve inspects a URL in priority order: fragment permalink, then fixed-link
// query, then the default example. It never fails; invalid links are logged and
// the next form is tried.
func Resolve(rawURL string, logger *slog.Logger) Startup {
	if logger == nil {
		logger = logging.NewNop()
	}

	base, fragment, _ := strings.Cut(rawURL, "#")
	if fragment != "" {
		snap, err := Decode(fragment)
		if err == nil {
			return Startup{Kind: StartupPermalink, Snapshot: snap}
		}
		logger.Warn("impossible to parse permalink", "err", err)
	}

	_, query, _ := strings.Cut(base, "?")
	if query != "" {
		link, err := ParseFixedLink(query)
		if err == nil {
			return Startup{Kind: StartupFixedLink, Link: &link}
		}
		logger.Warn("impossible to parse fixed link", "query", query, "err", err)
		if link.HasOverrides() {
			return Startup{Kind: StartupDefault, Link: &link}
		}
	}

	return Startup{Kind: StartupDefault}
}

// ShareURL builds the permalink URL for token on base. Any fragment of base is replaced.
func ShareURL(base, token string) string {
	base, _, _ = strings.Cut(base, "#")
	return base + "#" + token
}
