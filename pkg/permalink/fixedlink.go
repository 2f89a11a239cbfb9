package permalink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/cerberus/pkg/domain"
)

// FixedLink is a file name plus optional analysis overrides, as found in
// "?foo.c&model=symbolic&rewrite=true". Nil fields keep the current setting.
type FixedLink struct {
	File          string
	Model         *domain.Model
	Rewrite       *bool
	Sequentialise *bool
}

// ParseFixedLink parses a query string (without the leading '?').
//
// Each '&'-separated argument is either key=value or a bare token. Exactly one bare
// token must be present and names the file. Recognised keys are model (concrete or
// symbolic, any case), rewrite and sequentialise ("true" means true, anything else
// false). Unknown keys and unknown models are ignored.
//
// When the file is missing or ambiguous the overrides are still returned along with
// ErrMalformedFixedLink.
func ParseFixedLink(query string) (FixedLink, error) {
	query = strings.TrimPrefix(query, "?")

	var link FixedLink
	var bare []string
	for _, arg := range strings.Split(query, "&") {
		if arg == "" {
			continue
		}
		key, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			bare = append(bare, unescape(key))
			continue
		}
		switch key {
		case "model":
			if m, err := domain.ParseModel(value); err == nil {
				link.Model = &m
			}
		case "rewrite":
			b := value == "true"
			link.Rewrite = &b
		case "sequentialise":
			b := value == "true"
			link.Sequentialise = &b
		}
	}

	switch len(bare) {
	case 1:
		link.File = bare[0]
		return link, nil
	case 0:
		return link, fmt.Errorf("%w: no file name", domain.ErrMalformedFixedLink)
	default:
		return link, fmt.Errorf("%w: several file names %q", domain.ErrMalformedFixedLink, bare)
	}
}

// HasOverrides reports whether the link changes any setting.
func (l FixedLink) HasOverrides() bool {
	return l.Model != nil || l.Rewrite != nil || l.Sequentialise != nil
}

// Apply overlays the link's overrides on s.
func (l FixedLink) Apply(s domain.Settings) domain.Settings {
	if l.Model != nil {
		s.Model = *l.Model
	}
	if l.Rewrite != nil {
		s.Rewrite = *l.Rewrite
	}
	if l.Sequentialise != nil {
		s.Sequentialise = *l.Sequentialise
	}
	return s
}

// Query renders the link back into a query string.
func (l FixedLink) Query() string {
	parts := []string{url.PathEscape(l.File)}
	if l.Model != nil {
		parts = append(parts, "model="+string(*l.Model))
	}
	if l.Rewrite != nil {
		parts = append(parts, fmt.Sprintf("rewrite=%t", *l.Rewrite))
	}
	if l.Sequentialise != nil {
		parts = append(parts, fmt.Sprintf("sequentialise=%t", *l.Sequentialise))
	}
	return strings.Join(parts, "&")
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
