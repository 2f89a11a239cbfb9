package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher implements ports.SourceFetcher by downloading files relative to a base URL,
// the way the web front end loads buffer.c and fixed-link files.
type Fetcher struct {
	baseURL string
	http    *http.Client
}

// NewFetcher creates a Fetcher for baseURL. A nil client uses http.DefaultClient.
func NewFetcher(baseURL string, hc *http.Client) *Fetcher {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Fetcher{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Fetch GETs base/name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	segments := strings.Split(strings.TrimLeft(name, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	target := f.baseURL + "/" + strings.Join(segments, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: %s", target, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
