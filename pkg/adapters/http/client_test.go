package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostsJSON(t *testing.T) {
	var got map[string]any
	r := chi.NewRouter()
	r.Post("/cerberus", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"done","result":"0"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	assert.Equal(t, srv.URL+"/cerberus", c.URL())

	req := domain.NewRequest(domain.Execute(domain.ModeExhaustive), "int x;", domain.DefaultSettings().Analysis(), nil)
	body, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"done","result":"0"}`, string(body))

	assert.Equal(t, "execute:exhaustive", got["action"])
	assert.Equal(t, "int x;", got["source"])
	assert.Equal(t, "concrete", got["model"])
	assert.Equal(t, true, got["sequentialise"])
	assert.NotContains(t, got, "interactive")
}

func TestClient_CustomEndpoint(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/run", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := NewClient(srv.URL, WithEndpoint("/api/run"), WithTimeout(time.Second))
	_, err := c.Do(context.Background(), domain.NewRequest(domain.Elaborate(), "", domain.AnalysisSettings{}, nil))
	assert.NoError(t, err)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Do(context.Background(), domain.NewRequest(domain.Elaborate(), "", domain.AnalysisSettings{}, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Do(context.Background(), domain.NewRequest(domain.Step(), "", domain.AnalysisSettings{}, nil))
	assert.Error(t, err)
}

func TestFetcher(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/defacto/*", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("path:" + r.URL.Path))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	f := NewFetcher(srv.URL+"/", nil)

	got, err := f.Fetch(context.Background(), "defacto/q 1.c")
	require.NoError(t, err)
	assert.Equal(t, "path:/defacto/q 1.c", got)

	_, err = f.Fetch(context.Background(), "missing.c")
	assert.Error(t, err)
}
