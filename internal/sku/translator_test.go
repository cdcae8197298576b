package sku

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPTranslator(t *testing.T) {
	t.Run("successful translation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/CAT123", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sku":"REAL456"}`))
		}))
		defer srv.Close()

		tr := NewHTTPTranslator(srv.URL, time.Second)
		assert.Equal(t, "REAL456", tr.Resolve(context.Background(), "CAT123"))
	})

	t.Run("non-OK status falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		tr := NewHTTPTranslator(srv.URL, time.Second)
		assert.Equal(t, "CAT123", tr.Resolve(context.Background(), "CAT123"))
	})

	t.Run("malformed body falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		tr := NewHTTPTranslator(srv.URL, time.Second)
		assert.Equal(t, "CAT123", tr.Resolve(context.Background(), "CAT123"))
	})

	t.Run("empty sku falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"sku":""}`))
		}))
		defer srv.Close()

		tr := NewHTTPTranslator(srv.URL, time.Second)
		assert.Equal(t, "CAT123", tr.Resolve(context.Background(), "CAT123"))
	})

	t.Run("unreachable service falls back", func(t *testing.T) {
		tr := NewHTTPTranslator("http://127.0.0.1:1", 100*time.Millisecond)
		assert.Equal(t, "CAT123", tr.Resolve(context.Background(), "CAT123"))
	})
}

func TestNoopTranslator(t *testing.T) {
	assert.Equal(t, "CAT123", NoopTranslator{}.Resolve(context.Background(), "CAT123"))
}
