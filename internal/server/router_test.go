package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestBasicRouter(t *testing.T) {
	t.Run("dispatches on method", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/thing", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "get") })
		r.HandleFunc(http.MethodPost, "/thing", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "post") })

		for method, want := range map[string]string{http.MethodGet: "get", http.MethodPost: "post"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/thing", nil))
			if rec.Body.String() != want {
				t.Errorf("%s: expected %q, got %q", method, want, rec.Body.String())
			}
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/thing", func(w http.ResponseWriter, _ *http.Request) {})
		r.HandleFunc(http.MethodPost, "/thing", func(w http.ResponseWriter, _ *http.Request) {})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/thing", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != "GET, POST" {
			t.Errorf("expected Allow header, got %q", got)
		}
		var body ErrorBody
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error != "METHOD_NOT_ALLOWED" {
			t.Errorf("unexpected body %+v (%v)", body, err)
		}
	})

	t.Run("HEAD falls back to GET", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, _ *http.Request) { order = append(order, "handler") })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !slices.Equal(order, []string{"first", "second", "handler"}) {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("custom handler routes", func(t *testing.T) {
		h := NewOAuthHandler(nil, "state", "/cb")
		r := NewBasicRouter()
		r.Handler(h)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?state=wrong", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected handler to be reached, got %d", rec.Code)
		}
	})

	t.Run("lists routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodPost, "/b", func(http.ResponseWriter, *http.Request) {})
		r.HandleFunc("get", "/a", func(http.ResponseWriter, *http.Request) {})

		if got := r.Routes(); !slices.Equal(got, []string{"GET /a", "POST /b"}) {
			t.Errorf("unexpected routes %v", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Recoverer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("expected panic to be logged, got %q", buf.String())
		}
	})

	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		for _, want := range []string{"/brew", "418", "GET"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected log to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("RequestLogger implicit 200", func(t *testing.T) {
		var buf bytes.Buffer
		h := RequestLogger(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "ok")
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(buf.String(), "200") {
			t.Errorf("expected status 200 in log, got %q", buf.String())
		}
	})
}
