package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/fetch_nodes/internal/logctx"
	"github.com/stretchr/testify/require"
)

func TestDisabledTelemetryIsNoop(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	called := false
	err = tel.InstrumentNodeExecution(context.Background(), "PrintStatusNode", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)

	tel.RecordFetch("saved", 10)
	tel.RecordHTTPRequest(http.MethodGet, "/hello", "2xx", time.Millisecond)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestNilTelemetryRunsFunction(t *testing.T) {
	var tel *Telemetry

	wantErr := errors.New("boom")
	err := tel.InstrumentDBOperation(context.Background(), "record_fetch", func(ctx context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	tel.RecordNodeExecution("FetchFileNode", "success", time.Second)
	tel.RecordFetch("failed", 0)
}

func TestEnabledTelemetryExposesMetrics(t *testing.T) {
	ctx := context.Background()

	tel, err := New(ctx, Config{Enabled: true, ServiceName: "fetch_nodes_test", InstanceID: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(ctx) })

	err = tel.InstrumentNodeExecution(ctx, "FetchFileNode", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	tel.RecordFetch("saved", 128)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "node_executions")
	require.Contains(t, body, `node="FetchFileNode"`)
	require.Contains(t, body, "fetches")
}

func TestRequestID(t *testing.T) {
	var seen string

	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "upstream-id", seen)
	require.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
}

func TestHTTPLoggingLevels(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "success", status: http.StatusOK, wantLevel: "INFO"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "WARN"},
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			h := HTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/nodes/FetchFileNode/execute", nil)
			req = req.WithContext(logctx.WithLogger(req.Context(), logger))

			h.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			require.Equal(t, tt.wantLevel, entry["level"])
			require.EqualValues(t, tt.status, entry["status"])
			require.Equal(t, "/nodes/FetchFileNode/execute", entry["path"])
		})
	}
}

func TestHTTPMiddlewareWithRouter(t *testing.T) {
	ctx := context.Background()

	tel, err := New(ctx, Config{Enabled: true, ServiceName: "fetch_nodes_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(ctx) })

	r := chi.NewRouter()
	r.Use(NewHTTPMiddleware(tel).Middleware)
	r.Get("/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chi.URLParam(r, "id"))
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nodes/PrintStatusNode")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "PrintStatusNode", string(body))

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), `route="/nodes/{id}"`)
}

func TestGetStatusClass(t *testing.T) {
	require.Equal(t, "2xx", getStatusClass(http.StatusOK))
	require.Equal(t, "3xx", getStatusClass(http.StatusFound))
	require.Equal(t, "4xx", getStatusClass(http.StatusNotFound))
	require.Equal(t, "5xx", getStatusClass(http.StatusBadGateway))
	require.Equal(t, "unknown", getStatusClass(100))
}

func TestGenerateInstanceID(t *testing.T) {
	a := GenerateInstanceID()
	b := GenerateInstanceID()

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
