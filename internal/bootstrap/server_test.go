package bootstrap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Domenick1991/flightshop/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRunChecks(t *testing.T) {
	ok := Check{Name: "mongo", Fn: func(context.Context) error { return nil }}
	bad := Check{Name: "redis", Fn: func(context.Context) error { return errors.New("refused") }}

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, runChecks(context.Background(), []Check{ok}, quiet()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, runChecks(context.Background(), []Check{ok, bad}, quiet()))
}

func TestNewHandler_RoutesAPIAndSwagger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swagger.json"), []byte(`{"swagger":"2.0"}`), 0o644))

	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	gateway := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := newHandler(config.HTTPConfig{SwaggerDir: dir}, api, gateway)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/search", http.StatusTeapot},
		{"/healthz", http.StatusOK},
		{"/swagger/swagger.json", http.StatusOK},
		{"/docs/index.html", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestNewHandler_NoDocsWithoutSwaggerDir(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := newHandler(config.HTTPConfig{}, api, http.NotFoundHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServers(t *testing.T) {
	cfg := config.Default()
	s, err := newServers(&cfg, http.NotFoundHandler(), quiet(), nil)
	require.NoError(t, err)
	defer s.conn.Close()

	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
