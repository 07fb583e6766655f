package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/eslsoft/lvgames/internal/adapter/httpapi"
	"github.com/eslsoft/lvgames/internal/infrastructure/config"
	"github.com/eslsoft/lvgames/internal/usecase/session"
)

func TestAccessLogLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := AccessLog(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))

	want := map[string]logrus.Level{
		"/ok":      logrus.InfoLevel,
		"/missing": logrus.WarnLevel,
		"/boom":    logrus.ErrorLevel,
	}
	for path, level := range want {
		hook.Reset()
		req := httptest.NewRequest(http.MethodGet, path+"?q=1", nil)
		req.Header.Set("X-Forwarded-For", " 10.0.0.1, 10.0.0.2")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		entry := hook.LastEntry()
		if entry == nil || entry.Level != level {
			t.Fatalf("%s: expected level %s, got %+v", path, level, entry)
		}
		if entry.Data["client_ip"] != "10.0.0.1" || entry.Data["query"] != "q=1" {
			t.Fatalf("%s: unexpected fields %v", path, entry.Data)
		}
	}
}

func TestServerCORS(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{Server: config.ServerConfig{Host: "localhost", HTTPPort: 0, CORSOrigins: []string{"https://games.example"}}}
	api := httpapi.NewHandler(session.NewManager(), nil, logger)
	srv := NewServer(cfg, logger, api)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://games.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://games.example" {
		t.Fatalf("expected CORS header, got %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&config.Config{Log: config.LogConfig{Level: "debug", Format: "text"}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
	if _, err := NewLogger(&config.Config{Log: config.LogConfig{Level: "loud"}}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
