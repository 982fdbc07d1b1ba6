package wire_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prodline/internal/adapter/messaging"
	"github.com/alanyang/prodline/internal/config"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	"github.com/alanyang/prodline/internal/wire"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverMemory
	cfg.Database.URL = ""
	return &cfg
}

func TestNewNotifier(t *testing.T) {
	cfg := memoryConfig()
	_, ok := wire.NewNotifier(cfg).(messaging.Noop)
	assert.True(t, ok, "provider none uses the fallback-only notifier")

	cfg.Notifier.Provider = config.ProviderTwilio
	cfg.Notifier.AccountSID = "AC1"
	cfg.Notifier.AuthToken = "tok"
	cfg.Notifier.From = "+14155238886"
	_, ok = wire.NewNotifier(cfg).(*messaging.Gateway)
	assert.True(t, ok)
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"
	_, err := wire.Build(context.Background(), cfg)
	require.Error(t, err)
}

// TestBuild_MemoryEndToEnd drives a full pipeline through the HTTP router.
func TestBuild_MemoryEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := wire.Build(ctx, memoryConfig())
	require.NoError(t, err)
	defer app.Close()
	assert.Nil(t, app.Pool)

	h := app.Server.Handler
	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, "/api/projects/", map[string]string{"title": "Launch video"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p domainproject.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	actor := uuid.New()
	w = do(http.MethodPut, "/api/contacts/"+actor.String(), map[string]string{"handle": "+1 415 555 0100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, tk := range p.Tasks {
		w = do(http.MethodPut, "/api/tasks/"+tk.ID.String()+"/assignee", map[string]any{"assignee_id": actor})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	for i, tk := range p.Tasks {
		w = do(http.MethodPost, "/api/tasks/"+tk.ID.String()+"/transition",
			map[string]any{"status": domaintask.StatusCompleted, "actor_id": actor})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res pipelinesvc.TransitionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		if i < len(p.Tasks)-1 {
			require.NotNil(t, res.Activated)
			assert.Equal(t, p.Tasks[i+1].ID, res.Activated.ID)
			require.NotNil(t, res.Delivery)
			assert.False(t, res.Delivery.Delivered, "no gateway configured")
			assert.Contains(t, res.Delivery.FallbackLink, "https://wa.me/14155550100/?text=")
		}
	}

	w = do(http.MethodGet, "/api/projects/"+p.ID.String()+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)

	w = do(http.MethodGet, "/api/reports/completion/"+actor.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completion_rate":100`)
}
