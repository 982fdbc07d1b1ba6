package contact_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prodline/internal/testutil"
	transportcontact "github.com/alanyang/prodline/internal/transport/contact"
)

func init() { gin.SetMode(gin.TestMode) }

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body) //nolint:errcheck
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSetAndGetHandle(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	r := gin.New()
	transportcontact.Register(r.Group("/contacts"), svcs.Contact)
	actor := uuid.NewString()

	w := do(r, http.MethodGet, "/contacts/"+actor, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/contacts/"+actor, map[string]string{"handle": "+1 (415) 555-0100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"handle":"14155550100"`)

	w = do(r, http.MethodGet, "/contacts/"+actor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "14155550100")
}

func TestSetHandle_Rejects(t *testing.T) {
	svcs := testutil.NewMemoryServices()
	r := gin.New()
	transportcontact.Register(r.Group("/contacts"), svcs.Contact)

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "bad actor id", path: "/contacts/nope", body: map[string]string{"handle": "14155550100"}},
		{name: "missing handle", path: "/contacts/" + uuid.NewString(), body: map[string]string{}},
		{name: "letters", path: "/contacts/" + uuid.NewString(), body: map[string]string{"handle": "call me"}},
		{name: "too short", path: "/contacts/" + uuid.NewString(), body: map[string]string{"handle": "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}
