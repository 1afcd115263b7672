package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/tenant/service"
	tenantstore "gatehouse/internal/tenant/store/tenant"
	"gatehouse/pkg/platform/middleware/admin"
)

const adminToken = "secret-token"

// newTenantRouter wires the handler to the real service over the memory
// store, behind the admin token middleware as in production.
func newTenantRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(tenantstore.NewInMemory(), logger)

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(admin.RequireAdminToken(adminToken, logger))
	h.Register(r)
	return r
}

func doAdmin(t *testing.T, router http.Handler, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminTokenRequired(t *testing.T) {
	router := newTenantRouter(t)

	rec := doAdmin(t, router, http.MethodGet, "/admin/tenants", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAdmin(t, router, http.MethodGet, "/admin/tenants", nil, "wrong-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantLifecycleViaHandlers(t *testing.T) {
	router := newTenantRouter(t)

	// Create: plaintext key is returned exactly once
	rec := doAdmin(t, router, http.MethodPost, "/admin/tenants", map[string]string{"name": "Acme"}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created CreatedTenantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "active", created.Status)
	assert.NotEmpty(t, created.APIKey)

	// Get
	rec = doAdmin(t, router, http.MethodGet, "/admin/tenants/"+created.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched TenantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fetched))
	assert.Equal(t, "Acme", fetched.Name)

	// Deactivate
	rec = doAdmin(t, router, http.MethodPost, "/admin/tenants/"+created.ID+"/deactivate", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var deactivated TenantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&deactivated))
	assert.Equal(t, "inactive", deactivated.Status)

	// Double deactivate conflicts
	rec = doAdmin(t, router, http.MethodPost, "/admin/tenants/"+created.ID+"/deactivate", nil, adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Reactivate
	rec = doAdmin(t, router, http.MethodPost, "/admin/tenants/"+created.ID+"/reactivate", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// List
	rec = doAdmin(t, router, http.MethodGet, "/admin/tenants", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list TenantsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
}

func TestRotateAPIKeyViaHandlers(t *testing.T) {
	router := newTenantRouter(t)

	rec := doAdmin(t, router, http.MethodPost, "/admin/tenants", map[string]string{"name": "Acme"}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created CreatedTenantResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = doAdmin(t, router, http.MethodPost, "/admin/tenants/"+created.ID+"/rotate-key", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated RotatedKeyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rotated))
	assert.NotEmpty(t, rotated.APIKey)
	assert.NotEqual(t, created.APIKey, rotated.APIKey)
}

func TestTenantHandlerValidation(t *testing.T) {
	router := newTenantRouter(t)

	t.Run("missing name", func(t *testing.T) {
		rec := doAdmin(t, router, http.MethodPost, "/admin/tenants", map[string]string{}, adminToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		rec := doAdmin(t, router, http.MethodPost, "/admin/tenants", map[string]string{"name": "Dup"}, adminToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doAdmin(t, router, http.MethodPost, "/admin/tenants", map[string]string{"name": "dup"}, adminToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed tenant id", func(t *testing.T) {
		rec := doAdmin(t, router, http.MethodGet, "/admin/tenants/banana", nil, adminToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		rec := doAdmin(t, router, http.MethodGet, "/admin/tenants/"+uuid.NewString(), nil, adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
