package rest_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arbor/application/services"
	"arbor/infrastructure/config"
	"arbor/infrastructure/di"
	"arbor/infrastructure/messaging"
	"arbor/infrastructure/persistence/memory"
	"arbor/interfaces/http/rest"
	"arbor/pkg/auth"
)

type testServer struct {
	handler http.Handler
	jwt     *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Environment:        "test",
		StoreDriver:        config.StoreMemory,
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         720 * time.Hour,
		RateLimitPerMinute: 1000,
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		SecretKey: "test-secret",
		Issuer:    "arbor-test",
		AccessTTL: cfg.AccessTTL,
	})
	require.NoError(t, err)

	arena := memory.NewStore()
	hierarchy := services.NewHierarchyService(
		arena.UnitOfWork(),
		arena.NodeStore(),
		messaging.NewNoopPublisher(),
		zap.NewNop(),
	)
	authService := services.NewAuthService(
		memory.NewUserStore(),
		memory.NewRefreshTokenStore(),
		jwtService,
		cfg.RefreshTTL,
		zap.NewNop(),
	)

	commandBus, err := di.ProvideCommandBus(hierarchy)
	require.NoError(t, err)
	queryBus, err := di.ProvideQueryBus(hierarchy)
	require.NoError(t, err)

	router := rest.NewRouter(cfg, commandBus, queryBus, authService, jwtService, zap.NewNop())
	return &testServer{handler: router.Setup(), jwt: jwtService}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken("user-"+role, role+"-user", role)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.request(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.request(t, http.MethodGet, "/ready", "", nil).Code)
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "sup3r-secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["username"])

	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "sup3r-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access_token"])
	refreshToken, _ := body["refresh_token"].(string)
	require.NotEmpty(t, refreshToken)

	rec = ts.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTreeAuthorization(t *testing.T) {
	ts := newTestServer(t)

	t.Run("rejects requests without a token", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/tree/roots", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/tree/roots", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("members can read and create but not restructure", func(t *testing.T) {
		member := ts.tokenFor(t, "member")

		rec := ts.request(t, http.MethodPost, "/api/v1/tree/nodes", member, map[string]string{
			"name": "Member Root",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		id, _ := decodeBody(t, rec)["id"].(string)
		require.NotEmpty(t, id)

		rec = ts.request(t, http.MethodGet, "/api/v1/tree/nodes/"+id, member, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = ts.request(t, http.MethodDelete, "/api/v1/tree/nodes/"+id, member, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ts.request(t, http.MethodPut, "/api/v1/tree/nodes/"+id, member, map[string]string{
			"name": "Renamed",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestTreeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.tokenFor(t, "admin")

	create := func(name string, parentID string) string {
		t.Helper()
		body := map[string]interface{}{"name": name}
		if parentID != "" {
			body["parent_id"] = parentID
		}
		rec := ts.request(t, http.MethodPost, "/api/v1/tree/nodes", admin, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		id, _ := decodeBody(t, rec)["id"].(string)
		require.NotEmpty(t, id)
		return id
	}

	rootID := create("Root", "")
	childID := create("Child", rootID)
	otherID := create("Other", "")

	t.Run("duplicate sibling name conflicts", func(t *testing.T) {
		rec := ts.request(t, http.MethodPost, "/api/v1/tree/nodes", admin, map[string]interface{}{
			"name":      "Child",
			"parent_id": rootID,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("get expands the subtree", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/tree/nodes/"+rootID, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		children, _ := body["children"].([]interface{})
		assert.Len(t, children, 1)
	})

	t.Run("rename", func(t *testing.T) {
		rec := ts.request(t, http.MethodPut, "/api/v1/tree/nodes/"+childID, admin, map[string]string{
			"name": "Renamed Child",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("move under another root", func(t *testing.T) {
		rec := ts.request(t, http.MethodPut, fmt.Sprintf("/api/v1/tree/nodes/%s/parent", childID), admin, map[string]interface{}{
			"parent_id": otherID,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cyclic move conflicts", func(t *testing.T) {
		rec := ts.request(t, http.MethodPut, fmt.Sprintf("/api/v1/tree/nodes/%s/parent", otherID), admin, map[string]interface{}{
			"parent_id": childID,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing node is 404", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/tree/nodes/00000000-0000-0000-0000-000000000000", admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("export carries every node", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/tree/export", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(3), body["total_nodes"])
	})

	t.Run("delete removes the subtree", func(t *testing.T) {
		rec := ts.request(t, http.MethodDelete, "/api/v1/tree/nodes/"+otherID, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.request(t, http.MethodGet, "/api/v1/tree/nodes/"+childID, admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
