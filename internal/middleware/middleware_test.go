package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/memory"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "mw-secret"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, userID, typ string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, service.TokenClaims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func protected(store storage.Storage, roles ...string) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{JWTAuth(secret, store)}
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID, "role": CurrentUser(c).TipoUser})
	})
	r.GET("/p", chain...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	store := memory.New("")
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	r := protected(store)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, signToken(t, worker.ID, service.TokenRefresh, time.Hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, signToken(t, worker.ID, service.TokenAccess, -time.Minute)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, signToken(t, "vanished", service.TokenAccess, time.Hour)).Code)

	w := get(r, signToken(t, worker.ID, service.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), worker.ID)
}

func TestRequireRole_UsesStoredRole(t *testing.T) {
	ctx := context.Background()
	store := memory.New("")
	worker := storagetest.MustUser(t, store, "worker", model.RoleTrabalhador)
	r := protected(store, model.RoleDiretor)
	token := signToken(t, worker.ID, service.TokenAccess, time.Hour)

	assert.Equal(t, http.StatusForbidden, get(r, token).Code)

	// Same token, promoted in storage.
	_, err := store.UpdateUserRole(ctx, worker.ID, model.RoleDiretor)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, token).Code)
}

type downStore struct{ storage.Storage }

func (downStore) GetUser(context.Context, string) (*model.User, error) {
	return nil, storage.ErrNotConnected
}

func TestJWTAuth_BackendDown(t *testing.T) {
	r := protected(downStore{})
	w := get(r, signToken(t, "user_1", service.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := get(r, "")
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/err", func(c *gin.Context) { _ = c.Error(assert.AnError) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	for _, path := range []string{"/err", "/panic"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String(), path)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.PATCH("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/p", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestWindowLimiter(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	l := newWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow("1.2.3.4")
	assert.False(t, ok)
	ok, _ = l.allow("5.6.7.8")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, l.purge())
	ok, _ = l.allow("1.2.3.4")
	assert.True(t, ok)
}

func TestLoginRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/login", LoginRateLimiter(1), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		return w
	}
	assert.Equal(t, http.StatusOK, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
