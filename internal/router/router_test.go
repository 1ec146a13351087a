package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/memory"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t   *testing.T
	h   http.Handler
	now time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		Timezone:           "UTC",
		JWTSecret:          "router-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		BcryptCost:         bcrypt.MinCost,
	}
	ts := &testServer{t: t, now: time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)}
	ts.h = New(cfg, Deps{
		Store:   memory.New(string(hash)),
		Backend: "memory",
		Now:     func() time.Time { return ts.now },
	})
	return ts
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, code, body)
	return body["accessToken"].(string)
}

func decimalField(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	switch x := v.(type) {
	case string:
		return decimal.RequireFromString(x)
	case float64:
		return decimal.NewFromFloat(x)
	}
	t.Fatalf("not a decimal: %#v", v)
	return decimal.Zero
}

func TestWorkdayScenario(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	code, obra := s.do(http.MethodPost, "/api/obras", admin, map[string]string{"codigo": "OBR001", "nome": "Edificio Central"})
	require.Equal(t, http.StatusCreated, code, obra)
	assert.Equal(t, "Ativa", obra["estado"])
	assert.NotEmpty(t, obra["qrCode"])
	obraID := obra["id"].(float64)

	code, found := s.do(http.MethodGet, "/api/obras/qr/"+obra["qrCode"].(string), admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, obraID, found["id"])

	code, created := s.do(http.MethodPost, "/api/users", admin, map[string]string{
		"firstName": "Joao", "lastName": "Silva", "email": "joao@obras.local", "tipoUser": "Trabalhador",
	})
	require.Equal(t, http.StatusCreated, code, created)
	creds := created["credentials"].(map[string]any)
	assert.Equal(t, "joao.silva", creds["username"])
	worker := s.login(creds["username"].(string), creds["password"].(string))

	code, _ = s.do(http.MethodPost, "/api/registo-ponto/clock-in", worker, map[string]any{"obraId": obraID})
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(http.MethodPost, "/api/registo-ponto/clock-in", worker, map[string]any{"obraId": obraID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Already clocked in today", body["message"])

	s.now = s.now.Add(8 * time.Hour)
	code, registo := s.do(http.MethodPost, "/api/registo-ponto/clock-out", worker, nil)
	require.Equal(t, http.StatusOK, code, registo)
	assert.True(t, decimal.NewFromInt(8).Equal(decimalField(t, registo["totalHorasTrabalhadas"])))

	code, stats := s.do(http.MethodGet, "/api/stats", worker, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, stats["hoursToday"])
	assert.Equal(t, 8.0, stats["hoursWeek"])
	assert.Equal(t, 1.0, stats["activeProjects"])
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	code, _ := s.do(http.MethodGet, "/api/obras", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, created := s.do(http.MethodPost, "/api/users", admin, map[string]string{
		"firstName": "Rui", "lastName": "Sousa", "email": "rui@obras.local", "tipoUser": "Trabalhador",
	})
	require.Equal(t, http.StatusCreated, code)
	creds := created["credentials"].(map[string]any)
	worker := s.login(creds["username"].(string), creds["password"].(string))

	code, _ = s.do(http.MethodPost, "/api/obras", worker, map[string]string{"codigo": "X", "nome": "X"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/api/users", worker, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Self role change applies to the very next request with the same token.
	code, me := s.do(http.MethodPost, "/api/user/change-role", worker, map[string]string{"tipoUser": "Encarregado"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Encarregado", me["tipoUser"])
	code, _ = s.do(http.MethodGet, "/api/users", worker, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestValidationAndErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	code, body := s.do(http.MethodPost, "/api/obras", admin, map[string]string{"nome": "Sem codigo"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["fields"], "Codigo")

	code, _ = s.do(http.MethodGet, "/api/obras/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodGet, "/api/obras/qr/nope", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["message"])

	code, _ = s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, health := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "memory", health["backend"])
	assert.Equal(t, "disabled", health["redis"])
}

func TestTodayIsNullBeforeClockIn(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/registo-ponto/today", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestClockOutAcceptsChunkedEmptyBody(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	code, obra := s.do(http.MethodPost, "/api/obras", admin, map[string]string{"codigo": "OBR002", "nome": "Armazem"})
	require.Equal(t, http.StatusCreated, code, obra)
	code, _ = s.do(http.MethodPost, "/api/registo-ponto/clock-in", admin, map[string]any{"obraId": obra["id"]})
	require.Equal(t, http.StatusCreated, code)
	s.now = s.now.Add(4 * time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/registo-ponto/clock-out", io.NopCloser(strings.NewReader("")))
	require.Equal(t, int64(-1), req.ContentLength)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	code, _ = s.do(http.MethodPost, "/api/registo-ponto/clock-out", admin, "not-an-object")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestParteQuantidadeUpperBound(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	code, obra := s.do(http.MethodPost, "/api/obras", admin, map[string]string{"codigo": "OBR003", "nome": "Moradia"})
	require.Equal(t, http.StatusCreated, code, obra)

	code, body := s.do(http.MethodPost, "/api/partes-diarias", admin, map[string]any{
		"categoria": "Materiais", "designacao": "Cimento", "quantidade": 1e9, "unidade": "kg", "obraId": obra["id"],
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["fields"], "Quantidade")

	code, body = s.do(http.MethodPost, "/api/partes-diarias", admin, map[string]any{
		"categoria": "Materiais", "designacao": "Cimento", "quantidade": 99999999.99, "unidade": "kg", "obraId": obra["id"],
	})
	assert.Equal(t, http.StatusCreated, code, body)
}
