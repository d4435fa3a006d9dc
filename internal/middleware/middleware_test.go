package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"prize_wheel/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type tokenAuth map[string]string

func (a tokenAuth) Authenticate(_ context.Context, token string) (string, error) {
	id, ok := a[token]
	if !ok {
		return "", domain.ErrAuth
	}
	return id, nil
}

type roleLookup map[string]string

func (l roleLookup) Get(_ context.Context, id string) (*domain.LedgerRecord, error) {
	role, ok := l[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.LedgerRecord{UserID: id, Role: role}, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := tokenAuth{"good": "u1", "boss": "a1"}
	roles := roleLookup{"u1": domain.RoleUser, "a1": domain.RoleAdmin}
	r.GET("/me", JWTAuthMiddleware(auth), func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/admin", JWTAuthMiddleware(auth), AdminOnlyMiddleware(roles), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Basic good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer bad").Code)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer boss").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
}
