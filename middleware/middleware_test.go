package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/models"
)

type stubVerifier struct {
	valid string
	user  models.User
}

func (s stubVerifier) Verify(token string) (*models.User, error) {
	if token != s.valid {
		return nil, errors.New("bad token")
	}
	return &s.user, nil
}

func newAuthRouter(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.ID.String())
	})
	return r
}

func TestAuthMiddleware_TokenSources(t *testing.T) {
	id := uuid.New()
	r := newAuthRouter(stubVerifier{valid: "tok", user: models.User{ID: id}})

	cases := map[string]func(*http.Request){
		"bearer header":       func(req *http.Request) { req.Header.Set("Authorization", "Bearer tok") },
		"lowercase scheme":    func(req *http.Request) { req.Header.Set("Authorization", "bearer tok") },
		"x-auth-token raw":    func(req *http.Request) { req.Header.Set("X-Auth-Token", "tok") },
		"x-auth-token bearer": func(req *http.Request) { req.Header.Set("X-Auth-Token", "Bearer tok") },
		"session cookie":      func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: "tok"}) },
	}
	for name, set := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			set(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, id.String(), w.Body.String())
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	r := newAuthRouter(stubVerifier{valid: "tok"})

	cases := map[string]func(*http.Request){
		"no token":      func(*http.Request) {},
		"wrong scheme":  func(req *http.Request) { req.Header.Set("Authorization", "Basic tok") },
		"invalid token": func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") },
	}
	for name, set := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			set(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}
}

func TestRequestLogger_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/api/flashcards/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/flashcards/"+uuid.NewString(), nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/api/flashcards/:id", entry.ContextMap()["route"])
}
