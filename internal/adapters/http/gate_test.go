package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/tverdyi/watchroom/internal/domain"
)

func TestVet(t *testing.T) {
	tests := []struct {
		name string
		id   domain.Identity
		want int
	}{
		{"verified", domain.Identity{ID: "u1", Verified: true}, http.StatusOK},
		{"unverified", domain.Identity{ID: "u1"}, http.StatusUnauthorized},
		{"suspended", domain.Identity{ID: "u1", Verified: true, Suspended: true}, http.StatusForbidden},
		{"suspended and unverified", domain.Identity{ID: "u1", Suspended: true}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := Vet(tt.id); got != tt.want {
				t.Errorf("Vet(%+v) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func gateRouter(seed func(sessions.Session)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("WatchroomSessions", store))

	// Seed route stands in for the external auth service writing the
	// shared cookie.
	r.GET("/seed", func(c *gin.Context) {
		s := sessions.Default(c)
		seed(s)
		_ = s.Save()
		c.Status(http.StatusOK)
	})

	api := r.Group("/api")
	api.Use(GateMiddleware())
	api.GET("/whoami", func(c *gin.Context) {
		id, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"uid": id.ID})
	})
	return r
}

func TestGateRejectsWithoutSession(t *testing.T) {
	r := gateRouter(func(sessions.Session) {})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGateAdmitsVerifiedSession(t *testing.T) {
	r := gateRouter(func(s sessions.Session) {
		s.Set("uid", "u1")
		s.Set("name", "Ada")
		s.Set("verified", true)
	})

	seed := httptest.NewRecorder()
	r.ServeHTTP(seed, httptest.NewRequest(http.MethodGet, "/seed", nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	for _, c := range seed.Result().Cookies() {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestGateRefusesSuspendedSession(t *testing.T) {
	r := gateRouter(func(s sessions.Session) {
		s.Set("uid", "u1")
		s.Set("verified", true)
		s.Set("suspended", true)
	})

	seed := httptest.NewRecorder()
	r.ServeHTTP(seed, httptest.NewRequest(http.MethodGet, "/seed", nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	for _, c := range seed.Result().Cookies() {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
