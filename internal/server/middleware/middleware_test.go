package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/pettycash/internal/auth"
	"github.com/mamadbah2/pettycash/internal/domain/models"
)

const testSecret = "middleware-secret-that-is-long-enough"

type stubTracker struct {
	alive   bool
	touched []string
}

func (s *stubTracker) Touch(id, _ string) bool {
	s.touched = append(s.touched, id)
	return s.alive
}

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, user models.User) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func newEngine(tracker SessionTracker) *gin.Engine {
	r := gin.New()
	api := r.Group("/api", Authenticate(testSecret, tracker, nil))
	api.GET("/stores/:store/ping", RequireStore(), func(c *gin.Context) {
		c.String(http.StatusOK, StoreFrom(c))
	})
	api.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthenticateAndRequireStore(t *testing.T) {
	manager := models.User{ID: "u1", Role: models.RoleManager, Stores: []string{"North"}}
	admin := models.User{ID: "a1", Role: models.RoleAdmin}

	tests := []struct {
		name     string
		path     string
		header   string
		alive    bool
		wantCode int
		wantBody string
	}{
		{"missing token", "/api/stores/north/ping", "", true, http.StatusUnauthorized, ""},
		{"garbage token", "/api/stores/north/ping", "Bearer nope", true, http.StatusUnauthorized, ""},
		{"own store any case", "/api/stores/NORTH/ping", "Bearer " + token(t, manager), true, http.StatusOK, "north"},
		{"foreign store", "/api/stores/south/ping", "Bearer " + token(t, manager), true, http.StatusForbidden, ""},
		{"admin reaches all", "/api/stores/south/ping", "Bearer " + token(t, admin), true, http.StatusOK, "south"},
		{"query token", "/api/stores/north/ping?token=" + token(t, manager), "", true, http.StatusOK, "north"},
		{"idle session", "/api/stores/north/ping", "Bearer " + token(t, manager), false, http.StatusUnauthorized, ""},
		{"manager on admin route", "/api/admin", "Bearer " + token(t, manager), true, http.StatusForbidden, ""},
		{"admin on admin route", "/api/admin", "Bearer " + token(t, admin), true, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &stubTracker{alive: tt.alive}
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newEngine(tracker).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("got body %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAuthenticateTouchesSession(t *testing.T) {
	tracker := &stubTracker{alive: true}
	req := httptest.NewRequest(http.MethodGet, "/api/stores/north/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.User{ID: "u1", Role: models.RoleAdmin}))
	newEngine(tracker).ServeHTTP(httptest.NewRecorder(), req)

	if len(tracker.touched) != 1 || tracker.touched[0] == "" {
		t.Fatalf("got touches %v, want one with the token id", tracker.touched)
	}
}
