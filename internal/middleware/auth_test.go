package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/policies"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader map[int64]db.User

func (s stubLoader) Get(_ context.Context, id int64) (db.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return db.User{}, errors.New("not found")
}

// withSession grava userID na sessão antes de chamar next.
func withSession(sm *scs.SessionManager, userID int64, next http.Handler) http.Handler {
	return sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != 0 {
			sm.Put(r.Context(), SessionUserID, userID)
		}
		next.ServeHTTP(w, r)
	}))
}

func TestRequireAuth(t *testing.T) {
	users := stubLoader{1: {ID: 1, Email: "ana@example.com", Role: db.RoleProfessional}}

	tests := []struct {
		name       string
		userID     int64
		htmx       bool
		wantStatus int
		wantHeader string
	}{
		{"anonymous redirects", 0, false, http.StatusSeeOther, "Location"},
		{"anonymous htmx", 0, true, http.StatusUnauthorized, "HX-Redirect"},
		{"deleted user", 99, false, http.StatusSeeOther, "Location"},
		{"signed in", 1, false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()
			var seen db.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetUser(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, routes.Profile, nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rr := httptest.NewRecorder()
			withSession(sm, tt.userID, RequireAuth(sm, users)(next)).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantHeader != "" {
				assert.Equal(t, routes.Login, rr.Header().Get(tt.wantHeader))
			} else {
				assert.Equal(t, int64(1), seen.ID)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	enforcer, err := policies.NewEnforcer()
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	tests := []struct {
		role   string
		path   string
		method string
		want   int
	}{
		{db.RoleProfessional, routes.MyShifts, http.MethodGet, http.StatusOK},
		{db.RoleProfessional, routes.ShiftAction(3, "accept"), http.MethodPost, http.StatusOK},
		{db.RoleProfessional, routes.Admin, http.MethodGet, http.StatusForbidden},
		{db.RoleAdmin, routes.Admin, http.MethodGet, http.StatusOK},
		{db.RoleAdmin, routes.Settings, http.MethodPost, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(context.WithValue(req.Context(), contextkeys.UserContextKey, db.User{ID: 1, Role: tt.role}))
			rr := httptest.NewRecorder()
			Authorize(enforcer)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestFlashIsConsumedOnce(t *testing.T) {
	sm := scs.New()
	var got []string
	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("set") != "" {
			sm.Put(r.Context(), SessionFlash, "Saved")
			return
		}
		Flash(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			msg, _ := r.Context().Value(contextkeys.FlashKey).(string)
			got = append(got, msg)
		})).ServeHTTP(w, r)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?set=1", nil))
	cookie := rr.Result().Cookies()
	require.NotEmpty(t, cookie)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie[0])
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []string{"Saved", ""}, got)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := rl.Middleware(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rl.sweep(time.Now().Add(time.Hour))
	assert.Empty(t, rl.clients)
}

func TestMetricPath(t *testing.T) {
	assert.Equal(t, "/my-shifts/{id}/accept", metricPath("/my-shifts/42/accept"))
	assert.Equal(t, "/profile/settings", metricPath("/profile/settings"))
	assert.Equal(t, "/storage/*", metricPath("/storage/avatars/7/a.png"))
	assert.Equal(t, "/assets/*", metricPath("/assets/app.css"))
}

func TestLoggerSetsRequestIDAndKeepsFlusher(t *testing.T) {
	var flushErr error
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		flushErr = http.NewResponseController(w).Flush()
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.NoError(t, flushErr)
	assert.True(t, rr.Flushed)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))
}

func TestLocale(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"default", "", "", "en"},
		{"accept-language", "", "pt-BR,pt;q=0.9", "pt"},
		{"cookie wins", "en", "pt-BR", "en"},
		{"unsupported cookie", "de", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: tt.cookie})
			}
			req.Header.Set("Accept-Language", tt.accept)

			var got string
			Locale(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = r.Context().Value(contextkeys.LocaleKey).(string)
			})).ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}
