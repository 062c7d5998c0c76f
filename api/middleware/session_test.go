package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

var testSessionCfg = config.SessionConfig{CookieName: "fs_session", TTL: time.Hour}

func TestSessionIssuesCookieAndPersistsChanges(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	handler := Session(store, testSessionCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			t.Fatal("expected session in context")
		}
		if r.URL.Path == "/write" {
			sess.Set("coupon_code", "TEN")
		}
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/write", nil))

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "fs_session" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
	id := cookies[0].Value
	if resp.Header().Get(sessionHeader) != id {
		t.Fatalf("expected session header %s got %s", id, resp.Header().Get(sessionHeader))
	}

	var got string
	reader := Session(store, testSessionCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context()).String("coupon_code")
	}))
	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(&http.Cookie{Name: "fs_session", Value: id})
	reader.ServeHTTP(httptest.NewRecorder(), req)
	if got != "TEN" {
		t.Fatalf("expected stored coupon, got %q", got)
	}
}

func TestSessionAcceptsHeader(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	seed := sessionstore.New("")
	seed.Set("coupon_code", "SPRING")
	if err := store.Save(t.Context(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var got string
	handler := Session(store, testSessionCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context()).String("coupon_code")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, seed.ID())
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "SPRING" {
		t.Fatalf("expected header session, got %q", got)
	}
}

func TestSessionReplacesInvalidID(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	handler := Session(store, testSessionCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "fs_session", Value: "../../etc"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	id := resp.Header().Get(sessionHeader)
	if id == "../../etc" || !sessionstore.ValidID(id) {
		t.Fatalf("expected fresh session id, got %q", id)
	}
}
