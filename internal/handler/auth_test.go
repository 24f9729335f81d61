package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chirper-api/internal/config"
)

// Register and Login both issue the refresh cookie through the shared
// helper, so these attributes hold for every path that sets it.
func TestSetRefreshCookie_Attributes(t *testing.T) {
	cfg := &config.Config{RefreshTokenMaxAge: 3600}
	rec := httptest.NewRecorder()

	setRefreshCookie(rec, cfg, "refresh-token")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies set = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != refreshCookieName || c.Value != "refresh-token" {
		t.Errorf("cookie = %s=%s, want %s=refresh-token", c.Name, c.Value, refreshCookieName)
	}
	if c.Path != "/" || c.MaxAge != cfg.RefreshTokenMaxAge {
		t.Errorf("path = %q, maxAge = %d", c.Path, c.MaxAge)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteNoneMode {
		t.Errorf("httpOnly = %v, secure = %v, sameSite = %v", c.HttpOnly, c.Secure, c.SameSite)
	}
}

func TestClearRefreshCookie_Expires(t *testing.T) {
	rec := httptest.NewRecorder()

	clearRefreshCookie(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies set = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != refreshCookieName || c.Value != "" {
		t.Errorf("cookie = %s=%s, want an emptied %s", c.Name, c.Value, refreshCookieName)
	}
	if c.MaxAge >= 0 {
		t.Errorf("maxAge = %d, want negative so the cookie is dropped", c.MaxAge)
	}
}
