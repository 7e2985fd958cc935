package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("correct horse", hash) {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword("wrong horse", hash) {
		t.Error("CheckPassword() accepted the wrong password")
	}
	if CheckPassword("anything", "") {
		t.Error("CheckPassword() accepted an empty hash")
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	expires := time.Now().Add(time.Hour)

	token, err := issuer.Issue(42, "session-abc", expires)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != 42 || claims.SessionID != "session-abc" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ExpiresAt.Unix() != expires.Unix() {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, expires)
	}

	if _, err := NewTokenIssuer("other-secret").Parse(token); err != ErrInvalidToken {
		t.Errorf("Parse() with wrong secret error = %v, want ErrInvalidToken", err)
	}

	expired, _ := issuer.Issue(42, "session-abc", time.Now().Add(-time.Minute))
	if _, err := issuer.Parse(expired); err != ErrInvalidToken {
		t.Errorf("Parse() expired error = %v, want ErrInvalidToken", err)
	}

	if _, err := issuer.Parse("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Parse() garbage error = %v, want ErrInvalidToken", err)
	}
}

func TestCSRFGuard(t *testing.T) {
	g := NewCSRFGuard("csrf-secret")

	token, err := g.TokenFor("session-1")
	if err != nil {
		t.Fatalf("TokenFor() error = %v", err)
	}
	if _, err := g.TokenFor(""); err == nil {
		t.Error("TokenFor() accepted an empty session")
	}

	tests := []struct {
		name    string
		header  string
		session string
		want    error
	}{
		{"matching", token, "session-1", nil},
		{"other session", token, "session-2", ErrCSRFMismatch},
		{"missing header", "", "session-1", ErrCSRFMissing},
		{"not base64", "!!!", "session-1", ErrCSRFMismatch},
		{"other secret", mustToken(t, NewCSRFGuard("other"), "session-1"), "session-1", ErrCSRFMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/community/posts", nil)
			if tt.header != "" {
				r.Header.Set(CSRFHeader, tt.header)
			}
			if err := g.Verify(r, tt.session); err != tt.want {
				t.Errorf("Verify() = %v, want %v", err, tt.want)
			}
		})
	}
}

func mustToken(t *testing.T, g *CSRFGuard, sessionID string) string {
	t.Helper()
	token, err := g.TokenFor(sessionID)
	if err != nil {
		t.Fatalf("TokenFor() error = %v", err)
	}
	return token
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients should have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the window")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "127.0.0.1:1234", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.9"}, remote: "127.0.0.1:1234", want: "10.0.0.9"},
		{name: "remote addr", remote: "192.168.1.5:5555", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := BearerToken(r); got != "" {
		t.Errorf("BearerToken() = %q, want empty", got)
	}
	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	if got := BearerToken(r); got != "abc.def.ghi" {
		t.Errorf("BearerToken() = %q", got)
	}
	r.Header.Set("Authorization", "Basic dXNlcg==")
	if got := BearerToken(r); got != "" {
		t.Errorf("BearerToken() with basic auth = %q", got)
	}
}

func TestSessionCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "https://hub.example.com/", nil)
	c := CreateSessionCookie(r, "sid", time.Now().Add(time.Hour))
	if c.Name != SessionCookieName || !c.HttpOnly || !c.Secure {
		t.Errorf("session cookie = %+v", c)
	}

	plain := httptest.NewRequest("GET", "http://localhost/", nil)
	if CreateDeleteCookie(plain, SessionCookieName).Secure {
		t.Error("delete cookie should not be Secure over plain HTTP")
	}
}
