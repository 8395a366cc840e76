package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16"

func TestHS256RoundTrip(t *testing.T) {
	s, err := NewSigner(testSecret, time.Hour, "barberbook")
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	token, exp, err := s.Sign("user-1", "admin", RoleAdmin)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %s", exp)
	}
	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "admin" || claims.Role != RoleAdmin {
		t.Fatalf("claims mismatch: got %+v", claims)
	}

	other, _ := NewSigner("another-secret-0123456", time.Hour, "barberbook")
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken with wrong secret, got %v", err)
	}
}

func TestDefaultTTLIsOneDay(t *testing.T) {
	s, err := NewSigner(testSecret, 0, "")
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	if s.TTL() != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", s.TTL())
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	s, _ := NewSigner(testSecret, time.Hour, "")
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := s.Sign("user-1", "admin", RoleAdmin)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	s.now = time.Now
	if _, err := s.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestNoneAlgorithmRejected(t *testing.T) {
	s, _ := NewSigner(testSecret, time.Hour, "")
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := s.Parse(token); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

func TestShortSecretRejected(t *testing.T) {
	if _, err := NewSigner("short", time.Hour, ""); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pass123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "pass123") {
		t.Fatal("CheckPassword should succeed")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Fatal("CheckPassword should fail for wrong password")
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	s, _ := NewSigner(testSecret, time.Hour, "")
	deny := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) }

	h := RequireAuth(s, deny)(RequireRole(deny, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Subject != "user-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})))

	token, _, _ := s.Sign("user-1", "admin", RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	memberToken, _, _ := s.Sign("user-2", "member", "member")
	req = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-admin role, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer badtoken")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}
