package remote

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestTokenValidatorAcceptsValidToken(t *testing.T) {
	key := []byte("secret")
	v := TokenValidator{SigningKey: key}
	token := signToken(t, key, jwt.MapClaims{"sub": "mapbundle", "exp": time.Now().Add(time.Hour).Unix()})

	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims["sub"] != "mapbundle" {
		t.Fatalf("expected claims preserved, got %v", claims)
	}
}

func TestTokenValidatorRejectsExpiredToken(t *testing.T) {
	key := []byte("secret")
	v := TokenValidator{SigningKey: key}
	token := signToken(t, key, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})

	if _, err := v.Validate(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTokenValidatorRejectsWrongSigningKey(t *testing.T) {
	v := TokenValidator{SigningKey: []byte("secret")}
	token := signToken(t, []byte("wrong-key"), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	if _, err := v.Validate(token); err == nil {
		t.Fatal("expected error for token signed with a different key")
	}
}

func TestFetchManifestFragmentSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"resource_urls":[]}`))
	}))
	defer srv.Close()

	data, err := FetchManifestFragment(Source{URL: srv.URL, Token: "abc123"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Fatalf("expected bearer header sent, got %q", gotAuth)
	}
	if len(data) == 0 {
		t.Fatal("expected body bytes returned")
	}
}

func TestFetchManifestFragmentRejectsInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be contacted when token validation fails")
	}))
	defer srv.Close()

	validator := &TokenValidator{SigningKey: []byte("secret")}
	_, err := FetchManifestFragment(Source{URL: srv.URL, Token: "not-a-jwt"}, validator)
	if err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestFetchManifestFragmentNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := FetchManifestFragment(Source{URL: srv.URL}, nil); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
