package security

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, errNew := NewCodec("test-secret")
	if errNew != nil {
		t.Fatalf("new codec: %v", errNew)
	}
	return codec
}

func TestNewCodec_RejectsEmptySecret(t *testing.T) {
	if _, errNew := NewCodec("   "); errNew == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestCodec_SignVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	token, errSign := codec.Sign(AudienceUser, "u1", time.Minute)
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}
	claims, errVerify := codec.Verify(token)
	if errVerify != nil {
		t.Fatalf("verify: %v", errVerify)
	}
	if claims.Type != AudienceUser || claims.Subject != "u1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestCodec_VerifyExpired(t *testing.T) {
	codec := newTestCodec(t)
	token, errSign := codec.Sign(AudienceUser, "u1", -time.Minute)
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}
	if _, errVerify := codec.Verify(token); !errors.Is(errVerify, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", errVerify)
	}
}

func TestCodec_VerifyWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, errNew := NewCodec("different-secret")
	if errNew != nil {
		t.Fatalf("new codec: %v", errNew)
	}
	token, errSign := other.Sign(AudienceAdmin, "admin", time.Minute)
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}
	if _, errVerify := codec.Verify(token); !errors.Is(errVerify, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", errVerify)
	}
}

func TestTokenFromRequest_HeaderWinsOverCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "/models", nil)
	req.Header.Set("Authorization", "bearer header-token")
	req.Header.Set("Cookie", UserSessionCookie+"=cookie-token")
	if got := TokenFromRequest(req, UserSessionCookie); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}
}

func TestTokenFromRequest_CookieFallback(t *testing.T) {
	req := httptest.NewRequest("GET", "/models", nil)
	req.Header.Set("Cookie", "other=1; "+UserSessionCookie+"= cookie-token ; broken")
	if got := TokenFromRequest(req, UserSessionCookie); got != "cookie-token" {
		t.Fatalf("expected cookie token, got %q", got)
	}
}

func TestTokenFromRequest_MalformedSegmentsIgnored(t *testing.T) {
	req := httptest.NewRequest("GET", "/models", nil)
	req.Header.Set("Cookie", "=orphan; ;;"+AdminSessionCookie+"=tok")
	if got := TokenFromRequest(req, AdminSessionCookie); got != "tok" {
		t.Fatalf("expected token from valid segment, got %q", got)
	}
}

func TestTokenFromRequest_Absent(t *testing.T) {
	req := httptest.NewRequest("GET", "/models", nil)
	if got := TokenFromRequest(req, UserSessionCookie); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
