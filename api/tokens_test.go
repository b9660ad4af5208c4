package main

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	tokenStr, err := generateToken(testSecret, 42, tokenTypeAccess, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := parseToken(testSecret, tokenStr, tokenTypeAccess)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 {
		t.Errorf("user id = %d, want 42", claims.UserID)
	}
	if claims.TokenType != tokenTypeAccess {
		t.Errorf("token type = %q, want %q", claims.TokenType, tokenTypeAccess)
	}
	if claims.ID == "" {
		t.Error("token has no jti")
	}
}

func TestParseTokenRejectsWrongType(t *testing.T) {
	tokenStr, err := generateToken(testSecret, 42, tokenTypeRefresh, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	// A refresh token must not pass as an access token and vice versa.
	if _, err := parseToken(testSecret, tokenStr, tokenTypeAccess); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tokenStr, err := generateToken(testSecret, 42, tokenTypeAccess, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseToken("another-secret", tokenStr, tokenTypeAccess); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tokenStr, err := generateToken(testSecret, 42, tokenTypeAccess, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseToken(testSecret, tokenStr, tokenTypeAccess); err == nil {
		t.Error("expired token accepted")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := parseToken(testSecret, "not.a.token", tokenTypeAccess); err == nil {
		t.Error("malformed token accepted")
	}
}

func TestGenerateTokenPair(t *testing.T) {
	pair, err := generateTokenPair(testSecret, 7)
	if err != nil {
		t.Fatal(err)
	}
	access, err := parseToken(testSecret, pair.Access, tokenTypeAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	refresh, err := parseToken(testSecret, pair.Refresh, tokenTypeRefresh)
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if access.UserID != 7 || refresh.UserID != 7 {
		t.Error("token pair issued for the wrong user")
	}
	if access.ID == refresh.ID {
		t.Error("access and refresh tokens share a jti")
	}
}

func TestRotateRefreshToken(t *testing.T) {
	app := &application{blacklist: newTokenBlacklist()}
	app.config.jwt.secret = testSecret

	refresh, err := generateToken(testSecret, 42, tokenTypeRefresh, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := parseToken(testSecret, refresh, tokenTypeRefresh)
	if err != nil {
		t.Fatal(err)
	}

	pair, err := app.rotateRefreshToken(claims)
	if err != nil {
		t.Fatal(err)
	}
	if !app.blacklist.isRevoked(claims.ID) {
		t.Error("old refresh token not revoked after rotation")
	}
	newClaims, err := parseToken(testSecret, pair.Refresh, tokenTypeRefresh)
	if err != nil {
		t.Fatalf("rotated refresh token: %v", err)
	}
	if newClaims.UserID != 42 {
		t.Errorf("rotated pair issued for user %d, want 42", newClaims.UserID)
	}
	if app.blacklist.isRevoked(newClaims.ID) {
		t.Error("freshly issued refresh token already revoked")
	}

	// Reusing the rotated-away token must fail without revoking
	// anything new.
	if _, err := app.rotateRefreshToken(claims); !errors.Is(err, errInvalidToken) {
		t.Errorf("second rotation with the same token: err = %v, want errInvalidToken", err)
	}
}

func TestBlacklistRevoke(t *testing.T) {
	b := newTokenBlacklist()
	expiresAt := time.Now().Add(time.Hour)

	if b.isRevoked("jti-1") {
		t.Error("fresh blacklist reports a token as revoked")
	}
	if !b.revoke("jti-1", expiresAt) {
		t.Error("first revoke returned false")
	}
	if !b.isRevoked("jti-1") {
		t.Error("revoked token not reported as revoked")
	}
	// Rotation must be one-shot: a second revoke of the same jti fails.
	if b.revoke("jti-1", expiresAt) {
		t.Error("second revoke of the same jti returned true")
	}
	if b.isRevoked("jti-2") {
		t.Error("unrelated jti reported as revoked")
	}
}
