package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	accessTokenLifetime  = time.Hour
	refreshTokenLifetime = 7 * 24 * time.Hour
)

var errInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func generateTokenPair(secret string, userID int) (*tokenPair, error) {
	access, err := generateToken(secret, userID, tokenTypeAccess, accessTokenLifetime)
	if err != nil {
		return nil, err
	}
	refresh, err := generateToken(secret, userID, tokenTypeRefresh, refreshTokenLifetime)
	if err != nil {
		return nil, err
	}
	return &tokenPair{Access: access, Refresh: refresh}, nil
}

func generateToken(secret string, userID int, tokenType string, lifetime time.Duration) (string, error) {
	jti := make([]byte, 16)
	_, err := rand.Read(jti)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := &tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        hex.EncodeToString(jti),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// rotateRefreshToken issues a replacement pair and then revokes the
// presented refresh token. Generation happens first so a failure can't
// burn the old token with nothing issued; revocation stays one-shot so
// concurrent refreshes with the same token can't both rotate it.
func (app *application) rotateRefreshToken(claims *tokenClaims) (*tokenPair, error) {
	pair, err := generateTokenPair(app.config.jwt.secret, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !app.blacklist.revoke(claims.ID, claims.ExpiresAt.Time) {
		return nil, errInvalidToken
	}
	return pair, nil
}

// parseToken verifies the signature, expiry and token type.
func parseToken(secret, tokenStr, wantType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, errInvalidToken
	}
	return claims, nil
}

// tokenBlacklist remembers revoked refresh token IDs until their
// natural expiry. A janitor goroutine prunes expired entries.
type tokenBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func newTokenBlacklist() *tokenBlacklist {
	b := &tokenBlacklist{
		entries: make(map[string]time.Time),
	}
	go func(b *tokenBlacklist) {
		ticker := time.NewTicker(time.Minute)
		for {
			<-ticker.C
			func() {
				b.mu.Lock()
				defer b.mu.Unlock()
				for jti, expiresAt := range b.entries {
					if time.Now().After(expiresAt) {
						delete(b.entries, jti)
					}
				}
			}()
		}
	}(b)
	return b
}

// revoke blacklists a token ID. It returns false if the ID was already
// revoked; check and insert happen under one lock so concurrent refresh
// calls with the same token can't both rotate it.
func (b *tokenBlacklist) revoke(jti string, expiresAt time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[jti]; ok {
		return false
	}
	b.entries[jti] = expiresAt
	return true
}

func (b *tokenBlacklist) isRevoked(jti string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[jti]
	return ok
}
