// Package main provides the StructDB task service: an HTTP JSON API over a
// federated store.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	// Enabled enables authentication. If false, every request is allowed.
	Enabled bool

	// JWTSecret is the shared secret for HS256 JWT validation.
	JWTSecret string

	// Issuer is the expected "iss" claim (optional).
	Issuer string

	// Audience is the expected "aud" claim (optional).
	Audience string
}

// Principal identifies an authenticated caller.
type Principal struct {
	Name  string
	Email string
}

// authenticate validates the Authorization header and returns the caller's
// principal.
func (c *AuthConfig) authenticate(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Principal{}, errors.New("missing Authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Principal{}, errors.New("expected Bearer token")
	}
	return c.validateJWT(token)
}

// validateJWT validates a JWT and extracts identity claims.
func (c *AuthConfig) validateJWT(tokenString string) (Principal, error) {
	if c.JWTSecret == "" {
		return Principal{}, errors.New("no JWT secret configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(c.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid token claims")
	}

	if c.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != c.Issuer {
			return Principal{}, fmt.Errorf("invalid issuer: expected %s, got %s", c.Issuer, issuer)
		}
	}

	if c.Audience != "" {
		audiences, _ := claims.GetAudience()
		found := false
		for _, aud := range audiences {
			if aud == c.Audience {
				found = true
				break
			}
		}
		if !found {
			return Principal{}, fmt.Errorf("invalid audience: expected %s", c.Audience)
		}
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	if name == "" && email == "" {
		return Principal{}, errors.New("token missing identity claims (name or email)")
	}

	return Principal{Name: name, Email: email}, nil
}
