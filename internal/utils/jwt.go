package utils // helper functions for token creation and verification

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT together with its expiry.  The token
// carries the user's identity claims and is presented as a bearer
// credential on protected endpoints and, best-effort, on the realtime
// channel.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenIdentity is the set of identity claims embedded in every access
// token: the numeric account id plus the display name used as the
// principal everywhere else in the system.
type TokenIdentity struct {
	UserID uint64
	Name   string
	Email  string
}

// ErrInvalidToken is returned when a token fails parsing, signature
// verification or carries malformed claims.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user.  Claims: sub
// (user id), name, email, exp and iat.  The TTL is expressed in days to
// match the long-lived sessions the application uses.
func NewAccessToken(secret string, id TokenIdentity, ttlDays int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   id.UserID,
		"name":  id.Name,
		"email": id.Email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies an HS256 JWT and extracts the identity claims.  Any
// signature, algorithm or claim-shape problem is reported as
// ErrInvalidToken so callers can treat all failures uniformly.
func ParseToken(secret, raw string) (TokenIdentity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenIdentity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenIdentity{}, ErrInvalidToken
	}
	var id TokenIdentity
	switch sub := claims["sub"].(type) {
	case float64:
		id.UserID = uint64(sub)
	case string:
		if parsed, err := strconv.ParseUint(sub, 10, 64); err == nil {
			id.UserID = parsed
		}
	}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if id.Name == "" {
		return TokenIdentity{}, ErrInvalidToken
	}
	return id, nil
}
