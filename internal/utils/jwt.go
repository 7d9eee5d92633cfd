package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // errors.Is distinguishes expiry from other verification failures
    "fmt"    // fmt formats parse failures
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // unique jti per issued token
)

// ErrTokenExpired reports that a token's signature was valid but its exp
// claim has passed.  Callers collapse this into the same client-facing
// response as any other verification failure; the distinction exists for
// logging only.
var ErrTokenExpired = errors.New("token expired")

// Token represents a signed HS256 JWT along with its expiry.  The Value
// field contains the serialized JWT string.  Exp stores the expiration
// timestamp as a time.Time and doubles as the cookie lifetime.
type Token struct {
    Value string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// TokenPair bundles the two credentials issued on signup and login: a
// short-lived access token and a longer-lived refresh token, each signed
// with its own secret.  The refresh token is additionally persisted
// server-side so that a presented token can be compared against the one
// currently on record.
type TokenPair struct {
    Access  Token
    Refresh Token
}

// IssueTokenPair builds and signs both tokens for a user.  Access tokens
// are signed with accessSecret and live ttlMin minutes; refresh tokens are
// signed with refreshSecret and live ttlDays days.  Issuance is a pure
// function of its inputs: it performs no I/O and cannot fail unless a
// secret is empty, which configuration loading already rules out.
func IssueTokenPair(accessSecret, refreshSecret string, userID uint64, ttlMin, ttlDays int) (TokenPair, error) {
    access, err := sign(accessSecret, userID, time.Duration(ttlMin)*time.Minute)
    if err != nil {
        return TokenPair{}, err
    }
    refresh, err := sign(refreshSecret, userID, time.Duration(ttlDays)*24*time.Hour)
    if err != nil {
        return TokenPair{}, err
    }
    return TokenPair{Access: access, Refresh: refresh}, nil
}

// NewAccessToken signs a standalone access token.  The refresh flow uses
// this to hand out a fresh access credential without rotating the refresh
// token on record.
func NewAccessToken(secret string, userID uint64, ttlMin int) (Token, error) {
    return sign(secret, userID, time.Duration(ttlMin)*time.Minute)
}

// sign builds an HS256 JWT carrying the user ID as the subject claim plus
// the standard exp, iat and jti claims.  The jti makes every issued token
// distinct even within the same second, which the refresh flow's exact
// string comparison relies on to tell a superseded token from the live one.
func sign(secret string, userID uint64, ttl time.Duration) (Token, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
        "jti": uuid.NewString(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return Token{}, err
    }
    return Token{Value: signed, Exp: exp}, nil
}

// ParseSubject verifies a token's signature and expiry against the given
// secret and returns the user ID from its subject claim.  Expired tokens
// return ErrTokenExpired so callers can log the failure mode; any other
// problem (tampering, wrong algorithm, wrong secret) returns a generic
// parse error.
func ParseSubject(secret, raw string) (uint64, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Only HMAC-signed tokens are ever issued; reject anything else.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return 0, ErrTokenExpired
        }
        return 0, fmt.Errorf("parse token: %w", err)
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return 0, errors.New("invalid token claims")
    }
    // Numeric JSON claims decode as float64.
    sub, ok := claims["sub"].(float64)
    if !ok {
        return 0, errors.New("missing subject claim")
    }
    return uint64(sub), nil
}
