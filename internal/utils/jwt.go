package utils // package utils provides helpers for session tokens, hashing and randomness

import (
    "crypto/rand"  // secure random number generation
    "encoding/hex" // hex encoding of random bytes
    "errors"       // sentinel for rejected tokens
    "time"         // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned for every token that cannot be trusted:
// malformed, signed with another key or algorithm, missing exp, or expired.
// Callers are not told which of these it was.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims is the payload of every storefront token.  UserID is always
// present; Role is only set on admin tokens.
type SessionClaims struct {
    UserID uint64 `json:"user_id"`
    Role   string `json:"role,omitempty"`
    jwt.RegisteredClaims
}

// SessionToken is a signed token together with its expiry.
type SessionToken struct {
    Token string
    Exp   time.Time
}

// IssueSessionToken builds and signs an HS256 JWT carrying the user id and,
// for admins, the role.  exp and iat are set from now and ttl.
func IssueSessionToken(secret string, userID uint64, role string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := SessionClaims{
        UserID: userID,
        Role:   role,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns its
// claims.  Any failure collapses into ErrInvalidToken.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
    claims := &SessionClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
    )
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// RandomHex returns a hex string generated from n bytes of cryptographically
// secure random data.
func RandomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
