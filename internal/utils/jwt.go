package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for stored session tokens
	"encoding/hex"  // hex encoding for digests
	"strconv"       // numeric subject <-> string conversion
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// TokenSettings carries everything needed to issue and verify access
// tokens: the symmetric signing key, the issuer and audience stamped into
// every token and required back at validation time, and the token
// lifetime.
type TokenSettings struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// AccessClaims is the claim set carried by an access token.  Beyond the
// registered claims it records the user's email, display name and every
// role assigned at login time; the role middleware authorizes requests
// from Roles alone, without a database round trip.
type AccessClaims struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The subject is
// the user id, the expiry is TTL (three hours by default) past issuance,
// and issuer/audience come from the settings.
func NewAccessToken(s TokenSettings, userID uint64, email, name string, roles []string) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(s.TTL)
	claims := AccessClaims{
		Email: email,
		Name:  name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    s.Issuer,
			Audience:  jwt.ClaimStrings{s.Audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.Secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, signing method, issuer, audience and
// expiry, returning the decoded claims on success.
func ParseAccessToken(s TokenSettings, raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithAudience(s.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// UserID extracts the numeric subject from the claims.
func (c *AccessClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// HashSessionToken returns the SHA-256 hash of an issued token as a hex
// string.  Only the hash is persisted, so a leaked sessions table cannot
// be replayed as bearer credentials.
func HashSessionToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
