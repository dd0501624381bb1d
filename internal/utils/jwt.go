package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const parseLeeway = 30 * time.Second

type JWTManager struct {
	Secret         []byte
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
	// Now overrides the clock used when validating tokens. Defaults to time.Now.
	Now func() time.Time
}

type AccessClaims struct {
	UserID   uint     `json:"UserID"`
	UserName string   `json:"UserName"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (m JWTManager) ttl() time.Duration {
	if m.AccessTokenTTL <= 0 {
		return 60 * time.Minute
	}
	return m.AccessTokenTTL
}

// ExpiryFrom is the expiry a token issued at now would carry.
func (m JWTManager) ExpiryFrom(now time.Time) time.Time {
	return now.UTC().Truncate(time.Second).Add(m.ttl())
}

func (m JWTManager) IssueAccessToken(userID uint, userName string, roles []string, now time.Time) (string, time.Time, error) {
	if len(m.Secret) == 0 {
		return "", time.Time{}, errors.New("jwt: empty signing key")
	}

	issuedAt := now.UTC().Truncate(time.Second)
	expiresAt := m.ExpiryFrom(now)
	claims := AccessClaims{
		UserID:   userID,
		UserName: userName,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m JWTManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(parseLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	if m.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.Audience))
	}
	if m.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(m.Now))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
