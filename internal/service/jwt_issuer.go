package service

import (
	"errors"
	"time"

	"todoapi/internal/entity"
	"todoapi/internal/utils"
)

var errIssuerNotConfigured = errors.New("token issuer not configured")

type JWTTokenIssuer struct {
	Manager *utils.JWTManager
	Clock   Clock
}

func (j JWTTokenIssuer) now() time.Time {
	if j.Clock == nil {
		return time.Now()
	}
	return j.Clock.Now()
}

func (j JWTTokenIssuer) Issue(user entity.User, roles []string) (string, time.Time, error) {
	if j.Manager == nil {
		return "", time.Time{}, errIssuerNotConfigured
	}
	return j.Manager.IssueAccessToken(user.ID, user.Username, roles, j.now())
}

func (j JWTTokenIssuer) Expiry() time.Time {
	if j.Manager == nil {
		return time.Time{}
	}
	return j.Manager.ExpiryFrom(j.now())
}
