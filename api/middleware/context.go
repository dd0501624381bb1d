package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey   = "auth_user_id"
	contextUserNameKey = "auth_user_name"
	contextRolesKey    = "auth_roles"
)

func SetAuthContext(c echo.Context, userID uint, userName string, roles []string) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextUserNameKey, userName)
	c.Set(contextRolesKey, roles)
}

func UserIDFromContext(c echo.Context) (uint, bool) {
	userID, ok := c.Get(contextUserIDKey).(uint)
	return userID, ok && userID != 0
}

func UserNameFromContext(c echo.Context) string {
	name, _ := c.Get(contextUserNameKey).(string)
	return name
}

func RolesFromContext(c echo.Context) []string {
	roles, _ := c.Get(contextRolesKey).([]string)
	return roles
}

func HasRole(c echo.Context, role string) bool {
	return slices.Contains(RolesFromContext(c), role)
}
