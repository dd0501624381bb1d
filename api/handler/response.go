package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"todoapi/api/middleware"
	"todoapi/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// bind decodes and validates a JSON body, writing the 400 itself on failure.
func bind(c echo.Context, validate *validator.Validate, target any) (bool, error) {
	if err := decodeJSON(c, target); err != nil {
		return false, writeError(c, http.StatusBadRequest, err)
	}
	if validate != nil {
		if err := validate.Struct(target); err != nil {
			return false, writeError(c, http.StatusBadRequest, err)
		}
	}
	return true, nil
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrEmailNotConfirmed):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, service.ErrEmailDeliveryFailed):
		status = http.StatusBadGateway
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, map[string]string{"message": "internal server error"})
	}
	return writeError(c, status, err)
}

func currentUserID(c echo.Context) (uint, error) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}
