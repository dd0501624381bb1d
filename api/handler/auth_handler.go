package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"todoapi/internal/dto"
	"todoapi/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{Service: svc, Validate: validate}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	result, err := h.Service.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.RegisterResponse{ID: result.ID, Name: result.Name})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req dto.VerifyEmailRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	result, err := h.Service.VerifyEmail(c.Request().Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, service.ErrCodeExpired):
		return c.JSON(http.StatusBadRequest, dto.VerifyEmailResponse{Message: "Verification code has expired. Please request a new one."})
	case errors.Is(err, service.ErrInvalidCode):
		return c.JSON(http.StatusBadRequest, dto.VerifyEmailResponse{Message: "Invalid verification code."})
	case err != nil:
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.VerifyEmailResponse{Success: result.Success, Message: result.Message})
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req dto.ResendVerificationRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	result, err := h.Service.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		var limited *service.RateLimitedError
		if errors.As(err, &limited) {
			seconds := int(math.Ceil(limited.RetryAfter.Seconds()))
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			return c.JSON(http.StatusTooManyRequests, dto.ResendVerificationResponse{
				Message: "Please wait " + strconv.Itoa(seconds) + " seconds before requesting another code.",
			})
		}
		return writeServiceError(c, err)
	}

	status := http.StatusOK
	if !result.Sent && !result.AlreadyConfirmed {
		status = http.StatusBadRequest
	}
	return c.JSON(status, dto.ResendVerificationResponse{Sent: result.Sent, Message: result.Message})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	result, err := h.Service.Login(c.Request().Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.LoginResponse{
		Token:        result.Token,
		ExpiresAtUTC: result.ExpiresAtUTC,
		UserID:       result.UserID,
		Username:     result.Username,
	})
}
