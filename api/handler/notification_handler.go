package handler

import (
	"errors"
	"net/http"
	"strconv"

	"todoapi/internal/dto"
	"todoapi/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	Service  *service.NotificationService
	Validate *validator.Validate
}

func NewNotificationHandler(svc *service.NotificationService, validate *validator.Validate) *NotificationHandler {
	return &NotificationHandler{Service: svc, Validate: validate}
}

// List accepts an optional ?isRead=true|false filter.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var isRead *bool
	if raw := c.QueryParam("isRead"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, http.StatusBadRequest, errors.New("isRead must be true or false"))
		}
		isRead = &v
	}
	list, err := h.Service.List(c.Request().Context(), userID, isRead)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewNotificationResponses(list))
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	count, err := h.Service.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	n, err := h.Service.Get(c.Request().Context(), id, userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewNotificationResponse(*n))
}

func (h *NotificationHandler) Create(c echo.Context) error {
	var req dto.CreateNotificationRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	n, err := h.Service.Create(c.Request().Context(), service.NotificationInput{
		UserID:  req.UserID,
		TodoID:  req.ToDoID,
		Message: req.Message,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewNotificationResponse(*n))
}

func (h *NotificationHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	var req dto.UpdateNotificationRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	if req.ID != id {
		return writeError(c, http.StatusBadRequest, errors.New("id mismatch"))
	}
	n, err := h.Service.Update(c.Request().Context(), userID, service.NotificationInput{
		ID:      id,
		Message: req.Message,
		IsRead:  req.IsRead,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewNotificationResponse(*n))
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.MarkAsRead(c.Request().Context(), id, userID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	updated, err := h.Service.MarkAllAsRead(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MarkAllAsReadResponse{Updated: updated})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.Delete(c.Request().Context(), id, userID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
