package handler

import (
	"errors"
	"net/http"
	"time"

	"todoapi/internal/dto"
	"todoapi/internal/entity"
	"todoapi/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type TodoHandler struct {
	Service  *service.TodoService
	Validate *validator.Validate
}

func NewTodoHandler(svc *service.TodoService, validate *validator.Validate) *TodoHandler {
	return &TodoHandler{Service: svc, Validate: validate}
}

func (h *TodoHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	todos, err := h.Service.List(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewTodoResponses(todos))
}

func (h *TodoHandler) ListByStatus(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	todos, err := h.Service.ListByStatus(c.Request().Context(), userID, entity.TaskStatus(c.Param("status")))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewTodoResponses(todos))
}

func (h *TodoHandler) ListForDate(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	date, err := time.Parse(dto.DateLayout, c.Param("date"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("date must be formatted as yyyy-mm-dd"))
	}
	todos, err := h.Service.ListForDate(c.Request().Context(), userID, date)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewTodoResponses(todos))
}

func (h *TodoHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	todo, err := h.Service.Get(c.Request().Context(), id, userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewTodoResponse(*todo))
}

func (h *TodoHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTodoRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	due, err := dto.ParseDate(req.ToDoAt)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	todo, err := h.Service.Create(c.Request().Context(), userID, service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		DueOn:       due,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewTodoResponse(*todo))
}

func (h *TodoHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	var req dto.UpdateTodoRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	if req.ID != id {
		return writeError(c, http.StatusBadRequest, errors.New("id mismatch"))
	}
	due, err := dto.ParseDate(req.ToDoAt)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	todo, err := h.Service.Update(c.Request().Context(), userID, service.TodoInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      entity.TaskStatus(req.Status),
		DueOn:       due,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewTodoResponse(*todo))
}

func (h *TodoHandler) Delete(c echo.Context) error {
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
