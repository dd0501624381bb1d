package handler

import (
	"errors"
	"net/http"

	"todoapi/internal/dto"
	"todoapi/internal/entity"
	"todoapi/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type SubTaskHandler struct {
	Service  *service.SubTaskService
	Validate *validator.Validate
}

func NewSubTaskHandler(svc *service.SubTaskService, validate *validator.Validate) *SubTaskHandler {
	return &SubTaskHandler{Service: svc, Validate: validate}
}

func (h *SubTaskHandler) ListByTodo(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	todoID, err := pathID(c, "todoId")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	subTasks, err := h.Service.ListByTodo(c.Request().Context(), todoID, userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSubTaskResponses(subTasks))
}

func (h *SubTaskHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	subTask, err := h.Service.Get(c.Request().Context(), id, userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSubTaskResponse(*subTask))
}

func (h *SubTaskHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateSubTaskRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	subTask, err := h.Service.Create(c.Request().Context(), userID, service.SubTaskInput{TodoID: req.ToDoID, Title: req.Title})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewSubTaskResponse(*subTask))
}

func (h *SubTaskHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	var req dto.UpdateSubTaskRequest
	if ok, err := bind(c, h.Validate, &req); !ok {
		return err
	}
	if req.ID != id {
		return writeError(c, http.StatusBadRequest, errors.New("id mismatch"))
	}
	subTask, err := h.Service.Update(c.Request().Context(), userID, service.SubTaskInput{
		ID:     id,
		Title:  req.Title,
		Status: entity.TaskStatus(req.Status),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSubTaskResponse(*subTask))
}

func (h *SubTaskHandler) Delete(c echo.Context) error {
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
