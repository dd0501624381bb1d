package dto

import (
	"time"

	"todoapi/internal/entity"
)

const DateLayout = "2006-01-02"

type CreateTodoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	ToDoAt      string `json:"toDoAt" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateTodoRequest struct {
	ID          uint   `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Status      string `json:"status" validate:"required,oneof=todo in_progress done"`
	ToDoAt      string `json:"toDoAt" validate:"omitempty,datetime=2006-01-02"`
}

type TodoResponse struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      entity.TaskStatus `json:"status"`
	ToDoAt      *string           `json:"toDoAt"`
	UserID      uint              `json:"userId"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	SubTasks    []SubTaskResponse `json:"subTasks"`
}

type CreateSubTaskRequest struct {
	ToDoID uint   `json:"toDoId" validate:"required"`
	Title  string `json:"title" validate:"required,max=200"`
}

type UpdateSubTaskRequest struct {
	ID     uint   `json:"id" validate:"required"`
	Title  string `json:"title" validate:"required,max=200"`
	Status string `json:"status" validate:"required,oneof=todo in_progress done"`
}

type SubTaskResponse struct {
	ID        uint              `json:"id"`
	ToDoID    uint              `json:"toDoId"`
	ToDoTitle string            `json:"toDoTitle,omitempty"`
	Title     string            `json:"title"`
	Status    entity.TaskStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type CreateNotificationRequest struct {
	UserID  uint   `json:"userId" validate:"required"`
	ToDoID  uint   `json:"toDoId" validate:"required"`
	Message string `json:"message" validate:"required,max=500"`
}

type UpdateNotificationRequest struct {
	ID      uint   `json:"id" validate:"required"`
	Message string `json:"message" validate:"required,max=500"`
	IsRead  bool   `json:"isRead"`
}

type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	ToDoID    uint      `json:"toDoId"`
	ToDoTitle string    `json:"toDoTitle,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type MarkAllAsReadResponse struct {
	Updated int `json:"updated"`
}

// ParseDate reads an optional yyyy-mm-dd date.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func NewTodoResponse(t entity.Todo) TodoResponse {
	resp := TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		SubTasks:    make([]SubTaskResponse, 0, len(t.SubTasks)),
	}
	if t.DueOn != nil {
		day := t.DueOn.UTC().Format(DateLayout)
		resp.ToDoAt = &day
	}
	for _, st := range t.SubTasks {
		resp.SubTasks = append(resp.SubTasks, NewSubTaskResponse(st))
	}
	return resp
}

func NewTodoResponses(todos []entity.Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, NewTodoResponse(t))
	}
	return out
}

func NewSubTaskResponse(st entity.SubTask) SubTaskResponse {
	return SubTaskResponse{
		ID:        st.ID,
		ToDoID:    st.TodoID,
		ToDoTitle: st.Todo.Title,
		Title:     st.Title,
		Status:    st.Status,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func NewSubTaskResponses(subTasks []entity.SubTask) []SubTaskResponse {
	out := make([]SubTaskResponse, 0, len(subTasks))
	for _, st := range subTasks {
		out = append(out, NewSubTaskResponse(st))
	}
	return out
}

func NewNotificationResponse(n entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		ToDoID:    n.TodoID,
		ToDoTitle: n.Todo.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func NewNotificationResponses(list []entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NewNotificationResponse(n))
	}
	return out
}
