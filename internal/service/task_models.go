package service

import (
	"time"

	"todoapi/internal/entity"
)

type TodoInput struct {
	ID          uint
	Title       string
	Description string
	Status      entity.TaskStatus
	DueOn       *time.Time
}

type SubTaskInput struct {
	ID     uint
	TodoID uint
	Title  string
	Status entity.TaskStatus
}

type NotificationInput struct {
	ID      uint
	UserID  uint
	TodoID  uint
	Message string
	IsRead  bool
}
