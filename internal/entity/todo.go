package entity

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type Todo struct {
	Base
	Title       string     `gorm:"type:varchar(200);not null"`
	Description string     `gorm:"type:varchar(1000);not null;default:''"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'todo'"`
	DueOn       *time.Time `gorm:"type:date"`

	UserID uint `gorm:"not null;index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	SubTasks []SubTask
}

type SubTask struct {
	Base
	Title  string     `gorm:"type:varchar(200);not null"`
	Status TaskStatus `gorm:"type:varchar(20);not null;default:'todo'"`

	TodoID uint `gorm:"not null;index"`
	Todo   Todo `gorm:"constraint:OnDelete:CASCADE"`
}
