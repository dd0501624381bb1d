package service

import (
	"context"
	"fmt"
	"strings"

	"todoapi/internal/entity"
	"todoapi/internal/repository"

	"github.com/sirupsen/logrus"
)

type SubTaskService struct {
	subTasks *repository.GenericRepository[entity.SubTask]
	todos    *repository.GenericRepository[entity.Todo]
	log      logrus.FieldLogger
}

func NewSubTaskService(
	subTasks *repository.GenericRepository[entity.SubTask],
	todos *repository.GenericRepository[entity.Todo],
	log logrus.FieldLogger,
) *SubTaskService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SubTaskService{subTasks: subTasks, todos: todos, log: log.WithField("component", "subtasks")}
}

// subTaskOwnedBy limits sub tasks to those whose live parent todo belongs to userID.
func subTaskOwnedBy(userID uint) repository.Filter {
	return repository.Joins(
		"JOIN todos ON todos.id = sub_tasks.todo_id AND todos.user_id = ? AND todos.is_deleted = ?",
		userID, false,
	)
}

func (s *SubTaskService) todoOwned(ctx context.Context, todoID uint, userID uint) error {
	ok, err := s.todos.Any(ctx, repository.Where("id = ? AND user_id = ?", todoID, userID))
	if err != nil {
		return fmt.Errorf("check todo %d: %w", todoID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *SubTaskService) ListByTodo(ctx context.Context, todoID uint, userID uint) ([]entity.SubTask, error) {
	if err := s.todoOwned(ctx, todoID, userID); err != nil {
		return nil, err
	}
	subTasks, err := s.subTasks.GetManyByFilter(ctx, repository.All(
		repository.Where("todo_id = ?", todoID),
		repository.OrderBy("created_at, id"),
	))
	if err != nil {
		return nil, fmt.Errorf("list sub tasks: %w", err)
	}
	return subTasks, nil
}

func (s *SubTaskService) Get(ctx context.Context, id uint, userID uint) (*entity.SubTask, error) {
	subTask, err := s.subTasks.GetOneByFilter(ctx, repository.All(
		subTaskOwnedBy(userID),
		repository.Where("sub_tasks.id = ?", id),
	), "Todo")
	if err != nil {
		return nil, fmt.Errorf("get sub task %d: %w", id, err)
	}
	if subTask == nil {
		return nil, ErrNotFound
	}
	return subTask, nil
}

func (s *SubTaskService) Create(ctx context.Context, userID uint, input SubTaskInput) (*entity.SubTask, error) {
	title := strings.TrimSpace(input.Title)
	if input.TodoID == 0 || title == "" || len(title) > 200 {
		return nil, ErrInvalidInput
	}
	if err := s.todoOwned(ctx, input.TodoID, userID); err != nil {
		return nil, err
	}

	subTask := &entity.SubTask{
		Title:  title,
		Status: entity.TaskStatusTodo,
		TodoID: input.TodoID,
	}
	if err := s.subTasks.Add(ctx, subTask); err != nil {
		return nil, fmt.Errorf("create sub task: %w", err)
	}
	s.log.WithFields(logrus.Fields{"sub_task_id": subTask.ID, "todo_id": input.TodoID}).Info("sub task created")
	return s.Get(ctx, subTask.ID, userID)
}

func (s *SubTaskService) Update(ctx context.Context, userID uint, input SubTaskInput) (*entity.SubTask, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > 200 || !input.Status.Valid() {
		return nil, ErrInvalidInput
	}
	subTask, err := s.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	subTask.Title = title
	subTask.Status = input.Status
	if err := s.subTasks.Update(ctx, subTask); err != nil {
		return nil, fmt.Errorf("update sub task %d: %w", subTask.ID, err)
	}
	return subTask, nil
}

func (s *SubTaskService) Delete(ctx context.Context, id uint, userID uint) error {
	subTask, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.subTasks.Delete(ctx, subTask, true); err != nil {
		return fmt.Errorf("delete sub task %d: %w", id, err)
	}
	s.log.WithField("sub_task_id", id).Info("sub task deleted")
	return nil
}
