package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todoapi/internal/entity"
	"todoapi/internal/repository"

	"github.com/sirupsen/logrus"
)

const newestFirst = "created_at DESC, id DESC"

type TodoService struct {
	todos *repository.GenericRepository[entity.Todo]
	users *repository.GenericRepository[entity.User]
	clock Clock
	log   logrus.FieldLogger
}

func NewTodoService(
	todos *repository.GenericRepository[entity.Todo],
	users *repository.GenericRepository[entity.User],
	clock Clock,
	log logrus.FieldLogger,
) *TodoService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TodoService{todos: todos, users: users, clock: clock, log: log.WithField("component", "todos")}
}

func ownedBy(userID uint) repository.Filter {
	return repository.Where("user_id = ?", userID)
}

func (s *TodoService) List(ctx context.Context, userID uint) ([]entity.Todo, error) {
	todos, err := s.todos.GetManyByFilter(ctx, repository.All(ownedBy(userID), repository.OrderBy(newestFirst)), "SubTasks")
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoService) ListByStatus(ctx context.Context, userID uint, status entity.TaskStatus) ([]entity.Todo, error) {
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	todos, err := s.todos.GetManyByFilter(ctx, repository.All(
		ownedBy(userID),
		repository.Where("status = ?", status),
		repository.OrderBy(newestFirst),
	), "SubTasks")
	if err != nil {
		return nil, fmt.Errorf("list todos by status: %w", err)
	}
	return todos, nil
}

// ListForDate returns the todos due on the calendar day of date.
func (s *TodoService) ListForDate(ctx context.Context, userID uint, date time.Time) ([]entity.Todo, error) {
	day := truncateDay(date)
	todos, err := s.todos.GetManyByFilter(ctx, repository.All(
		ownedBy(userID),
		repository.Where("due_on >= ? AND due_on < ?", day, day.AddDate(0, 0, 1)),
		repository.OrderBy(newestFirst),
	), "SubTasks")
	if err != nil {
		return nil, fmt.Errorf("list todos for date: %w", err)
	}
	return todos, nil
}

func (s *TodoService) Get(ctx context.Context, id uint, userID uint) (*entity.Todo, error) {
	todo, err := s.todos.GetOneByFilter(ctx, repository.All(repository.Where("id = ?", id), ownedBy(userID)), "SubTasks")
	if err != nil {
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	if todo == nil {
		return nil, ErrNotFound
	}
	return todo, nil
}

func (s *TodoService) Exists(ctx context.Context, id uint, userID uint) (bool, error) {
	return s.todos.Any(ctx, repository.All(repository.Where("id = ?", id), ownedBy(userID)))
}

func (s *TodoService) Create(ctx context.Context, userID uint, input TodoInput) (*entity.Todo, error) {
	if err := s.validate(input, false); err != nil {
		return nil, err
	}
	exists, err := s.users.Any(ctx, repository.Where("id = ?", userID))
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	todo := &entity.Todo{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      entity.TaskStatusTodo,
		DueOn:       dayPtr(input.DueOn),
		UserID:      userID,
	}
	if err := s.todos.Add(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	s.log.WithFields(logrus.Fields{"todo_id": todo.ID, "user_id": userID}).Info("todo created")
	return s.Get(ctx, todo.ID, userID)
}

func (s *TodoService) Update(ctx context.Context, userID uint, input TodoInput) (*entity.Todo, error) {
	if err := s.validate(input, true); err != nil {
		return nil, err
	}
	todo, err := s.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	todo.Title = strings.TrimSpace(input.Title)
	todo.Description = strings.TrimSpace(input.Description)
	todo.Status = input.Status
	todo.DueOn = dayPtr(input.DueOn)
	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("update todo %d: %w", todo.ID, err)
	}

	s.log.WithFields(logrus.Fields{"todo_id": todo.ID, "user_id": userID}).Info("todo updated")
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, id uint, userID uint) error {
	todo, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.todos.Delete(ctx, todo, true); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	s.log.WithFields(logrus.Fields{"todo_id": id, "user_id": userID}).Info("todo deleted")
	return nil
}

func (s *TodoService) validate(input TodoInput, update bool) error {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > 200 || len(input.Description) > 1000 {
		return ErrInvalidInput
	}
	if update && !input.Status.Valid() {
		return ErrInvalidInput
	}
	if input.DueOn != nil && truncateDay(*input.DueOn).Before(truncateDay(s.now())) {
		return ErrInvalidInput
	}
	return nil
}

func (s *TodoService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := truncateDay(*t)
	return &day
}
