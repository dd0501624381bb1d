package service

import (
	"context"
	"fmt"
	"strings"

	"todoapi/internal/entity"
	"todoapi/internal/repository"

	"github.com/sirupsen/logrus"
)

type NotificationService struct {
	notifications *repository.GenericRepository[entity.Notification]
	users         *repository.GenericRepository[entity.User]
	todos         *repository.GenericRepository[entity.Todo]
	log           logrus.FieldLogger
}

func NewNotificationService(
	notifications *repository.GenericRepository[entity.Notification],
	users *repository.GenericRepository[entity.User],
	todos *repository.GenericRepository[entity.Todo],
	log logrus.FieldLogger,
) *NotificationService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		todos:         todos,
		log:           log.WithField("component", "notifications"),
	}
}

// List returns the user's notifications, newest first, optionally filtered by read state.
func (s *NotificationService) List(ctx context.Context, userID uint, isRead *bool) ([]entity.Notification, error) {
	filters := []repository.Filter{ownedBy(userID)}
	if isRead != nil {
		filters = append(filters, repository.Where("is_read = ?", *isRead))
	}
	filters = append(filters, repository.OrderBy(newestFirst))

	out, err := s.notifications.GetManyByFilter(ctx, repository.All(filters...), "Todo")
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *NotificationService) Get(ctx context.Context, id uint, userID uint) (*entity.Notification, error) {
	n, err := s.notifications.GetOneByFilter(ctx, repository.All(repository.Where("id = ?", id), ownedBy(userID)), "Todo")
	if err != nil {
		return nil, fmt.Errorf("get notification %d: %w", id, err)
	}
	if n == nil {
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *NotificationService) Create(ctx context.Context, input NotificationInput) (*entity.Notification, error) {
	message := strings.TrimSpace(input.Message)
	if input.UserID == 0 || input.TodoID == 0 || message == "" || len(message) > 500 {
		return nil, ErrInvalidInput
	}

	userExists, err := s.users.Any(ctx, repository.Where("id = ?", input.UserID))
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	todoExists, err := s.todos.Any(ctx, repository.Where("id = ?", input.TodoID))
	if err != nil {
		return nil, fmt.Errorf("check todo: %w", err)
	}
	if !userExists || !todoExists {
		return nil, ErrNotFound
	}

	n := &entity.Notification{
		Message: message,
		UserID:  input.UserID,
		TodoID:  input.TodoID,
	}
	if err := s.notifications.Add(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.log.WithFields(logrus.Fields{"notification_id": n.ID, "user_id": input.UserID}).Info("notification created")
	return s.Get(ctx, n.ID, input.UserID)
}

func (s *NotificationService) Update(ctx context.Context, userID uint, input NotificationInput) (*entity.Notification, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" || len(message) > 500 {
		return nil, ErrInvalidInput
	}
	n, err := s.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	n.Message = message
	n.IsRead = input.IsRead
	if err := s.notifications.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("update notification %d: %w", n.ID, err)
	}
	return n, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uint, userID uint) error {
	n, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	n.IsRead = true
	if err := s.notifications.Update(ctx, n); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllAsRead returns how many notifications changed state.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int, error) {
	unread := false
	pending, err := s.List(ctx, userID, &unread)
	if err != nil {
		return 0, err
	}
	for i := range pending {
		pending[i].IsRead = true
		if err := s.notifications.Update(ctx, &pending[i]); err != nil {
			return i, fmt.Errorf("mark notification %d read: %w", pending[i].ID, err)
		}
	}
	return len(pending), nil
}

func (s *NotificationService) Delete(ctx context.Context, id uint, userID uint) error {
	n, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, n, true); err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.Count(ctx, repository.All(ownedBy(userID), repository.Where("is_read = ?", false)))
}
