package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/models"
)

// Notifier уведомляет пользователя о событии. Доменные сервисы зависят
// только от этого интерфейса.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, jobID *uuid.UUID)
}

// NotificationHub рассылает сообщения подключённым клиентам.
type NotificationHub interface {
	SendToUser(userID uuid.UUID, message interface{})
}

// NotificationRepo описывает зависимости сервиса уведомлений.
type NotificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// NotificationService сохраняет уведомления и рассылает их через websocket-хаб.
type NotificationService struct {
	repo NotificationRepo
	hub  NotificationHub
}

func NewNotificationService(repo NotificationRepo) *NotificationService {
	return &NotificationService{repo: repo}
}

// SetHub подключает websocket-хаб для push-рассылки.
func (s *NotificationService) SetHub(hub NotificationHub) {
	s.hub = hub
}

// Notify сохраняет уведомление и отправляет его пользователю.
// Ошибки не прерывают доменную операцию, только логируются.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, jobID *uuid.UUID) {
	n := &models.Notification{
		UserID: userID,
		Type:   ntype,
		Title:  title,
		Body:   body,
		JobID:  jobID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"type":    ntype,
				"error":   err.Error(),
			}).Warn("notification service: не удалось сохранить уведомление")
		}
		return
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, n)
	}
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead отмечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
