package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/uuid"
)

// notificationService manages the in-app notification mailbox.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// GetUserNotifications lists notifications, newest first.
func (s *notificationService) GetUserNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}
	result, err := pagination.Find[models.Notification](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// UnreadCount returns the number of unread notifications.
func (s *notificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// MarkRead marks one notification as read.
func (s *notificationService) MarkRead(userID, notificationID string) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification as read and returns how many changed.
func (s *notificationService) MarkAllRead(userID string) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteNotification removes a notification.
func (s *notificationService) DeleteNotification(userID, notificationID string) error {
	res := s.db.Where("id = ? AND user_id = ?", notificationID, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// CreateOnce stores n unless a notification with the same user, type,
// related entity and dedupe key already exists. It reports whether n was created.
func (s *notificationService) CreateOnce(n *models.Notification) (bool, error) {
	created, err := createNotificationOnce(s.db, n)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

func createNotificationOnce(db *gorm.DB, n *models.Notification) (bool, error) {
	var count int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND related_entity_id = ? AND dedupe_key = ?",
			n.UserID, n.Type, n.RelatedEntityID, n.DedupeKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if n.ID == "" {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := db.Create(n).Error; err != nil {
		return false, err
	}
	return true, nil
}
