package repository

import (
	"mentorhub_backend/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ev *model.NotificationEvent) error {
	return r.DB.Create(ev).Error
}

func (r *NotificationRepository) ListByRecipient(recipientType model.RecipientType, recipientID uint, limit int) ([]model.NotificationEvent, error) {
	var list []model.NotificationEvent
	err := r.DB.Where("recipient_type = ? AND recipient_id = ?", recipientType, recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *NotificationRepository) MarkDelivered(id uint) error {
	return r.DB.Model(&model.NotificationEvent{}).
		Where("id = ?", id).
		Update("delivered", true).Error
}
