package repository

import (
	"errors"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"

	"gorm.io/gorm"
)

// SubscriptionRepository is the gorm-backed session-credit store. Balance
// writes and their transaction rows move together inside one database
// transaction, guarded by the subscription's version column.
type SubscriptionRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) FindByID(id uint) (*model.StudentSubscription, error) {
	var sub model.StudentSubscription
	err := r.DB.Preload("Transactions").First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) FindUsableByStudent(studentID uint, now time.Time) ([]model.StudentSubscription, error) {
	var subs []model.StudentSubscription
	err := r.DB.
		Where("student_id = ? AND status = ? AND remaining_sessions > 0 AND expiry_date > ?",
			studentID, model.SubscriptionActive, now).
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) ListByStudent(studentID uint) ([]model.StudentSubscription, error) {
	var subs []model.StudentSubscription
	err := r.DB.Preload("Transactions").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) ListActiveExpired(now time.Time) ([]model.StudentSubscription, error) {
	var subs []model.StudentSubscription
	err := r.DB.
		Where("status = ? AND expiry_date < ?", model.SubscriptionActive, now).
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) Create(sub *model.StudentSubscription) error {
	return r.DB.Create(sub).Error
}

func (r *SubscriptionRepository) HasTransaction(subscriptionID uint, ref string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.SubscriptionTransaction{}).
		Where("subscription_id = ? AND ref = ?", subscriptionID, ref).
		Count(&count).Error
	return count > 0, err
}

func (r *SubscriptionRepository) balanceCAS(tx *gorm.DB, sub *model.StudentSubscription, expectedVersion uint) (bool, error) {
	res := tx.Model(&model.StudentSubscription{}).
		Where("id = ? AND version = ?", sub.ID, expectedVersion).
		Updates(map[string]interface{}{
			"used_sessions":      sub.UsedSessions,
			"remaining_sessions": sub.RemainingSessions,
			"status":             sub.Status,
			"version":            sub.Version,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SubscriptionRepository) ApplyConsume(sub *model.StudentSubscription, expectedVersion uint, ref string) (bool, error) {
	won := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := r.balanceCAS(tx, sub, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := tx.Create(&model.SubscriptionTransaction{
			SubscriptionID: sub.ID,
			Ref:            ref,
		}).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

func (r *SubscriptionRepository) ApplyRefund(sub *model.StudentSubscription, expectedVersion uint, ref string) (bool, error) {
	won := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := r.balanceCAS(tx, sub, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		// Hard delete so the ref's unique index is freed for a retried
		// consume.
		if err := tx.Unscoped().
			Where("subscription_id = ? AND ref = ?", sub.ID, ref).
			Delete(&model.SubscriptionTransaction{}).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

func (r *SubscriptionRepository) UpdateStatusCAS(sub *model.StudentSubscription, expectedVersion uint) (bool, error) {
	res := r.DB.Model(&model.StudentSubscription{}).
		Where("id = ? AND version = ?", sub.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":  sub.Status,
			"version": sub.Version,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
