package repository

import (
	"errors"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"

	"gorm.io/gorm"
)

type BookingRepository struct {
	DB *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

func (r *BookingRepository) FindByRef(ref string) (*model.Booking, error) {
	var b model.Booking
	err := r.DB.Where("ref = ?", ref).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) Create(b *model.Booking) error {
	return r.DB.Create(b).Error
}

func (r *BookingRepository) Update(b *model.Booking) error {
	return r.DB.Save(b).Error
}

func (r *BookingRepository) ListByStudent(studentID uint) ([]model.Booking, error) {
	var list []model.Booking
	err := r.DB.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
