package repository

import (
	"errors"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"

	"gorm.io/gorm"
)

type SlotRequestRepository struct {
	DB *gorm.DB
}

func NewSlotRequestRepository(db *gorm.DB) *SlotRequestRepository {
	return &SlotRequestRepository{DB: db}
}

func (r *SlotRequestRepository) FindByID(id uint) (*model.SlotRequest, error) {
	var req model.SlotRequest
	err := r.DB.First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *SlotRequestRepository) Create(req *model.SlotRequest) error {
	return r.DB.Create(req).Error
}

func (r *SlotRequestRepository) Update(req *model.SlotRequest) error {
	return r.DB.Save(req).Error
}

// ListByMentor returns the mentor's requests, optionally filtered by status.
func (r *SlotRequestRepository) ListByMentor(mentorID uint, status model.SlotRequestStatus) ([]model.SlotRequest, error) {
	var list []model.SlotRequest
	q := r.DB.Where("mentor_id = ?", mentorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *SlotRequestRepository) ListByStudent(studentID uint) ([]model.SlotRequest, error) {
	var list []model.SlotRequest
	err := r.DB.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
