package repository

import (
	"errors"

	"mentorhub_backend/internal/model"

	"gorm.io/gorm"
)

// ProgressRepository reads the learning subsystem's progress table. The
// booking engine never writes it.
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// GetCurrentLevel returns the student's level. Students without a progress
// record yet are treated as level 1.
func (r *ProgressRepository) GetCurrentLevel(studentID uint) (int, error) {
	var progress model.StudentProgress
	err := r.DB.Where("student_id = ?", studentID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return progress.CurrentLevel, nil
}
