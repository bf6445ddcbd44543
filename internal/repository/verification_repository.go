package repository

import (
	"errors"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"

	"gorm.io/gorm"
)

type VerificationRepository struct {
	DB *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{DB: db}
}

func (r *VerificationRepository) FindByID(id uint) (*model.LevelVerification, error) {
	var v model.LevelVerification
	err := r.DB.Preload("Requirements").Preload("Submissions").First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepository) FindLatest(studentID uint, targetLevel int) (*model.LevelVerification, error) {
	var v model.LevelVerification
	err := r.DB.Preload("Requirements").Preload("Submissions").
		Where("student_id = ? AND target_level = ?", studentID, targetLevel).
		Order("created_at DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepository) Create(v *model.LevelVerification) error {
	return r.DB.Create(v).Error
}

// Update saves the verification together with its requirement checklist and
// any new submissions in one transaction.
func (r *VerificationRepository) Update(v *model.LevelVerification) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.LevelVerification{}).
			Where("id = ?", v.ID).
			Updates(map[string]interface{}{
				"status":      v.Status,
				"reviewer_id": v.ReviewerID,
				"feedback":    v.Feedback,
				"decided_at":  v.DecidedAt,
			}).Error; err != nil {
			return err
		}
		for i := range v.Requirements {
			req := &v.Requirements[i]
			if req.ID == 0 {
				req.VerificationID = v.ID
				if err := tx.Create(req).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&model.VerificationRequirement{}).
				Where("id = ?", req.ID).
				Updates(map[string]interface{}{
					"status": req.Status,
					"score":  req.Score,
				}).Error; err != nil {
				return err
			}
		}
		for i := range v.Submissions {
			sub := &v.Submissions[i]
			if sub.ID != 0 {
				continue
			}
			sub.VerificationID = v.ID
			if err := tx.Create(sub).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *VerificationRepository) ListByStudent(studentID uint) ([]model.LevelVerification, error) {
	var list []model.LevelVerification
	err := r.DB.Preload("Requirements").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *VerificationRepository) ListPending() ([]model.LevelVerification, error) {
	var list []model.LevelVerification
	err := r.DB.Preload("Requirements").Preload("Submissions").
		Where("status IN ?", []model.VerificationStatus{model.VerificationPending, model.VerificationInProgress}).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
