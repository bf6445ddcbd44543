package repository

import (
	"errors"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"

	"gorm.io/gorm"
)

// ScheduleRepository is the gorm-backed slot ledger store. The CAS methods
// guard every write on the slot's version column; a lost race shows up as
// zero affected rows, never as a silent overwrite.
type ScheduleRepository struct {
	DB *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{DB: db}
}

func (r *ScheduleRepository) FindSchedule(scheduleID uint) (*model.MentorSchedule, error) {
	var schedule model.MentorSchedule
	err := r.DB.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).First(&schedule, scheduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) FindScheduleByMentorDate(mentorID uint, date time.Time) (*model.MentorSchedule, error) {
	var schedule model.MentorSchedule
	err := r.DB.Where("mentor_id = ? AND date = ?", mentorID, date).First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) CreateSchedule(schedule *model.MentorSchedule) error {
	return r.DB.Create(schedule).Error
}

func (r *ScheduleRepository) ListSchedules(mentorID uint, from, to time.Time) ([]model.MentorSchedule, error) {
	var schedules []model.MentorSchedule
	err := r.DB.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).
		Where("mentor_id = ? AND date >= ? AND date <= ?", mentorID, from, to).
		Order("date ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *ScheduleRepository) FindSlot(scheduleID uint, slotIndex int) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.DB.Where("schedule_id = ? AND slot_index = ?", scheduleID, slotIndex).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var count int64
		if err := r.DB.Model(&model.MentorSchedule{}).Where("id = ?", scheduleID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, util.ErrScheduleNotFound
		}
		return nil, util.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *ScheduleRepository) FindSlotBySourceRequest(requestID uint) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.DB.Where("source_request_id = ?", requestID).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *ScheduleRepository) CreateSlot(slot *model.TimeSlot) error {
	return r.DB.Create(slot).Error
}

func (r *ScheduleRepository) DeleteSlot(slotID uint) error {
	return r.DB.Delete(&model.TimeSlot{}, slotID).Error
}

func (r *ScheduleRepository) NextSlotIndex(scheduleID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.TimeSlot{}).
		Where("schedule_id = ?", scheduleID).
		Select("MAX(slot_index)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

func (r *ScheduleRepository) slotCAS(tx *gorm.DB, slot *model.TimeSlot, expectedVersion uint) (bool, error) {
	res := tx.Model(&model.TimeSlot{}).
		Where("id = ? AND version = ?", slot.ID, expectedVersion).
		Updates(map[string]interface{}{
			"current_students": slot.CurrentStudents,
			"is_available":     slot.IsAvailable,
			"is_booked":        slot.IsBooked,
			"booking_ref":      slot.BookingRef,
			"version":          slot.Version,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ScheduleRepository) UpdateSlotCAS(slot *model.TimeSlot, expectedVersion uint) (bool, error) {
	return r.slotCAS(r.DB, slot, expectedVersion)
}

func (r *ScheduleRepository) ReserveSlot(slot *model.TimeSlot, expectedVersion uint, res *model.SlotReservation) (bool, error) {
	won := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := r.slotCAS(tx, slot, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

func (r *ScheduleRepository) ReleaseSlot(slot *model.TimeSlot, expectedVersion uint, bookingRef string) (bool, error) {
	won := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := r.slotCAS(tx, slot, expectedVersion)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		// Hard delete: the booking ref may legitimately come back on a
		// retried reservation, and a soft-deleted row would still hold
		// the unique index.
		if err := tx.Unscoped().Where("booking_ref = ?", bookingRef).Delete(&model.SlotReservation{}).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

func (r *ScheduleRepository) FindReservation(bookingRef string) (*model.SlotReservation, error) {
	var res model.SlotReservation
	err := r.DB.Where("booking_ref = ?", bookingRef).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
