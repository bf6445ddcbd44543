package service

import (
	"time"

	"mentorhub_backend/internal/model"
)

// The booking engine's decision logic is storage-agnostic: services talk to
// these narrow store interfaces, internal/repository supplies the gorm
// implementations, and the tests supply in-memory ones.
//
// Stores return the sentinel errors from internal/util on missing entities.
// Compare-and-update methods apply the given entity state only where the
// stored version still equals expectedVersion, reporting whether the write
// won; the caller owns the retry loop.

type ScheduleStore interface {
	FindSchedule(scheduleID uint) (*model.MentorSchedule, error)
	FindScheduleByMentorDate(mentorID uint, date time.Time) (*model.MentorSchedule, error)
	CreateSchedule(schedule *model.MentorSchedule) error
	ListSchedules(mentorID uint, from, to time.Time) ([]model.MentorSchedule, error)

	FindSlot(scheduleID uint, slotIndex int) (*model.TimeSlot, error)
	FindSlotBySourceRequest(requestID uint) (*model.TimeSlot, error)
	CreateSlot(slot *model.TimeSlot) error
	// DeleteSlot removes a slot row. Callers must have verified
	// CurrentStudents == 0 first.
	DeleteSlot(slotID uint) error
	NextSlotIndex(scheduleID uint) (int, error)

	// UpdateSlotCAS writes the slot state where version matches.
	UpdateSlotCAS(slot *model.TimeSlot, expectedVersion uint) (bool, error)
	// ReserveSlot writes the slot state and inserts the reservation in one
	// transaction, so a won CAS always leaves a matching reservation row.
	ReserveSlot(slot *model.TimeSlot, expectedVersion uint, res *model.SlotReservation) (bool, error)
	// ReleaseSlot writes the slot state and deletes the reservation row for
	// bookingRef in one transaction.
	ReleaseSlot(slot *model.TimeSlot, expectedVersion uint, bookingRef string) (bool, error)
	FindReservation(bookingRef string) (*model.SlotReservation, error)
}

type SubscriptionStore interface {
	FindByID(id uint) (*model.StudentSubscription, error)
	FindUsableByStudent(studentID uint, now time.Time) ([]model.StudentSubscription, error)
	ListByStudent(studentID uint) ([]model.StudentSubscription, error)
	ListActiveExpired(now time.Time) ([]model.StudentSubscription, error)
	Create(sub *model.StudentSubscription) error

	HasTransaction(subscriptionID uint, ref string) (bool, error)

	// ApplyConsume writes the balance fields and inserts the transaction row
	// in one transaction, guarded by the version check.
	ApplyConsume(sub *model.StudentSubscription, expectedVersion uint, ref string) (bool, error)
	// ApplyRefund writes the balance fields and deletes the transaction row.
	ApplyRefund(sub *model.StudentSubscription, expectedVersion uint, ref string) (bool, error)
	// UpdateStatusCAS writes status-only changes (expiry sweep).
	UpdateStatusCAS(sub *model.StudentSubscription, expectedVersion uint) (bool, error)
}

// ProgressReader is the collaborator interface onto the learning subsystem.
type ProgressReader interface {
	GetCurrentLevel(studentID uint) (int, error)
}

type VerificationStore interface {
	FindByID(id uint) (*model.LevelVerification, error)
	// FindLatest returns the most recent verification for the pair, or
	// util.ErrVerificationNotFound.
	FindLatest(studentID uint, targetLevel int) (*model.LevelVerification, error)
	Create(v *model.LevelVerification) error
	Update(v *model.LevelVerification) error
	ListByStudent(studentID uint) ([]model.LevelVerification, error)
	ListPending() ([]model.LevelVerification, error)
}

type SlotRequestStore interface {
	FindByID(id uint) (*model.SlotRequest, error)
	Create(r *model.SlotRequest) error
	Update(r *model.SlotRequest) error
	ListByMentor(mentorID uint, status model.SlotRequestStatus) ([]model.SlotRequest, error)
	ListByStudent(studentID uint) ([]model.SlotRequest, error)
}

type BookingStore interface {
	FindByRef(ref string) (*model.Booking, error)
	Create(b *model.Booking) error
	Update(b *model.Booking) error
	ListByStudent(studentID uint) ([]model.Booking, error)
}

type NotificationStore interface {
	Create(ev *model.NotificationEvent) error
	ListByRecipient(recipientType model.RecipientType, recipientID uint, limit int) ([]model.NotificationEvent, error)
	MarkDelivered(id uint) error
}

// Notifier is the fan-out collaborator. Emit must never block the caller.
type Notifier interface {
	Emit(ev model.NotificationEvent)
}
