package model

import (
	"time"
)

type SessionType string

const (
	SessionOnline  SessionType = "online"
	SessionOffline SessionType = "offline"
)

// MentorSchedule holds the published time slots of one mentor for one
// calendar date. Slots are addressed by their position (SlotIndex) and are
// only ever mutated through the slot ledger.
// swagger:model MentorSchedule
type MentorSchedule struct {
	BaseModel
	MentorID uint       `gorm:"not null;index:idx_mentor_date,unique" json:"mentorId"`
	Date     time.Time  `gorm:"not null;index:idx_mentor_date,unique" json:"date"`
	Slots    []TimeSlot `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"slots"`
}

func (MentorSchedule) TableName() string {
	return "mentor_schedules"
}

// TimeSlot is one bookable window inside a schedule.
//
// Version backs optimistic concurrency: every capacity/availability mutation
// goes through a compare-and-update on (id, version).
// swagger:model TimeSlot
type TimeSlot struct {
	BaseModel
	ScheduleID      uint        `gorm:"not null;index:idx_schedule_slot,unique" json:"scheduleId"`
	SlotIndex       int         `gorm:"not null;index:idx_schedule_slot,unique" json:"slotIndex"`
	StartTime       time.Time   `gorm:"not null" json:"startTime"`
	EndTime         time.Time   `gorm:"not null" json:"endTime"`
	SessionType     SessionType `gorm:"type:enum('online','offline');default:'online'" json:"sessionType"`
	MaxStudents     int         `gorm:"not null;default:1" json:"maxStudents"`
	CurrentStudents int         `gorm:"not null;default:0" json:"currentStudents"`
	IsAvailable     bool        `gorm:"default:true" json:"isAvailable"`
	IsBooked        bool        `gorm:"default:false" json:"isBooked"`
	BookingRef      string      `gorm:"size:36" json:"bookingRef,omitempty"`
	RequiredLevel   *int        `json:"requiredLevel,omitempty"`
	IsRecurring     bool        `gorm:"default:false" json:"isRecurring"`
	SourceRequestID *uint       `gorm:"uniqueIndex" json:"sourceRequestId,omitempty"`
	Version         uint        `gorm:"not null;default:0" json:"-"`
}

func (TimeSlot) TableName() string {
	return "time_slots"
}

// Bookable reports whether the slot can accept at least one more student.
func (s *TimeSlot) Bookable() bool {
	return s.IsAvailable && s.CurrentStudents < s.MaxStudents
}

// SlotReservation records one successful reserve on a slot, keyed by the
// booking ref. Release reads the party size back from here, which is what
// makes cancellation idempotent and exact for group bookings.
type SlotReservation struct {
	BaseModel
	ScheduleID uint   `gorm:"not null" json:"scheduleId"`
	SlotIndex  int    `gorm:"not null" json:"slotIndex"`
	BookingRef string `gorm:"size:36;uniqueIndex;not null" json:"bookingRef"`
	PartySize  int    `gorm:"not null;default:1" json:"partySize"`
}

func (SlotReservation) TableName() string {
	return "slot_reservations"
}
