package model

import (
	"time"
)

type SlotRequestStatus string

const (
	SlotRequestPending   SlotRequestStatus = "pending"
	SlotRequestApproved  SlotRequestStatus = "approved"
	SlotRequestRejected  SlotRequestStatus = "rejected"
	SlotRequestCancelled SlotRequestStatus = "cancelled"
)

var slotRequestTransitions = map[SlotRequestStatus][]SlotRequestStatus{
	SlotRequestPending:   {SlotRequestApproved, SlotRequestRejected, SlotRequestCancelled},
	SlotRequestApproved:  {},
	SlotRequestRejected:  {},
	SlotRequestCancelled: {},
}

func (s SlotRequestStatus) CanTransitionTo(next SlotRequestStatus) bool {
	for _, allowed := range slotRequestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s SlotRequestStatus) Terminal() bool {
	return len(slotRequestTransitions[s]) == 0
}

// SlotRequest is a student's ask for a time the mentor has not published.
// Approval materializes a TimeSlot tagged with the request ID.
// swagger:model SlotRequest
type SlotRequest struct {
	BaseModel
	StudentID       uint              `gorm:"not null;index" json:"studentId"`
	MentorID        uint              `gorm:"not null;index" json:"mentorId"`
	ScheduleID      uint              `gorm:"not null" json:"scheduleId"`
	RequestedDate   time.Time         `gorm:"not null" json:"requestedDate"`
	RequestedTime   string            `gorm:"size:5;not null" json:"requestedTime"` // "15:04"
	DurationMinutes int               `gorm:"not null;default:60" json:"durationMinutes"`
	SessionType     SessionType       `gorm:"type:enum('online','offline');default:'online'" json:"sessionType"`
	Status          SlotRequestStatus `gorm:"type:enum('pending','approved','rejected','cancelled');default:'pending'" json:"status"`
	Priority        int               `gorm:"not null;default:0" json:"priority"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	MentorResponse  string            `gorm:"type:text" json:"mentorResponse,omitempty"`
	DecidedAt       *time.Time        `json:"decidedAt,omitempty"`
}

func (SlotRequest) TableName() string {
	return "slot_requests"
}
