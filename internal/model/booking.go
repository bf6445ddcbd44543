package model

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking correlates a slot reservation with the subscription transaction
// that paid for it. Ref doubles as the booking ref on the slot ledger side
// and the transaction ref on the subscription ledger side.
type Booking struct {
	BaseModel
	Ref            string        `gorm:"size:36;uniqueIndex;not null" json:"ref"`
	StudentID      uint          `gorm:"not null;index" json:"studentId"`
	MentorID       uint          `gorm:"not null;index" json:"mentorId"`
	ScheduleID     uint          `gorm:"not null" json:"scheduleId"`
	SlotIndex      int           `gorm:"not null" json:"slotIndex"`
	SubscriptionID uint          `gorm:"not null" json:"subscriptionId"`
	PartySize      int           `gorm:"not null;default:1" json:"partySize"`
	Status         BookingStatus `gorm:"type:enum('confirmed','cancelled');default:'confirmed'" json:"status"`
}

func (Booking) TableName() string {
	return "bookings"
}
