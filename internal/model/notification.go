package model

type EventKind string

const (
	EventScheduleChanged EventKind = "schedule_changed"
	EventBookingCreated  EventKind = "booking_created"
	EventBookingCancel   EventKind = "booking_cancelled"
	EventNewRequest      EventKind = "new_request"
	EventRequestDecided  EventKind = "request_decided"
	EventVerification    EventKind = "verification_update"
)

type EventUrgency string

const (
	UrgencyNormal EventUrgency = "normal"
	UrgencyHigh   EventUrgency = "high"
)

type RecipientType string

const (
	RecipientStudent RecipientType = "student"
	RecipientMentor  RecipientType = "mentor"
)

// NotificationEvent is the record the engine hands to the notification
// fan-out. Delivery is owned elsewhere; the engine only emits.
type NotificationEvent struct {
	BaseModel
	Kind          EventKind     `gorm:"size:40;not null;index" json:"kind"`
	RecipientID   uint          `gorm:"not null;index" json:"recipientId"`
	RecipientType RecipientType `gorm:"size:20;not null" json:"recipientType"`
	Payload       string        `gorm:"type:text" json:"payload"` // JSON
	Urgency       EventUrgency  `gorm:"size:10;default:'normal'" json:"urgency"`
	Delivered     bool          `gorm:"default:false" json:"delivered"`
}

func (NotificationEvent) TableName() string {
	return "notification_events"
}
