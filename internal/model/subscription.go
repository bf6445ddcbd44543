package model

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionActive:    {SubscriptionExpired, SubscriptionCancelled, SubscriptionSuspended},
	SubscriptionSuspended: {SubscriptionActive, SubscriptionExpired, SubscriptionCancelled},
	SubscriptionExpired:   {},
	SubscriptionCancelled: {},
}

func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StudentSubscription is a prepaid bundle of mentoring sessions.
//
// Invariant: UsedSessions + RemainingSessions == TotalSessions, preserved by
// every ledger operation. Version backs optimistic concurrency on the
// balance fields.
type StudentSubscription struct {
	BaseModel
	StudentID         uint                      `gorm:"not null;index" json:"studentId"`
	TotalSessions     int                       `gorm:"not null" json:"totalSessions"`
	UsedSessions      int                       `gorm:"not null;default:0" json:"usedSessions"`
	RemainingSessions int                       `gorm:"not null" json:"remainingSessions"`
	PurchaseDate      time.Time                 `gorm:"not null" json:"purchaseDate"`
	ExpiryDate        time.Time                 `gorm:"not null;index" json:"expiryDate"`
	Status            SubscriptionStatus        `gorm:"type:enum('active','expired','cancelled','suspended');default:'active'" json:"status"`
	Transactions      []SubscriptionTransaction `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
	Version           uint                      `gorm:"not null;default:0" json:"-"`
}

func (StudentSubscription) TableName() string {
	return "student_subscriptions"
}

// Usable reports whether a session credit may be consumed right now.
func (s *StudentSubscription) Usable(now time.Time) bool {
	return s.Status == SubscriptionActive && s.RemainingSessions > 0 && now.Before(s.ExpiryDate)
}

// SubscriptionTransaction is one consumed session credit, keyed by the
// correlation ref handed out at booking time. Refund deletes the row.
type SubscriptionTransaction struct {
	BaseModel
	SubscriptionID uint   `gorm:"not null;index" json:"subscriptionId"`
	Ref            string `gorm:"size:36;uniqueIndex;not null" json:"ref"`
}

func (SubscriptionTransaction) TableName() string {
	return "subscription_transactions"
}
