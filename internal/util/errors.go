package util

import "errors"

var (
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrSlotUnavailable      = errors.New("slot is not available for booking")
	ErrCapacityExceeded     = errors.New("slot capacity exceeded")
	ErrSlotBooked           = errors.New("slot has active bookings")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNoActiveSubscription = errors.New("no active subscription with remaining sessions")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotActive            = errors.New("subscription is not active")
	ErrExhausted            = errors.New("no remaining sessions on subscription")
	ErrExpired              = errors.New("subscription has expired")
	ErrConcurrencyConflict  = errors.New("concurrent update conflict, retries exhausted")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrRequestNotFound      = errors.New("slot request not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
)
