package service

import (
	"encoding/json"
	"errors"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/monitoring"
)

// IneligibleError carries the gate's denial so callers can render the
// user-facing reason and suggestion.
type IneligibleError struct {
	Result *LevelCheckResult
}

func (e *IneligibleError) Error() string {
	return "ineligible to book: " + e.Result.Reason
}

// BookingService composes the eligibility gate, the slot ledger and the
// subscription ledger into the booking operation. The reserve and consume
// legs span two independently-locked entities, so they run as a saga with
// explicit compensation instead of a single transaction.
type BookingService struct {
	Slots         *SlotService
	Subscriptions *SubscriptionService
	Eligibility   *EligibilityService
	Bookings      BookingStore
	Schedules     ScheduleStore
	Notifier      Notifier
}

func NewBookingService(slots *SlotService, subscriptions *SubscriptionService, eligibility *EligibilityService, bookings BookingStore, schedules ScheduleStore, notifier Notifier) *BookingService {
	return &BookingService{
		Slots:         slots,
		Subscriptions: subscriptions,
		Eligibility:   eligibility,
		Bookings:      bookings,
		Schedules:     schedules,
		Notifier:      notifier,
	}
}

// Book runs the full booking pipeline: gate, reserve, consume, persist.
// All of it takes effect or none of it does.
func (s *BookingService) Book(studentID, scheduleID uint, slotIndex, partySize int) (*model.Booking, error) {
	if partySize < 1 {
		partySize = 1
	}

	schedule, err := s.Schedules.FindSchedule(scheduleID)
	if err != nil {
		return nil, err
	}
	slot, err := s.Schedules.FindSlot(scheduleID, slotIndex)
	if err != nil {
		return nil, err
	}

	check, err := s.Eligibility.CheckLevel(studentID, slot.RequiredLevel, s.Eligibility.Policy())
	if err != nil {
		return nil, err
	}
	if !check.CanBook {
		monitoring.BookingCounter.WithLabelValues("ineligible").Inc()
		return nil, &IneligibleError{Result: check}
	}

	ref := model.GenerateRef()
	booking := &model.Booking{
		Ref:        ref,
		StudentID:  studentID,
		MentorID:   schedule.MentorID,
		ScheduleID: scheduleID,
		SlotIndex:  slotIndex,
		PartySize:  partySize,
		Status:     model.BookingConfirmed,
	}

	var sub *model.StudentSubscription
	bookSaga := &saga{
		name: "book",
		steps: []sagaStep{
			{
				name: "reserve_slot",
				run: func() error {
					return s.Slots.Reserve(scheduleID, slotIndex, ref, partySize)
				},
				compensate: func() error {
					return s.Slots.Release(scheduleID, ref)
				},
			},
			{
				name: "consume_credit",
				run: func() error {
					found, err := s.Subscriptions.FindActive(studentID)
					if err != nil {
						return err
					}
					if err := s.Subscriptions.Consume(found.ID, ref); err != nil {
						return err
					}
					sub = found
					return nil
				},
				compensate: func() error {
					if sub == nil {
						return nil
					}
					return s.Subscriptions.Refund(sub.ID, ref)
				},
			},
			{
				name: "persist_booking",
				run: func() error {
					booking.SubscriptionID = sub.ID
					return s.Bookings.Create(booking)
				},
			},
		},
	}

	if err := bookSaga.execute(); err != nil {
		monitoring.BookingCounter.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}

	monitoring.BookingCounter.WithLabelValues("confirmed").Inc()
	s.emitBookingEvent(model.EventBookingCreated, booking)
	return booking, nil
}

// Cancel reverses a booking. Both ledgers are always attempted; a partial
// failure is reported joined so the caller can retry the compensation.
// Cancelling an already-cancelled booking is a no-op success.
func (s *BookingService) Cancel(bookingRef string) error {
	booking, err := s.Bookings.FindByRef(bookingRef)
	if err != nil {
		return err
	}
	if booking.Status == model.BookingCancelled {
		return nil
	}

	releaseErr := s.Slots.Release(booking.ScheduleID, booking.Ref)
	refundErr := s.Subscriptions.Refund(booking.SubscriptionID, booking.Ref)

	if releaseErr != nil || refundErr != nil {
		// Leave the booking confirmed so a retry runs both legs again;
		// each leg is idempotent.
		return errors.Join(releaseErr, refundErr)
	}

	booking.Status = model.BookingCancelled
	if err := s.Bookings.Update(booking); err != nil {
		return err
	}

	monitoring.BookingCounter.WithLabelValues("cancelled").Inc()
	s.emitBookingEvent(model.EventBookingCancel, booking)
	return nil
}

// ListByStudent returns a student's bookings.
func (s *BookingService) ListByStudent(studentID uint) ([]model.Booking, error) {
	return s.Bookings.ListByStudent(studentID)
}

// GetByRef returns one booking by its correlation ref.
func (s *BookingService) GetByRef(ref string) (*model.Booking, error) {
	return s.Bookings.FindByRef(ref)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, util.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, util.ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, util.ErrNoActiveSubscription),
		errors.Is(err, util.ErrExhausted),
		errors.Is(err, util.ErrExpired),
		errors.Is(err, util.ErrNotActive):
		return "no_credit"
	case errors.Is(err, util.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (s *BookingService) emitBookingEvent(kind model.EventKind, booking *model.Booking) {
	if s.Notifier == nil {
		return
	}
	payload, _ := json.Marshal(booking)
	s.Notifier.Emit(model.NotificationEvent{
		Kind:          kind,
		RecipientID:   booking.MentorID,
		RecipientType: model.RecipientMentor,
		Payload:       string(payload),
		Urgency:       model.UrgencyNormal,
	})
}
