package service

import (
	"encoding/json"
	"errors"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/monitoring"
)

const defaultReserveRetries = 3

// SlotService is the slot ledger: it owns every capacity and availability
// mutation on published time slots. All writes go through optimistic
// compare-and-update with a bounded retry, so two students racing for the
// last seat can never both win.
type SlotService struct {
	Store    ScheduleStore
	Notifier Notifier
	Retries  int
}

func NewSlotService(store ScheduleStore, notifier Notifier, retries int) *SlotService {
	if retries <= 0 {
		retries = defaultReserveRetries
	}
	return &SlotService{
		Store:    store,
		Notifier: notifier,
		Retries:  retries,
	}
}

type SlotInput struct {
	StartTime     time.Time         `json:"startTime" binding:"required"`
	EndTime       time.Time         `json:"endTime" binding:"required"`
	SessionType   model.SessionType `json:"sessionType"`
	MaxStudents   int               `json:"maxStudents"`
	RequiredLevel *int              `json:"requiredLevel,omitempty"`
	IsRecurring   bool              `json:"isRecurring"`
}

// Publish creates (or extends) the mentor's schedule for one date.
func (s *SlotService) Publish(mentorID uint, date time.Time, slots []SlotInput) (*model.MentorSchedule, error) {
	if len(slots) == 0 {
		return nil, errors.New("at least one slot must be provided")
	}

	day := date.Truncate(24 * time.Hour)
	schedule, err := s.Store.FindScheduleByMentorDate(mentorID, day)
	if errors.Is(err, util.ErrScheduleNotFound) {
		schedule = &model.MentorSchedule{MentorID: mentorID, Date: day}
		if err := s.Store.CreateSchedule(schedule); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	next, err := s.Store.NextSlotIndex(schedule.ID)
	if err != nil {
		return nil, err
	}

	for i, in := range slots {
		sessionType := in.SessionType
		if sessionType == "" {
			sessionType = model.SessionOnline
		}
		maxStudents := in.MaxStudents
		if maxStudents < 1 {
			maxStudents = 1
		}
		slot := &model.TimeSlot{
			ScheduleID:    schedule.ID,
			SlotIndex:     next + i,
			StartTime:     in.StartTime,
			EndTime:       in.EndTime,
			SessionType:   sessionType,
			MaxStudents:   maxStudents,
			IsAvailable:   true,
			RequiredLevel: in.RequiredLevel,
			IsRecurring:   in.IsRecurring,
		}
		if err := s.Store.CreateSlot(slot); err != nil {
			return nil, err
		}
		schedule.Slots = append(schedule.Slots, *slot)
	}

	s.emitChange(schedule.MentorID, nil, nil, model.UrgencyNormal)
	return schedule, nil
}

// Reserve claims partySize seats on a slot for bookingRef. Calling it again
// with a ref that already holds a reservation is a no-op success, which is
// what makes saga retries safe.
func (s *SlotService) Reserve(scheduleID uint, slotIndex int, bookingRef string, partySize int) error {
	if partySize < 1 {
		partySize = 1
	}

	if _, err := s.Store.FindReservation(bookingRef); err == nil {
		return nil
	} else if !errors.Is(err, util.ErrBookingNotFound) {
		return err
	}

	for attempt := 0; attempt < s.Retries; attempt++ {
		slot, err := s.Store.FindSlot(scheduleID, slotIndex)
		if err != nil {
			return err
		}

		if !slot.IsAvailable {
			return util.ErrSlotUnavailable
		}
		if slot.MaxStudents <= 1 && slot.IsBooked {
			return util.ErrSlotUnavailable
		}
		if slot.CurrentStudents+partySize > slot.MaxStudents {
			return util.ErrCapacityExceeded
		}

		old := *slot
		slot.CurrentStudents += partySize
		slot.IsBooked = true
		slot.BookingRef = bookingRef
		slot.Version++

		ok, err := s.Store.ReserveSlot(slot, old.Version, &model.SlotReservation{
			ScheduleID: scheduleID,
			SlotIndex:  slotIndex,
			BookingRef: bookingRef,
			PartySize:  partySize,
		})
		if err != nil {
			return err
		}
		if ok {
			s.emitChange(0, &old, slot, model.UrgencyNormal)
			return nil
		}
		monitoring.ReservationConflicts.Inc()
	}

	return util.ErrConcurrencyConflict
}

// Release gives back the seats held by bookingRef. An unknown ref is
// treated as success so that retried cancellations stay harmless.
func (s *SlotService) Release(scheduleID uint, bookingRef string) error {
	res, err := s.Store.FindReservation(bookingRef)
	if errors.Is(err, util.ErrBookingNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for attempt := 0; attempt < s.Retries; attempt++ {
		slot, err := s.Store.FindSlot(res.ScheduleID, res.SlotIndex)
		if err != nil {
			return err
		}

		old := *slot
		slot.CurrentStudents -= res.PartySize
		if slot.CurrentStudents < 0 {
			slot.CurrentStudents = 0
		}
		if slot.CurrentStudents == 0 {
			slot.IsBooked = false
			slot.BookingRef = ""
		}
		slot.Version++

		ok, err := s.Store.ReleaseSlot(slot, old.Version, bookingRef)
		if err != nil {
			return err
		}
		if ok {
			s.emitChange(0, &old, slot, model.UrgencyNormal)
			return nil
		}
		monitoring.ReservationConflicts.Inc()
	}

	return util.ErrConcurrencyConflict
}

// ToggleAvailability flips isAvailable. Disabling a slot that has active
// bookings is refused unless force is set; a forced toggle goes out as a
// high-urgency change because it affects existing bookings.
func (s *SlotService) ToggleAvailability(scheduleID uint, slotIndex int, force bool) error {
	for attempt := 0; attempt < s.Retries; attempt++ {
		slot, err := s.Store.FindSlot(scheduleID, slotIndex)
		if err != nil {
			return err
		}

		if slot.IsAvailable && slot.IsBooked && !force {
			return util.ErrSlotBooked
		}

		old := *slot
		slot.IsAvailable = !slot.IsAvailable
		slot.Version++

		ok, err := s.Store.UpdateSlotCAS(slot, old.Version)
		if err != nil {
			return err
		}
		if ok {
			urgency := model.UrgencyNormal
			if old.IsBooked {
				urgency = model.UrgencyHigh
			}
			s.emitChange(0, &old, slot, urgency)
			return nil
		}
	}

	return util.ErrConcurrencyConflict
}

// RemoveSlot deletes a slot. Slots with reserved seats are never removed.
func (s *SlotService) RemoveSlot(scheduleID uint, slotIndex int) error {
	slot, err := s.Store.FindSlot(scheduleID, slotIndex)
	if err != nil {
		return err
	}
	if slot.CurrentStudents > 0 {
		return util.ErrSlotBooked
	}
	if err := s.Store.DeleteSlot(slot.ID); err != nil {
		return err
	}
	s.emitChange(0, slot, nil, model.UrgencyNormal)
	return nil
}

// MaterializeFromRequest creates the slot an approved slot request asked
// for. The request ID is the idempotency key: a slot already tagged with it
// is returned as-is instead of being duplicated.
func (s *SlotService) MaterializeFromRequest(r *model.SlotRequest) (*model.TimeSlot, error) {
	if existing, err := s.Store.FindSlotBySourceRequest(r.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, util.ErrSlotNotFound) {
		return nil, err
	}

	start, err := time.Parse(util.ClockFormat, r.RequestedTime)
	if err != nil {
		return nil, err
	}
	day := r.RequestedDate.Truncate(24 * time.Hour)
	startTime := day.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
	endTime := startTime.Add(time.Duration(r.DurationMinutes) * time.Minute)

	scheduleID := r.ScheduleID
	if scheduleID == 0 {
		schedule, err := s.Store.FindScheduleByMentorDate(r.MentorID, day)
		if errors.Is(err, util.ErrScheduleNotFound) {
			schedule = &model.MentorSchedule{MentorID: r.MentorID, Date: day}
			if err := s.Store.CreateSchedule(schedule); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		scheduleID = schedule.ID
	}

	next, err := s.Store.NextSlotIndex(scheduleID)
	if err != nil {
		return nil, err
	}

	requestID := r.ID
	slot := &model.TimeSlot{
		ScheduleID:      scheduleID,
		SlotIndex:       next,
		StartTime:       startTime,
		EndTime:         endTime,
		SessionType:     r.SessionType,
		MaxStudents:     1,
		IsAvailable:     true,
		IsRecurring:     false,
		SourceRequestID: &requestID,
	}
	if err := s.Store.CreateSlot(slot); err != nil {
		return nil, err
	}

	s.emitChange(r.MentorID, nil, slot, model.UrgencyNormal)
	return slot, nil
}

// ListSchedules returns a mentor's published schedules in a date range.
func (s *SlotService) ListSchedules(mentorID uint, from, to time.Time) ([]model.MentorSchedule, error) {
	return s.Store.ListSchedules(mentorID, from, to)
}

// GetSchedule returns one schedule with its slots.
func (s *SlotService) GetSchedule(scheduleID uint) (*model.MentorSchedule, error) {
	return s.Store.FindSchedule(scheduleID)
}

type scheduleChangePayload struct {
	Old *model.TimeSlot `json:"old,omitempty"`
	New *model.TimeSlot `json:"new,omitempty"`
}

func (s *SlotService) emitChange(mentorID uint, oldSlot, newSlot *model.TimeSlot, urgency model.EventUrgency) {
	if s.Notifier == nil {
		return
	}
	if mentorID == 0 {
		// Resolve the owner from the touched slot's schedule.
		ref := newSlot
		if ref == nil {
			ref = oldSlot
		}
		if ref == nil {
			return
		}
		schedule, err := s.Store.FindSchedule(ref.ScheduleID)
		if err != nil {
			return
		}
		mentorID = schedule.MentorID
	}

	payload, _ := json.Marshal(scheduleChangePayload{Old: oldSlot, New: newSlot})
	s.Notifier.Emit(model.NotificationEvent{
		Kind:          model.EventScheduleChanged,
		RecipientID:   mentorID,
		RecipientType: model.RecipientMentor,
		Payload:       string(payload),
		Urgency:       urgency,
	})
}
