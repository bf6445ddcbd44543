package service

import (
	"sync"
	"testing"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSlotService(store *fakeScheduleStore) *SlotService {
	return NewSlotService(store, &fakeNotifier{}, 10)
}

func publishOneSlot(t *testing.T, svc *SlotService, mentorID uint, maxStudents int) (uint, int) {
	t.Helper()
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	schedule, err := svc.Publish(mentorID, start, []SlotInput{
		{StartTime: start, EndTime: start.Add(time.Hour), MaxStudents: maxStudents},
	})
	require.NoError(t, err)
	require.Len(t, schedule.Slots, 1)
	return schedule.ID, schedule.Slots[0].SlotIndex
}

func TestPublishCreatesScheduleAndSlots(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	schedule, err := svc.Publish(7, start, []SlotInput{
		{StartTime: start, EndTime: start.Add(time.Hour)},
		{StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour), MaxStudents: 4},
	})
	require.NoError(t, err)
	require.Len(t, schedule.Slots, 2)

	assert.Equal(t, 0, schedule.Slots[0].SlotIndex)
	assert.Equal(t, 1, schedule.Slots[1].SlotIndex)
	assert.Equal(t, 1, schedule.Slots[0].MaxStudents)
	assert.Equal(t, 4, schedule.Slots[1].MaxStudents)
	assert.Equal(t, model.SessionOnline, schedule.Slots[0].SessionType)
	assert.True(t, schedule.Slots[0].IsAvailable)

	// Publishing again on the same date extends the existing schedule.
	again, err := svc.Publish(7, start, []SlotInput{
		{StartTime: start.Add(3 * time.Hour), EndTime: start.Add(4 * time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, schedule.ID, again.ID)
	assert.Equal(t, 2, again.Slots[len(again.Slots)-1].SlotIndex)
}

func TestReserveSingleSeatSlot(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-1", 1))

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 1, slot.CurrentStudents)
	assert.True(t, slot.IsBooked)
	assert.Equal(t, "ref-1", slot.BookingRef)

	// A second party cannot take the same single-seat slot.
	err := svc.Reserve(scheduleID, slotIndex, "ref-2", 1)
	assert.ErrorIs(t, err, util.ErrSlotUnavailable)
}

func TestReserveIsIdempotentPerRef(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 3)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-1", 2))
	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-1", 2))

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 2, slot.CurrentStudents, "repeat reserve with the same ref must not double count")
}

func TestReserveGroupCapacity(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 2)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-a", 1))
	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-b", 1))

	err := svc.Reserve(scheduleID, slotIndex, "ref-c", 1)
	assert.ErrorIs(t, err, util.ErrCapacityExceeded)

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 2, slot.CurrentStudents)
}

func TestReservePartySizeOverCapacity(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 3)

	err := svc.Reserve(scheduleID, slotIndex, "ref-big", 4)
	assert.ErrorIs(t, err, util.ErrCapacityExceeded)
}

func TestReserveUnavailableSlot(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	require.NoError(t, svc.ToggleAvailability(scheduleID, slotIndex, false))

	err := svc.Reserve(scheduleID, slotIndex, "ref-1", 1)
	assert.ErrorIs(t, err, util.ErrSlotUnavailable)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs := []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
			errs[i] = svc.Reserve(scheduleID, slotIndex, refs[i], 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one racer may win the last seat")

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 1, slot.CurrentStudents)
	assert.LessOrEqual(t, slot.CurrentStudents, slot.MaxStudents)
}

func TestConcurrentReserveNeverOverCapacity(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 3)

	const racers = 12
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Reserve(scheduleID, slotIndex, model.GenerateRef(), 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, winners, slot.CurrentStudents)
	assert.LessOrEqual(t, slot.CurrentStudents, slot.MaxStudents)
}

func TestReleaseRestoresSeatAndClearsFlags(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 2)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-a", 2))
	require.NoError(t, svc.Release(scheduleID, "ref-a"))

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 0, slot.CurrentStudents)
	assert.False(t, slot.IsBooked)
	assert.Empty(t, slot.BookingRef)
}

func TestReleaseUnknownRefIsNoop(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	require.NoError(t, svc.Release(scheduleID, "never-reserved"))

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 0, slot.CurrentStudents)
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 2)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-a", 1))
	require.NoError(t, svc.Release(scheduleID, "ref-a"))
	require.NoError(t, svc.Release(scheduleID, "ref-a"))

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.Equal(t, 0, slot.CurrentStudents, "double release must not go negative")
}

func TestToggleRefusesBookedSlotWithoutForce(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-a", 1))

	err := svc.ToggleAvailability(scheduleID, slotIndex, false)
	assert.ErrorIs(t, err, util.ErrSlotBooked)

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.True(t, slot.IsAvailable)
}

func TestForcedToggleEmitsHighUrgency(t *testing.T) {
	store := newFakeScheduleStore()
	notifier := &fakeNotifier{}
	svc := NewSlotService(store, notifier, 10)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-a", 1))
	require.NoError(t, svc.ToggleAvailability(scheduleID, slotIndex, true))

	slot := store.mustSlot(t, scheduleID, slotIndex)
	assert.False(t, slot.IsAvailable)

	events := notifier.byKind(model.EventScheduleChanged)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, model.UrgencyHigh, last.Urgency)
}

func TestRemoveSlotRefusedWhileReserved(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)
	scheduleID, slotIndex := publishOneSlot(t, svc, 7, 1)

	require.NoError(t, svc.Reserve(scheduleID, slotIndex, "ref-a", 1))
	assert.ErrorIs(t, svc.RemoveSlot(scheduleID, slotIndex), util.ErrSlotBooked)

	require.NoError(t, svc.Release(scheduleID, "ref-a"))
	require.NoError(t, svc.RemoveSlot(scheduleID, slotIndex))

	_, err := store.FindSlot(scheduleID, slotIndex)
	assert.ErrorIs(t, err, util.ErrSlotNotFound)
}

func TestMaterializeFromRequestIsIdempotent(t *testing.T) {
	store := newFakeScheduleStore()
	svc := newTestSlotService(store)

	req := &model.SlotRequest{
		StudentID:       3,
		MentorID:        7,
		RequestedDate:   time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC),
		RequestedTime:   "14:30",
		DurationMinutes: 45,
		SessionType:     model.SessionOffline,
		Status:          model.SlotRequestPending,
	}
	req.ID = 11

	slot, err := svc.MaterializeFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, 14, slot.StartTime.Hour())
	assert.Equal(t, 30, slot.StartTime.Minute())
	assert.Equal(t, slot.StartTime.Add(45*time.Minute), slot.EndTime)
	assert.Equal(t, model.SessionOffline, slot.SessionType)
	require.NotNil(t, slot.SourceRequestID)
	assert.Equal(t, uint(11), *slot.SourceRequestID)

	again, err := svc.MaterializeFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, again.ID, "same request must map to the same slot")
}
