package service

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

var errPersist = errors.New("persist failed")

// fakeScheduleStore is an in-memory ScheduleStore with real compare-and-
// update semantics, so the retry loops behave exactly as they do against
// the database.
type fakeScheduleStore struct {
	mu           sync.Mutex
	nextID       uint
	schedules    map[uint]*model.MentorSchedule
	slots        map[uint]*model.TimeSlot
	reservations map[string]*model.SlotReservation
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		schedules:    make(map[uint]*model.MentorSchedule),
		slots:        make(map[uint]*model.TimeSlot),
		reservations: make(map[string]*model.SlotReservation),
	}
}

func (f *fakeScheduleStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeScheduleStore) FindSchedule(scheduleID uint) (*model.MentorSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[scheduleID]
	if !ok {
		return nil, util.ErrScheduleNotFound
	}
	out := *s
	out.Slots = nil
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID {
			out.Slots = append(out.Slots, *slot)
		}
	}
	return &out, nil
}

func (f *fakeScheduleStore) FindScheduleByMentorDate(mentorID uint, date time.Time) (*model.MentorSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.schedules {
		if s.MentorID == mentorID && s.Date.Equal(date) {
			out := *s
			return &out, nil
		}
	}
	return nil, util.ErrScheduleNotFound
}

func (f *fakeScheduleStore) CreateSchedule(schedule *model.MentorSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule.ID = f.id()
	stored := *schedule
	f.schedules[schedule.ID] = &stored
	return nil
}

func (f *fakeScheduleStore) ListSchedules(mentorID uint, from, to time.Time) ([]model.MentorSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MentorSchedule
	for id, s := range f.schedules {
		if s.MentorID != mentorID || s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		copied := *s
		for _, slot := range f.slots {
			if slot.ScheduleID == id {
				copied.Slots = append(copied.Slots, *slot)
			}
		}
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeScheduleStore) FindSlot(scheduleID uint, slotIndex int) (*model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[scheduleID]; !ok {
		return nil, util.ErrScheduleNotFound
	}
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID && slot.SlotIndex == slotIndex {
			out := *slot
			return &out, nil
		}
	}
	return nil, util.ErrSlotNotFound
}

func (f *fakeScheduleStore) FindSlotBySourceRequest(requestID uint) (*model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slot := range f.slots {
		if slot.SourceRequestID != nil && *slot.SourceRequestID == requestID {
			out := *slot
			return &out, nil
		}
	}
	return nil, util.ErrSlotNotFound
}

func (f *fakeScheduleStore) CreateSlot(slot *model.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot.ID = f.id()
	stored := *slot
	f.slots[slot.ID] = &stored
	return nil
}

func (f *fakeScheduleStore) DeleteSlot(slotID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, slotID)
	return nil
}

func (f *fakeScheduleStore) NextSlotIndex(scheduleID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := 0
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID && slot.SlotIndex >= next {
			next = slot.SlotIndex + 1
		}
	}
	return next, nil
}

func (f *fakeScheduleStore) applySlot(slot *model.TimeSlot, expectedVersion uint) bool {
	stored, ok := f.slots[slot.ID]
	if !ok || stored.Version != expectedVersion {
		return false
	}
	updated := *slot
	f.slots[slot.ID] = &updated
	return true
}

func (f *fakeScheduleStore) UpdateSlotCAS(slot *model.TimeSlot, expectedVersion uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applySlot(slot, expectedVersion), nil
}

func (f *fakeScheduleStore) ReserveSlot(slot *model.TimeSlot, expectedVersion uint, res *model.SlotReservation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.applySlot(slot, expectedVersion) {
		return false, nil
	}
	stored := *res
	f.reservations[res.BookingRef] = &stored
	return true, nil
}

func (f *fakeScheduleStore) ReleaseSlot(slot *model.TimeSlot, expectedVersion uint, bookingRef string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.applySlot(slot, expectedVersion) {
		return false, nil
	}
	delete(f.reservations, bookingRef)
	return true, nil
}

func (f *fakeScheduleStore) FindReservation(bookingRef string) (*model.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[bookingRef]
	if !ok {
		return nil, util.ErrBookingNotFound
	}
	out := *res
	return &out, nil
}

// mustSlot returns the stored slot state for assertions.
func (f *fakeScheduleStore) mustSlot(t *testing.T, scheduleID uint, slotIndex int) model.TimeSlot {
	t.Helper()
	slot, err := f.FindSlot(scheduleID, slotIndex)
	if err != nil {
		t.Fatalf("slot %d/%d not found: %v", scheduleID, slotIndex, err)
	}
	return *slot
}

type fakeSubscriptionStore struct {
	mu     sync.Mutex
	nextID uint
	subs   map[uint]*model.StudentSubscription
	txns   map[string]uint // ref -> subscription ID
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{
		subs: make(map[uint]*model.StudentSubscription),
		txns: make(map[string]uint),
	}
}

func (f *fakeSubscriptionStore) FindByID(id uint) (*model.StudentSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return nil, util.ErrSubscriptionNotFound
	}
	out := *sub
	return &out, nil
}

func (f *fakeSubscriptionStore) FindUsableByStudent(studentID uint, now time.Time) ([]model.StudentSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentSubscription
	for _, sub := range f.subs {
		if sub.StudentID == studentID && sub.Usable(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) ListByStudent(studentID uint) ([]model.StudentSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentSubscription
	for _, sub := range f.subs {
		if sub.StudentID == studentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) ListActiveExpired(now time.Time) ([]model.StudentSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentSubscription
	for _, sub := range f.subs {
		if sub.Status == model.SubscriptionActive && sub.ExpiryDate.Before(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) Create(sub *model.StudentSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sub.ID = f.nextID
	stored := *sub
	f.subs[sub.ID] = &stored
	return nil
}

func (f *fakeSubscriptionStore) HasTransaction(subscriptionID uint, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.txns[ref]
	return ok && id == subscriptionID, nil
}

func (f *fakeSubscriptionStore) apply(sub *model.StudentSubscription, expectedVersion uint) bool {
	stored, ok := f.subs[sub.ID]
	if !ok || stored.Version != expectedVersion {
		return false
	}
	updated := *sub
	f.subs[sub.ID] = &updated
	return true
}

func (f *fakeSubscriptionStore) ApplyConsume(sub *model.StudentSubscription, expectedVersion uint, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.apply(sub, expectedVersion) {
		return false, nil
	}
	f.txns[ref] = sub.ID
	return true, nil
}

func (f *fakeSubscriptionStore) ApplyRefund(sub *model.StudentSubscription, expectedVersion uint, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.apply(sub, expectedVersion) {
		return false, nil
	}
	delete(f.txns, ref)
	return true, nil
}

func (f *fakeSubscriptionStore) UpdateStatusCAS(sub *model.StudentSubscription, expectedVersion uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apply(sub, expectedVersion), nil
}

type fakeProgressReader struct {
	mu     sync.Mutex
	levels map[uint]int
}

func newFakeProgressReader() *fakeProgressReader {
	return &fakeProgressReader{levels: make(map[uint]int)}
}

func (f *fakeProgressReader) GetCurrentLevel(studentID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if level, ok := f.levels[studentID]; ok {
		return level, nil
	}
	return 1, nil
}

type fakeVerificationStore struct {
	mu     sync.Mutex
	nextID uint
	list   []*model.LevelVerification
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{}
}

func (f *fakeVerificationStore) FindByID(id uint) (*model.LevelVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.list {
		if v.ID == id {
			out := *v
			return &out, nil
		}
	}
	return nil, util.ErrVerificationNotFound
}

func (f *fakeVerificationStore) FindLatest(studentID uint, targetLevel int) (*model.LevelVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.list) - 1; i >= 0; i-- {
		v := f.list[i]
		if v.StudentID == studentID && v.TargetLevel == targetLevel {
			out := *v
			return &out, nil
		}
	}
	return nil, util.ErrVerificationNotFound
}

func (f *fakeVerificationStore) Create(v *model.LevelVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	v.ID = f.nextID
	for i := range v.Requirements {
		f.nextID++
		v.Requirements[i].ID = f.nextID
		v.Requirements[i].VerificationID = v.ID
	}
	stored := *v
	stored.Requirements = append([]model.VerificationRequirement(nil), v.Requirements...)
	f.list = append(f.list, &stored)
	return nil
}

func (f *fakeVerificationStore) Update(v *model.LevelVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, stored := range f.list {
		if stored.ID == v.ID {
			updated := *v
			updated.Requirements = append([]model.VerificationRequirement(nil), v.Requirements...)
			updated.Submissions = append([]model.VerificationSubmission(nil), v.Submissions...)
			f.list[i] = &updated
			return nil
		}
	}
	return util.ErrVerificationNotFound
}

func (f *fakeVerificationStore) ListByStudent(studentID uint) ([]model.LevelVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LevelVerification
	for _, v := range f.list {
		if v.StudentID == studentID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVerificationStore) ListPending() ([]model.LevelVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LevelVerification
	for _, v := range f.list {
		if v.Status == model.VerificationPending || v.Status == model.VerificationInProgress {
			out = append(out, *v)
		}
	}
	return out, nil
}

type fakeSlotRequestStore struct {
	mu       sync.Mutex
	nextID   uint
	requests map[uint]*model.SlotRequest
}

func newFakeSlotRequestStore() *fakeSlotRequestStore {
	return &fakeSlotRequestStore{requests: make(map[uint]*model.SlotRequest)}
}

func (f *fakeSlotRequestStore) FindByID(id uint) (*model.SlotRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, util.ErrRequestNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeSlotRequestStore) Create(r *model.SlotRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	stored := *r
	f.requests[r.ID] = &stored
	return nil
}

func (f *fakeSlotRequestStore) Update(r *model.SlotRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[r.ID]; !ok {
		return util.ErrRequestNotFound
	}
	stored := *r
	f.requests[r.ID] = &stored
	return nil
}

func (f *fakeSlotRequestStore) ListByMentor(mentorID uint, status model.SlotRequestStatus) ([]model.SlotRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SlotRequest
	for _, r := range f.requests {
		if r.MentorID != mentorID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeSlotRequestStore) ListByStudent(studentID uint) ([]model.SlotRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SlotRequest
	for _, r := range f.requests {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   uint
	bookings map[string]*model.Booking
	failNext bool
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*model.Booking)}
}

func (f *fakeBookingStore) FindByRef(ref string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[ref]
	if !ok {
		return nil, util.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBookingStore) Create(b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errPersist
	}
	f.nextID++
	b.ID = f.nextID
	stored := *b
	f.bookings[b.Ref] = &stored
	return nil
}

func (f *fakeBookingStore) Update(b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[b.Ref]; !ok {
		return util.ErrBookingNotFound
	}
	stored := *b
	f.bookings[b.Ref] = &stored
	return nil
}

func (f *fakeBookingStore) ListByStudent(studentID uint) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.StudentID == studentID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []model.NotificationEvent
}

func (f *fakeNotifier) Emit(ev model.NotificationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) byKind(kind model.EventKind) []model.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.NotificationEvent
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
