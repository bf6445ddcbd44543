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

func grantSub(t *testing.T, store *fakeSubscriptionStore, studentID uint, total int, expiry time.Time) uint {
	t.Helper()
	sub := &model.StudentSubscription{
		StudentID:         studentID,
		TotalSessions:     total,
		RemainingSessions: total,
		PurchaseDate:      time.Now(),
		ExpiryDate:        expiry,
		Status:            model.SubscriptionActive,
	}
	require.NoError(t, store.Create(sub))
	return sub.ID
}

func assertBalance(t *testing.T, store *fakeSubscriptionStore, id uint) {
	t.Helper()
	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, sub.TotalSessions, sub.UsedSessions+sub.RemainingSessions,
		"used + remaining must always equal total")
	assert.GreaterOrEqual(t, sub.RemainingSessions, 0)
}

func TestConsumeDebitsOneCredit(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(30*24*time.Hour))

	require.NoError(t, svc.Consume(id, "ref-1"))

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.UsedSessions)
	assert.Equal(t, 4, sub.RemainingSessions)
	assertBalance(t, store, id)
}

func TestConsumeIsIdempotentPerRef(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(30*24*time.Hour))

	require.NoError(t, svc.Consume(id, "ref-1"))
	require.NoError(t, svc.Consume(id, "ref-1"))

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.UsedSessions, "repeat consume with the same ref must not double charge")
}

func TestConsumeExhausted(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 1, time.Now().Add(30*24*time.Hour))

	require.NoError(t, svc.Consume(id, "ref-1"))
	assert.ErrorIs(t, svc.Consume(id, "ref-2"), util.ErrExhausted)
	assertBalance(t, store, id)
}

func TestConsumeExpired(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(-time.Hour))

	assert.ErrorIs(t, svc.Consume(id, "ref-1"), util.ErrExpired)
}

func TestConsumeInactive(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(30*24*time.Hour))

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	expected := sub.Version
	sub.Status = model.SubscriptionSuspended
	sub.Version++
	ok, err := store.UpdateStatusCAS(sub, expected)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, svc.Consume(id, "ref-1"), util.ErrNotActive)
}

func TestRefundRestoresCredit(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(30*24*time.Hour))

	require.NoError(t, svc.Consume(id, "ref-1"))
	require.NoError(t, svc.Refund(id, "ref-1"))

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 5, sub.RemainingSessions)
	assert.Equal(t, 0, sub.UsedSessions)
	assertBalance(t, store, id)
}

func TestRefundUnknownRefIsNoop(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(30*24*time.Hour))

	require.NoError(t, svc.Refund(id, "never-consumed"))

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 5, sub.RemainingSessions, "refund of an unknown ref must not mint credits")
}

func TestRefundIsIdempotent(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)
	id := grantSub(t, store, 1, 5, time.Now().Add(30*24*time.Hour))

	require.NoError(t, svc.Consume(id, "ref-1"))
	require.NoError(t, svc.Refund(id, "ref-1"))
	require.NoError(t, svc.Refund(id, "ref-1"))

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 5, sub.RemainingSessions)
	assertBalance(t, store, id)
}

func TestConcurrentConsumesPreserveBalance(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 50)
	id := grantSub(t, store, 1, 4, time.Now().Add(30*24*time.Hour))

	const racers = 10
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Consume(id, model.GenerateRef())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}

	sub, err := store.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, winners, sub.UsedSessions)
	assert.LessOrEqual(t, winners, 4)
	assertBalance(t, store, id)
}

func TestFindActivePrefersEarliestExpiry(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)

	later := grantSub(t, store, 1, 5, time.Now().Add(60*24*time.Hour))
	sooner := grantSub(t, store, 1, 5, time.Now().Add(10*24*time.Hour))
	_ = later

	sub, err := svc.FindActive(1)
	require.NoError(t, err)
	assert.Equal(t, sooner, sub.ID)
}

func TestFindActiveTieBrokenByID(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)

	expiry := time.Now().Add(10 * 24 * time.Hour).Truncate(time.Second)
	first := grantSub(t, store, 1, 5, expiry)
	grantSub(t, store, 1, 5, expiry)

	sub, err := svc.FindActive(1)
	require.NoError(t, err)
	assert.Equal(t, first, sub.ID)
}

func TestFindActiveSkipsUnusable(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)

	expired := grantSub(t, store, 1, 5, time.Now().Add(-time.Hour))
	drained := grantSub(t, store, 1, 1, time.Now().Add(30*24*time.Hour))
	require.NoError(t, svc.Consume(drained, "ref-x"))
	_ = expired

	_, err := svc.FindActive(1)
	assert.ErrorIs(t, err, util.ErrNoActiveSubscription)
}

func TestSweepExpired(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)

	stale := grantSub(t, store, 1, 5, time.Now().Add(-time.Hour))
	fresh := grantSub(t, store, 2, 5, time.Now().Add(30*24*time.Hour))

	count, err := svc.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	sub, err := store.FindByID(stale)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionExpired, sub.Status)

	sub, err = store.FindByID(fresh)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, sub.Status)

	// A second sweep finds nothing left to move.
	count, err = svc.SweepExpired()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGrant(t *testing.T) {
	store := newFakeSubscriptionStore()
	svc := NewSubscriptionService(store, 10)

	sub, err := svc.Grant(GrantSubscriptionRequest{StudentID: 9, TotalSessions: 8, ValidityDays: 30})
	require.NoError(t, err)
	assert.Equal(t, 8, sub.RemainingSessions)
	assert.Zero(t, sub.UsedSessions)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	assert.True(t, sub.ExpiryDate.After(time.Now().Add(29*24*time.Hour)))
	assertBalance(t, store, sub.ID)
}
