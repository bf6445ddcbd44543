package service

import (
	"sort"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/logger"

	"go.uber.org/zap"
)

// SubscriptionService is the session-credit ledger. Balance mutations are
// optimistic compare-and-update per subscription, so concurrent consumes
// and the expiry sweep can interleave without ever breaking
// used + remaining == total.
type SubscriptionService struct {
	Store   SubscriptionStore
	Retries int
}

func NewSubscriptionService(store SubscriptionStore, retries int) *SubscriptionService {
	if retries <= 0 {
		retries = defaultReserveRetries
	}
	return &SubscriptionService{Store: store, Retries: retries}
}

// earlierExpiry orders subscriptions for selection: soonest expiry first,
// ties broken by ID so the pick is stable across backends.
func earlierExpiry(a, b *model.StudentSubscription) bool {
	if !a.ExpiryDate.Equal(b.ExpiryDate) {
		return a.ExpiryDate.Before(b.ExpiryDate)
	}
	return a.ID < b.ID
}

// FindActive returns the subscription a booking should draw from: active,
// credits remaining, not expired, earliest expiry first.
func (s *SubscriptionService) FindActive(studentID uint) (*model.StudentSubscription, error) {
	subs, err := s.Store.FindUsableByStudent(studentID, time.Now())
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, util.ErrNoActiveSubscription
	}
	sort.Slice(subs, func(i, j int) bool {
		return earlierExpiry(&subs[i], &subs[j])
	})
	return &subs[0], nil
}

// Consume debits one session credit under ref. A ref that was already
// recorded is a no-op success, which keeps saga retries from double
// charging.
func (s *SubscriptionService) Consume(subscriptionID uint, ref string) error {
	for attempt := 0; attempt < s.Retries; attempt++ {
		sub, err := s.Store.FindByID(subscriptionID)
		if err != nil {
			return err
		}

		recorded, err := s.Store.HasTransaction(sub.ID, ref)
		if err != nil {
			return err
		}
		if recorded {
			return nil
		}

		if sub.Status != model.SubscriptionActive {
			return util.ErrNotActive
		}
		if !time.Now().Before(sub.ExpiryDate) {
			return util.ErrExpired
		}
		if sub.RemainingSessions <= 0 {
			return util.ErrExhausted
		}

		expected := sub.Version
		sub.UsedSessions++
		sub.RemainingSessions--
		sub.Version++

		ok, err := s.Store.ApplyConsume(sub, expected, ref)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return util.ErrConcurrencyConflict
}

// Refund reverses a prior Consume identified by ref. A ref with no recorded
// transaction is a no-op success (the consume never happened, or was
// already refunded).
func (s *SubscriptionService) Refund(subscriptionID uint, ref string) error {
	for attempt := 0; attempt < s.Retries; attempt++ {
		sub, err := s.Store.FindByID(subscriptionID)
		if err != nil {
			return err
		}

		recorded, err := s.Store.HasTransaction(sub.ID, ref)
		if err != nil {
			return err
		}
		if !recorded {
			return nil
		}

		expected := sub.Version
		sub.RemainingSessions++
		if sub.RemainingSessions > sub.TotalSessions {
			sub.RemainingSessions = sub.TotalSessions
		}
		sub.UsedSessions = sub.TotalSessions - sub.RemainingSessions
		sub.Version++

		ok, err := s.Store.ApplyRefund(sub, expected, ref)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return util.ErrConcurrencyConflict
}

// SweepExpired transitions every active subscription past its expiry date
// to expired and returns how many it moved. Records that lose their CAS to
// a concurrent consume are left for the next sweep.
func (s *SubscriptionService) SweepExpired() (int, error) {
	subs, err := s.Store.ListActiveExpired(time.Now())
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range subs {
		sub := subs[i]
		if !sub.Status.CanTransitionTo(model.SubscriptionExpired) {
			continue
		}
		expected := sub.Version
		sub.Status = model.SubscriptionExpired
		sub.Version++

		ok, err := s.Store.UpdateStatusCAS(&sub, expected)
		if err != nil {
			logger.Log.Error("expiry sweep update failed",
				zap.Uint("subscriptionId", sub.ID), zap.Error(err))
			continue
		}
		if ok {
			count++
		}
	}
	return count, nil
}

type GrantSubscriptionRequest struct {
	StudentID     uint `json:"studentId" binding:"required"`
	TotalSessions int  `json:"totalSessions" binding:"required,min=1"`
	ValidityDays  int  `json:"validityDays" binding:"required,min=1"`
}

// Grant creates a new prepaid bundle for a student.
func (s *SubscriptionService) Grant(req GrantSubscriptionRequest) (*model.StudentSubscription, error) {
	now := time.Now()
	sub := &model.StudentSubscription{
		StudentID:         req.StudentID,
		TotalSessions:     req.TotalSessions,
		RemainingSessions: req.TotalSessions,
		PurchaseDate:      now,
		ExpiryDate:        now.AddDate(0, 0, req.ValidityDays),
		Status:            model.SubscriptionActive,
	}
	if err := s.Store.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ListByStudent returns all of a student's subscriptions, newest first.
func (s *SubscriptionService) ListByStudent(studentID uint) ([]model.StudentSubscription, error) {
	return s.Store.ListByStudent(studentID)
}
