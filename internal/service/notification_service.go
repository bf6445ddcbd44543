package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/pkg/logger"
	"mentorhub_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationService is the fan-out collaborator. Emit enqueues and
// returns immediately; a single worker goroutine persists each event and
// publishes it on a per-recipient redis channel. The booking critical path
// never waits on delivery.
type NotificationService struct {
	Store NotificationStore
	rdb   *redis.Client

	events chan model.NotificationEvent
	done   chan struct{}
	once   sync.Once
}

func NewNotificationService(store NotificationStore, rdb *redis.Client, queueSize int) *NotificationService {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &NotificationService{
		Store:  store,
		rdb:    rdb,
		events: make(chan model.NotificationEvent, queueSize),
		done:   make(chan struct{}),
	}
}

// Emit queues an event without blocking. When the queue is full the event
// is dropped with a warning; delivery is best-effort by contract.
func (s *NotificationService) Emit(ev model.NotificationEvent) {
	select {
	case s.events <- ev:
	default:
		monitoring.NotificationDrops.Inc()
		logger.Log.Warn("notification queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.Uint("recipientId", ev.RecipientID),
		)
	}
}

// Run drains the queue until Stop is called. Meant to run as a goroutine
// from app startup.
func (s *NotificationService) Run() {
	for ev := range s.events {
		s.deliver(ev)
	}
	close(s.done)
}

// Stop closes the queue and waits for the worker to finish the backlog.
func (s *NotificationService) Stop() {
	s.once.Do(func() {
		close(s.events)
	})
	<-s.done
}

func (s *NotificationService) deliver(ev model.NotificationEvent) {
	if err := s.publish(&ev); err != nil {
		logger.Log.Warn("notification publish failed",
			zap.String("kind", string(ev.Kind)),
			zap.Uint("recipientId", ev.RecipientID),
			zap.Error(err),
		)
	} else {
		ev.Delivered = true
	}

	if s.Store != nil {
		if err := s.Store.Create(&ev); err != nil {
			logger.Log.Error("notification persist failed",
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (s *NotificationService) publish(ev *model.NotificationEvent) error {
	if s.rdb == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("notifications:%s:%d", ev.RecipientType, ev.RecipientID)
	return s.rdb.Publish(context.Background(), channel, body).Err()
}

// ListByRecipient returns the stored feed for one recipient.
func (s *NotificationService) ListByRecipient(recipientType model.RecipientType, recipientID uint, limit int) ([]model.NotificationEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Store.ListByRecipient(recipientType, recipientID, limit)
}
