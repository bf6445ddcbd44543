package service

import (
	"encoding/json"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
)

// SlotRequestService is the request broker: students ask for times the
// mentor has not published, mentors approve or reject, and approvals
// materialize real slots through the slot ledger.
type SlotRequestService struct {
	Store    SlotRequestStore
	Slots    *SlotService
	Notifier Notifier
}

func NewSlotRequestService(store SlotRequestStore, slots *SlotService, notifier Notifier) *SlotRequestService {
	return &SlotRequestService{
		Store:    store,
		Slots:    slots,
		Notifier: notifier,
	}
}

type SubmitSlotRequest struct {
	MentorID        uint              `json:"mentorId" binding:"required"`
	ScheduleID      uint              `json:"scheduleId"`
	RequestedDate   time.Time         `json:"requestedDate" binding:"required"`
	RequestedTime   string            `json:"requestedTime" binding:"required"` // "15:04"
	DurationMinutes int               `json:"durationMinutes"`
	SessionType     model.SessionType `json:"sessionType"`
	Priority        int               `json:"priority"`
	Notes           string            `json:"notes"`
}

// Submit files a pending request and notifies the mentor.
func (s *SlotRequestService) Submit(studentID uint, req SubmitSlotRequest) (*model.SlotRequest, error) {
	if _, err := time.Parse(util.ClockFormat, req.RequestedTime); err != nil {
		return nil, err
	}
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = model.SessionOnline
	}

	r := &model.SlotRequest{
		StudentID:       studentID,
		MentorID:        req.MentorID,
		ScheduleID:      req.ScheduleID,
		RequestedDate:   req.RequestedDate,
		RequestedTime:   req.RequestedTime,
		DurationMinutes: duration,
		SessionType:     sessionType,
		Status:          model.SlotRequestPending,
		Priority:        req.Priority,
		Notes:           req.Notes,
	}
	if err := s.Store.Create(r); err != nil {
		return nil, err
	}

	s.emit(model.EventNewRequest, req.MentorID, model.RecipientMentor, r)
	return r, nil
}

// Decide settles a pending request. Approval materializes the slot first,
// keyed by the request ID, so a crash between materialization and the
// status write cannot duplicate slots on retry.
func (s *SlotRequestService) Decide(requestID uint, decision model.SlotRequestStatus, mentorID uint, response string) (*model.SlotRequest, error) {
	if decision != model.SlotRequestApproved && decision != model.SlotRequestRejected {
		return nil, util.ErrInvalidTransition
	}

	r, err := s.Store.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	if r.MentorID != mentorID {
		return nil, util.ErrPermissionDenied
	}
	if !r.Status.CanTransitionTo(decision) {
		return nil, util.ErrInvalidTransition
	}

	if decision == model.SlotRequestApproved {
		slot, err := s.Slots.MaterializeFromRequest(r)
		if err != nil {
			return nil, err
		}
		r.ScheduleID = slot.ScheduleID
	}

	now := time.Now()
	r.Status = decision
	r.MentorResponse = response
	r.DecidedAt = &now
	if err := s.Store.Update(r); err != nil {
		return nil, err
	}

	s.emit(model.EventRequestDecided, r.StudentID, model.RecipientStudent, r)
	return r, nil
}

// Cancel lets the requesting student withdraw a still-pending request.
func (s *SlotRequestService) Cancel(requestID, studentID uint) (*model.SlotRequest, error) {
	r, err := s.Store.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	if r.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if !r.Status.CanTransitionTo(model.SlotRequestCancelled) {
		return nil, util.ErrInvalidTransition
	}

	now := time.Now()
	r.Status = model.SlotRequestCancelled
	r.DecidedAt = &now
	if err := s.Store.Update(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByMentor returns a mentor's inbox, optionally filtered by status.
func (s *SlotRequestService) ListByMentor(mentorID uint, status model.SlotRequestStatus) ([]model.SlotRequest, error) {
	return s.Store.ListByMentor(mentorID, status)
}

// ListByStudent returns a student's own requests.
func (s *SlotRequestService) ListByStudent(studentID uint) ([]model.SlotRequest, error) {
	return s.Store.ListByStudent(studentID)
}

func (s *SlotRequestService) emit(kind model.EventKind, recipientID uint, recipientType model.RecipientType, r *model.SlotRequest) {
	if s.Notifier == nil {
		return
	}
	payload, _ := json.Marshal(r)
	s.Notifier.Emit(model.NotificationEvent{
		Kind:          kind,
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Payload:       string(payload),
		Urgency:       model.UrgencyNormal,
	})
}
