package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
)

// LevelCheckPolicy is the engine's gating policy, loaded from config and
// hot-reloadable.
type LevelCheckPolicy struct {
	AutoCheck      bool
	AllowLevelJump bool
	MaxLevelGap    int
}

// LevelCheckResult is what the gate hands back to callers; Reason and
// SuggestedAction are user-facing.
type LevelCheckResult struct {
	CanBook            bool                      `json:"canBook"`
	Reason             string                    `json:"reason,omitempty"`
	SuggestedAction    string                    `json:"suggestedAction,omitempty"`
	RequiredLevel      int                       `json:"requiredLevel"`
	StudentLevel       int                       `json:"studentLevel"`
	HasVerification    bool                      `json:"hasVerification"`
	VerificationStatus *model.VerificationStatus `json:"verificationStatus,omitempty"`
}

// EligibilityService decides whether a student may book a level-gated slot
// and owns the level-jump verification workflow.
type EligibilityService struct {
	Progress      ProgressReader
	Verifications VerificationStore
	Notifier      Notifier

	mu     sync.RWMutex
	policy LevelCheckPolicy
}

func NewEligibilityService(progress ProgressReader, verifications VerificationStore, notifier Notifier, policy LevelCheckPolicy) *EligibilityService {
	return &EligibilityService{
		Progress:      progress,
		Verifications: verifications,
		Notifier:      notifier,
		policy:        policy,
	}
}

func (s *EligibilityService) Policy() LevelCheckPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// SetPolicy swaps in a new policy (config hot reload).
func (s *EligibilityService) SetPolicy(p LevelCheckPolicy) {
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

// CheckLevel runs the gate for one (student, requiredLevel) pair.
func (s *EligibilityService) CheckLevel(studentID uint, requiredLevel *int, policy LevelCheckPolicy) (*LevelCheckResult, error) {
	if requiredLevel == nil || !policy.AutoCheck {
		return &LevelCheckResult{CanBook: true}, nil
	}
	required := *requiredLevel

	level, err := s.Progress.GetCurrentLevel(studentID)
	if err != nil {
		return nil, err
	}

	result := &LevelCheckResult{
		RequiredLevel: required,
		StudentLevel:  level,
	}

	if level >= required {
		result.CanBook = true
		return result, nil
	}

	if !policy.AllowLevelJump {
		result.Reason = fmt.Sprintf("minimum level %d required, you are level %d", required, level)
		result.SuggestedAction = fmt.Sprintf("keep progressing until you reach level %d", required)
		return result, nil
	}

	verification, err := s.Verifications.FindLatest(studentID, required)
	if err != nil && !errors.Is(err, util.ErrVerificationNotFound) {
		return nil, err
	}

	if verification != nil {
		result.HasVerification = true
		status := verification.Status
		result.VerificationStatus = &status

		switch verification.Status {
		case model.VerificationApproved:
			result.CanBook = true
			return result, nil
		case model.VerificationPending, model.VerificationInProgress:
			result.Reason = "level verification pending review"
			result.SuggestedAction = "wait for the reviewer's decision before booking"
			return result, nil
		}
	}

	// No verification, or the latest one was rejected.
	result.Reason = fmt.Sprintf("minimum level %d required, you are level %d", required, level)
	result.SuggestedAction = fmt.Sprintf("request a level verification to book level %d sessions", required)
	return result, nil
}

// RequestVerification opens a level-jump verification for (student,
// targetLevel). While a non-terminal one exists it is returned instead of
// forking a second workflow.
func (s *EligibilityService) RequestVerification(studentID uint, targetLevel int, journeyID string) (*model.LevelVerification, error) {
	existing, err := s.Verifications.FindLatest(studentID, targetLevel)
	if err != nil && !errors.Is(err, util.ErrVerificationNotFound) {
		return nil, err
	}
	if existing != nil && !existing.Status.Terminal() {
		return existing, nil
	}

	level, err := s.Progress.GetCurrentLevel(studentID)
	if err != nil {
		return nil, err
	}

	v := &model.LevelVerification{
		StudentID:    studentID,
		JourneyID:    journeyID,
		CurrentLevel: level,
		TargetLevel:  targetLevel,
		Type:         model.VerificationLevelJump,
		Status:       model.VerificationPending,
		Requirements: []model.VerificationRequirement{
			{Type: model.RequirementAssignment, Status: model.RequirementPending},
			{Type: model.RequirementProject, Status: model.RequirementPending},
		},
	}
	if err := s.Verifications.Create(v); err != nil {
		return nil, err
	}
	return v, nil
}

type SubmitRequirementRequest struct {
	RequirementID uint   `json:"requirementId" binding:"required"`
	Content       string `json:"content" binding:"required"`
	AttachmentURL string `json:"attachmentUrl"`
}

// SubmitRequirement records student evidence for one checklist item and
// moves a pending verification to in_progress on the first submission.
func (s *EligibilityService) SubmitRequirement(verificationID, studentID uint, req SubmitRequirementRequest) (*model.LevelVerification, error) {
	v, err := s.Verifications.FindByID(verificationID)
	if err != nil {
		return nil, err
	}
	if v.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if v.Status.Terminal() {
		return nil, util.ErrInvalidTransition
	}

	found := false
	for i := range v.Requirements {
		if v.Requirements[i].ID == req.RequirementID {
			v.Requirements[i].Status = model.RequirementSubmitted
			found = true
			break
		}
	}
	if !found {
		return nil, util.ErrVerificationNotFound
	}

	v.Submissions = append(v.Submissions, model.VerificationSubmission{
		VerificationID: v.ID,
		RequirementID:  req.RequirementID,
		StudentID:      studentID,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
	})

	if v.Status == model.VerificationPending {
		v.Status = model.VerificationInProgress
	}

	if err := s.Verifications.Update(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decide settles a verification. Only approved and rejected are accepted,
// and only from a non-terminal state.
func (s *EligibilityService) Decide(verificationID uint, decision model.VerificationStatus, reviewerID uint, feedback string) (*model.LevelVerification, error) {
	if decision != model.VerificationApproved && decision != model.VerificationRejected {
		return nil, util.ErrInvalidTransition
	}

	v, err := s.Verifications.FindByID(verificationID)
	if err != nil {
		return nil, err
	}
	if !v.Status.CanTransitionTo(decision) {
		return nil, util.ErrInvalidTransition
	}

	now := time.Now()
	v.Status = decision
	v.ReviewerID = &reviewerID
	v.Feedback = feedback
	v.DecidedAt = &now

	if err := s.Verifications.Update(v); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"verificationId": v.ID,
			"targetLevel":    v.TargetLevel,
			"status":         v.Status,
			"feedback":       feedback,
		})
		s.Notifier.Emit(model.NotificationEvent{
			Kind:          model.EventVerification,
			RecipientID:   v.StudentID,
			RecipientType: model.RecipientStudent,
			Payload:       string(payload),
			Urgency:       model.UrgencyNormal,
		})
	}

	return v, nil
}

// GroupCompatibilityResult reports whether a set of students is close
// enough in level to share a group slot.
type GroupCompatibilityResult struct {
	Compatible bool         `json:"compatible"`
	Levels     map[uint]int `json:"levels"`
	Reason     string       `json:"reason,omitempty"`
}

// CheckGroupCompatibility fetches every student's level and compares the
// spread against maxLevelGap.
func (s *EligibilityService) CheckGroupCompatibility(studentIDs []uint, requiredLevel *int, maxLevelGap int) (*GroupCompatibilityResult, error) {
	if len(studentIDs) == 0 {
		return nil, errors.New("at least one student is required")
	}

	levels := make(map[uint]int, len(studentIDs))
	minLevel, maxLevel := 0, 0
	for i, id := range studentIDs {
		level, err := s.Progress.GetCurrentLevel(id)
		if err != nil {
			return nil, err
		}
		levels[id] = level
		if i == 0 || level < minLevel {
			minLevel = level
		}
		if i == 0 || level > maxLevel {
			maxLevel = level
		}
	}

	result := &GroupCompatibilityResult{Levels: levels, Compatible: true}
	if maxLevel-minLevel > maxLevelGap {
		result.Compatible = false
		result.Reason = fmt.Sprintf("level gap %d exceeds the allowed maximum of %d", maxLevel-minLevel, maxLevelGap)
	}
	return result, nil
}

// ListVerifications returns a student's verification history.
func (s *EligibilityService) ListVerifications(studentID uint) ([]model.LevelVerification, error) {
	return s.Verifications.ListByStudent(studentID)
}

// ListPendingVerifications returns the reviewer queue.
func (s *EligibilityService) ListPendingVerifications() ([]model.LevelVerification, error) {
	return s.Verifications.ListPending()
}
