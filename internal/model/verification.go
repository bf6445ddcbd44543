package model

import (
	"time"
)

type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationInProgress VerificationStatus = "in_progress"
	VerificationApproved   VerificationStatus = "approved"
	VerificationRejected   VerificationStatus = "rejected"
)

var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationPending:    {VerificationInProgress, VerificationApproved, VerificationRejected},
	VerificationInProgress: {VerificationApproved, VerificationRejected},
	VerificationApproved:   {},
	VerificationRejected:   {},
}

func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	for _, allowed := range verificationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s VerificationStatus) Terminal() bool {
	return len(verificationTransitions[s]) == 0
}

type VerificationType string

const (
	VerificationLevelJump  VerificationType = "level_jump"
	VerificationAssessment VerificationType = "regular_assessment"
)

// LevelVerification is a student's request to book above their current
// level. At most one non-terminal record per (student, targetLevel) is
// meaningful; the eligibility gate always works off the most recent one.
// swagger:model LevelVerification
type LevelVerification struct {
	BaseModel
	StudentID    uint                      `gorm:"not null;index:idx_student_target" json:"studentId"`
	JourneyID    string                    `gorm:"size:64" json:"journeyId,omitempty"`
	CurrentLevel int                       `gorm:"not null" json:"currentLevel"`
	TargetLevel  int                       `gorm:"not null;index:idx_student_target" json:"targetLevel"`
	Type         VerificationType          `gorm:"type:enum('level_jump','regular_assessment');default:'level_jump'" json:"type"`
	Status       VerificationStatus        `gorm:"type:enum('pending','in_progress','approved','rejected');default:'pending'" json:"status"`
	ReviewerID   *uint                     `json:"reviewerId,omitempty"`
	Feedback     string                    `gorm:"type:text" json:"feedback,omitempty"`
	DecidedAt    *time.Time                `json:"decidedAt,omitempty"`
	Requirements []VerificationRequirement `gorm:"foreignKey:VerificationID;constraint:OnDelete:CASCADE" json:"requirements"`
	Submissions  []VerificationSubmission  `gorm:"foreignKey:VerificationID;constraint:OnDelete:CASCADE" json:"submissions,omitempty"`
}

func (LevelVerification) TableName() string {
	return "level_verifications"
}

type RequirementStatus string

const (
	RequirementPending   RequirementStatus = "pending"
	RequirementSubmitted RequirementStatus = "submitted"
	RequirementGraded    RequirementStatus = "graded"
)

type RequirementType string

const (
	RequirementAssignment RequirementType = "assignment"
	RequirementProject    RequirementType = "project"
)

// VerificationRequirement is one item of the checklist a verification is
// created with.
type VerificationRequirement struct {
	BaseModel
	VerificationID uint              `gorm:"not null;index" json:"verificationId"`
	Type           RequirementType   `gorm:"type:enum('assignment','project');not null" json:"type"`
	RefID          string            `gorm:"size:64" json:"refId,omitempty"`
	Status         RequirementStatus `gorm:"type:enum('pending','submitted','graded');default:'pending'" json:"status"`
	Score          *int              `json:"score,omitempty"`
}

func (VerificationRequirement) TableName() string {
	return "verification_requirements"
}

// VerificationSubmission is student-supplied evidence for one requirement.
type VerificationSubmission struct {
	BaseModel
	VerificationID uint   `gorm:"not null;index" json:"verificationId"`
	RequirementID  uint   `gorm:"not null" json:"requirementId"`
	StudentID      uint   `gorm:"not null" json:"studentId"`
	Content        string `gorm:"type:text" json:"content"`
	AttachmentURL  string `gorm:"size:255" json:"attachmentUrl,omitempty"`
}

func (VerificationSubmission) TableName() string {
	return "verification_submissions"
}
