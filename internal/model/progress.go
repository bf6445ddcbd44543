package model

// StudentProgress mirrors the learning subsystem's view of a student. The
// booking engine only ever reads it; the learning subsystem owns all writes.
type StudentProgress struct {
	BaseModel
	StudentID            uint   `gorm:"not null;uniqueIndex" json:"studentId"`
	CurrentLevel         int    `gorm:"not null;default:1" json:"currentLevel"`
	CompletedMaterials   int    `gorm:"not null;default:0" json:"completedMaterials"`
	CompletedAssignments int    `gorm:"not null;default:0" json:"completedAssignments"`
	CompletedProjects    int    `gorm:"not null;default:0" json:"completedProjects"`
	SkillsAcquired       string `gorm:"type:text" json:"skillsAcquired"` // JSON array of skill codes
}

func (StudentProgress) TableName() string {
	return "student_progress"
}
