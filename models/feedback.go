package models

import (
	"time"

	"gorm.io/gorm"
)

// Feedback category names as written to storage
const (
	CategoryCommunicationSkills  = "communicationSkills"
	CategoryTechnicalKnowledge   = "technicalKnowledge"
	CategoryProblemSolving       = "problemSolving"
	CategoryCulturalFit          = "culturalFit"
	CategoryConfidenceAndClarity = "confidenceAndClarity"
)

// Feedback represents the AI evaluation of one completed interview
type Feedback struct {
	ID                  string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InterviewID         string         `gorm:"type:uuid;not null;index" json:"interview_id"`
	UserID              string         `gorm:"type:uuid;not null;index" json:"user_id"`
	TotalScore          int            `gorm:"not null" json:"total_score"` // 0 to 100
	CategoryScores      CategoryScores `gorm:"type:jsonb;serializer:json" json:"category_scores"`
	Strengths           string         `gorm:"type:text;not null" json:"strengths"`
	AreasForImprovement string         `gorm:"type:text;not null" json:"areas_for_improvement"`
	FinalAssessment     string         `gorm:"type:text;not null" json:"final_assessment"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Interview Interview `gorm:"foreignKey:InterviewID" json:"interview,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// CategoryScores holds the five fixed evaluation categories, each 0 to 100
type CategoryScores struct {
	CommunicationSkills  int `json:"communicationSkills"`
	TechnicalKnowledge   int `json:"technicalKnowledge"`
	ProblemSolving       int `json:"problemSolving"`
	CulturalFit          int `json:"culturalFit"`
	ConfidenceAndClarity int `json:"confidenceAndClarity"`
}
