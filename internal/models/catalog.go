package models

import (
	"time"
)

// Subject is an academic subject; areas, topics and standards hang off it.
type Subject struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:150;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`

	Areas []Area `json:"areas,omitempty" gorm:"foreignKey:SubjectID"`
}

type Area struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SubjectID uint   `json:"subject_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"not null;size:150"`

	Topics []Topic `json:"topics,omitempty" gorm:"foreignKey:AreaID"`
}

type Topic struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	AreaID uint   `json:"area_id" gorm:"not null;index"`
	Name   string `json:"name" gorm:"not null;size:200"`

	Standards []Standard `json:"standards,omitempty" gorm:"foreignKey:TopicID"`
}

// Standard is the atomic competency unit. Higher DifficultyValue means harder.
type Standard struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	TopicID         uint    `json:"topic_id" gorm:"not null;index"`
	Name            string  `json:"name" gorm:"not null;size:255"`
	DifficultyValue float64 `json:"difficulty_value" gorm:"not null;index"`

	Topic *Topic `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
}

type Question struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StandardID uint      `json:"standard_id" gorm:"not null;index"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	Active     bool      `json:"active" gorm:"default:true;index"`
	CreatedAt  time.Time `json:"created_at"`

	Standard *Standard      `json:"standard,omitempty" gorm:"foreignKey:StandardID"`
	Options  []AnswerOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

// AnswerOption is the single canonical option entity. IsCorrect never leaves the server.
type AnswerOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"-" gorm:"not null;default:false"`
}

// PlacedQuestion is a question resolved through its standard to the owning area.
type PlacedQuestion struct {
	QuestionID      uint    `json:"question_id"`
	StandardID      uint    `json:"standard_id"`
	AreaID          uint    `json:"area_id"`
	SubjectID       uint    `json:"subject_id"`
	DifficultyValue float64 `json:"difficulty_value"`
	Active          bool    `json:"active"`
}

// Student carries the ability estimate used to seed the first target.
type Student struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	FullName     string    `json:"full_name" gorm:"size:200"`
	AverageScore *float64  `json:"average_score"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Ability returns the student's average or 0 when none is recorded.
func (s *Student) Ability() float64 {
	if s == nil || s.AverageScore == nil {
		return 0
	}
	return *s.AverageScore
}

// Direction selects which side of a difficulty value a neighbouring standard is looked up on.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)
