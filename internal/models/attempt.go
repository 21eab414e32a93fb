package models

import (
	"time"
)

type AttemptState string

const (
	AttemptAwaitingFirstItem AttemptState = "awaiting_first_item"
	AttemptInProgress        AttemptState = "in_progress"
	AttemptFinished          AttemptState = "finished"
)

// FinishReason tags how an attempt reached its terminal state.
type FinishReason string

const (
	FinishedByCount      FinishReason = "count"
	FinishedByTime       FinishReason = "time"
	FinishedByClosure    FinishReason = "closure"
	FinishedByExhaustion FinishReason = "exhaustion"
	FinishedByRequest    FinishReason = "request"
)

// ExamAttempt is one student's run through one subject.
type ExamAttempt struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	SubjectID        uint          `json:"subject_id" gorm:"not null;index"`
	StudentID        string        `json:"student_id" gorm:"not null;size:64;index"`
	SessionID        *uint         `json:"session_id" gorm:"index"`
	SeasonID         *uint         `json:"season_id"`
	State            AttemptState  `json:"state" gorm:"size:32;not null;default:awaiting_first_item;index"`
	FinishReason     *FinishReason `json:"finish_reason" gorm:"size:32"`
	MaxItems         int           `json:"max_items" gorm:"not null;default:0"`
	TimeLimitSeconds int           `json:"time_limit_seconds" gorm:"not null;default:0"`
	StartedAt        time.Time     `json:"started_at" gorm:"not null"`
	EndedAt          *time.Time    `json:"ended_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	Session *EvaluationSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
}

func (a *ExamAttempt) IsFinished() bool {
	return a.EndedAt != nil
}

// Finish closes the attempt. It reports false when the attempt was already closed.
func (a *ExamAttempt) Finish(reason FinishReason, at time.Time) bool {
	if a.EndedAt != nil {
		return false
	}
	a.EndedAt = &at
	a.FinishReason = &reason
	a.State = AttemptFinished
	return true
}

// AskedItem is the append-only, ordered record of what an attempt has shown.
type AskedItem struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AttemptID       uint      `json:"attempt_id" gorm:"not null;uniqueIndex:idx_asked_attempt_order;uniqueIndex:idx_asked_attempt_question"`
	QuestionID      uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_asked_attempt_question"`
	Order           int       `json:"order" gorm:"column:item_order;not null;uniqueIndex:idx_asked_attempt_order"`
	DifficultyShown float64   `json:"difficulty_shown" gorm:"not null"`
	PresentedAt     time.Time `json:"presented_at" gorm:"not null"`
}

// AnswerRecord is written once per submitted answer and never changed.
type AnswerRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AttemptID       uint      `json:"attempt_id" gorm:"not null;index:idx_answer_attempt_question"`
	QuestionID      uint      `json:"question_id" gorm:"not null;index:idx_answer_attempt_question"`
	OptionID        uint      `json:"option_id" gorm:"not null"`
	IsCorrect       bool      `json:"is_correct" gorm:"not null"`
	ResponseSeconds float64   `json:"response_seconds" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
}
