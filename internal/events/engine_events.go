package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

// EventType represents the kinds of events the adaptive engine emits
type EventType string

const (
	EventAttemptStarted       EventType = "attempt.started"
	EventAttemptFinished      EventType = "attempt.finished"
	EventRecommendationIssued EventType = "recommendation.issued"
)

const (
	eventSource  = "adaptive-exam-service"
	eventVersion = "1.0"
)

// EngineEvent is the envelope for every published event
type EngineEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	SubjectID     uint      `json:"subject_id"`
	StudentID     string    `json:"student_id"`
	SessionID     *uint     `json:"session_id,omitempty"`
	FirstQuestion uint      `json:"first_question_id"`
	Target        float64   `json:"target"`
	StartedAt     time.Time `json:"started_at"`
}

type AttemptFinishedEvent struct {
	AttemptID uint                   `json:"attempt_id"`
	SubjectID uint                   `json:"subject_id"`
	StudentID string                 `json:"student_id"`
	Reason    models.FinishReason    `json:"reason"`
	EndedAt   time.Time              `json:"ended_at"`
	Summary   *models.AttemptSummary `json:"summary,omitempty"`
}

type RecommendationIssuedEvent struct {
	StudentID  string `json:"student_id"`
	StandardID uint   `json:"standard_id"`
	AttemptID  uint   `json:"attempt_id"`
	QuestionID uint   `json:"question_id"`
	Reason     string `json:"reason"`
}

func newEvent(eventType EventType, data interface{}) *EngineEvent {
	return &EngineEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAttemptStartedEvent(data AttemptStartedEvent) *EngineEvent {
	return newEvent(EventAttemptStarted, data)
}

func NewAttemptFinishedEvent(data AttemptFinishedEvent) *EngineEvent {
	return newEvent(EventAttemptFinished, data)
}

func NewRecommendationIssuedEvent(data RecommendationIssuedEvent) *EngineEvent {
	return newEvent(EventRecommendationIssued, data)
}
