package models

import (
	"time"
)

type SessionState string

const (
	SessionWaiting    SessionState = "waiting"
	SessionActive     SessionState = "active"
	SessionInProgress SessionState = "in_progress"
	SessionClosed     SessionState = "closed"
	SessionCancelled  SessionState = "cancelled"
)

type SessionMode string

const (
	SessionModeItemCount    SessionMode = "item_count"
	SessionModeTime         SessionMode = "time"
	SessionModeUntilStopped SessionMode = "until_stopped"
)

// EvaluationSession is the proctored session an attempt may be linked to.
// It is managed elsewhere; the engine only reads it.
type EvaluationSession struct {
	ID               uint         `json:"id" gorm:"primaryKey"`
	Name             string       `json:"name" gorm:"size:200"`
	SubjectID        uint         `json:"subject_id" gorm:"index"`
	State            SessionState `json:"state" gorm:"size:32;not null;default:waiting;index"`
	Mode             SessionMode  `json:"mode" gorm:"size:32;not null;default:item_count"`
	MaxItems         *int         `json:"max_items"`
	TimeLimitSeconds *int         `json:"time_limit_seconds"`
	StartedAt        *time.Time   `json:"started_at"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// IsClosed reports whether the session was closed or cancelled by an administrator.
func (s *EvaluationSession) IsClosed() bool {
	return s.State == SessionClosed || s.State == SessionCancelled
}

// CountCapped is false for sessions that run until an administrator stops them.
func (s *EvaluationSession) CountCapped() bool {
	return s.Mode != SessionModeUntilStopped
}

// InheritsItemCap reports whether attempts in this session fall back to the configured
// item cap when neither the request nor the session sets one. Timed and open-ended
// sessions do not.
func (s *EvaluationSession) InheritsItemCap() bool {
	return s.Mode == "" || s.Mode == SessionModeItemCount
}

// Deadline returns the instant the session's time limit runs out, if it has one.
func (s *EvaluationSession) Deadline() (time.Time, bool) {
	if s.StartedAt == nil || s.TimeLimitSeconds == nil || *s.TimeLimitSeconds <= 0 {
		return time.Time{}, false
	}
	return s.StartedAt.Add(time.Duration(*s.TimeLimitSeconds) * time.Second), true
}
