package adaptive

import (
	"time"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

// TerminationInput is everything the stop rule looks at after an answer is recorded.
type TerminationInput struct {
	Attempt    *models.ExamAttempt
	Session    *models.EvaluationSession
	AskedCount int
	Now        time.Time
}

// CheckTermination applies the stop conditions in precedence order: session closure,
// then time, then item count. A session run until stopped has no item cap. It returns
// false when the attempt should continue.
func CheckTermination(in TerminationInput) (models.FinishReason, bool) {
	if in.Session != nil && in.Session.IsClosed() {
		return models.FinishedByClosure, true
	}

	if deadline, ok := Deadline(in.Attempt, in.Session); ok && in.Now.After(deadline) {
		return models.FinishedByTime, true
	}

	if in.Session != nil && !in.Session.CountCapped() {
		return "", false
	}
	if in.Attempt != nil && in.Attempt.MaxItems > 0 && in.AskedCount >= in.Attempt.MaxItems {
		return models.FinishedByCount, true
	}

	return "", false
}

// Deadline prefers the linked session's clock and falls back to the attempt's own limit.
func Deadline(attempt *models.ExamAttempt, session *models.EvaluationSession) (time.Time, bool) {
	if session != nil {
		if deadline, ok := session.Deadline(); ok {
			return deadline, true
		}
	}
	if attempt != nil && attempt.TimeLimitSeconds > 0 {
		return attempt.StartedAt.Add(time.Duration(attempt.TimeLimitSeconds) * time.Second), true
	}
	return time.Time{}, false
}
