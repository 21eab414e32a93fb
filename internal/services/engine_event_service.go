package services

import (
	"context"
	"log/slog"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/events"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

// EngineEventService publishes engine lifecycle events. Publishing is advisory: failures
// are logged and never returned to the engine.
type EngineEventService interface {
	NotifyAttemptStarted(ctx context.Context, attempt *models.ExamAttempt, firstQuestionID uint, target float64)
	NotifyAttemptFinished(ctx context.Context, attempt *models.ExamAttempt, summary *models.AttemptSummary)
	NotifyRecommendationIssued(ctx context.Context, attempt *models.ExamAttempt, questionID, standardID uint)
}

type engineEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

// NewEngineEventService accepts a nil publisher, in which case nothing is published.
func NewEngineEventService(eventPublisher events.EventPublisher, logger *slog.Logger) EngineEventService {
	return &engineEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *engineEventService) NotifyAttemptStarted(ctx context.Context, attempt *models.ExamAttempt, firstQuestionID uint, target float64) {
	s.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		AttemptID:     attempt.ID,
		SubjectID:     attempt.SubjectID,
		StudentID:     attempt.StudentID,
		SessionID:     attempt.SessionID,
		FirstQuestion: firstQuestionID,
		Target:        target,
		StartedAt:     attempt.StartedAt,
	}))
}

func (s *engineEventService) NotifyAttemptFinished(ctx context.Context, attempt *models.ExamAttempt, summary *models.AttemptSummary) {
	data := events.AttemptFinishedEvent{
		AttemptID: attempt.ID,
		SubjectID: attempt.SubjectID,
		StudentID: attempt.StudentID,
		Summary:   summary,
	}
	if attempt.FinishReason != nil {
		data.Reason = *attempt.FinishReason
	}
	if attempt.EndedAt != nil {
		data.EndedAt = *attempt.EndedAt
	}
	s.publish(ctx, events.NewAttemptFinishedEvent(data))
}

func (s *engineEventService) NotifyRecommendationIssued(ctx context.Context, attempt *models.ExamAttempt, questionID, standardID uint) {
	s.publish(ctx, events.NewRecommendationIssuedEvent(events.RecommendationIssuedEvent{
		StudentID:  attempt.StudentID,
		StandardID: standardID,
		AttemptID:  attempt.ID,
		QuestionID: questionID,
		Reason:     models.RecommendationReasonIncorrect,
	}))
}

func (s *engineEventService) publish(ctx context.Context, event *events.EngineEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish engine event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
