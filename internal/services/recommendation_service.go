package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 100

	RecommendationListCurrent   = "recommendations"
	RecommendationListAggregate = "answers"
)

// recommender writes practice recommendations for missed standards. Every write here is
// advisory and runs outside the engine's transaction.
type recommender struct {
	repo   repositories.Repository
	events EngineEventService
	logger *slog.Logger
	now    func() time.Time
}

// recordMiss adds one point of priority to the standard behind a wrong answer.
func (r *recommender) recordMiss(ctx context.Context, attempt *models.ExamAttempt, questionID uint) {
	placed, err := r.repo.Catalog().GetPlacedQuestion(ctx, nil, questionID)
	if err != nil {
		r.logger.Warn("Failed to resolve standard for recommendation",
			"attempt_id", attempt.ID,
			"question_id", questionID,
			"error", err)
		return
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"attempt_id":  attempt.ID,
		"question_id": questionID,
	})

	now := r.now()
	rec := &models.Recommendation{
		StudentID:  attempt.StudentID,
		StandardID: placed.StandardID,
		Current:    true,
		Priority:   1,
		Source:     models.RecommendationSourceAdaptive,
		Reason:     models.RecommendationReasonIncorrect,
		Metadata:   datatypes.JSON(metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.repo.Recommendation().Upsert(ctx, nil, rec); err != nil {
		r.logger.Warn("Failed to upsert recommendation",
			"student_id", attempt.StudentID,
			"standard_id", placed.StandardID,
			"error", err)
		return
	}

	r.events.NotifyRecommendationIssued(ctx, attempt, questionID, placed.StandardID)
}

// backfill makes sure every standard missed in the attempt has a current recommendation.
func (r *recommender) backfill(ctx context.Context, attempt *models.ExamAttempt) {
	misses, err := r.repo.Answer().MissesByStandard(ctx, nil, attempt.ID)
	if err != nil {
		r.logger.Warn("Failed to count missed standards", "attempt_id", attempt.ID, "error", err)
		return
	}
	if err := r.repo.Recommendation().Reconcile(ctx, nil, attempt.StudentID, misses); err != nil {
		r.logger.Warn("Failed to backfill recommendations",
			"attempt_id", attempt.ID,
			"student_id", attempt.StudentID,
			"error", err)
	}
}

type recommendationService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewRecommendationService(repo repositories.Repository, logger *slog.Logger) RecommendationService {
	return &recommendationService{
		repo:   repo,
		logger: logger,
	}
}

// ListForStudent returns the student's current recommendations by priority. A student
// without any gets a ranking of the standards they missed most.
func (s *recommendationService) ListForStudent(ctx context.Context, studentID string, limit int) (*RecommendationListResponse, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrStudentUnresolved
	}
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}
	filters := repositories.RecommendationFilters{Limit: limit}

	views, err := s.repo.Recommendation().ListCurrent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	if len(views) > 0 {
		return &RecommendationListResponse{
			StudentID:       studentID,
			Source:          RecommendationListCurrent,
			Recommendations: views,
		}, nil
	}

	s.logger.Debug("No stored recommendations, aggregating misses", "student_id", studentID)

	views, err = s.repo.Recommendation().AggregateMisses(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate missed standards: %w", err)
	}
	if views == nil {
		views = []repositories.RecommendationView{}
	}
	return &RecommendationListResponse{
		StudentID:       studentID,
		Source:          RecommendationListAggregate,
		Recommendations: views,
	}, nil
}
