package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/adaptive"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

// evaluation is the full scoring of an attempt at one point in time.
type evaluation struct {
	Results      []models.AreaResult
	Summary      models.AttemptSummary
	ResponseSecs float64
}

// attemptEvaluator recomputes area results and the summary from stored answers.
type attemptEvaluator struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func (e *attemptEvaluator) evaluate(ctx context.Context, attemptID uint) (*evaluation, error) {
	rows, err := e.repo.Answer().ListAnswered(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	items := make([]adaptive.AnsweredItem, 0, len(rows))
	var responseSecs float64
	for _, row := range rows {
		items = append(items, adaptive.AnsweredItem{
			AreaID:     row.AreaID,
			AreaName:   row.AreaName,
			QuestionID: row.QuestionID,
			IsCorrect:  row.IsCorrect,
			Difficulty: row.Difficulty,
		})
		responseSecs += row.ResponseSeconds
	}

	computedAt := e.now()
	results := adaptive.ComputeAreaResults(attemptID, items, computedAt)
	summary := adaptive.Summarize(attemptID, results, computedAt)

	breakdown, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode area breakdown: %w", err)
	}
	summary.AreaBreakdown = datatypes.JSON(breakdown)

	return &evaluation{
		Results:      results,
		Summary:      summary,
		ResponseSecs: adaptive.Round1(responseSecs),
	}, nil
}

// persist caches the evaluation. Failures are logged only.
func (e *attemptEvaluator) persist(ctx context.Context, attemptID uint, ev *evaluation) {
	if err := e.repo.Result().SaveAreaResults(ctx, nil, attemptID, ev.Results); err != nil {
		e.logger.Warn("Failed to store area results", "attempt_id", attemptID, "error", err)
	}
	summary := ev.Summary
	if err := e.repo.Result().SaveSummary(ctx, nil, &summary); err != nil {
		e.logger.Warn("Failed to store attempt summary", "attempt_id", attemptID, "error", err)
	}
}

func (e *attemptEvaluator) summaryResponse(attempt *models.ExamAttempt, ev *evaluation) *SummaryResponse {
	return &SummaryResponse{
		AttemptID:    attempt.ID,
		Reason:       attempt.FinishReason,
		EndedAt:      attempt.EndedAt,
		Summary:      ev.Summary,
		Areas:        ev.Results,
		ResponseSecs: ev.ResponseSecs,
	}
}

type resultsService struct {
	repo      repositories.Repository
	evaluator *attemptEvaluator
	rasch     adaptive.RaschConfig
	logger    *slog.Logger
}

func NewResultsService(repo repositories.Repository, rasch adaptive.RaschConfig, logger *slog.Logger) ResultsService {
	return &resultsService{
		repo:      repo,
		evaluator: &attemptEvaluator{repo: repo, logger: logger, now: time.Now},
		rasch:     rasch,
		logger:    logger,
	}
}

// AreaResults always recomputes; stored rows may lag behind an attempt still running.
func (s *resultsService) AreaResults(ctx context.Context, attemptID uint) ([]models.AreaResult, error) {
	if _, err := s.getAttempt(ctx, attemptID); err != nil {
		return nil, err
	}

	ev, err := s.evaluator.evaluate(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	return ev.Results, nil
}

// Summary serves the stored summary of a finished attempt and recomputes otherwise.
func (s *resultsService) Summary(ctx context.Context, attemptID uint) (*SummaryResponse, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.IsFinished() {
		if resp := s.storedSummary(ctx, attempt); resp != nil {
			return resp, nil
		}
	}

	ev, err := s.evaluator.evaluate(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		s.evaluator.persist(ctx, attemptID, ev)
	}
	return s.evaluator.summaryResponse(attempt, ev), nil
}

func (s *resultsService) storedSummary(ctx context.Context, attempt *models.ExamAttempt) *SummaryResponse {
	summary, err := s.repo.Result().GetSummary(ctx, nil, attempt.ID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			s.logger.Warn("Failed to read stored summary", "attempt_id", attempt.ID, "error", err)
		}
		return nil
	}
	areas, err := s.repo.Result().ListAreaResults(ctx, nil, attempt.ID)
	if err != nil {
		s.logger.Warn("Failed to read stored area results", "attempt_id", attempt.ID, "error", err)
		return nil
	}
	return &SummaryResponse{
		AttemptID: attempt.ID,
		Reason:    attempt.FinishReason,
		EndedAt:   attempt.EndedAt,
		Summary:   *summary,
		Areas:     areas,
	}
}

// AreaScores fits a per-area ability over one attempt's answers.
func (s *resultsService) AreaScores(ctx context.Context, attemptID uint) (*AreaScoresResponse, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Answer().ListAnswered(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	resp, err := s.scoreRows(ctx, attempt.StudentID, rows)
	if err != nil {
		return nil, err
	}
	resp.AttemptID = &attempt.ID
	return resp, nil
}

// StudentAreaScores fits a per-area ability over every answer the student gave in the
// attempts filter admits.
func (s *resultsService) StudentAreaScores(ctx context.Context, studentID string, filter repositories.AnsweredFilter) (*AreaScoresResponse, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrStudentUnresolved
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: from is after to", ErrBadRequest)
	}

	rows, err := s.repo.Answer().ListAnsweredByStudent(ctx, nil, studentID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load student answers: %w", err)
	}
	return s.scoreRows(ctx, studentID, rows)
}

func (s *resultsService) scoreRows(ctx context.Context, studentID string, rows []repositories.AnsweredRow) (*AreaScoresResponse, error) {
	items := make([]adaptive.AnsweredItem, 0, len(rows))
	var areaIDs []uint
	seen := make(map[uint]bool)
	for _, row := range rows {
		items = append(items, adaptive.AnsweredItem{
			AreaID:     row.AreaID,
			AreaName:   row.AreaName,
			QuestionID: row.QuestionID,
			IsCorrect:  row.IsCorrect,
			Difficulty: row.Difficulty,
		})
		if !seen[row.AreaID] {
			seen[row.AreaID] = true
			areaIDs = append(areaIDs, row.AreaID)
		}
	}

	repoStats, err := s.repo.Catalog().AreaDifficultyStats(ctx, nil, areaIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load area difficulty stats: %w", err)
	}
	stats := make(map[uint]adaptive.AreaStats, len(repoStats))
	for id, st := range repoStats {
		stats[id] = adaptive.AreaStats{Mean: st.Mean, SD: st.SD}
	}

	scores := adaptive.ComputeAreaScores(items, stats, s.rasch)
	s.logger.Debug("Area scores computed", "student_id", studentID, "answers", len(rows), "areas", len(scores))
	return &AreaScoresResponse{
		StudentID: studentID,
		RITMid:    s.rasch.RITMid,
		RITSlope:  s.rasch.RITSlope,
		Areas:     scores,
	}, nil
}

func (s *resultsService) getAttempt(ctx context.Context, attemptID uint) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}
