package postgres

import (
	"context"
	"fmt"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (r *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.AnswerRecord) error {
	db := r.helpers.getDB(tx)
	if err := db.WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer record: %w", err)
	}
	return nil
}

func (r *AnswerPostgreSQL) ExistsForQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (bool, error) {
	db := r.helpers.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.AnswerRecord{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check answer record: %w", err)
	}
	return count > 0, nil
}

func (r *AnswerPostgreSQL) RecentCorrectness(ctx context.Context, tx *gorm.DB, attemptID uint, n int) ([]bool, error) {
	db := r.helpers.getDB(tx)
	var recent []bool
	if err := db.WithContext(ctx).Model(&models.AnswerRecord{}).
		Where("attempt_id = ?", attemptID).
		Order("id DESC").
		Limit(n).
		Pluck("is_correct", &recent).Error; err != nil {
		return nil, fmt.Errorf("failed to read recent answers: %w", err)
	}
	return recent, nil
}

// answeredRows selects AnsweredRow columns over answer_records joined to their area.
func answeredRows(db *gorm.DB) *gorm.DB {
	return joinQuestionArea(db.Table("answer_records"), "answer_records.question_id").
		Select(`answer_records.id AS answer_id,
			answer_records.question_id,
			answer_records.option_id,
			standards.id AS standard_id,
			areas.id AS area_id,
			areas.name AS area_name,
			standards.difficulty_value AS difficulty,
			answer_records.is_correct,
			answer_records.response_seconds,
			answer_records.created_at AS answered_at`)
}

func (r *AnswerPostgreSQL) ListAnswered(ctx context.Context, tx *gorm.DB, attemptID uint) ([]repositories.AnsweredRow, error) {
	db := r.helpers.getDB(tx)
	var rows []repositories.AnsweredRow
	if err := answeredRows(db.WithContext(ctx)).
		Where("answer_records.attempt_id = ?", attemptID).
		Order("answer_records.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list answered items: %w", err)
	}
	return rows, nil
}

func (r *AnswerPostgreSQL) ListAnsweredByStudent(ctx context.Context, tx *gorm.DB, studentID string, filter repositories.AnsweredFilter) ([]repositories.AnsweredRow, error) {
	db := r.helpers.getDB(tx)

	query := answeredRows(db.WithContext(ctx)).
		Joins("JOIN exam_attempts ON exam_attempts.id = answer_records.attempt_id").
		Where("exam_attempts.student_id = ?", studentID)
	if filter.SubjectID != nil {
		query = query.Where("exam_attempts.subject_id = ?", *filter.SubjectID)
	}
	if filter.From != nil {
		query = query.Where("exam_attempts.started_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("exam_attempts.started_at <= ?", *filter.To)
	}

	var rows []repositories.AnsweredRow
	if err := query.Order("answer_records.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list student answers: %w", err)
	}
	return rows, nil
}

func (r *AnswerPostgreSQL) MissesByStandard(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]int, error) {
	db := r.helpers.getDB(tx)

	var rows []struct {
		StandardID uint
		Misses     int
	}
	if err := db.WithContext(ctx).Table("answer_records").
		Select("questions.standard_id AS standard_id, COUNT(*) AS misses").
		Joins("JOIN questions ON questions.id = answer_records.question_id").
		Where("answer_records.attempt_id = ? AND answer_records.is_correct = ?", attemptID, false).
		Group("questions.standard_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count misses by standard: %w", err)
	}

	misses := make(map[uint]int, len(rows))
	for _, row := range rows {
		misses[row.StandardID] = row.Misses
	}
	return misses, nil
}
