package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationPostgreSQL struct {
	helpers *SharedHelpers
}

func NewRecommendationPostgreSQL(db *gorm.DB) repositories.RecommendationRepository {
	return &RecommendationPostgreSQL{helpers: NewSharedHelpers(db)}
}

var currentRecommendationColumns = []clause.Column{
	{Name: "student_id"},
	{Name: "standard_id"},
	{Name: "is_current"},
}

// Upsert accumulates priority on the (student, standard, current) key.
func (r *RecommendationPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, rec *models.Recommendation) error {
	db := r.helpers.getDB(tx)
	rec.Current = true
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: currentRecommendationColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"priority":   gorm.Expr("recommendations.priority + EXCLUDED.priority"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to upsert recommendation: %w", err)
	}
	return nil
}

// Reconcile raises each missed standard's current row to at least the miss count.
func (r *RecommendationPostgreSQL) Reconcile(ctx context.Context, tx *gorm.DB, studentID string, misses map[uint]int) error {
	if len(misses) == 0 {
		return nil
	}

	standardIDs := make([]uint, 0, len(misses))
	for id := range misses {
		standardIDs = append(standardIDs, id)
	}
	sort.Slice(standardIDs, func(i, j int) bool { return standardIDs[i] < standardIDs[j] })

	now := time.Now()
	recs := make([]models.Recommendation, 0, len(standardIDs))
	for _, id := range standardIDs {
		recs = append(recs, models.Recommendation{
			StudentID:  studentID,
			StandardID: id,
			Current:    true,
			Priority:   misses[id],
			Source:     models.RecommendationSourceAdaptive,
			Reason:     models.RecommendationReasonBackfill,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	db := r.helpers.getDB(tx)
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: currentRecommendationColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"priority":   gorm.Expr("CASE WHEN recommendations.priority > EXCLUDED.priority THEN recommendations.priority ELSE EXCLUDED.priority END"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&recs).Error; err != nil {
		return fmt.Errorf("failed to reconcile recommendations: %w", err)
	}
	return nil
}

func (r *RecommendationPostgreSQL) ListCurrent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.RecommendationFilters) ([]repositories.RecommendationView, error) {
	db := r.helpers.getDB(tx)

	query := db.WithContext(ctx).Table("recommendations").
		Select(`recommendations.standard_id,
			standards.name AS standard_name,
			topics.name AS topic_name,
			areas.name AS area_name,
			standards.difficulty_value AS difficulty,
			recommendations.priority,
			recommendations.source,
			recommendations.reason,
			recommendations.updated_at`).
		Joins("JOIN standards ON standards.id = recommendations.standard_id").
		Joins("JOIN topics ON topics.id = standards.topic_id").
		Joins("JOIN areas ON areas.id = topics.area_id").
		Where("recommendations.student_id = ? AND recommendations.is_current = ?", studentID, true).
		Order("recommendations.priority DESC, recommendations.updated_at DESC, recommendations.standard_id ASC")

	var views []repositories.RecommendationView
	if err := paginate(query, filters.Limit, filters.Offset).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return views, nil
}

func (r *RecommendationPostgreSQL) AggregateMisses(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.RecommendationFilters) ([]repositories.RecommendationView, error) {
	db := r.helpers.getDB(tx)

	query := joinQuestionArea(db.WithContext(ctx).Table("answer_records"), "answer_records.question_id").
		Select(`standards.id AS standard_id,
			standards.name AS standard_name,
			topics.name AS topic_name,
			areas.name AS area_name,
			standards.difficulty_value AS difficulty,
			COUNT(*) AS priority,
			? AS source,
			? AS reason,
			MAX(answer_records.created_at) AS updated_at`, "answers", models.RecommendationReasonIncorrect).
		Joins("JOIN exam_attempts ON exam_attempts.id = answer_records.attempt_id").
		Where("exam_attempts.student_id = ? AND answer_records.is_correct = ?", studentID, false).
		Group("standards.id, standards.name, topics.name, areas.name, standards.difficulty_value").
		Order("priority DESC, standards.difficulty_value ASC, standards.id ASC")

	var views []repositories.RecommendationView
	if err := paginate(query, filters.Limit, filters.Offset).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate missed standards: %w", err)
	}
	return views, nil
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
