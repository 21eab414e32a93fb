package postgres

import (
	"context"
	"fmt"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultPostgreSQL struct {
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{helpers: NewSharedHelpers(db)}
}

// SaveAreaResults overwrites the stored results of an attempt with results.
func (r *ResultPostgreSQL) SaveAreaResults(ctx context.Context, tx *gorm.DB, attemptID uint, results []models.AreaResult) error {
	db := r.helpers.getDB(tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		areaIDs := make([]uint, 0, len(results))
		for _, res := range results {
			areaIDs = append(areaIDs, res.AreaID)
		}

		stale := tx.Where("attempt_id = ?", attemptID)
		if len(areaIDs) > 0 {
			stale = stale.Where("area_id NOT IN ?", areaIDs)
		}
		if err := stale.Delete(&models.AreaResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear stale area results: %w", err)
		}

		if len(results) == 0 {
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "area_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"area_name", "total", "correct", "accuracy_pct", "mastery_score", "level", "computed_at",
			}),
		}).Create(&results).Error; err != nil {
			return fmt.Errorf("failed to upsert area results: %w", err)
		}
		return nil
	})
}

func (r *ResultPostgreSQL) ListAreaResults(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.AreaResult, error) {
	db := r.helpers.getDB(tx)
	var results []models.AreaResult
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("area_id ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list area results: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) SaveSummary(ctx context.Context, tx *gorm.DB, summary *models.AttemptSummary) error {
	db := r.helpers.getDB(tx)
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		UpdateAll: true,
	}).Create(summary).Error; err != nil {
		return fmt.Errorf("failed to upsert attempt summary: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) GetSummary(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AttemptSummary, error) {
	db := r.helpers.getDB(tx)
	var summary models.AttemptSummary
	if err := db.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}
