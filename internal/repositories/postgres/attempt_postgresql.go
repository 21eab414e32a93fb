package postgres

import (
	"context"
	"fmt"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	db := a.helpers.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	db := a.helpers.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).Preload("Session").First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetForUpdate takes a row lock on the attempt. Concurrent transitions on the same
// attempt queue behind it until the surrounding transaction ends.
func (a *AttemptPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	db := a.helpers.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error; err != nil {
		return nil, err
	}

	if attempt.SessionID != nil {
		var session models.EvaluationSession
		err := db.WithContext(ctx).First(&session, *attempt.SessionID).Error
		switch {
		case err == nil:
			attempt.Session = &session
		case !repositories.IsNotFoundError(err):
			return nil, fmt.Errorf("failed to load attempt session: %w", err)
		}
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	db := a.helpers.getDB(tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	return nil
}

// ===== ASKED ITEMS =====

type AskedItemPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAskedItemPostgreSQL(db *gorm.DB) repositories.AskedItemRepository {
	return &AskedItemPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (r *AskedItemPostgreSQL) Append(ctx context.Context, tx *gorm.DB, item *models.AskedItem) error {
	db := r.helpers.getDB(tx)
	if err := db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to append asked item: %w", err)
	}
	return nil
}

func (r *AskedItemPostgreSQL) Count(ctx context.Context, tx *gorm.DB, attemptID uint) (int, error) {
	db := r.helpers.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.AskedItem{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count asked items: %w", err)
	}
	return int(count), nil
}

func (r *AskedItemPostgreSQL) Latest(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AskedItem, error) {
	db := r.helpers.getDB(tx)
	var item models.AskedItem
	result := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("item_order DESC").
		Limit(1).
		Find(&item)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get latest asked item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *AskedItemPostgreSQL) QuestionIDs(ctx context.Context, tx *gorm.DB, attemptID uint) ([]uint, error) {
	db := r.helpers.getDB(tx)
	var ids []uint
	if err := db.WithContext(ctx).Model(&models.AskedItem{}).
		Where("attempt_id = ?", attemptID).
		Order("item_order ASC").
		Pluck("question_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list asked question ids: %w", err)
	}
	return ids, nil
}

func (r *AskedItemPostgreSQL) CountByArea(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]int, error) {
	db := r.helpers.getDB(tx)

	var rows []struct {
		AreaID uint
		Total  int
	}
	if err := joinQuestionArea(db.WithContext(ctx).Table("asked_items"), "asked_items.question_id").
		Select("areas.id AS area_id, COUNT(*) AS total").
		Where("asked_items.attempt_id = ?", attemptID).
		Group("areas.id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count asked items by area: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.AreaID] = row.Total
	}
	return counts, nil
}

func (r *AskedItemPostgreSQL) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.AskedItem, error) {
	db := r.helpers.getDB(tx)
	var items []models.AskedItem
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("item_order ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list asked items: %w", err)
	}
	return items, nil
}
