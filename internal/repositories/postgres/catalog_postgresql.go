package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/cache"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"gorm.io/gorm"
)

type CatalogPostgreSQL struct {
	db       *gorm.DB
	helpers  *SharedHelpers
	cache    cache.CacheService
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewCatalogPostgreSQL(db *gorm.DB, cacheService cache.CacheService, cacheTTL time.Duration, logger *slog.Logger) repositories.CatalogRepository {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	return &CatalogPostgreSQL{
		db:       db,
		helpers:  NewSharedHelpers(db),
		cache:    cacheService,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ===== STANDARDS =====

// ClosestStandard returns the subject's standard nearest target, lowest id on ties.
func (c *CatalogPostgreSQL) ClosestStandard(ctx context.Context, tx *gorm.DB, subjectID uint, target float64) (*models.Standard, error) {
	db := c.helpers.getDB(tx)

	var standard models.Standard
	result := standardsInSubject(db.WithContext(ctx), subjectID).
		Clauses(orderByDistance("standards.difficulty_value", target, "standards.id ASC")).
		Limit(1).
		Find(&standard)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find closest standard: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &standard, nil
}

// NeighborStandard returns the standard strictly above or below current that is nearest
// to it, lowest id on ties.
func (c *CatalogPostgreSQL) NeighborStandard(ctx context.Context, tx *gorm.DB, subjectID uint, current float64, direction models.Direction) (*models.Standard, error) {
	db := c.helpers.getDB(tx)

	query := standardsInSubject(db.WithContext(ctx), subjectID)
	switch direction {
	case models.DirectionUp:
		query = query.Where("standards.difficulty_value > ?", current).
			Order("standards.difficulty_value ASC")
	case models.DirectionDown:
		query = query.Where("standards.difficulty_value < ?", current).
			Order("standards.difficulty_value DESC")
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}

	var standard models.Standard
	result := query.Order("standards.id ASC").Limit(1).Find(&standard)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find %s neighbor standard: %w", direction, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &standard, nil
}

// ===== AREAS =====

const areasKeyPattern = "catalog:subject:*:areas"

func subjectAreasKey(subjectID uint) string {
	return fmt.Sprintf("catalog:subject:%d:areas", subjectID)
}

// ListAreas reads through the cache; reference data changes rarely.
func (c *CatalogPostgreSQL) ListAreas(ctx context.Context, tx *gorm.DB, subjectID uint) ([]models.Area, error) {
	var areas []models.Area
	key := subjectAreasKey(subjectID)

	err := c.cache.Get(ctx, key, &areas)
	if err == nil {
		return areas, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("Area cache read failed", "subject_id", subjectID, "error", err)
	}

	db := c.helpers.getDB(tx)
	if err := db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("id ASC").
		Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	if err := c.cache.Set(ctx, key, areas, c.cacheTTL); err != nil {
		c.logger.Warn("Area cache write failed", "subject_id", subjectID, "error", err)
	}
	return areas, nil
}

// ClearAreaCache drops the cached area list of one subject, or of every subject when
// subjectID is 0.
func ClearAreaCache(ctx context.Context, cacheService cache.CacheService, subjectID uint) error {
	if subjectID == 0 {
		return cacheService.DeletePattern(ctx, areasKeyPattern)
	}
	return cacheService.Delete(ctx, subjectAreasKey(subjectID))
}

// AreaDifficultyStats takes mean and mean square in SQL and the deviation here, which
// is the population deviation without relying on STDDEV_POP.
func (c *CatalogPostgreSQL) AreaDifficultyStats(ctx context.Context, tx *gorm.DB, areaIDs []uint) (map[uint]repositories.AreaDifficultyStats, error) {
	stats := make(map[uint]repositories.AreaDifficultyStats, len(areaIDs))
	if len(areaIDs) == 0 {
		return stats, nil
	}
	db := c.helpers.getDB(tx)

	var rows []struct {
		AreaID    uint
		Mean      float64
		MeanSq    float64
		Questions int
	}
	if err := db.WithContext(ctx).Table("questions").
		Select(`areas.id AS area_id,
			AVG(standards.difficulty_value) AS mean,
			AVG(standards.difficulty_value * standards.difficulty_value) AS mean_sq,
			COUNT(*) AS questions`).
		Joins("JOIN standards ON standards.id = questions.standard_id").
		Joins("JOIN topics ON topics.id = standards.topic_id").
		Joins("JOIN areas ON areas.id = topics.area_id").
		Where("areas.id IN ?", areaIDs).
		Group("areas.id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute area difficulty stats: %w", err)
	}

	for _, row := range rows {
		sd := math.Sqrt(math.Max(0, row.MeanSq-row.Mean*row.Mean))
		if sd < 1e-9 {
			sd = 1
		}
		stats[row.AreaID] = repositories.AreaDifficultyStats{
			AreaID:    row.AreaID,
			Mean:      row.Mean,
			SD:        sd,
			Questions: row.Questions,
		}
	}
	return stats, nil
}

// ===== QUESTIONS =====

// FindClosestQuestion returns the active question nearest the target difficulty among
// those not excluded and, when AreaIDs is set, inside those areas.
func (c *CatalogPostgreSQL) FindClosestQuestion(ctx context.Context, tx *gorm.DB, query repositories.QuestionQuery) (*models.Question, error) {
	db := c.helpers.getDB(tx)

	q := db.WithContext(ctx).Model(&models.Question{}).Select("questions.*").
		Joins("JOIN standards ON standards.id = questions.standard_id").
		Joins("JOIN topics ON topics.id = standards.topic_id").
		Joins("JOIN areas ON areas.id = topics.area_id").
		Where("areas.subject_id = ? AND questions.active = ?", query.SubjectID, true)

	if len(query.ExcludeIDs) > 0 {
		q = q.Where("questions.id NOT IN ?", query.ExcludeIDs)
	}
	if len(query.AreaIDs) > 0 {
		q = q.Where("areas.id IN ?", query.AreaIDs)
	}

	tieBreak := "questions.id ASC"
	if query.RandomTieBreak {
		tieBreak = "RANDOM()"
	}

	var question models.Question
	result := q.Clauses(orderByDistance("standards.difficulty_value", query.Target, tieBreak)).
		Preload("Standard").
		Limit(1).
		Find(&question)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find closest question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	options, err := c.ListOptions(ctx, tx, question.ID)
	if err != nil {
		return nil, err
	}
	question.Options = options
	return &question, nil
}

func (c *CatalogPostgreSQL) GetPlacedQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.PlacedQuestion, error) {
	db := c.helpers.getDB(tx)

	var placed models.PlacedQuestion
	err := db.WithContext(ctx).Table("questions").
		Select("questions.id AS question_id, questions.standard_id, topics.area_id, areas.subject_id, standards.difficulty_value, questions.active").
		Joins("JOIN standards ON standards.id = questions.standard_id").
		Joins("JOIN topics ON topics.id = standards.topic_id").
		Joins("JOIN areas ON areas.id = topics.area_id").
		Where("questions.id = ?", questionID).
		Take(&placed).Error
	if err != nil {
		return nil, err
	}
	return &placed, nil
}

func (c *CatalogPostgreSQL) GetQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.Question, error) {
	db := c.helpers.getDB(tx)

	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Standard").
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("answer_options.id ASC") }).
		First(&question, questionID).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// ===== OPTIONS =====

func (c *CatalogPostgreSQL) ListOptions(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.AnswerOption, error) {
	db := c.helpers.getDB(tx)

	var options []models.AnswerOption
	if err := db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to list options: %w", err)
	}
	return options, nil
}

func (c *CatalogPostgreSQL) GetOption(ctx context.Context, tx *gorm.DB, questionID, optionID uint) (*models.AnswerOption, error) {
	db := c.helpers.getDB(tx)

	var option models.AnswerOption
	if err := db.WithContext(ctx).
		Where("id = ? AND question_id = ?", optionID, questionID).
		First(&option).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

// ===== SESSIONS & STUDENTS =====

type SessionPostgreSQL struct {
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EvaluationSession, error) {
	var session models.EvaluationSession
	if err := s.helpers.getDB(tx).WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

type StudentPostgreSQL struct {
	helpers *SharedHelpers
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error) {
	var student models.Student
	if err := s.helpers.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}
