package repositories

import (
	"context"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for exam attempt operations
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	// GetForUpdate loads the attempt and locks its row until tx ends.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error
}

// AskedItemRepository is the append-only list of items shown per attempt.
type AskedItemRepository interface {
	Append(ctx context.Context, tx *gorm.DB, item *models.AskedItem) error
	Count(ctx context.Context, tx *gorm.DB, attemptID uint) (int, error)
	// Latest returns nil, nil for an attempt without items.
	Latest(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AskedItem, error)
	QuestionIDs(ctx context.Context, tx *gorm.DB, attemptID uint) ([]uint, error)
	CountByArea(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]int, error)
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.AskedItem, error)
}

// AnswerRepository is the append-only list of submitted answers per attempt.
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.AnswerRecord) error
	ExistsForQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (bool, error)
	// RecentCorrectness returns the correctness of the last n answers, newest first.
	RecentCorrectness(ctx context.Context, tx *gorm.DB, attemptID uint, n int) ([]bool, error)
	ListAnswered(ctx context.Context, tx *gorm.DB, attemptID uint) ([]AnsweredRow, error)
	// ListAnsweredByStudent spans every attempt of the student that passes filter.
	ListAnsweredByStudent(ctx context.Context, tx *gorm.DB, studentID string, filter AnsweredFilter) ([]AnsweredRow, error)
	MissesByStandard(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]int, error)
}

// ResultRepository caches the derived per-area results and attempt summary.
type ResultRepository interface {
	SaveAreaResults(ctx context.Context, tx *gorm.DB, attemptID uint, results []models.AreaResult) error
	ListAreaResults(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.AreaResult, error)
	SaveSummary(ctx context.Context, tx *gorm.DB, summary *models.AttemptSummary) error
	GetSummary(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AttemptSummary, error)
}

type RecommendationRepository interface {
	// Upsert inserts a current recommendation or adds its priority to the existing one.
	Upsert(ctx context.Context, tx *gorm.DB, rec *models.Recommendation) error
	// Reconcile makes sure every missed standard has a current row whose priority is at
	// least the number of misses.
	Reconcile(ctx context.Context, tx *gorm.DB, studentID string, misses map[uint]int) error
	ListCurrent(ctx context.Context, tx *gorm.DB, studentID string, filters RecommendationFilters) ([]RecommendationView, error)
	// AggregateMisses ranks standards by the student's incorrect answers across attempts.
	AggregateMisses(ctx context.Context, tx *gorm.DB, studentID string, filters RecommendationFilters) ([]RecommendationView, error)
}
