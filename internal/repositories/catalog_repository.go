package repositories

import (
	"context"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"gorm.io/gorm"
)

// CatalogRepository is read-only access to subjects, areas, standards and questions.
type CatalogRepository interface {
	// Standard navigation. Both return nil, nil when nothing qualifies.
	ClosestStandard(ctx context.Context, tx *gorm.DB, subjectID uint, target float64) (*models.Standard, error)
	NeighborStandard(ctx context.Context, tx *gorm.DB, subjectID uint, current float64, direction models.Direction) (*models.Standard, error)

	// Areas of a subject ordered by id
	ListAreas(ctx context.Context, tx *gorm.DB, subjectID uint) ([]models.Area, error)
	// AreaDifficultyStats omits areas without questions.
	AreaDifficultyStats(ctx context.Context, tx *gorm.DB, areaIDs []uint) (map[uint]AreaDifficultyStats, error)

	// Question selection. Questions come back with Standard and Options loaded;
	// FindClosestQuestion returns nil, nil when the pool is empty.
	FindClosestQuestion(ctx context.Context, tx *gorm.DB, query QuestionQuery) (*models.Question, error)
	GetPlacedQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.PlacedQuestion, error)
	GetQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.Question, error)

	// Options
	ListOptions(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.AnswerOption, error)
	GetOption(ctx context.Context, tx *gorm.DB, questionID, optionID uint) (*models.AnswerOption, error)
}

type SessionRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EvaluationSession, error)
}

type StudentRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error)
}
