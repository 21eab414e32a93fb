package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository groups every store the engine talks to. Methods that accept tx run inside
// that transaction when it is non-nil and on the base connection otherwise.
type Repository interface {
	Catalog() CatalogRepository
	Attempt() AttemptRepository
	AskedItem() AskedItemRepository
	Answer() AnswerRepository
	Result() ResultRepository
	Recommendation() RecommendationRepository
	Session() SessionRepository
	Student() StudentRepository

	// WithTransaction runs fn in one database transaction, committing when fn returns nil.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err comes from a lookup that matched no row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED QUERY STRUCTS =====

// QuestionQuery describes a nearest-difficulty question lookup.
type QuestionQuery struct {
	SubjectID      uint    `json:"subject_id"`
	Target         float64 `json:"target"`
	ExcludeIDs     []uint  `json:"exclude_ids"`
	AreaIDs        []uint  `json:"area_ids"` // empty means any area
	RandomTieBreak bool    `json:"random_tie_break"`
}

// AnsweredFilter narrows a student's answers by the attempt they belong to. From and To
// bound the attempt start time and are inclusive.
type AnsweredFilter struct {
	SubjectID *uint      `json:"subject_id,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

type RecommendationFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ===== SHARED ROW STRUCTS =====

// AnsweredRow is an answer joined through question, standard and topic to its area.
type AnsweredRow struct {
	AnswerID        uint      `json:"answer_id"`
	QuestionID      uint      `json:"question_id"`
	OptionID        uint      `json:"option_id"`
	StandardID      uint      `json:"standard_id"`
	AreaID          uint      `json:"area_id"`
	AreaName        string    `json:"area_name"`
	Difficulty      float64   `json:"difficulty"`
	IsCorrect       bool      `json:"is_correct"`
	ResponseSeconds float64   `json:"response_seconds"`
	AnsweredAt      time.Time `json:"answered_at"`
}

// AreaDifficultyStats is the population mean and standard deviation of standard
// difficulty over every question of an area. SD is 1 when the area has no spread.
type AreaDifficultyStats struct {
	AreaID    uint    `json:"area_id"`
	Mean      float64 `json:"mean"`
	SD        float64 `json:"sd"`
	Questions int     `json:"questions"`
}

// RecommendationView is a recommendation with its catalog names resolved.
type RecommendationView struct {
	StandardID   uint      `json:"standard_id"`
	StandardName string    `json:"standard_name"`
	TopicName    string    `json:"topic_name"`
	AreaName     string    `json:"area_name"`
	Difficulty   float64   `json:"difficulty"`
	Priority     int       `json:"priority"`
	Source       string    `json:"source"`
	Reason       string    `json:"reason"`
	UpdatedAt    time.Time `json:"updated_at"`
}
