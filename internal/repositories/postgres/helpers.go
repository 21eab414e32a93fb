package postgres

import (
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SharedHelpers holds the joins every catalog-aware query repeats.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns tx when the caller is inside a transaction.
func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// standardsInSubject scopes standards to a subject through topic and area.
func standardsInSubject(db *gorm.DB, subjectID uint) *gorm.DB {
	return db.Model(&models.Standard{}).
		Select("standards.*").
		Joins("JOIN topics ON topics.id = standards.topic_id").
		Joins("JOIN areas ON areas.id = topics.area_id").
		Where("areas.subject_id = ?", subjectID)
}

// joinQuestionArea joins a table holding question_id through to areas.
func joinQuestionArea(db *gorm.DB, questionColumn string) *gorm.DB {
	return db.
		Joins("JOIN questions ON questions.id = " + questionColumn).
		Joins("JOIN standards ON standards.id = questions.standard_id").
		Joins("JOIN topics ON topics.id = standards.topic_id").
		Joins("JOIN areas ON areas.id = topics.area_id")
}

// orderByDistance orders rows by |column - target|, then by tieBreak.
func orderByDistance(column string, target float64, tieBreak string) clause.Expression {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "ABS(" + column + " - ?) ASC, " + tieBreak,
		Vars:               []interface{}{target},
		WithoutParentheses: true,
	}}
}
