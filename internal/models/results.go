package models

import (
	"time"

	"gorm.io/datatypes"
)

type MasteryLevel string

const (
	MasteryInitial      MasteryLevel = "initial"
	MasteryInProgress   MasteryLevel = "in_progress"
	MasterySatisfactory MasteryLevel = "satisfactory"
	MasteryAdvanced     MasteryLevel = "advanced"
)

// AreaResult is recomputed from the attempt's answers every time the attempt is evaluated.
type AreaResult struct {
	ID           uint         `json:"-" gorm:"primaryKey"`
	AttemptID    uint         `json:"attempt_id" gorm:"not null;uniqueIndex:idx_area_result_attempt_area"`
	AreaID       uint         `json:"area_id" gorm:"not null;uniqueIndex:idx_area_result_attempt_area"`
	AreaName     string       `json:"area_name" gorm:"size:150"`
	Total        int          `json:"total"`
	Correct      int          `json:"correct"`
	AccuracyPct  float64      `json:"accuracy_pct"`
	MasteryScore float64      `json:"mastery_score"`
	Level        MasteryLevel `json:"level" gorm:"size:32"`
	ComputedAt   time.Time    `json:"computed_at"`
}

// AreaScore is an area's ability estimate on the open RIT scale. It is computed on
// request and never stored.
type AreaScore struct {
	AreaID     uint         `json:"area_id"`
	AreaName   string       `json:"area_name"`
	Items      int          `json:"items"`
	Correct    int          `json:"correct"`
	Theta      float64      `json:"theta"`
	ThetaSE    *float64     `json:"theta_se,omitempty"` // nil when the estimate did not converge
	ScoreRIT   int          `json:"score_rit"`
	SERIT      int          `json:"se_rit"`
	Percentile int          `json:"percentile"`
	Level      MasteryLevel `json:"level"`
	AreaMean   float64      `json:"area_mean"`
	AreaSD     float64      `json:"area_sd"`
}

// AttemptSummary keeps the volume-weighted and the per-area-averaged figures side by side.
type AttemptSummary struct {
	AttemptID          uint           `json:"attempt_id" gorm:"primaryKey;autoIncrement:false"`
	Total              int            `json:"total"`
	Correct            int            `json:"correct"`
	GlobalAccuracyPct  float64        `json:"global_accuracy_pct"`
	WeightedMastery    float64        `json:"weighted_mastery"`
	AreaAvgAccuracyPct float64        `json:"area_avg_accuracy_pct"`
	AreaAvgMastery     float64        `json:"area_avg_mastery"`
	AreaBreakdown      datatypes.JSON `json:"area_breakdown,omitempty" gorm:"type:jsonb"`
	ComputedAt         time.Time      `json:"computed_at"`
}

// Recommendation points a student at a standard to practise. At most one current row
// exists per (student, standard); repeated misses raise Priority.
type Recommendation struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	StudentID  string         `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_recommendation_current"`
	StandardID uint           `json:"standard_id" gorm:"not null;uniqueIndex:idx_recommendation_current"`
	Current    bool           `json:"current" gorm:"column:is_current;not null;default:true;uniqueIndex:idx_recommendation_current"`
	Priority   int            `json:"priority" gorm:"not null;default:1"`
	Source     string         `json:"source" gorm:"size:50"`
	Reason     string         `json:"reason" gorm:"size:100"`
	Metadata   datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	Standard *Standard `json:"standard,omitempty" gorm:"foreignKey:StandardID"`
}

const (
	RecommendationSourceAdaptive = "adaptive"

	RecommendationReasonIncorrect = "incorrect_answer"
	RecommendationReasonBackfill  = "attempt_close"
)

// AllModels lists every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Subject{},
		&Area{},
		&Topic{},
		&Standard{},
		&Question{},
		&AnswerOption{},
		&Student{},
		&EvaluationSession{},
		&ExamAttempt{},
		&AskedItem{},
		&AnswerRecord{},
		&AreaResult{},
		&AttemptSummary{},
		&Recommendation{},
	}
}
