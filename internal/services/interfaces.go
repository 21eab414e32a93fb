package services

import (
	"context"
	"time"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

// AdaptiveService drives an exam attempt from the first item to its summary.
type AdaptiveService interface {
	Start(ctx context.Context, req *StartRequest) (*StartResponse, error)
	Answer(ctx context.Context, req *AnswerRequest) (*AnswerResponse, error)
	End(ctx context.Context, req *EndRequest) (*SummaryResponse, error)
	Status(ctx context.Context, attemptID uint) (*StatusResponse, error)
}

type RecommendationService interface {
	ListForStudent(ctx context.Context, studentID string, limit int) (*RecommendationListResponse, error)
}

type ResultsService interface {
	AreaResults(ctx context.Context, attemptID uint) ([]models.AreaResult, error)
	Summary(ctx context.Context, attemptID uint) (*SummaryResponse, error)
	// AreaScores and StudentAreaScores estimate ability per area on the RIT scale.
	AreaScores(ctx context.Context, attemptID uint) (*AreaScoresResponse, error)
	StudentAreaScores(ctx context.Context, studentID string, filter repositories.AnsweredFilter) (*AreaScoresResponse, error)
}

type ReportService interface {
	// ExportAttempt renders the attempt as an xlsx workbook.
	ExportAttempt(ctx context.Context, attemptID uint) ([]byte, error)
}

// ===== REQUESTS =====

type StartRequest struct {
	StudentID        string `json:"student_id" validate:"required,student_id"`
	SubjectID        uint   `json:"subject_id" validate:"required,gt=0"`
	SessionID        *uint  `json:"session_id,omitempty" validate:"omitempty,gt=0"`
	MaxItems         *int   `json:"max_items,omitempty" validate:"omitempty,gte=1,max=200"`
	TimeLimitSeconds *int   `json:"time_limit_seconds,omitempty" validate:"omitempty,gte=1"`
}

type AnswerRequest struct {
	AttemptID       uint     `json:"-" validate:"required"`
	QuestionID      uint     `json:"question_id" validate:"required,gt=0"`
	OptionID        uint     `json:"option_id" validate:"required,gt=0"`
	CurrentTarget   *float64 `json:"current_target,omitempty"`
	ResponseSeconds float64  `json:"response_seconds" validate:"gte=0"`
}

type EndRequest struct {
	AttemptID uint                `json:"-" validate:"required"`
	Reason    models.FinishReason `json:"reason,omitempty" validate:"omitempty,finish_reason"`
}

// ===== RESPONSES =====

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// QuestionView is a question as shown to the student. Correctness never appears here.
type QuestionView struct {
	ID         uint         `json:"id"`
	Text       string       `json:"text"`
	StandardID uint         `json:"standard_id"`
	Options    []OptionView `json:"options"`
}

type StartResponse struct {
	AttemptID uint          `json:"attempt_id"`
	Question  *QuestionView `json:"question"`
	Target    float64       `json:"target"`
	Order     int           `json:"order"`
	MaxItems  int           `json:"max_items"`
	StartedAt time.Time     `json:"started_at"`
}

type AnswerResponse struct {
	AttemptID uint                `json:"attempt_id"`
	IsCorrect bool                `json:"is_correct"`
	Finished  bool                `json:"finished"`
	Reason    models.FinishReason `json:"reason,omitempty"`
	Summary   *SummaryResponse    `json:"summary,omitempty"`
	Question  *QuestionView       `json:"question,omitempty"`
	Target    float64             `json:"target"`
	Order     int                 `json:"order,omitempty"`
}

type SummaryResponse struct {
	AttemptID    uint                  `json:"attempt_id"`
	Reason       *models.FinishReason  `json:"reason,omitempty"`
	EndedAt      *time.Time            `json:"ended_at,omitempty"`
	Summary      models.AttemptSummary `json:"summary"`
	Areas        []models.AreaResult   `json:"areas"`
	ResponseSecs float64               `json:"total_response_seconds,omitempty"`
}

type StatusResponse struct {
	AttemptID      uint                 `json:"attempt_id"`
	SubjectID      uint                 `json:"subject_id"`
	StudentID      string               `json:"student_id"`
	State          models.AttemptState  `json:"state"`
	Reason         *models.FinishReason `json:"reason,omitempty"`
	AskedCount     int                  `json:"asked_count"`
	MaxItems       int                  `json:"max_items"`
	RemainingItems *int                 `json:"remaining_items,omitempty"`
	Deadline       *time.Time           `json:"deadline,omitempty"`
	CurrentItem    *QuestionView        `json:"current_item,omitempty"`
	CurrentTarget  float64              `json:"current_target"`
}

type AreaScoresResponse struct {
	AttemptID *uint              `json:"attempt_id,omitempty"`
	StudentID string             `json:"student_id"`
	RITMid    float64            `json:"rit_mid"`
	RITSlope  float64            `json:"rit_slope"`
	Areas     []models.AreaScore `json:"areas"`
}

type RecommendationListResponse struct {
	StudentID       string                            `json:"student_id"`
	Source          string                            `json:"source"`
	Recommendations []repositories.RecommendationView `json:"recommendations"`
}
