package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gorm.io/gorm"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/adaptive"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/ranking"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

// Selection is the input of one item pick.
type Selection struct {
	SubjectID      uint
	Target         float64
	ExcludeIDs     []uint
	PreferredAreas []uint // empty means every area
}

// ItemSelector picks the next question: a ranking suggestion first when one passes the
// local constraints, then the closest question in the preferred areas, then the closest
// anywhere. Suggest and PickNext are split so the ranking call can run before the
// attempt row is locked.
type ItemSelector struct {
	repo           repositories.Repository
	ranker         ranking.Ranker
	randomTieBreak bool
	logger         *slog.Logger
}

func NewItemSelector(repo repositories.Repository, ranker ranking.Ranker, randomTieBreak bool, logger *slog.Logger) *ItemSelector {
	return &ItemSelector{
		repo:           repo,
		ranker:         ranker,
		randomTieBreak: randomTieBreak,
		logger:         logger,
	}
}

// RankingEnabled reports whether Suggest can return anything.
func (s *ItemSelector) RankingEnabled() bool {
	return s.ranker != nil && s.ranker.Enabled()
}

// Suggest asks the ranking service for one candidate. It never touches the database and
// returns 0 when ranking is off, fails or has nothing to offer.
func (s *ItemSelector) Suggest(ctx context.Context, sel Selection) uint {
	if !s.RankingEnabled() {
		return 0
	}

	resp, err := s.ranker.Rank(ctx, ranking.RankRequest{
		Subject:            sel.SubjectID,
		TargetDifficulty:   sel.Target,
		ExcludeQuestionIDs: sel.ExcludeIDs,
		K:                  1,
	})
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.DeadlineExceeded) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "Ranking service unavailable, using local selection",
			"subject_id", sel.SubjectID,
			"error", err)
		return 0
	}
	if resp == nil || len(resp.Items) == 0 {
		return 0
	}
	return resp.Items[0].QuestionID
}

// PickNext returns nil, nil when the subject has no question left to show. suggested is
// a ranking candidate from Suggest, or 0 for none.
func (s *ItemSelector) PickNext(ctx context.Context, tx *gorm.DB, sel Selection, suggested uint) (*models.Question, error) {
	if q := s.acceptSuggestion(ctx, tx, sel, suggested); q != nil {
		return q, nil
	}

	query := repositories.QuestionQuery{
		SubjectID:      sel.SubjectID,
		Target:         sel.Target,
		ExcludeIDs:     sel.ExcludeIDs,
		AreaIDs:        sel.PreferredAreas,
		RandomTieBreak: s.randomTieBreak,
	}

	question, err := s.repo.Catalog().FindClosestQuestion(ctx, tx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find question in preferred areas: %w", err)
	}
	if question != nil || len(sel.PreferredAreas) == 0 {
		return question, nil
	}

	s.logger.Debug("Preferred areas exhausted, widening search",
		"subject_id", sel.SubjectID,
		"areas", sel.PreferredAreas)

	query.AreaIDs = nil
	question, err = s.repo.Catalog().FindClosestQuestion(ctx, tx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return question, nil
}

// acceptSuggestion keeps a ranking candidate only when it passes the same constraints
// the local search applies. Any failure falls through to nil.
func (s *ItemSelector) acceptSuggestion(ctx context.Context, tx *gorm.DB, sel Selection, candidate uint) *models.Question {
	if candidate == 0 {
		return nil
	}
	if slices.Contains(sel.ExcludeIDs, candidate) {
		s.logger.Debug("Ranking suggested an asked question", "question_id", candidate)
		return nil
	}

	placed, err := s.repo.Catalog().GetPlacedQuestion(ctx, tx, candidate)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			s.logger.Warn("Failed to place ranked question", "question_id", candidate, "error", err)
		}
		return nil
	}
	if placed.SubjectID != sel.SubjectID || !placed.Active || !adaptive.ContainsArea(sel.PreferredAreas, placed.AreaID) {
		s.logger.Debug("Ranked question rejected",
			"question_id", candidate,
			"subject_id", placed.SubjectID,
			"area_id", placed.AreaID,
			"active", placed.Active)
		return nil
	}

	question, err := s.repo.Catalog().GetQuestion(ctx, tx, candidate)
	if err != nil {
		s.logger.Warn("Failed to load ranked question", "question_id", candidate, "error", err)
		return nil
	}
	return question
}
