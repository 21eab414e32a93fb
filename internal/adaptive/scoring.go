package adaptive

import (
	"math"
	"sort"
	"time"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

const (
	defaultObservedMin = 0.0
	defaultObservedMax = 20.0

	advancedRatio     = 0.85
	satisfactoryRatio = 0.65
	inProgressRatio   = 0.40
)

// AnsweredItem is one answer joined through question, standard and topic to its area.
type AnsweredItem struct {
	AreaID     uint
	AreaName   string
	QuestionID uint
	IsCorrect  bool
	Difficulty float64
}

type areaAccumulator struct {
	id         uint
	name       string
	total      int
	correct    int
	correctSum float64
	min        float64
	max        float64
}

// ComputeAreaResults groups answers by area and scores each area. The output is sorted
// by area id so repeated runs over the same answers are identical.
func ComputeAreaResults(attemptID uint, items []AnsweredItem, computedAt time.Time) []models.AreaResult {
	byArea := make(map[uint]*areaAccumulator)
	for _, it := range items {
		acc, ok := byArea[it.AreaID]
		if !ok {
			acc = &areaAccumulator{id: it.AreaID, name: it.AreaName, min: it.Difficulty, max: it.Difficulty}
			byArea[it.AreaID] = acc
		}
		acc.total++
		if it.Difficulty < acc.min {
			acc.min = it.Difficulty
		}
		if it.Difficulty > acc.max {
			acc.max = it.Difficulty
		}
		if it.IsCorrect {
			acc.correct++
			acc.correctSum += it.Difficulty
		}
	}

	ids := make([]uint, 0, len(byArea))
	for id := range byArea {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	results := make([]models.AreaResult, 0, len(ids))
	for _, id := range ids {
		acc := byArea[id]
		score := masteryScore(acc)
		results = append(results, models.AreaResult{
			AttemptID:    attemptID,
			AreaID:       acc.id,
			AreaName:     acc.name,
			Total:        acc.total,
			Correct:      acc.correct,
			AccuracyPct:  percent(acc.correct, acc.total),
			MasteryScore: score,
			Level:        LevelFor(score, observedMax(acc)),
			ComputedAt:   computedAt,
		})
	}
	return results
}

func observedMax(acc *areaAccumulator) float64 {
	if acc.total == 0 {
		return defaultObservedMax
	}
	return acc.max
}

// masteryScore is the mean difficulty of correct answers bounded by the difficulties the
// area actually presented. An area with no correct answer scores 0.
func masteryScore(acc *areaAccumulator) float64 {
	if acc.correct == 0 {
		return 0
	}
	lo, hi := defaultObservedMin, defaultObservedMax
	if acc.total > 0 {
		lo, hi = acc.min, acc.max
	}
	raw := acc.correctSum / float64(acc.correct)
	return Round1(clamp(raw, lo, hi))
}

// LevelFor maps a mastery score to a level by its fraction of the area's hardest item.
func LevelFor(score, hardest float64) models.MasteryLevel {
	if hardest <= 0 {
		return models.MasteryInitial
	}
	ratio := score / hardest
	switch {
	case ratio >= advancedRatio:
		return models.MasteryAdvanced
	case ratio >= satisfactoryRatio:
		return models.MasterySatisfactory
	case ratio >= inProgressRatio:
		return models.MasteryInProgress
	default:
		return models.MasteryInitial
	}
}

// Summarize folds area results into the attempt summary. Volume-weighted and
// equal-weight-per-area figures are both kept.
func Summarize(attemptID uint, results []models.AreaResult, computedAt time.Time) models.AttemptSummary {
	summary := models.AttemptSummary{AttemptID: attemptID, ComputedAt: computedAt}

	var weighted, accuracySum, masterySum float64
	for _, r := range results {
		summary.Total += r.Total
		summary.Correct += r.Correct
		weighted += r.MasteryScore * float64(r.Total)
		if r.Total > 0 {
			accuracySum += float64(r.Correct) / float64(r.Total)
		}
		masterySum += r.MasteryScore
	}

	summary.GlobalAccuracyPct = percent(summary.Correct, summary.Total)
	if summary.Total > 0 {
		summary.WeightedMastery = Round1(weighted / float64(summary.Total))
	}
	if n := len(results); n > 0 {
		summary.AreaAvgAccuracyPct = Round1(accuracySum / float64(n) * 100)
		summary.AreaAvgMastery = Round1(masterySum / float64(n))
	}
	return summary
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round1(float64(part) / float64(whole) * 100)
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}
