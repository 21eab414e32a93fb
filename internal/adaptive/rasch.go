package adaptive

import (
	"math"
	"sort"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

// RaschConfig controls the 1PL ability fit and its mapping onto the RIT scale.
type RaschConfig struct {
	RITMid   float64
	RITSlope float64 // RIT points per logit
	ThetaMin float64
	ThetaMax float64

	PriorMean float64
	PriorSD   float64
	MaxIter   int
	Tolerance float64
}

func DefaultRaschConfig() RaschConfig {
	return RaschConfig{
		RITMid:    200,
		RITSlope:  40,
		ThetaMin:  -4,
		ThetaMax:  4,
		PriorMean: 0,
		PriorSD:   1,
		MaxIter:   30,
		Tolerance: 1e-6,
	}
}

// withDefaults fills zero fields so a partially set config from the environment still
// fits.
func (c RaschConfig) withDefaults() RaschConfig {
	d := DefaultRaschConfig()
	if c.RITSlope == 0 {
		c.RITSlope = d.RITSlope
	}
	if c.ThetaMin >= c.ThetaMax {
		c.ThetaMin, c.ThetaMax = d.ThetaMin, d.ThetaMax
	}
	if c.PriorSD <= 0 {
		c.PriorSD = d.PriorSD
	}
	if c.MaxIter <= 0 {
		c.MaxIter = d.MaxIter
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	return c
}

// RaschItem is one response with its difficulty in logits.
type RaschItem struct {
	Difficulty float64
	Correct    bool
	Weight     float64 // zero counts as 1
}

type ThetaEstimate struct {
	Theta      float64
	SE         *float64
	Iterations int
	Converged  bool
}

// EstimateTheta fits ability by maximum a posteriori Newton steps under a normal prior.
// Every step is clamped to [ThetaMin, ThetaMax]. SE is set only on convergence; with no
// items the estimate is the prior mean.
func EstimateTheta(items []RaschItem, cfg RaschConfig) ThetaEstimate {
	cfg = cfg.withDefaults()
	if len(items) == 0 {
		return ThetaEstimate{Theta: cfg.PriorMean}
	}

	invVar := 1 / (cfg.PriorSD * cfg.PriorSD)
	theta := clamp(cfg.PriorMean, cfg.ThetaMin, cfg.ThetaMax)
	for iter := 1; iter <= cfg.MaxIter; iter++ {
		grad := (cfg.PriorMean - theta) * invVar
		hess := -invVar
		for _, it := range items {
			w := it.Weight
			if w == 0 {
				w = 1
			}
			p := logistic(theta - it.Difficulty)
			var x float64
			if it.Correct {
				x = 1
			}
			grad += w * (x - p)
			hess -= w * p * (1 - p)
		}

		step := grad / hess
		theta = clamp(theta-step, cfg.ThetaMin, cfg.ThetaMax)
		if math.Abs(step) < cfg.Tolerance {
			se := 1 / math.Sqrt(-hess)
			return ThetaEstimate{Theta: theta, SE: &se, Iterations: iter, Converged: true}
		}
	}
	return ThetaEstimate{Theta: theta, Iterations: cfg.MaxIter}
}

func logistic(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// NormalCDF is the standard normal distribution function.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// PercentileLevel bands a 0-100 percentile.
func PercentileLevel(p int) models.MasteryLevel {
	switch {
	case p >= 80:
		return models.MasteryAdvanced
	case p >= 60:
		return models.MasterySatisfactory
	case p >= 40:
		return models.MasteryInProgress
	default:
		return models.MasteryInitial
	}
}

// AreaStats is the spread of standard difficulties over every question in an area.
type AreaStats struct {
	Mean float64
	SD   float64
}

// normalize puts a raw difficulty on the area's z-scale. Unknown areas use mean 0, sd 1.
func (s AreaStats) normalize(difficulty float64) float64 {
	sd := s.SD
	if sd <= 0 {
		sd = 1
	}
	return (difficulty - s.Mean) / sd
}

// ComputeAreaScores fits one ability per area over the given answers. Output is sorted by
// area name, then id.
func ComputeAreaScores(items []AnsweredItem, stats map[uint]AreaStats, cfg RaschConfig) []models.AreaScore {
	cfg = cfg.withDefaults()

	type group struct {
		name    string
		correct int
		items   []RaschItem
	}
	byArea := make(map[uint]*group)
	var ids []uint
	for _, it := range items {
		g, ok := byArea[it.AreaID]
		if !ok {
			g = &group{name: it.AreaName}
			byArea[it.AreaID] = g
			ids = append(ids, it.AreaID)
		}
		st, known := stats[it.AreaID]
		if !known {
			st = AreaStats{SD: 1}
		}
		g.items = append(g.items, RaschItem{Difficulty: st.normalize(it.Difficulty), Correct: it.IsCorrect})
		if it.IsCorrect {
			g.correct++
		}
	}

	scores := make([]models.AreaScore, 0, len(ids))
	for _, id := range ids {
		g := byArea[id]
		st, known := stats[id]
		if !known {
			st = AreaStats{SD: 1}
		}
		est := EstimateTheta(g.items, cfg)

		var seRIT float64
		if est.SE != nil {
			seRIT = cfg.RITSlope * *est.SE
		}
		percentile := int(math.Round(100 * NormalCDF(est.Theta)))
		scores = append(scores, models.AreaScore{
			AreaID:     id,
			AreaName:   g.name,
			Items:      len(g.items),
			Correct:    g.correct,
			Theta:      est.Theta,
			ThetaSE:    est.SE,
			ScoreRIT:   int(math.Round(cfg.RITMid + cfg.RITSlope*est.Theta)),
			SERIT:      int(math.Round(seRIT)),
			Percentile: percentile,
			Level:      PercentileLevel(percentile),
			AreaMean:   st.Mean,
			AreaSD:     st.SD,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].AreaName != scores[j].AreaName {
			return scores[i].AreaName < scores[j].AreaName
		}
		return scores[i].AreaID < scores[j].AreaID
	})
	return scores
}
