package services

import (
	"log/slog"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/adaptive"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/events"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/ranking"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/validator"
)

// ServiceManager exposes every service the HTTP layer needs
type ServiceManager interface {
	Adaptive() AdaptiveService
	Recommendation() RecommendationService
	Results() ResultsService
	Report() ReportService
}

type ServiceDeps struct {
	Repo           repositories.Repository
	Ranker         ranking.Ranker
	EventPublisher events.EventPublisher
	Validator      *validator.Validator
	Engine         EngineConfig
	Scoring        adaptive.RaschConfig
	RandomTieBreak bool
	Logger         *slog.Logger
}

type serviceManager struct {
	adaptive       AdaptiveService
	recommendation RecommendationService
	results        ResultsService
	report         ReportService
}

func NewServiceManager(deps ServiceDeps) ServiceManager {
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}

	scoring := deps.Scoring
	if scoring == (adaptive.RaschConfig{}) {
		scoring = adaptive.DefaultRaschConfig()
	}

	selector := NewItemSelector(deps.Repo, deps.Ranker, deps.RandomTieBreak, deps.Logger)
	eventService := NewEngineEventService(deps.EventPublisher, deps.Logger)

	return &serviceManager{
		adaptive:       NewAdaptiveService(deps.Repo, selector, eventService, v, deps.Engine, deps.Logger),
		recommendation: NewRecommendationService(deps.Repo, deps.Logger),
		results:        NewResultsService(deps.Repo, scoring, deps.Logger),
		report:         NewReportService(deps.Repo, deps.Logger),
	}
}

func (m *serviceManager) Adaptive() AdaptiveService             { return m.adaptive }
func (m *serviceManager) Recommendation() RecommendationService { return m.recommendation }
func (m *serviceManager) Results() ResultsService               { return m.results }
func (m *serviceManager) Report() ReportService                 { return m.report }
