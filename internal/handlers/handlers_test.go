package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/LuisSoma75/SomaEdu-sub000/internal/errors"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
)

// ===== MOCKS =====

type MockAdaptiveService struct {
	mock.Mock
}

func (m *MockAdaptiveService) Start(ctx context.Context, req *services.StartRequest) (*services.StartResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StartResponse), args.Error(1)
}

func (m *MockAdaptiveService) Answer(ctx context.Context, req *services.AnswerRequest) (*services.AnswerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnswerResponse), args.Error(1)
}

func (m *MockAdaptiveService) End(ctx context.Context, req *services.EndRequest) (*services.SummaryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryResponse), args.Error(1)
}

func (m *MockAdaptiveService) Status(ctx context.Context, attemptID uint) (*services.StatusResponse, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StatusResponse), args.Error(1)
}

type MockResultsService struct {
	mock.Mock
}

func (m *MockResultsService) AreaResults(ctx context.Context, attemptID uint) ([]models.AreaResult, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]models.AreaResult), args.Error(1)
}

func (m *MockResultsService) Summary(ctx context.Context, attemptID uint) (*services.SummaryResponse, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryResponse), args.Error(1)
}

func (m *MockResultsService) AreaScores(ctx context.Context, attemptID uint) (*services.AreaScoresResponse, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AreaScoresResponse), args.Error(1)
}

func (m *MockResultsService) StudentAreaScores(ctx context.Context, studentID string, filter repositories.AnsweredFilter) (*services.AreaScoresResponse, error) {
	args := m.Called(ctx, studentID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AreaScoresResponse), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ExportAttempt(ctx context.Context, attemptID uint) ([]byte, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) ListForStudent(ctx context.Context, studentID string, limit int) (*services.RecommendationListResponse, error) {
	args := m.Called(ctx, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RecommendationListResponse), args.Error(1)
}

type mockServiceManager struct {
	adaptive       *MockAdaptiveService
	results        *MockResultsService
	report         *MockReportService
	recommendation *MockRecommendationService
}

func (m *mockServiceManager) Adaptive() services.AdaptiveService             { return m.adaptive }
func (m *mockServiceManager) Results() services.ResultsService               { return m.results }
func (m *mockServiceManager) Report() services.ReportService                 { return m.report }
func (m *mockServiceManager) Recommendation() services.RecommendationService { return m.recommendation }

// ===== SETUP =====

func newTestRouter(t *testing.T, ready ReadinessCheck) (*gin.Engine, *mockServiceManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sm := &mockServiceManager{
		adaptive:       new(MockAdaptiveService),
		results:        new(MockResultsService),
		report:         new(MockReportService),
		recommendation: new(MockRecommendationService),
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hm := NewHandlerManager(sm, nil, ready, logger)
	router := NewRouter(RouterConfig{AllowedOrigins: []string{"http://localhost:5173"}}, hm, logger)
	return router, sm
}

func perform(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ===== TESTS =====

func TestHealthAndReadiness(t *testing.T) {
	router, _ := newTestRouter(t, func(ctx context.Context) error { return nil })
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/ready", nil, nil).Code)

	router, _ = newTestRouter(t, func(ctx context.Context) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, perform(router, http.MethodGet, "/ready", nil, nil).Code)
}

func TestStartAttempt_StudentIdentity(t *testing.T) {
	router, sm := newTestRouter(t, nil)

	sm.adaptive.On("Start", mock.Anything, mock.MatchedBy(func(req *services.StartRequest) bool {
		return req.StudentID == "from-header" && req.SubjectID == 3
	})).Return(&services.StartResponse{AttemptID: 11, Order: 1}, nil).Once()

	w := perform(router, http.MethodPost, "/api/v1/sessions/start",
		map[string]interface{}{"student_id": "from-body", "subject_id": 3},
		map[string]string{StudentIDHeader: "from-header"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp services.StartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(11), resp.AttemptID)
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))

	sm.adaptive.On("Start", mock.Anything, mock.MatchedBy(func(req *services.StartRequest) bool {
		return req.StudentID == "from-body"
	})).Return(&services.StartResponse{AttemptID: 12}, nil).Once()

	w = perform(router, http.MethodPost, "/api/v1/sessions/start",
		map[string]interface{}{"student_id": "from-body", "subject_id": 3}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	sm.adaptive.AssertExpectations(t)
}

func TestStartAttempt_Errors(t *testing.T) {
	t.Run("unresolved student", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)

		w := perform(router, http.MethodPost, "/api/v1/sessions/start", map[string]interface{}{"subject_id": 3}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeUnresolvable, decodeError(t, w).Code)
		sm.adaptive.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/start", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)
		verr := apperrors.ValidationErrors{{Field: "subject_id", Message: "subject_id is required"}}
		sm.adaptive.On("Start", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("validation failed: %w", verr))

		w := perform(router, http.MethodPost, "/api/v1/sessions/start", map[string]interface{}{"student_id": "s"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeValidation, decodeError(t, w).Code)
	})

	t.Run("closed session", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)
		sm.adaptive.On("Start", mock.Anything, mock.Anything).Return(nil, services.ErrSessionClosed)

		w := perform(router, http.MethodPost, "/api/v1/sessions/start", map[string]interface{}{"student_id": "s", "subject_id": 1}, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSubmitAnswer_ErrorMapping(t *testing.T) {
	notCurrent := &services.BusinessRuleError{
		Rule:    "current_item",
		Message: services.ErrQuestionNotCurrent.Error(),
		Cause:   services.ErrQuestionNotCurrent,
	}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"question not current", notCurrent, http.StatusBadRequest},
		{"invalid option", services.ErrInvalidOption, http.StatusBadRequest},
		{"attempt finished", services.ErrAttemptFinished, http.StatusConflict},
		{"already answered", services.ErrAnswerAlreadyRecorded, http.StatusConflict},
		{"attempt not found", services.ErrAttemptNotFound, http.StatusNotFound},
		{"storage failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sm := newTestRouter(t, nil)
			sm.adaptive.On("Answer", mock.Anything, mock.MatchedBy(func(req *services.AnswerRequest) bool {
				return req.AttemptID == 5 && req.QuestionID == 101 && req.OptionID == 1011
			})).Return(nil, tt.err)

			w := perform(router, http.MethodPost, "/api/v1/sessions/5/answer",
				map[string]interface{}{"question_id": 101, "option_id": 1011}, nil)

			assert.Equal(t, tt.code, w.Code)
			sm.adaptive.AssertExpectations(t)
		})
	}

	t.Run("rule details are returned", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)
		sm.adaptive.On("Answer", mock.Anything, mock.Anything).Return(nil, notCurrent)

		w := perform(router, http.MethodPost, "/api/v1/sessions/5/answer",
			map[string]interface{}{"question_id": 101, "option_id": 1011}, nil)

		resp := decodeError(t, w)
		assert.Equal(t, services.ErrQuestionNotCurrent.Error(), resp.Message)
		details, ok := resp.Details.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "current_item", details["rule"])
	})
}

func TestSubmitAnswer_InvalidID(t *testing.T) {
	router, sm := newTestRouter(t, nil)

	for _, path := range []string{"/api/v1/sessions/abc/answer", "/api/v1/sessions/0/answer"} {
		w := perform(router, http.MethodPost, path, map[string]interface{}{"question_id": 1, "option_id": 1}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	sm.adaptive.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
}

func TestEndAttempt_OptionalBody(t *testing.T) {
	router, sm := newTestRouter(t, nil)
	reason := models.FinishedByRequest
	sm.adaptive.On("End", mock.Anything, &services.EndRequest{AttemptID: 9}).
		Return(&services.SummaryResponse{AttemptID: 9, Reason: &reason}, nil).Once()
	sm.adaptive.On("End", mock.Anything, &services.EndRequest{AttemptID: 9, Reason: models.FinishedByTime}).
		Return(&services.SummaryResponse{AttemptID: 9, Reason: &reason}, nil).Once()

	w := perform(router, http.MethodPost, "/api/v1/sessions/9/end", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodPost, "/api/v1/sessions/9/end", map[string]interface{}{"reason": "time"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	sm.adaptive.AssertExpectations(t)
}

func TestGetAttemptStatus(t *testing.T) {
	router, sm := newTestRouter(t, nil)
	sm.adaptive.On("Status", mock.Anything, uint(4)).Return(&services.StatusResponse{AttemptID: 4, AskedCount: 2}, nil)
	sm.adaptive.On("Status", mock.Anything, uint(8)).Return(nil, services.ErrAttemptNotFound)

	w := perform(router, http.MethodGet, "/api/v1/sessions/4", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"asked_count":2`)

	w = perform(router, http.MethodGet, "/api/v1/sessions/8", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Code)
}

func TestResultsRoutes(t *testing.T) {
	router, sm := newTestRouter(t, nil)
	sm.results.On("AreaResults", mock.Anything, uint(3)).Return([]models.AreaResult{{AreaID: 1, AreaName: "Algebra"}}, nil)
	sm.results.On("Summary", mock.Anything, uint(3)).Return(&services.SummaryResponse{AttemptID: 3}, nil)
	sm.report.On("ExportAttempt", mock.Anything, uint(3)).Return([]byte("xlsx-bytes"), nil)

	w := perform(router, http.MethodGet, "/api/v1/evaluations/3/areas", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Algebra")

	w = perform(router, http.MethodGet, "/api/v1/evaluations/3/summary", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/api/v1/evaluations/3/report", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attempt-3.xlsx")
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestAreaScoreRoutes(t *testing.T) {
	t.Run("attempt scores", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)
		attemptID := uint(3)
		sm.results.On("AreaScores", mock.Anything, uint(3)).Return(&services.AreaScoresResponse{
			AttemptID: &attemptID,
			StudentID: "s-1",
			Areas:     []models.AreaScore{{AreaID: 1, AreaName: "Algebra", ScoreRIT: 209}},
		}, nil)
		sm.results.On("AreaScores", mock.Anything, uint(4)).Return(nil, services.ErrAttemptNotFound)

		w := perform(router, http.MethodGet, "/api/v1/evaluations/3/area-scores", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"score_rit":209`)

		w = perform(router, http.MethodGet, "/api/v1/evaluations/4/area-scores", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("student scores parse the filter", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)
		sm.results.On("StudentAreaScores", mock.Anything, "42", mock.MatchedBy(func(f repositories.AnsweredFilter) bool {
			return f.SubjectID != nil && *f.SubjectID == 2 &&
				f.From != nil && f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				f.To != nil && f.To.Equal(time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC))
		})).Return(&services.AreaScoresResponse{StudentID: "42"}, nil)

		w := perform(router, http.MethodGet, "/api/v1/students/42/area-scores?subject_id=2&from=2026-03-01&to=2026-03-31", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		sm.results.AssertExpectations(t)
	})

	t.Run("bad filter is rejected before the service", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)

		for _, query := range []string{"subject_id=zero", "from=yesterday", "to=2026-13-01"} {
			w := perform(router, http.MethodGet, "/api/v1/students/42/area-scores?"+query, nil, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
			assert.Equal(t, CodeBadRequest, decodeError(t, w).Code)
		}
		sm.results.AssertNotCalled(t, "StudentAreaScores", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reversed range maps to bad request", func(t *testing.T) {
		router, sm := newTestRouter(t, nil)
		sm.results.On("StudentAreaScores", mock.Anything, "42", mock.Anything).
			Return(nil, fmt.Errorf("%w: from is after to", services.ErrBadRequest))

		w := perform(router, http.MethodGet, "/api/v1/students/42/area-scores?from=2026-04-01&to=2026-03-01", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListRecommendations(t *testing.T) {
	router, sm := newTestRouter(t, nil)
	sm.recommendation.On("ListForStudent", mock.Anything, "42", 5).Return(&services.RecommendationListResponse{
		StudentID: "42",
		Source:    services.RecommendationListCurrent,
	}, nil)
	sm.recommendation.On("ListForStudent", mock.Anything, "43", 0).Return(&services.RecommendationListResponse{
		StudentID: "43",
		Source:    services.RecommendationListAggregate,
	}, nil)

	w := perform(router, http.MethodGet, "/api/v1/students/42/recommendations?limit=5", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"recommendations"`)

	w = perform(router, http.MethodGet, "/api/v1/students/43/recommendations?limit=lots", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	sm.recommendation.AssertExpectations(t)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions/start", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", StudentIDHeader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
