package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultsHandler struct {
	BaseHandler
	resultsService services.ResultsService
	reportService  services.ReportService
}

func NewResultsHandler(
	resultsService services.ResultsService,
	reportService services.ReportService,
	logger utils.Logger,
) *ResultsHandler {
	return &ResultsHandler{
		BaseHandler:    NewBaseHandler(logger),
		resultsService: resultsService,
		reportService:  reportService,
	}
}

// GetAreaResults returns per-area accuracy and mastery for an attempt
// @Summary Area results
// @Tags evaluations
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=[]models.AreaResult}
// @Failure 404 {object} ErrorResponse
// @Router /evaluations/{id}/areas [get]
func (h *ResultsHandler) GetAreaResults(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	areas, err := h.resultsService.AreaResults(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Area results retrieved",
		Data:    areas,
	})
}

// GetSummary returns the attempt summary
// @Summary Attempt summary
// @Tags evaluations
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.SummaryResponse
// @Failure 404 {object} ErrorResponse
// @Router /evaluations/{id}/summary [get]
func (h *ResultsHandler) GetSummary(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	summary, err := h.resultsService.Summary(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetAreaScores returns per-area ability estimates for an attempt
// @Summary Area scores on the RIT scale
// @Tags evaluations
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AreaScoresResponse
// @Failure 404 {object} ErrorResponse
// @Router /evaluations/{id}/area-scores [get]
func (h *ResultsHandler) GetAreaScores(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	resp, err := h.resultsService.AreaScores(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStudentAreaScores pools the student's answers across attempts
// @Summary Student area scores on the RIT scale
// @Tags students
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject_id query uint false "Only attempts of this subject"
// @Param from query string false "Attempts started at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Attempts started at or before (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} services.AreaScoresResponse
// @Failure 400 {object} ErrorResponse
// @Router /students/{student_id}/area-scores [get]
func (h *ResultsHandler) GetStudentAreaScores(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	filter, err := parseAnsweredFilter(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid area score filter", err, err.Error())
		return
	}

	resp, err := h.resultsService.StudentAreaScores(c.Request.Context(), studentID, filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadReport streams the attempt workbook
// @Summary Attempt report
// @Tags evaluations
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Attempt ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /evaluations/{id}/report [get]
func (h *ResultsHandler) DownloadReport(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Exporting attempt report", "attempt_id", attemptID)

	data, err := h.reportService.ExportAttempt(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attempt-%d.xlsx"`, attemptID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

type RecommendationHandler struct {
	BaseHandler
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService, logger utils.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		BaseHandler:           NewBaseHandler(logger),
		recommendationService: recommendationService,
	}
}

// ListRecommendations returns the student's current recommendations
// @Summary Student recommendations
// @Tags students
// @Produce json
// @Param student_id path string true "Student ID"
// @Param limit query int false "Maximum entries (default 10, max 100)"
// @Success 200 {object} services.RecommendationListResponse
// @Failure 400 {object} ErrorResponse
// @Router /students/{student_id}/recommendations [get]
func (h *RecommendationHandler) ListRecommendations(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	limit := parseIntQuery(c, "limit", 0)
	resp, err := h.recommendationService.ListForStudent(c.Request.Context(), studentID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
