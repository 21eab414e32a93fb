package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
)

type AdaptiveHandler struct {
	BaseHandler
	adaptiveService services.AdaptiveService
	students        StudentResolver
}

func NewAdaptiveHandler(
	adaptiveService services.AdaptiveService,
	students StudentResolver,
	logger utils.Logger,
) *AdaptiveHandler {
	return &AdaptiveHandler{
		BaseHandler:     NewBaseHandler(logger),
		adaptiveService: adaptiveService,
		students:        students,
	}
}

// StartAttempt opens an attempt and returns its first question
// @Summary Start adaptive attempt
// @Tags sessions
// @Accept json
// @Produce json
// @Param X-Student-ID header string false "Student id"
// @Param request body services.StartRequest true "Start data"
// @Success 201 {object} services.StartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/start [post]
func (h *AdaptiveHandler) StartAttempt(c *gin.Context) {
	var req services.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	studentID, err := h.students.Resolve(c, req.StudentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	req.StudentID = studentID

	h.LogRequest(c, "Starting attempt", "subject_id", req.SubjectID)

	resp, err := h.adaptiveService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SubmitAnswer records the answer to the current item and returns the next one or the
// summary when the attempt finishes
// @Summary Answer current item
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.AnswerRequest true "Answer"
// @Success 200 {object} services.AnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answer [post]
func (h *AdaptiveHandler) SubmitAnswer(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	req.AttemptID = attemptID

	h.LogDebug(c, "Submitting answer", "attempt_id", attemptID, "question_id", req.QuestionID)

	resp, err := h.adaptiveService.Answer(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EndAttempt closes the attempt. The body is optional.
// @Summary End attempt
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.EndRequest false "End reason"
// @Success 200 {object} services.SummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/end [post]
func (h *AdaptiveHandler) EndAttempt(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.EndRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	req.AttemptID = attemptID

	h.LogRequest(c, "Ending attempt", "attempt_id", attemptID, "reason", req.Reason)

	resp, err := h.adaptiveService.End(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAttemptStatus returns progress and the pending item of an attempt
// @Summary Attempt status
// @Tags sessions
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.StatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *AdaptiveHandler) GetAttemptStatus(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	resp, err := h.adaptiveService.Status(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
