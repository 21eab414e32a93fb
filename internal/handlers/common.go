package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeValidation   = "validation_failed"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeBadRequest   = "bad_request"
	CodeInternal     = "internal_error"
	CodeUnresolvable = "student_unresolved"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides request-scoped logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

func (h *BaseHandler) requestFields(c *gin.Context, additionalFields ...interface{}) []interface{} {
	fields := []interface{}{
		"request_id", utils.GetRequestID(c),
		"student_id", c.GetString(studentIDContextKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	return append(fields, additionalFields...)
}

// LogRequest logs an incoming request with its context
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := h.requestFields(c, "remote_addr", c.ClientIP())
	h.logger.Info(message, append(fields, additionalFields...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.logger.LogError(err, message, h.requestFields(c, additionalFields...)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.Warn(message, h.requestFields(c, additionalFields...)...)
}

func (h *BaseHandler) LogDebug(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.Debug(message, h.requestFields(c, additionalFields...)...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
		Code:    code,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode, "error", err)
	}

	c.AbortWithStatusJSON(statusCode, errorResp)
}

// handleServiceError maps service errors to HTTP: client and validation errors 400,
// not found 404, conflicts 409, anything else 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", err, validationErrors)
		return
	}

	var ruleErr *services.BusinessRuleError
	hasRule := errors.As(err, &ruleErr)
	ruleDetails := func() interface{} {
		if !hasRule {
			return nil
		}
		return map[string]interface{}{
			"rule":    ruleErr.Rule,
			"context": ruleErr.Context,
		}
	}

	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, err.Error(), err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, CodeConflict, rootMessage(err), err, ruleDetails())
	case errors.Is(err, services.ErrStudentUnresolved):
		h.RespondWithError(c, http.StatusBadRequest, CodeUnresolvable, err.Error(), err)
	case services.IsClientError(err):
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, rootMessage(err), err, ruleDetails())
	default:
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}

// rootMessage prefers a business rule's own message over the wrapped chain.
func rootMessage(err error) string {
	var ruleErr *services.BusinessRuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Message
	}
	return err.Error()
}

// HealthCheck reports liveness only; readiness is checked by /ready.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "adaptive-exam-service",
	})
}
