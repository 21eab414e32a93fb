package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

// ParseUintParam reads a positive id path parameter. On failure it writes a 400 and
// returns 0.
func ParseUintParam(c *gin.Context, param string) uint {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "ID must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
			Code:    CodeBadRequest,
		})
		return 0
	}
	return uint(id)
}

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
			Code:    CodeBadRequest,
		})
		return ""
	}
	return idStr
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseAnsweredFilter reads subject_id, from and to. A bare date in to covers the whole
// day.
func parseAnsweredFilter(c *gin.Context) (repositories.AnsweredFilter, error) {
	var filter repositories.AnsweredFilter

	if raw := strings.TrimSpace(c.Query("subject_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return filter, fmt.Errorf("subject_id must be a positive integer")
		}
		subjectID := uint(id)
		filter.SubjectID = &subjectID
	}

	for _, bound := range []struct {
		param    string
		target   **time.Time
		endOfDay bool
	}{
		{param: "from", target: &filter.From},
		{param: "to", target: &filter.To, endOfDay: true},
	} {
		raw := strings.TrimSpace(c.Query(bound.param))
		if raw == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			*bound.target = &ts
			continue
		}
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filter, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", bound.param)
		}
		if bound.endOfDay {
			day = day.Add(24*time.Hour - time.Nanosecond)
		}
		*bound.target = &day
	}
	return filter, nil
}
