package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
)

const (
	StudentIDHeader     = "X-Student-ID"
	studentIDContextKey = "student_id"
)

// StudentResolver decides which student a request acts for. Authentication happens
// upstream; the engine only needs a stable identifier.
type StudentResolver interface {
	Resolve(c *gin.Context, fallback string) (string, error)
}

// HeaderStudentResolver trusts the X-Student-ID header set by the gateway and falls back
// to the id carried in the request body.
type HeaderStudentResolver struct{}

func NewHeaderStudentResolver() *HeaderStudentResolver {
	return &HeaderStudentResolver{}
}

func (HeaderStudentResolver) Resolve(c *gin.Context, fallback string) (string, error) {
	id := strings.TrimSpace(c.GetHeader(StudentIDHeader))
	if id == "" {
		id = strings.TrimSpace(fallback)
	}
	if id == "" {
		return "", services.ErrStudentUnresolved
	}
	c.Set(studentIDContextKey, id)
	return id, nil
}
