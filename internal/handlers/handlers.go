package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"stagepass/internal/apperrors"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
)

// Handlers holds the HTTP handlers and their service dependencies.
type Handlers struct {
	services *service.Services
}

func New(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// respondError translates an application error to its HTTP shape. Unknown
// errors are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		c.JSON(statusOf(appErr.Kind), appErr)
		return
	}

	slog.Error("Unhandled error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}

func statusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindPermission:
		return http.StatusForbidden
	case apperrors.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondBindError wraps a gin binding failure as a validation error.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apperrors.Validation("invalid request body: "+err.Error()))
}

// pathID parses a positive int64 path parameter; a malformed id aborts the
// request with a validation error and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apperrors.ValidationField(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}
