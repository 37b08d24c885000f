package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/booking-core/internal/api/validate"
	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/gin-gonic/gin"
)

// ActorKey is the gin context key under which the auth middleware stores the caller.
const ActorKey = "actor"

// Actor returns the authenticated caller set by the auth middleware.
func Actor(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return domain.Actor{}, false
	}
	a, ok := v.(domain.Actor)
	return a, ok
}

func (h *JobHandler) actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := Actor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return a, ok
}

func (h *JobHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// bind decodes the JSON body into req and validates it. An empty body is accepted for optional payloads.
func (h *JobHandler) bind(c *gin.Context, req any, optional bool) bool {
	if !(optional && c.Request.ContentLength == 0) {
		if err := c.ShouldBindJSON(req); err != nil {
			h.logger.Error("Invalid request body", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return false
		}
	}
	if err := h.validator.Struct(req); err != nil {
		var fe *validate.FieldError
		if errors.As(err, &fe) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"status":  "fail",
				"code":    string(domain.CodeInvalidValue),
				"message": fe.Message,
				"field":   fe.Field,
			})
			return false
		}
		h.logger.Error("Failed to validate request", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate request"})
		return false
	}
	return true
}

// fail maps a service error to its HTTP response.
func (h *JobHandler) fail(c *gin.Context, op string, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		h.logger.Error("Failed to "+op, slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
		return
	}

	switch {
	case errors.Is(de, domain.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, failBody(de))
	case errors.Is(de, domain.ErrConflict):
		c.JSON(http.StatusConflict, failBody(de))
	case errors.Is(de, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": de.Message()})
	case errors.Is(de, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": de.Message()})
	default:
		h.logger.Error("Failed to "+op, slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
	}
}

func failBody(e *domain.Error) gin.H {
	body := gin.H{
		"status":  "fail",
		"code":    string(e.Code),
		"message": e.Message(),
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	return body
}
