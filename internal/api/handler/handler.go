package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/booking-core/internal/api/validate"
	"github.com/cuongbtq/booking-core/internal/booking/service"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Service     *service.Service
	ServiceName string
	// HealthCheck reports the state of backing stores. Nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	service   *service.Service
	validator *validate.Validator
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		service:   deps.Service,
		validator: validate.New(),
	}
}
