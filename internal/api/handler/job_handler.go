package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/booking-core/internal/api/dto"
	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/service"
	"github.com/gin-gonic/gin"
)

func (h *JobHandler) logCall(c *gin.Context, name string) {
	h.logger.Info(name+" called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)
}

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	h.logCall(c, "CreateJob")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.CreateJobRequest
	if !h.bind(c, &req, false) {
		return
	}

	job, err := h.service.Store(c.Request.Context(), actor, req.Input())
	if err != nil {
		h.fail(c, "create job", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromJob(job))
}

// ConfirmJob handles POST /api/v1/jobs/:job_id/confirm
func (h *JobHandler) ConfirmJob(c *gin.Context) {
	h.logCall(c, "ConfirmJob")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}
	var req dto.ConfirmJobRequest
	if !h.bind(c, &req, true) {
		return
	}

	job, err := h.service.ConfirmBooking(c.Request.Context(), actor, id, req.Input())
	if err != nil {
		h.fail(c, "confirm job", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromJob(job))
}

// UpdateJob handles PUT /api/v1/jobs/:job_id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	h.logCall(c, "UpdateJob")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}
	var req dto.UpdateJobRequest
	if !h.bind(c, &req, false) {
		return
	}

	res, err := h.service.UpdateJob(c.Request.Context(), actor, id, req.Input())
	if err != nil {
		h.fail(c, "update job", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUpdateJobResponse(res))
}

// AcceptJob handles POST /api/v1/jobs/accept and returns the translator's refreshed feed.
func (h *JobHandler) AcceptJob(c *gin.Context) {
	h.logCall(c, "AcceptJob")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.AcceptJobRequest
	if !h.bind(c, &req, false) {
		return
	}

	jobs, err := h.service.AcceptJob(c.Request.Context(), actor, req.JobID)
	if err != nil {
		h.fail(c, "accept job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "jobs": dto.FromJobs(jobs)})
}

// AcceptJobWithID handles POST /api/v1/jobs/:job_id/accept
func (h *JobHandler) AcceptJobWithID(c *gin.Context) {
	h.logCall(c, "AcceptJobWithID")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}

	msg, err := h.service.AcceptJobWithID(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "accept job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": msg})
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.logCall(c, "CancelJob")
	h.jobAction(c, "cancel job", h.service.CancelJob)
}

// EndJob handles POST /api/v1/jobs/:job_id/end
func (h *JobHandler) EndJob(c *gin.Context) {
	h.logCall(c, "EndJob")
	h.jobAction(c, "end job", h.service.EndJob)
}

// CustomerNotCall handles POST /api/v1/jobs/:job_id/customer-not-call
func (h *JobHandler) CustomerNotCall(c *gin.Context) {
	h.logCall(c, "CustomerNotCall")
	h.jobAction(c, "mark job as not carried out", h.service.CustomerNotCall)
}

// ReopenJob handles POST /api/v1/jobs/:job_id/reopen
func (h *JobHandler) ReopenJob(c *gin.Context) {
	h.logCall(c, "ReopenJob")
	h.jobAction(c, "reopen job", h.service.Reopen)
}

type jobActionFunc func(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error)

func (h *JobHandler) jobAction(c *gin.Context, op string, fn jobActionFunc) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}

	job, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "job": dto.FromJob(job)})
}

// ExpireJob handles POST /api/v1/jobs/:job_id/expire
func (h *JobHandler) ExpireJob(c *gin.Context) {
	h.logCall(c, "ExpireJob")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		h.fail(c, "expire job", domain.Forbidden(domain.CodeNotAllowed))
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}

	res, err := h.service.ExpireJob(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "expire job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"changed": res.Changed(),
		"transition": dto.TransitionDTO{
			Outcome: res.Outcome.String(),
			From:    string(res.From),
			To:      string(res.To),
		},
	})
}

// ResendNotifications handles POST /api/v1/jobs/:job_id/notifications/resend
func (h *JobHandler) ResendNotifications(c *gin.Context) {
	h.logCall(c, "ResendNotifications")
	h.resend(c, h.service.ResendNotifications, "Push sent")
}

// ResendSMSNotifications handles POST /api/v1/jobs/:job_id/notifications/resend-sms
func (h *JobHandler) ResendSMSNotifications(c *gin.Context) {
	h.logCall(c, "ResendSMSNotifications")
	h.resend(c, h.service.ResendSMSNotifications, "SMS sent")
}

func (h *JobHandler) resend(c *gin.Context, fn func(ctx context.Context, actor domain.Actor, jobID int64) error, message string) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), actor, id); err != nil {
		h.fail(c, "resend notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message})
}

// AvailableJobs handles GET /api/v1/jobs/available
func (h *JobHandler) AvailableJobs(c *gin.Context) {
	h.logCall(c, "AvailableJobs")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if !actor.IsTranslator() {
		h.fail(c, "list available jobs", domain.Forbidden(domain.CodeNotAllowed))
		return
	}

	jobs, err := h.service.PotentialJobs(c.Request.Context(), actor.UserID)
	if err != nil {
		h.fail(c, "list available jobs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": dto.FromJobs(jobs)})
}

// PotentialTranslators handles GET /api/v1/jobs/:job_id/translators
func (h *JobHandler) PotentialTranslators(c *gin.Context) {
	h.logCall(c, "PotentialTranslators")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		h.fail(c, "list translators", domain.Forbidden(domain.CodeNotAllowed))
		return
	}
	id, ok := h.pathID(c, "job_id")
	if !ok {
		return
	}

	users, err := h.service.PotentialTranslators(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "list translators", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"translators": dto.FromTranslators(users)})
}

// UserJobs handles GET /api/v1/users/:user_id/jobs
func (h *JobHandler) UserJobs(c *gin.Context) {
	h.logCall(c, "UserJobs")
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "user_id")
	if !ok {
		return
	}
	if !actor.IsAdmin() && actor.UserID != id {
		h.fail(c, "list user jobs", domain.Forbidden(domain.CodeNotAllowed))
		return
	}

	jobs, err := h.service.UserJobs(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "list user jobs", err)
		return
	}
	c.JSON(http.StatusOK, newUserJobsResponse(jobs))
}

func newUserJobsResponse(jobs *service.UserJobs) dto.UserJobsResponse {
	return dto.UserJobsResponse{
		Emergency: dto.FromJobs(jobs.Emergency),
		Normal:    dto.FromJobs(jobs.Normal),
	}
}
