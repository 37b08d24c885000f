package dto

import (
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/service"
)

type CreateJobRequest struct {
	UserID               int64      `json:"user_id" validate:"omitempty,gt=0"`
	FromLanguageID       int64      `json:"from_language_id" validate:"omitempty,gt=0"`
	Immediate            bool       `json:"immediate"`
	Due                  *time.Time `json:"due"`
	Duration             int        `json:"duration" validate:"omitempty,gt=0,lte=1440"`
	JobFor               []string   `json:"job_for" validate:"dive,oneof=male female normal certified certified_in_law certified_in_helth"`
	CustomerPhoneType    bool       `json:"customer_phone_type"`
	CustomerPhysicalType bool       `json:"customer_physical_type"`
}

func (r *CreateJobRequest) Input() service.CreateJobInput {
	in := service.CreateJobInput{
		UserID:               r.UserID,
		FromLanguageID:       r.FromLanguageID,
		Immediate:            r.Immediate,
		Duration:             r.Duration,
		JobFor:               r.JobFor,
		CustomerPhoneType:    r.CustomerPhoneType,
		CustomerPhysicalType: r.CustomerPhysicalType,
	}
	if r.Due != nil {
		in.Due = *r.Due
	}
	return in
}

type ConfirmJobRequest struct {
	UserEmail    string `json:"user_email" validate:"omitempty,email"`
	Reference    string `json:"reference" validate:"max=255"`
	Address      string `json:"address" validate:"max=255"`
	Instructions string `json:"instructions" validate:"max=1000"`
	Town         string `json:"town" validate:"max=255"`
}

func (r *ConfirmJobRequest) Input() service.ConfirmInput {
	return service.ConfirmInput{
		UserEmail:    r.UserEmail,
		Reference:    r.Reference,
		Address:      r.Address,
		Instructions: r.Instructions,
		Town:         r.Town,
	}
}

type UpdateJobRequest struct {
	Status          string     `json:"status"`
	AdminComments   string     `json:"admin_comments" validate:"max=1000"`
	SessionTime     string     `json:"session_time"`
	TranslatorID    int64      `json:"translator_id" validate:"omitempty,gt=0"`
	TranslatorEmail string     `json:"translator_email" validate:"omitempty,email"`
	Due             *time.Time `json:"due"`
	FromLanguageID  int64      `json:"from_language_id" validate:"omitempty,gt=0"`
	Reference       *string    `json:"reference" validate:"omitempty,max=255"`
}

func (r *UpdateJobRequest) Input() service.UpdateInput {
	return service.UpdateInput{
		Status:          domain.Status(r.Status),
		AdminComments:   r.AdminComments,
		SessionTime:     r.SessionTime,
		TranslatorID:    r.TranslatorID,
		TranslatorEmail: r.TranslatorEmail,
		Due:             r.Due,
		FromLanguageID:  r.FromLanguageID,
		Reference:       r.Reference,
	}
}

type AcceptJobRequest struct {
	JobID int64 `json:"job_id" validate:"required,gt=0"`
}

type TransitionDTO struct {
	Outcome string `json:"outcome"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type UpdateJobResponse struct {
	Job        JobDTO             `json:"job"`
	Changed    bool               `json:"changed"`
	Transition TransitionDTO      `json:"transition"`
	Log        []service.LogEntry `json:"log"`
}

func NewUpdateJobResponse(res *service.UpdateResult) UpdateJobResponse {
	log := res.Log
	if log == nil {
		log = []service.LogEntry{}
	}
	return UpdateJobResponse{
		Job:     FromJob(res.Job),
		Changed: len(res.Log) > 0,
		Transition: TransitionDTO{
			Outcome: res.Transition.Outcome.String(),
			From:    string(res.Transition.From),
			To:      string(res.Transition.To),
		},
		Log: log,
	}
}

type UserJobsResponse struct {
	Emergency []JobDTO `json:"emergency_jobs"`
	Normal    []JobDTO `json:"normal_jobs"`
}

type TranslatorDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender,omitempty"`
	Level  string `json:"translator_level,omitempty"`
}

func FromTranslators(users []domain.User) []TranslatorDTO {
	out := make([]TranslatorDTO, 0, len(users))
	for _, u := range users {
		out = append(out, TranslatorDTO{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Gender: string(u.Meta.Gender),
			Level:  string(u.Meta.TranslatorLevel),
		})
	}
	return out
}

type JobDTO struct {
	ID                   int64  `json:"id"`
	UserID               int64  `json:"user_id"`
	FromLanguageID       int64  `json:"from_language_id"`
	Due                  string `json:"due"`
	Immediate            bool   `json:"immediate"`
	Duration             int    `json:"duration"`
	Status               string `json:"status"`
	Gender               string `json:"gender,omitempty"`
	Certified            string `json:"certified,omitempty"`
	JobType              string `json:"job_type"`
	CustomerPhoneType    bool   `json:"customer_phone_type"`
	CustomerPhysicalType bool   `json:"customer_physical_type"`
	Town                 string `json:"town,omitempty"`
	Address              string `json:"address,omitempty"`
	Instructions         string `json:"instructions,omitempty"`
	UserEmail            string `json:"user_email,omitempty"`
	Reference            string `json:"reference,omitempty"`
	AdminComments        string `json:"admin_comments,omitempty"`
	SessionTime          string `json:"session_time,omitempty"`
	WillExpireAt         string `json:"will_expire_at"`
	CreatedAt            string `json:"created_at"`
	EndAt                string `json:"end_at,omitempty"`
	WithdrawAt           string `json:"withdraw_at,omitempty"`
}

func FromJob(j *domain.Job) JobDTO {
	return JobDTO{
		ID:                   j.ID,
		UserID:               j.UserID,
		FromLanguageID:       j.FromLanguageID,
		Due:                  formatTime(j.Due),
		Immediate:            j.Immediate,
		Duration:             j.Duration,
		Status:               string(j.Status),
		Gender:               string(j.Gender),
		Certified:            string(j.Certified),
		JobType:              string(j.JobType),
		CustomerPhoneType:    j.CustomerPhoneType,
		CustomerPhysicalType: j.CustomerPhysicalType,
		Town:                 j.Town,
		Address:              j.Address,
		Instructions:         j.Instructions,
		UserEmail:            j.UserEmail,
		Reference:            j.Reference,
		AdminComments:        j.AdminComments,
		SessionTime:          j.SessionTime,
		WillExpireAt:         formatTime(j.WillExpireAt),
		CreatedAt:            formatTime(j.CreatedAt),
		EndAt:                formatTimePtr(j.EndAt),
		WithdrawAt:           formatTimePtr(j.WithdrawAt),
	}
}

func FromJobs(jobs []domain.Job) []JobDTO {
	out := make([]JobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, FromJob(&jobs[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
