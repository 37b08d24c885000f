package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/api/auth"
	"github.com/cuongbtq/booking-core/internal/api/handler"
	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/service"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerID  int64 = 1
	otherID     int64 = 2
	translatorA int64 = 10
	translatorB int64 = 11
	adminID     int64 = 99
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events []domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.EventKind
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type testServer struct {
	engine *gin.Engine
	tokens *auth.TokenService
	pub    *recordingPublisher
}

func newTestServer(t *testing.T, health func(context.Context) error) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemory()
	store.AddLanguage(1, "Swedish")
	store.AddUser(domain.User{
		ID: customerID, Type: domain.UserCustomer, Email: "customer@example.com",
		Meta: domain.UserMeta{ConsumerType: domain.ConsumerPaid, City: "Stockholm"},
	})
	store.AddUser(domain.User{ID: otherID, Type: domain.UserCustomer, Email: "other@example.com"})
	for _, id := range []int64{translatorA, translatorB} {
		store.AddUser(domain.User{
			ID: id, Type: domain.UserTranslator, Name: "Translator",
			Languages: []int64{1},
			Meta: domain.UserMeta{
				TranslatorType:  domain.TranslatorProfessional,
				TranslatorLevel: domain.LevelCertified,
			},
		})
	}
	store.AddUser(domain.User{ID: adminID, Type: domain.UserAdmin})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &recordingPublisher{}
	svc := service.New(&service.Config{
		Store:     store,
		Publisher: pub,
		Settings:  service.Settings{SupportPhone: "+46 8 123 45"},
		Logger:    logger,
		Now:       func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	})

	tokens := auth.NewTokenService("test-secret", "booking-core", time.Hour)
	engine := SetupRouter(&handler.Dependencies{
		Logger:      logger,
		Service:     svc,
		HealthCheck: health,
	}, Options{Tokens: tokens, AllowedOrigins: []string{"https://app.example.com"}})

	return &testServer{engine: engine, tokens: tokens, pub: pub}
}

func (s *testServer) token(t *testing.T, id int64, typ domain.UserType) string {
	t.Helper()
	tok, err := s.tokens.Issue(domain.Actor{UserID: id, Type: typ})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

const createBody = `{"from_language_id":1,"due":"2024-03-05T10:00:00Z","duration":60,"customer_phone_type":true}`

func (s *testServer) createJob(t *testing.T) int64 {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/v1/jobs", s.token(t, customerID, domain.UserCustomer), createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(body["id"].(float64))
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/health", "/api/v1/health"} {
		w, body := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", body["status"])
	}

	down := newTestServer(t, func(context.Context) error { return errors.New("database unreachable") })
	w, body := down.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t, nil)
	other := auth.NewTokenService("other-secret", "booking-core", time.Hour)
	forged, err := other.Issue(domain.Actor{UserID: adminID, Type: domain.UserAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage", header: "Bearer nope"},
		{name: "wrong secret", header: "Bearer " + forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/available", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_CreateJob(t *testing.T) {
	s := newTestServer(t, nil)
	customer := s.token(t, customerID, domain.UserCustomer)

	tests := []struct {
		name   string
		token  string
		body   string
		status int
		code   string
		field  string
	}{
		{
			name:   "created",
			token:  customer,
			body:   `{"from_language_id":1,"due":"2024-03-05T10:00:00Z","duration":60,"customer_phone_type":true,"job_for":["female","certified"]}`,
			status: http.StatusCreated,
		},
		{name: "malformed json", token: customer, body: `{"duration":`, status: http.StatusBadRequest},
		{name: "missing duration", token: customer, body: `{"from_language_id":1,"due":"2024-03-05T10:00:00Z","customer_phone_type":true}`, status: http.StatusUnprocessableEntity, code: "field_required", field: "duration"},
		{name: "unknown job_for", token: customer, body: `{"from_language_id":1,"duration":60,"job_for":["robot"]}`, status: http.StatusUnprocessableEntity, code: "invalid_value", field: "job_for[0]"},
		{name: "due in past", token: customer, body: `{"from_language_id":1,"due":"2024-02-01T10:00:00Z","duration":60,"customer_phone_type":true}`, status: http.StatusUnprocessableEntity, code: "due_in_past", field: "due"},
		{name: "translator may not book", token: s.token(t, translatorA, domain.UserTranslator), body: createBody, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/v1/jobs", tt.token, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, "fail", body["status"])
				assert.Equal(t, tt.code, body["code"])
				assert.Equal(t, tt.field, body["field"])
				assert.NotEmpty(t, body["message"])
			}
			if tt.status == http.StatusCreated {
				assert.Equal(t, "pending", body["status"])
				assert.Equal(t, "female", body["gender"])
				assert.Equal(t, "yes", body["certified"])
				assert.Equal(t, "2024-03-05T10:00:00Z", body["due"])
			}
			if tt.status == http.StatusForbidden {
				assert.Equal(t, "Translator can not create booking", body["error"])
			}
		})
	}
}

func TestRouter_AcceptRace(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createJob(t)
	path := "/api/v1/jobs/" + itoa(id) + "/accept"

	w, body := s.do(t, http.MethodPost, path, s.token(t, translatorA, domain.UserTranslator), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, body["message"], "Swedish")

	w, body = s.do(t, http.MethodPost, path, s.token(t, translatorB, domain.UserTranslator), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_accepted", body["code"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/jobs/accept", s.token(t, translatorB, domain.UserTranslator), `{"job_id":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRouter_AcceptFeed(t *testing.T) {
	s := newTestServer(t, nil)
	first := s.createJob(t)
	s.createJob(t)
	translator := s.token(t, translatorA, domain.UserTranslator)

	w, body := s.do(t, http.MethodGet, "/api/v1/jobs/available", translator, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["jobs"], 2)

	w, body = s.do(t, http.MethodPost, "/api/v1/jobs/accept", translator, `{"job_id":`+itoa(first)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "success", body["status"])
}

func TestRouter_ErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createJob(t)
	customer := s.token(t, customerID, domain.UserCustomer)
	admin := s.token(t, adminID, domain.UserAdmin)
	stranger := s.token(t, otherID, domain.UserCustomer)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{name: "unknown job", method: http.MethodPost, path: "/api/v1/jobs/999/cancel", token: customer, status: http.StatusNotFound},
		{name: "bad job id", method: http.MethodPost, path: "/api/v1/jobs/abc/cancel", token: customer, status: http.StatusBadRequest},
		{name: "cancel foreign job", method: http.MethodPost, path: "/api/v1/jobs/" + itoa(id) + "/cancel", token: stranger, status: http.StatusForbidden},
		{name: "update needs admin", method: http.MethodPut, path: "/api/v1/jobs/" + itoa(id), token: customer, body: `{"status":"assigned"}`, status: http.StatusForbidden},
		{name: "update unknown status", method: http.MethodPut, path: "/api/v1/jobs/" + itoa(id), token: admin, body: `{"status":"bogus"}`, status: http.StatusUnprocessableEntity},
		{name: "expire needs admin", method: http.MethodPost, path: "/api/v1/jobs/" + itoa(id) + "/expire", token: customer, status: http.StatusForbidden},
		{name: "translators need admin", method: http.MethodGet, path: "/api/v1/jobs/" + itoa(id) + "/translators", token: customer, status: http.StatusForbidden},
		{name: "foreign user jobs", method: http.MethodGet, path: "/api/v1/users/1/jobs", token: stranger, status: http.StatusForbidden},
		{name: "end a pending job", method: http.MethodPost, path: "/api/v1/jobs/" + itoa(id) + "/end", token: admin, status: http.StatusConflict},
		{name: "confirm bad email", method: http.MethodPost, path: "/api/v1/jobs/" + itoa(id) + "/confirm", token: customer, body: `{"user_email":"nope"}`, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRouter_UpdateJobUnchanged(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createJob(t)

	w, body := s.do(t, http.MethodPut, "/api/v1/jobs/"+itoa(id), s.token(t, adminID, domain.UserAdmin), `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, body["changed"])
	transition := body["transition"].(map[string]any)
	assert.Equal(t, "unchanged", transition["outcome"])
	assert.Equal(t, "pending", transition["to"])
	assert.Empty(t, body["log"])
}

func TestRouter_ConfirmAndResend(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createJob(t)
	customer := s.token(t, customerID, domain.UserCustomer)
	admin := s.token(t, adminID, domain.UserAdmin)

	w, body := s.do(t, http.MethodPost, "/api/v1/jobs/"+itoa(id)+"/confirm", customer, `{"reference":"PO-1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Stockholm", body["town"])
	assert.Equal(t, "PO-1", body["reference"])

	w, body = s.do(t, http.MethodPost, "/api/v1/jobs/"+itoa(id)+"/notifications/resend-sms", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SMS sent", body["message"])

	w, body = s.do(t, http.MethodPost, "/api/v1/jobs/"+itoa(id)+"/notifications/resend", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Push sent", body["message"])

	assert.Equal(t, []domain.EventKind{
		domain.EventJobCreated,
		domain.EventSuitableJob,
		domain.EventSuitableJobSMS,
		domain.EventSuitableJob,
	}, s.pub.kinds())
}

func TestRouter_Queries(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createJob(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/jobs/"+itoa(id)+"/translators", s.token(t, adminID, domain.UserAdmin), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ids []float64
	for _, tr := range body["translators"].([]any) {
		ids = append(ids, tr.(map[string]any)["id"].(float64))
	}
	assert.Equal(t, []float64{float64(translatorA), float64(translatorB)}, ids)

	w, body = s.do(t, http.MethodGet, "/api/v1/users/1/jobs", s.token(t, customerID, domain.UserCustomer), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["normal_jobs"], 1)
	assert.Empty(t, body["emergency_jobs"])
}

func TestRouter_CustomerCancel(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createJob(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/jobs/"+itoa(id)+"/cancel", s.token(t, customerID, domain.UserCustomer), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	job := body["job"].(map[string]any)
	assert.Equal(t, string(domain.StatusWithdrawBefore24), job["status"])
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://app.example.com", want: "https://app.example.com"},
		{origin: "https://evil.example.com", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", bytes.NewReader(nil))
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
