package storage

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

// Memory is an in-process Store. Units of work are serialized and rolled back on error.
type Memory struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	nextJobID int64
	nextRelID int64
	jobs      map[int64]domain.Job
	relations map[int64]domain.TranslatorRelation
	users     map[int64]domain.User
	blacklist map[int64][]int64
	languages map[int64]string
}

func NewMemory() *Memory {
	return &Memory{
		jobs:      make(map[int64]domain.Job),
		relations: make(map[int64]domain.TranslatorRelation),
		users:     make(map[int64]domain.User),
		blacklist: make(map[int64][]int64),
		languages: make(map[int64]string),
	}
}

// AddUser stores or replaces a user.
func (m *Memory) AddUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// AddLanguage stores a language name.
func (m *Memory) AddLanguage(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages[id] = name
}

// Blacklist records translators a customer refuses.
func (m *Memory) Blacklist(customerID int64, translatorIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[customerID] = append(m.blacklist[customerID], translatorIDs...)
}

func (m *Memory) InTx(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	jobs := make(map[int64]domain.Job, len(m.jobs))
	for k, v := range m.jobs {
		jobs[k] = v
	}
	rels := make(map[int64]domain.TranslatorRelation, len(m.relations))
	for k, v := range m.relations {
		rels[k] = v
	}
	nextJob, nextRel := m.nextJobID, m.nextRelID
	m.mu.RUnlock()

	if err := fn(memoryTx{m}); err != nil {
		m.mu.Lock()
		m.jobs, m.relations = jobs, rels
		m.nextJobID, m.nextRelID = nextJob, nextRel
		m.mu.Unlock()
		return err
	}
	return nil
}

// memoryTx is the Store handed to InTx callbacks; nested units of work join the outer one.
type memoryTx struct {
	*Memory
}

func (t memoryTx) InTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (m *Memory) CreateJob(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextJobID++
	job.ID = m.nextJobID
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id int64) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.NotFound(domain.CodeJobNotFound, strconv.FormatInt(id, 10))
	}
	return &j, nil
}

func (m *Memory) UpdateJob(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return domain.NotFound(domain.CodeJobNotFound, strconv.FormatInt(job.ID, 10))
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) ListJobsByStatus(_ context.Context, status domain.Status) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Job
	for _, j := range m.jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	sortJobs(out)
	return out, nil
}

func (m *Memory) ListUserJobs(_ context.Context, userID int64) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	held := m.heldBy(userID)
	var out []domain.Job
	for _, j := range m.jobs {
		if !j.Status.Active() {
			continue
		}
		if _, ok := held[j.ID]; ok || j.UserID == userID {
			out = append(out, j)
		}
	}
	sortJobs(out)
	return out, nil
}

func (m *Memory) TranslatorJobs(_ context.Context, translatorID int64) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Job
	for id := range m.heldBy(translatorID) {
		j := m.jobs[id]
		if j.Status == domain.StatusAssigned || j.Status == domain.StatusStarted {
			out = append(out, j)
		}
	}
	sortJobs(out)
	return out, nil
}

// heldBy returns the ids of jobs the user holds through an active relation. Callers hold mu.
func (m *Memory) heldBy(userID int64) map[int64]struct{} {
	held := make(map[int64]struct{})
	for _, r := range m.relations {
		if r.UserID == userID && r.Active() {
			held[r.JobID] = struct{}{}
		}
	}
	return held
}

func (m *Memory) Relations(_ context.Context, jobID int64) ([]domain.TranslatorRelation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.TranslatorRelation
	for _, r := range m.relations {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Memory) CreateRelation(_ context.Context, rel *domain.TranslatorRelation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRelID++
	rel.ID = m.nextRelID
	m.relations[rel.ID] = *rel
	return nil
}

func (m *Memory) UpdateRelation(_ context.Context, rel *domain.TranslatorRelation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations[rel.ID] = *rel
	return nil
}

func (m *Memory) DeleteRelation(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.relations, id)
	return nil
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.NotFound(domain.CodeUserNotFound, strconv.FormatInt(id, 10))
	}
	return &u, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.NotFound(domain.CodeUserNotFound, email)
}

func (m *Memory) ListTranslators(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.User
	for _, u := range m.users {
		if u.Type == domain.UserTranslator {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Memory) BlacklistFor(_ context.Context, customerID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64(nil), m.blacklist[customerID]...), nil
}

func (m *Memory) LanguageName(_ context.Context, id int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.languages[id]
	if !ok {
		return "", domain.NotFound(domain.CodeLanguageNotFound, strconv.FormatInt(id, 10))
	}
	return name, nil
}

func sortJobs(jobs []domain.Job) {
	sort.Slice(jobs, func(a, b int) bool {
		if jobs[a].Due.Equal(jobs[b].Due) {
			return jobs[a].ID < jobs[b].ID
		}
		return jobs[a].Due.Before(jobs[b].Due)
	})
}
