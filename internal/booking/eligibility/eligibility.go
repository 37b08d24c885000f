// Package eligibility decides which translators may serve which jobs.
package eligibility

import (
	"sort"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

// Reason explains why a translator does not match a job. The zero value means eligible.
type Reason string

const (
	Eligible             Reason = ""
	ReasonDisabled       Reason = "disabled"
	ReasonTranslatorType Reason = "translator_type"
	ReasonLanguage       Reason = "language"
	ReasonGender         Reason = "gender"
	ReasonLevel          Reason = "level"
	ReasonBlacklisted    Reason = "blacklisted"
	ReasonTown           Reason = "town"
	ReasonConflict       Reason = "conflict"
)

// Blacklist holds the translator ids a customer refuses to work with.
type Blacklist map[int64]struct{}

func NewBlacklist(translatorIDs ...int64) Blacklist {
	b := make(Blacklist, len(translatorIDs))
	for _, id := range translatorIDs {
		b[id] = struct{}{}
	}
	return b
}

func (b Blacklist) Contains(translatorID int64) bool {
	_, ok := b[translatorID]
	return ok
}

// AllowedLevels expands a job's certification requirement into translator levels.
func AllowedLevels(c domain.Certification) []domain.TranslatorLevel {
	switch c {
	case domain.CertYes, domain.CertBoth:
		return []domain.TranslatorLevel{domain.LevelCertified, domain.LevelCertifiedLaw, domain.LevelCertifiedHealth}
	case domain.CertLaw, domain.CertNLaw:
		return []domain.TranslatorLevel{domain.LevelCertifiedLaw}
	case domain.CertHealth, domain.CertNHealth:
		return []domain.TranslatorLevel{domain.LevelCertifiedHealth}
	case domain.CertNormal:
		return []domain.TranslatorLevel{domain.LevelLayman, domain.LevelReadCourses}
	case domain.CertAny:
		return domain.AllLevels
	}
	return nil
}

func levelAllowed(c domain.Certification, level domain.TranslatorLevel) bool {
	for _, l := range AllowedLevels(c) {
		if l == level {
			return true
		}
	}
	return false
}

// Match checks every matching dimension except booking conflicts.
// poster may be nil when the job owner is unknown.
func Match(job *domain.Job, poster, translator *domain.User, blacklist Blacklist) Reason {
	if translator.Disabled {
		return ReasonDisabled
	}
	if translator.Meta.TranslatorType != job.JobType.TranslatorType() {
		return ReasonTranslatorType
	}
	if !translator.Speaks(job.FromLanguageID) {
		return ReasonLanguage
	}
	if job.Gender != domain.GenderAny && translator.Meta.Gender != job.Gender {
		return ReasonGender
	}
	if !levelAllowed(job.Certified, translator.Meta.TranslatorLevel) {
		return ReasonLevel
	}
	if blacklist.Contains(translator.ID) {
		return ReasonBlacklisted
	}
	if job.PhysicalOnly() && !townAllowed(job, poster, translator) {
		return ReasonTown
	}
	return Eligible
}

// IsEligible reports whether translator may be offered job.
func IsEligible(job *domain.Job, poster, translator *domain.User, blacklist Blacklist) bool {
	return Match(job, poster, translator, blacklist) == Eligible
}

// townAllowed requires the translator to cover one of the poster's towns or the job's town.
// With no towns on either side there is nothing to restrict on.
func townAllowed(job *domain.Job, poster, translator *domain.User) bool {
	allowed := make(map[string]struct{})
	if poster != nil {
		for _, t := range poster.Towns {
			if t != "" {
				allowed[t] = struct{}{}
			}
		}
	}
	if job.Town != "" {
		allowed[job.Town] = struct{}{}
	}
	if len(allowed) == 0 {
		return true
	}
	for _, t := range translator.Towns {
		if _, ok := allowed[t]; ok {
			return true
		}
	}
	return false
}

// PotentialTranslators filters translators down to those eligible for job, keeping input order.
func PotentialTranslators(job *domain.Job, poster *domain.User, translators []domain.User, blacklist Blacklist) []domain.User {
	out := make([]domain.User, 0, len(translators))
	for i := range translators {
		if IsEligible(job, poster, &translators[i], blacklist) {
			out = append(out, translators[i])
		}
	}
	return out
}

// HasConflict reports whether any of the translator's active bookings overlaps job.
func HasConflict(job *domain.Job, booked []domain.Job) bool {
	for i := range booked {
		b := &booked[i]
		if b.ID == job.ID {
			continue
		}
		if b.Status != domain.StatusAssigned && b.Status != domain.StatusStarted {
			continue
		}
		if job.Overlaps(b) {
			return true
		}
	}
	return false
}

// AvailableJobs builds a translator's feed: pending jobs the translator matches, closest due first.
// posters and blacklists are keyed by job owner id.
func AvailableJobs(translator *domain.User, jobs []domain.Job, posters map[int64]*domain.User, blacklists map[int64]Blacklist) []domain.Job {
	out := make([]domain.Job, 0, len(jobs))
	for i := range jobs {
		j := &jobs[i]
		if j.Status != domain.StatusPending {
			continue
		}
		if IsEligible(j, posters[j.UserID], translator, blacklists[j.UserID]) {
			out = append(out, *j)
		}
	}
	SortByDue(out)
	return out
}

// SortByDue orders jobs by due ascending, then by id.
func SortByDue(jobs []domain.Job) {
	sort.SliceStable(jobs, func(a, b int) bool {
		if jobs[a].Due.Equal(jobs[b].Due) {
			return jobs[a].ID < jobs[b].ID
		}
		return jobs[a].Due.Before(jobs[b].Due)
	})
}
