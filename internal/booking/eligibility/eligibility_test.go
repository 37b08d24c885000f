package eligibility

import (
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swedish int64 = 7

func translator(id int64, level domain.TranslatorLevel) domain.User {
	return domain.User{
		ID:        id,
		Type:      domain.UserTranslator,
		Languages: []int64{swedish},
		Meta: domain.UserMeta{
			Gender:          domain.GenderFemale,
			TranslatorType:  domain.TranslatorProfessional,
			TranslatorLevel: level,
		},
	}
}

func paidJob() *domain.Job {
	return &domain.Job{
		ID:             100,
		UserID:         1,
		FromLanguageID: swedish,
		JobType:        domain.JobTypePaid,
		Status:         domain.StatusPending,
		Due:            time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		Duration:       60,
	}
}

func TestAllowedLevels(t *testing.T) {
	tests := []struct {
		cert domain.Certification
		want []domain.TranslatorLevel
	}{
		{domain.CertBoth, []domain.TranslatorLevel{domain.LevelCertified, domain.LevelCertifiedLaw, domain.LevelCertifiedHealth}},
		{domain.CertYes, []domain.TranslatorLevel{domain.LevelCertified, domain.LevelCertifiedLaw, domain.LevelCertifiedHealth}},
		{domain.CertLaw, []domain.TranslatorLevel{domain.LevelCertifiedLaw}},
		{domain.CertNLaw, []domain.TranslatorLevel{domain.LevelCertifiedLaw}},
		{domain.CertHealth, []domain.TranslatorLevel{domain.LevelCertifiedHealth}},
		{domain.CertNHealth, []domain.TranslatorLevel{domain.LevelCertifiedHealth}},
		{domain.CertNormal, []domain.TranslatorLevel{domain.LevelLayman, domain.LevelReadCourses}},
		{domain.CertAny, domain.AllLevels},
	}

	for _, tt := range tests {
		t.Run(string(tt.cert), func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, AllowedLevels(tt.cert))
		})
	}
}

func TestMatch_CertifiedBothExcludesLayman(t *testing.T) {
	job := paidJob()
	job.Certified = domain.CertBoth

	layman := translator(10, domain.LevelLayman)
	certified := translator(11, domain.LevelCertifiedHealth)

	assert.Equal(t, ReasonLevel, Match(job, nil, &layman, nil))
	assert.Equal(t, Eligible, Match(job, nil, &certified, nil))
}

func TestMatch_Dimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(job *domain.Job, tr *domain.User)
		want   Reason
	}{
		{
			name:   "eligible",
			mutate: func(*domain.Job, *domain.User) {},
			want:   Eligible,
		},
		{
			name:   "disabled translator",
			mutate: func(_ *domain.Job, tr *domain.User) { tr.Disabled = true },
			want:   ReasonDisabled,
		},
		{
			name:   "volunteer for paid job",
			mutate: func(_ *domain.Job, tr *domain.User) { tr.Meta.TranslatorType = domain.TranslatorVolunteer },
			want:   ReasonTranslatorType,
		},
		{
			name:   "rws job needs rws translator",
			mutate: func(job *domain.Job, _ *domain.User) { job.JobType = domain.JobTypeRWS },
			want:   ReasonTranslatorType,
		},
		{
			name:   "language not spoken",
			mutate: func(job *domain.Job, _ *domain.User) { job.FromLanguageID = 99 },
			want:   ReasonLanguage,
		},
		{
			name:   "gender mismatch",
			mutate: func(job *domain.Job, _ *domain.User) { job.Gender = domain.GenderMale },
			want:   ReasonGender,
		},
		{
			name:   "gender match",
			mutate: func(job *domain.Job, _ *domain.User) { job.Gender = domain.GenderFemale },
			want:   Eligible,
		},
		{
			name:   "law requirement",
			mutate: func(job *domain.Job, _ *domain.User) { job.Certified = domain.CertNLaw },
			want:   ReasonLevel,
		},
		{
			name: "physical only with town mismatch",
			mutate: func(job *domain.Job, tr *domain.User) {
				job.CustomerPhysicalType = true
				job.Town = "Malmo"
				tr.Towns = []string{"Lund"}
			},
			want: ReasonTown,
		},
		{
			name: "physical only with town match",
			mutate: func(job *domain.Job, tr *domain.User) {
				job.CustomerPhysicalType = true
				job.Town = "Malmo"
				tr.Towns = []string{"Lund", "Malmo"}
			},
			want: Eligible,
		},
		{
			name: "phone allowed ignores town",
			mutate: func(job *domain.Job, tr *domain.User) {
				job.CustomerPhysicalType = true
				job.CustomerPhoneType = true
				job.Town = "Malmo"
				tr.Towns = []string{"Lund"}
			},
			want: Eligible,
		},
		{
			name: "physical only without any towns",
			mutate: func(job *domain.Job, tr *domain.User) {
				job.CustomerPhysicalType = true
				tr.Towns = nil
			},
			want: Eligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := paidJob()
			tr := translator(10, domain.LevelCertified)
			tt.mutate(job, &tr)

			assert.Equal(t, tt.want, Match(job, nil, &tr, nil))
		})
	}
}

func TestMatch_PosterTowns(t *testing.T) {
	job := paidJob()
	job.CustomerPhysicalType = true
	poster := &domain.User{ID: 1, Towns: []string{"Uppsala"}}

	tr := translator(10, domain.LevelCertified)
	tr.Towns = []string{"Uppsala"}
	assert.Equal(t, Eligible, Match(job, poster, &tr, nil))

	tr.Towns = []string{"Kiruna"}
	assert.Equal(t, ReasonTown, Match(job, poster, &tr, nil))
}

func TestPotentialTranslators_NeverReturnsBlacklisted(t *testing.T) {
	translators := []domain.User{
		translator(10, domain.LevelCertified),
		translator(11, domain.LevelCertifiedLaw),
		translator(12, domain.LevelLayman),
		translator(13, domain.LevelReadCourses),
		translator(14, domain.LevelCertifiedHealth),
	}
	certs := []domain.Certification{
		domain.CertAny, domain.CertYes, domain.CertBoth, domain.CertLaw,
		domain.CertNLaw, domain.CertHealth, domain.CertNHealth, domain.CertNormal,
	}
	blacklists := [][]int64{nil, {10}, {11, 12}, {10, 11, 12, 13, 14}}

	for _, cert := range certs {
		for _, ids := range blacklists {
			job := paidJob()
			job.Certified = cert
			bl := NewBlacklist(ids...)

			got := PotentialTranslators(job, nil, translators, bl)
			for _, u := range got {
				assert.False(t, bl.Contains(u.ID), "cert %q returned blacklisted translator %d", cert, u.ID)
			}
		}
	}
}

func TestPotentialTranslators_KeepsOrder(t *testing.T) {
	translators := []domain.User{
		translator(12, domain.LevelCertified),
		translator(10, domain.LevelLayman),
		translator(11, domain.LevelCertifiedLaw),
	}
	job := paidJob()
	job.Certified = domain.CertYes

	got := PotentialTranslators(job, nil, translators, nil)

	require.Len(t, got, 2)
	assert.Equal(t, int64(12), got[0].ID)
	assert.Equal(t, int64(11), got[1].ID)
}

func TestHasConflict(t *testing.T) {
	job := paidJob()

	booked := func(id int64, offset time.Duration, status domain.Status) domain.Job {
		return domain.Job{ID: id, Due: job.Due.Add(offset), Duration: 60, Status: status}
	}

	tests := []struct {
		name   string
		booked []domain.Job
		want   bool
	}{
		{"nothing booked", nil, false},
		{"same slot assigned", []domain.Job{booked(1, 0, domain.StatusAssigned)}, true},
		{"overlap started", []domain.Job{booked(1, 30*time.Minute, domain.StatusStarted)}, true},
		{"adjacent", []domain.Job{booked(1, time.Hour, domain.StatusAssigned)}, false},
		{"cancelled booking ignored", []domain.Job{booked(1, 0, domain.StatusWithdrawAfter24)}, false},
		{"same job ignored", []domain.Job{booked(job.ID, 0, domain.StatusAssigned)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConflict(job, tt.booked))
		})
	}
}

func TestAvailableJobs(t *testing.T) {
	tr := translator(10, domain.LevelCertified)
	base := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	jobs := []domain.Job{
		{ID: 3, UserID: 1, FromLanguageID: swedish, JobType: domain.JobTypePaid, Status: domain.StatusPending, Due: base.Add(48 * time.Hour)},
		{ID: 1, UserID: 1, FromLanguageID: swedish, JobType: domain.JobTypePaid, Status: domain.StatusPending, Due: base},
		{ID: 2, UserID: 2, FromLanguageID: swedish, JobType: domain.JobTypePaid, Status: domain.StatusPending, Due: base.Add(time.Hour)},
		{ID: 4, UserID: 1, FromLanguageID: swedish, JobType: domain.JobTypePaid, Status: domain.StatusAssigned, Due: base},
		{ID: 5, UserID: 1, FromLanguageID: 99, JobType: domain.JobTypePaid, Status: domain.StatusPending, Due: base},
	}
	blacklists := map[int64]Blacklist{2: NewBlacklist(10)}

	got := AvailableJobs(&tr, jobs, nil, blacklists)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}
