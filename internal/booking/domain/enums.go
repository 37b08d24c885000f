package domain

import "fmt"

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending               Status = "pending"
	StatusAssigned              Status = "assigned"
	StatusStarted               Status = "started"
	StatusCompleted             Status = "completed"
	StatusWithdrawBefore24      Status = "withdrawbefore24"
	StatusWithdrawAfter24       Status = "withdrawafter24"
	StatusTimedOut              Status = "timedout"
	StatusNotCarriedOutCustomer Status = "not_carried_out_customer"
)

// AllStatuses lists every status in declaration order.
var AllStatuses = []Status{
	StatusPending,
	StatusAssigned,
	StatusStarted,
	StatusCompleted,
	StatusWithdrawBefore24,
	StatusWithdrawAfter24,
	StatusTimedOut,
	StatusNotCarriedOutCustomer,
}

// ParseStatus converts a raw value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown job status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusStarted, StatusCompleted,
		StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// Active reports whether the job is still in play (pending, assigned or started).
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusStarted:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s.Valid() && !s.Active()
}

func (s Status) String() string { return string(s) }

// Gender is an optional requirement on a job and an attribute of a translator.
type Gender string

const (
	GenderAny    Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case GenderAny, GenderMale, GenderFemale:
		return g, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Certification is the certification requirement recorded on a job.
type Certification string

const (
	CertAny     Certification = ""
	CertYes     Certification = "yes"
	CertBoth    Certification = "both"
	CertLaw     Certification = "law"
	CertNLaw    Certification = "n_law"
	CertHealth  Certification = "health"
	CertNHealth Certification = "n_health"
	CertNormal  Certification = "normal"
)

func ParseCertification(s string) (Certification, error) {
	switch c := Certification(s); c {
	case CertAny, CertYes, CertBoth, CertLaw, CertNLaw, CertHealth, CertNHealth, CertNormal:
		return c, nil
	}
	return "", fmt.Errorf("unknown certification %q", s)
}

// TranslatorLevel is the certification tier held by a translator.
type TranslatorLevel string

const (
	LevelCertified       TranslatorLevel = "Certified"
	LevelCertifiedLaw    TranslatorLevel = "Certified with specialisation in law"
	LevelCertifiedHealth TranslatorLevel = "Certified with specialisation in health care"
	LevelLayman          TranslatorLevel = "Layman"
	LevelReadCourses     TranslatorLevel = "Read Translation courses"
)

// AllLevels lists every translator level.
var AllLevels = []TranslatorLevel{
	LevelCertified,
	LevelCertifiedLaw,
	LevelCertifiedHealth,
	LevelLayman,
	LevelReadCourses,
}

// JobType is the commercial category of a job.
type JobType string

const (
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
	JobTypePaid   JobType = "paid"
)

func ParseJobType(s string) (JobType, error) {
	switch t := JobType(s); t {
	case JobTypeRWS, JobTypeUnpaid, JobTypePaid:
		return t, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// TranslatorType is the kind of translator contract.
type TranslatorType string

const (
	TranslatorProfessional TranslatorType = "professional"
	TranslatorRWS          TranslatorType = "rwstranslator"
	TranslatorVolunteer    TranslatorType = "volunteer"
)

// TranslatorType returns the translator type that may serve jobs of type t.
func (t JobType) TranslatorType() TranslatorType {
	switch t {
	case JobTypePaid:
		return TranslatorProfessional
	case JobTypeRWS:
		return TranslatorRWS
	case JobTypeUnpaid:
		return TranslatorVolunteer
	}
	return ""
}

// ConsumerType is the billing profile of a customer.
type ConsumerType string

const (
	ConsumerRWS  ConsumerType = "rwsconsumer"
	ConsumerNGO  ConsumerType = "ngo"
	ConsumerPaid ConsumerType = "paid"
)

// JobType returns the job type booked by a customer of this consumer type.
func (c ConsumerType) JobType() JobType {
	switch c {
	case ConsumerRWS:
		return JobTypeRWS
	case ConsumerNGO:
		return JobTypeUnpaid
	case ConsumerPaid:
		return JobTypePaid
	}
	return JobTypePaid
}

// UserType separates customers, translators and administrators.
type UserType string

const (
	UserCustomer   UserType = "customer"
	UserTranslator UserType = "translator"
	UserAdmin      UserType = "admin"
)

func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserCustomer, UserTranslator, UserAdmin:
		return t, nil
	}
	return "", fmt.Errorf("unknown user type %q", s)
}
