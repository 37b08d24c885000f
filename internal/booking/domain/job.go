package domain

import "time"

// Job is a booking request for an interpreter.
type Job struct {
	ID                   int64         `db:"id" json:"id"`
	UserID               int64         `db:"user_id" json:"user_id"`
	FromLanguageID       int64         `db:"from_language_id" json:"from_language_id"`
	Due                  time.Time     `db:"due" json:"due"`
	Immediate            bool          `db:"immediate" json:"immediate"`
	Duration             int           `db:"duration" json:"duration"`
	Status               Status        `db:"status" json:"status"`
	Gender               Gender        `db:"gender" json:"gender,omitempty"`
	Certified            Certification `db:"certified" json:"certified,omitempty"`
	JobType              JobType       `db:"job_type" json:"job_type"`
	CustomerPhoneType    bool          `db:"customer_phone_type" json:"customer_phone_type"`
	CustomerPhysicalType bool          `db:"customer_physical_type" json:"customer_physical_type"`
	Town                 string        `db:"town" json:"town,omitempty"`
	Address              string        `db:"address" json:"address,omitempty"`
	Instructions         string        `db:"instructions" json:"instructions,omitempty"`
	UserEmail            string        `db:"user_email" json:"user_email,omitempty"`
	Reference            string        `db:"reference" json:"reference,omitempty"`
	AdminComments        string        `db:"admin_comments" json:"admin_comments,omitempty"`
	ByAdmin              bool          `db:"by_admin" json:"by_admin"`
	WillExpireAt         time.Time     `db:"will_expire_at" json:"will_expire_at"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
	EndAt                *time.Time    `db:"end_at" json:"end_at,omitempty"`
	SessionTime          string        `db:"session_time" json:"session_time,omitempty"`
	WithdrawAt           *time.Time    `db:"withdraw_at" json:"withdraw_at,omitempty"`
	CustomerNotified16h  bool          `db:"customer_notified_16h" json:"-"`
	CustomerNotified48h  bool          `db:"customer_notified_48h" json:"-"`
}

// Ends returns the scheduled end of the session.
func (j *Job) Ends() time.Time {
	return j.Due.Add(time.Duration(j.Duration) * time.Minute)
}

// PhysicalOnly reports whether the customer asked for on-site interpretation only.
func (j *Job) PhysicalOnly() bool {
	return j.CustomerPhysicalType && !j.CustomerPhoneType
}

// Overlaps reports whether the sessions of j and other share any instant.
func (j *Job) Overlaps(other *Job) bool {
	return j.Due.Before(other.Ends()) && other.Due.Before(j.Ends())
}

// TranslatorRelation links a translator to a job. At most one relation per job is active.
type TranslatorRelation struct {
	ID          int64      `db:"id" json:"id"`
	JobID       int64      `db:"job_id" json:"job_id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CancelAt    *time.Time `db:"cancel_at" json:"cancel_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy *int64     `db:"completed_by" json:"completed_by,omitempty"`
}

// Active reports whether the relation is neither cancelled nor completed.
func (r *TranslatorRelation) Active() bool {
	return r.CancelAt == nil && r.CompletedAt == nil
}

// User is a customer, translator or administrator as seen by the booking core.
type User struct {
	ID        int64
	Type      UserType
	Name      string
	Email     string
	Mobile    string
	Disabled  bool
	Meta      UserMeta
	Languages []int64
	Towns     []string
}

// UserMeta carries the profile attributes used for matching and notification.
type UserMeta struct {
	Gender             Gender
	TranslatorType     TranslatorType
	TranslatorLevel    TranslatorLevel
	ConsumerType       ConsumerType
	City               string
	Address            string
	Instructions       string
	NotGetNotification bool
	NotGetEmergency    bool
	NotGetNighttime    bool
}

// Speaks reports whether the user lists the given language.
func (u *User) Speaks(languageID int64) bool {
	for _, id := range u.Languages {
		if id == languageID {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID int64
	Type   UserType
}

func (a Actor) IsAdmin() bool      { return a.Type == UserAdmin }
func (a Actor) IsCustomer() bool   { return a.Type == UserCustomer }
func (a Actor) IsTranslator() bool { return a.Type == UserTranslator }

// System is the actor used by scheduled scans.
var System = Actor{Type: UserAdmin}
