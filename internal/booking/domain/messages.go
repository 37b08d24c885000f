package domain

// Code identifies a booking failure independently of its wording.
type Code string

const (
	CodeFieldRequired           Code = "field_required"
	CodeInvalidValue            Code = "invalid_value"
	CodeDueInPast               Code = "due_in_past"
	CodeAdminCommentsRequired   Code = "admin_comments_required"
	CodeSessionTimeRequired     Code = "session_time_required"
	CodeTranslatorRequired      Code = "translator_required"
	CodeTranslatorCannotCreate  Code = "translator_cannot_create"
	CodeAlreadyBooked           Code = "already_booked"
	CodeAlreadyAccepted         Code = "already_accepted"
	CodeTranslatorCancelTooLate Code = "translator_cancel_too_late"
	CodeInvalidStatus           Code = "invalid_status"
	CodeJobNotFound             Code = "job_not_found"
	CodeUserNotFound            Code = "user_not_found"
	CodeTranslatorNotFound      Code = "translator_not_found"
	CodeLanguageNotFound        Code = "language_not_found"
	CodeNotAllowed              Code = "not_allowed"
	CodeNotEligible             Code = "not_eligible"
)

var messages = map[Code]string{
	CodeFieldRequired:           "This field is required",
	CodeInvalidValue:            "The value is not valid",
	CodeDueInPast:               "Can't create booking in the past",
	CodeAdminCommentsRequired:   "Admin comments are required for this status change",
	CodeSessionTimeRequired:     "Session time is required to complete a booking",
	CodeTranslatorRequired:      "A translator must be assigned in the same update",
	CodeTranslatorCannotCreate:  "Translator can not create booking",
	CodeAlreadyBooked:           "You already have a booking at that time, this booking was not accepted",
	CodeAlreadyAccepted:         "This booking has already been accepted by another translator",
	CodeTranslatorCancelTooLate: "You can not cancel a booking less than 24 hours before it starts. Please call %s to cancel.",
	CodeInvalidStatus:           "The booking is not in a state that allows this action",
	CodeJobNotFound:             "Booking not found",
	CodeUserNotFound:            "User not found",
	CodeTranslatorNotFound:      "Translator not found",
	CodeLanguageNotFound:        "Language not found",
	CodeNotAllowed:              "You are not allowed to perform this action",
	CodeNotEligible:             "This booking does not match your profile (%s)",
}

// MessageFor returns the catalog text for code, or the code itself.
func MessageFor(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return string(code)
}
