package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

// templateData is the payload every email template is rendered with.
type templateData struct {
	Name        string
	JobID       int64
	Language    string
	Due         string
	Duration    int
	Town        string
	Role        string
	OldStatus   string
	NewStatus   string
	OldValue    string
	SessionTime string
	ForText     string
}

type emailTemplate struct {
	subject string
	body    *template.Template
}

const layout = `<p>Hello {{.Name}},</p>
{{block "content" .}}{{end}}
<p>Booking #{{.JobID}}: {{.Language}}, {{.Due}}, {{.Duration}} min.</p>`

var emailTemplates = map[domain.EventKind]emailTemplate{
	domain.EventJobCreated: parse("job_created",
		"We have received your interpreter booking #%d",
		`<p>Thank you for your booking. We will let you know as soon as an interpreter accepts it.</p>`),
	domain.EventJobReopened: parse("job_reopened",
		"Your booking #%d is open again",
		`<p>Your booking has been reopened and is offered to interpreters again.</p>`),
	domain.EventJobAccepted: parse("job_accepted",
		"An interpreter has accepted your booking #%d",
		`<p>An interpreter has accepted your booking.</p>`),
	domain.EventStatusChanged: parse("status_changed",
		"The status of booking #%d has changed",
		`<p>The status of your booking changed from {{.OldStatus}} to {{.NewStatus}}.</p>`),
	domain.EventJobCancelledTranslator: parse("job_cancelled_translator",
		"Booking #%d has been cancelled",
		`<p>The booking you accepted has been cancelled.</p>`),
	domain.EventSessionEnded: parse("session_ended",
		"Information about the finished interpretation for booking #%d",
		`<p>The interpretation lasted {{.SessionTime}}. This information is used for your {{.ForText}}.</p>`),
	domain.EventTranslatorChanged: parse("translator_changed",
		"The interpreter of booking #%d has changed",
		`{{if eq .Role "old_translator"}}<p>You are no longer assigned to this booking.</p>{{else if eq .Role "new_translator"}}<p>You have been assigned to this booking.</p>{{else}}<p>A different interpreter will carry out your booking.</p>{{end}}`),
	domain.EventDueChanged: parse("due_changed",
		"The time of booking #%d has changed",
		`<p>The booking was moved from {{.OldValue}}.</p>`),
	domain.EventLanguageChanged: parse("language_changed",
		"The language of booking #%d has changed",
		`<p>The booking language was changed from {{.OldValue}}.</p>`),
	domain.EventJobWithdrawn: parse("job_withdrawn",
		"Booking #%d was cancelled by the customer",
		`<p>The customer has cancelled the booking you accepted.</p>`),
	domain.EventTranslatorWithdrew: parse("translator_withdrew",
		"The interpreter withdrew from booking #%d",
		`<p>The interpreter can no longer carry out your booking. It is offered to other interpreters again.</p>`),
	domain.EventJobExpired: parse("job_expired",
		"No interpreter was found for booking #%d",
		`<p>Unfortunately no interpreter accepted your booking in time.</p>`),
}

func parse(name, subject, content string) emailTemplate {
	t := template.Must(template.New(name).Parse(layout))
	template.Must(t.New("content").Parse(content))
	return emailTemplate{subject: subject, body: t}
}

func renderEmail(kind domain.EventKind, data templateData) (subject, body string, err error) {
	tpl, ok := emailTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("no email template for %s", kind)
	}
	var buf strings.Builder
	if err := tpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", kind, err)
	}
	return fmt.Sprintf(tpl.subject, data.JobID), buf.String(), nil
}
