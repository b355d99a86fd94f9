package notify

import (
	"fmt"
	"html"

	"quizroom/internal/model"
)

// Dispatcher renders the transactional emails of the application.
type Dispatcher struct {
	mailer     Mailer
	adminEmail string
}

func NewDispatcher(mailer Mailer, adminEmail string) *Dispatcher {
	return &Dispatcher{mailer: mailer, adminEmail: adminEmail}
}

func (d *Dispatcher) SendOTP(to, name, code string, purpose model.OTPPurpose, validMinutes int) error {
	subject := "Verify your email"
	intro := "Use this code to verify your email address:"
	if purpose == model.OTPReset {
		subject = "Reset your password"
		intro = "Use this code to reset your password:"
	}
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf("Hi %s,\n\n%s %s\n\nThe code expires in %d minutes. If you did not request it, ignore this email.\n",
		name, intro, code, validMinutes)
	htmlBody := fmt.Sprintf(`<p>Hi %s,</p><p>%s</p><h2 style="letter-spacing:4px">%s</h2><p>The code expires in %d minutes. If you did not request it, ignore this email.</p>`,
		html.EscapeString(name), intro, code, validMinutes)

	return d.mailer.Send(Email{To: []string{to}, Subject: subject, Body: body, HTMLBody: htmlBody})
}

func (d *Dispatcher) SendPasswordChanged(to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour password was just changed. If this was not you, reset it immediately.\n", name)
	return d.mailer.Send(Email{To: []string{to}, Subject: "Your password was changed", Body: body})
}

// SendContactAdmin forwards a contact submission to the site administrator.
func (d *Dispatcher) SendContactAdmin(s *model.ContactSubmission) error {
	subject := "New contact form submission"
	if s.Subject != "" {
		subject += ": " + s.Subject
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", s.Name, s.Email, s.Message)
	htmlBody := fmt.Sprintf("<p><strong>From:</strong> %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(s.Name), html.EscapeString(s.Email), html.EscapeString(s.Message))
	return d.mailer.Send(Email{To: []string{d.adminEmail}, ReplyTo: s.Email, Subject: subject, Body: body, HTMLBody: htmlBody})
}

// SendContactAck confirms receipt to the person who wrote in.
func (d *Dispatcher) SendContactAck(s *model.ContactSubmission) error {
	body := fmt.Sprintf("Hi %s,\n\nThanks for reaching out. We received your message and will get back to you soon.\n", s.Name)
	return d.mailer.Send(Email{To: []string{s.Email}, Subject: "We received your message", Body: body})
}
