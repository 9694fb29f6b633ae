// Package email delivers notifications over SMTP for people who do
// not live inside Discord.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"seatwatch/lib/notify"

	mail "github.com/jordan-wright/email"
)

type Options struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type Notifier struct {
	opts Options
}

func NewNotifier(opts Options) *Notifier {
	return &Notifier{opts: opts}
}

func (n *Notifier) Notify(_ context.Context, msg notify.Notification) error {
	e := mail.NewEmail()
	e.From = n.opts.From
	e.To = n.opts.To
	e.Subject = subject(msg)
	e.Text = []byte(body(msg))

	return e.Send(
		fmt.Sprintf("%s:%d", n.opts.Host, n.opts.Port),
		smtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host),
	)
}

func subject(msg notify.Notification) string {
	switch msg.Kind {
	case notify.KindNotFound:
		return fmt.Sprintf("Class not found: %s", msg.SectionCode)
	case notify.KindEnrolled:
		return fmt.Sprintf("Enrolled in %s (%s)", msg.Record.CourseNumber, msg.Record.SectionCode)
	}
	return fmt.Sprintf("Class potentially open: %s (%s)", msg.Record.CourseNumber, msg.Record.SectionCode)
}

func body(msg notify.Notification) string {
	if msg.Kind == notify.KindNotFound {
		text := fmt.Sprintf("The section code %s could not be found in any enrollable term.", msg.SectionCode)
		if msg.Suggestion != "" {
			text += fmt.Sprintf(" Did you mean %s?", msg.Suggestion)
		}
		return text
	}

	rec := msg.Record
	var b strings.Builder
	fmt.Fprintf(&b, "Term: %s\n", rec.Term)
	fmt.Fprintf(&b, "College: %s\n", rec.College)
	fmt.Fprintf(&b, "Instructor: %s\n", rec.Instructor)
	fmt.Fprintf(&b, "Seats: %s\n", rec.Seats)
	fmt.Fprintf(&b, "Waitlist: %s\n", rec.Waitlist)
	fmt.Fprintf(&b, "Time:\n%s\n", rec.Time)
	return b.String()
}
