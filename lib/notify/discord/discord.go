// Package discord delivers notifications to a Discord channel through
// an incoming webhook.
package discord

import (
	"context"
	"fmt"
	"time"

	"seatwatch/lib/notify"
	"seatwatch/lib/scrapers/cunyfirst"
	"seatwatch/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	colorGreen = 0x00FF00
	colorRed   = 0xFF0000
)

type Notifier struct {
	http       *resty.Client
	webhookUrl string
	// user to mention in the message body, optional
	userId string
}

func NewNotifier(webhookUrl, userId string) *Notifier {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, "notify/discord/http")

	return &Notifier{
		http:       client,
		webhookUrl: webhookUrl,
		userId:     userId,
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

func (n *Notifier) Notify(ctx context.Context, msg notify.Notification) error {
	res, err := n.http.R().
		SetContext(ctx).
		SetBody(n.render(msg)).
		Post(n.webhookUrl)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("discord webhook returned status %d", res.StatusCode())
	}
	return nil
}

func (n *Notifier) render(msg notify.Notification) webhookPayload {
	rec := msg.Record
	switch msg.Kind {
	case notify.KindNotFound:
		description := "The specified section code could not be found in the fetched data for any enrollable term. Please double-check the code."
		if msg.Suggestion != "" {
			description += fmt.Sprintf(" Did you mean %s?", msg.Suggestion)
		}
		return webhookPayload{
			Embeds: []embed{{
				Title:       fmt.Sprintf("❌ Class Not Found: %s", msg.SectionCode),
				Description: description,
				Color:       colorRed,
			}},
		}

	case notify.KindEnrolled:
		return webhookPayload{
			Content: n.mention(fmt.Sprintf("Successfully enrolled in **%s (%s)**!", rec.CourseNumber, rec.SectionCode)),
			Embeds: []embed{{
				Title:       fmt.Sprintf("✅ Successfully Enrolled: %s (%s)", rec.CourseNumber, rec.SectionCode),
				Description: fmt.Sprintf("Term: %s", rec.Term),
				Color:       colorGreen,
				Fields:      recordFields(rec),
			}},
		}
	}

	return webhookPayload{
		Content: n.mention(fmt.Sprintf("Class **%s (%s)** might be open!", rec.CourseNumber, rec.SectionCode)),
		Embeds: []embed{{
			Title:       fmt.Sprintf("✅ Class Potentially Open: %s (%s) %s", rec.CourseNumber, rec.SectionCode, rec.College),
			Description: fmt.Sprintf("Term: %s", rec.Term),
			Color:       colorGreen,
			Fields:      recordFields(rec),
		}},
	}
}

func (n *Notifier) mention(text string) string {
	if n.userId == "" {
		return text
	}
	return fmt.Sprintf("<@%s> %s", n.userId, text)
}

func recordFields(rec cunyfirst.SectionRecord) []embedField {
	return []embedField{
		{Name: "Instructor", Value: rec.Instructor, Inline: true},
		{Name: "Seats", Value: rec.Seats, Inline: true},
		{Name: "Waitlist", Value: rec.Waitlist, Inline: true},
		{Name: "Time", Value: rec.Time, Inline: true},
	}
}
