package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"seatwatch/lib/notify"
	"seatwatch/lib/notify/discord"
	emailnotify "seatwatch/lib/notify/email"
	"seatwatch/lib/restyutil"
	"seatwatch/lib/scrapers/cunyfirst"
	"seatwatch/lib/serviceutil"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// delay between outbound notifications, keeps webhook rate limits happy
const notifyDelay = time.Second

// a suggestion below this similarity is noise, not a typo fix
const suggestionThreshold = 0.8

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Checks seat availability for the configured sections and sends notifications.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.Username == "" || cfg.Password == "" {
			serviceutil.Fatal("missing credentials", errors.New("username and password are required"))
		}
		if len(cfg.Courses) == 0 || len(cfg.Sections) == 0 {
			serviceutil.Fatal("nothing to watch", errors.New("courses and sections are required"))
		}

		client := newClient(cfg)
		if err := client.Login(ctx, false); err != nil {
			serviceutil.Fatal("failed to log in", err)
		}
		if !client.Authenticated() {
			serviceutil.Fatal("login did not produce a usable session", errors.New("not authenticated"))
		}

		terms, err := client.Terms(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch terms", err)
		}

		var records []cunyfirst.SectionRecord
		for id, term := range terms {
			if !term.Enrollable {
				continue
			}
			slog.Info("fetching class data", "term", term.Name)
			recs, err := client.FetchClassData(ctx, id, cfg.Courses, cfg.Sections)
			if err != nil {
				serviceutil.Fatal("failed to fetch class data", err)
			}
			records = append(records, recs...)
		}

		printRecords(records)
		deliver(ctx, notifiers(cfg), planNotifications(cfg.Sections, records))
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func newClient(cfg Config) *cunyfirst.Client {
	client := cunyfirst.NewClient(cunyfirst.ClientOptions{
		Username:           strings.ToLower(cfg.Username),
		Password:           cfg.Password,
		AutoEnroll:         cfg.AutoEnroll,
		Hour24:             cfg.Hour24,
		InsecureSkipVerify: true,
	})
	if *dumpHttp != "" {
		client.SetInstrumentOutput(restyutil.NewFilesystemOutput(*dumpHttp))
	}
	return client
}

func notifiers(cfg Config) []notify.Notifier {
	var out []notify.Notifier
	if cfg.Discord.WebhookUrl != "" {
		out = append(out, discord.NewNotifier(cfg.Discord.WebhookUrl, cfg.Discord.UserId))
	}
	if cfg.Email != nil {
		out = append(out, emailnotify.NewNotifier(*cfg.Email))
	}
	return out
}

// planNotifications decides, per watched section code, whether anything
// is worth saying: the section opened, the account holds a seat, or
// the code was never seen at all.
func planNotifications(sections []string, records []cunyfirst.SectionRecord) []notify.Notification {
	byCode := make(map[string]cunyfirst.SectionRecord, len(records))
	for _, rec := range records {
		byCode[rec.SectionCode] = rec
	}

	var out []notify.Notification
	for _, code := range sections {
		rec, ok := byCode[code]
		if !ok {
			out = append(out, notify.Notification{
				Kind:        notify.KindNotFound,
				SectionCode: code,
				Suggestion:  closestSectionCode(code, records),
			})
			continue
		}
		switch {
		case rec.Enrolled:
			out = append(out, notify.Notification{
				Kind:        notify.KindEnrolled,
				SectionCode: code,
				Record:      rec,
			})
		case rec.Availability == cunyfirst.AvailabilityOpen:
			out = append(out, notify.Notification{
				Kind:        notify.KindSectionOpen,
				SectionCode: code,
				Record:      rec,
			})
		}
	}
	return out
}

// closestSectionCode suggests the most similar section code seen in
// the fetched data, to catch typos in the watch list.
func closestSectionCode(code string, records []cunyfirst.SectionRecord) string {
	best := ""
	bestSimilarity := 0.0
	for _, rec := range records {
		similarity := matchr.JaroWinkler(code, rec.SectionCode, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = rec.SectionCode
		}
	}
	if bestSimilarity < suggestionThreshold {
		return ""
	}
	return best
}

func deliver(ctx context.Context, targets []notify.Notifier, notifications []notify.Notification) {
	if len(notifications) == 0 {
		slog.Info("nothing noteworthy this run")
		return
	}
	if len(targets) == 0 {
		slog.Warn("no notification targets configured, results were only printed")
		return
	}

	for i, n := range notifications {
		if i > 0 {
			time.Sleep(notifyDelay)
		}
		for _, target := range targets {
			if err := target.Notify(ctx, n); err != nil {
				slog.Error("failed to deliver notification", "section", n.SectionCode, "err", err)
			}
		}
	}
}

func printRecords(records []cunyfirst.SectionRecord) {
	if len(records) == 0 {
		fmt.Println("No watched sections were found in the fetched data.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		"Course", "Section", "Term", "College",
		"Instructor", "Seats", "Waitlist", "Available", "Enrolled",
	})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.CourseNumber, rec.SectionCode, rec.Term, rec.College,
			rec.Instructor, rec.Seats, rec.Waitlist,
			rec.Availability.String(), rec.Enrolled,
		})
	}
	t.Render()
}
