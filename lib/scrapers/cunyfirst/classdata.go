package cunyfirst

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// sentinel shown in place of seat and waitlist counts the portal
// handed back in a non-numeric form
const errSentinel = "Err/Err"

type Availability int8

const (
	AvailabilityUnknown Availability = -1
	AvailabilityClosed  Availability = 0
	AvailabilityOpen    Availability = 1
)

func (a Availability) String() string {
	switch a {
	case AvailabilityOpen:
		return "open"
	case AvailabilityClosed:
		return "closed"
	}
	return "unknown"
}

// SectionRecord is the normalized seat availability record for one
// section, ready for display and notification.
type SectionRecord struct {
	CourseNumber string
	SectionCode  string
	Term         string
	College      string
	Instructor   string
	// rendered meeting times, possibly multiline
	Time string
	// "free/capacity" or the error sentinel
	Waitlist string
	// "filled/capacity" or the error sentinel
	Seats        string
	Availability Availability
	// already enrolled, or enrollment just succeeded
	Enrolled bool
}

// nWindow derives the time window pair the class data API requires.
// The formula is an opaque part of the wire contract, preserved
// verbatim.
func nWindow(now time.Time) (t int, e int) {
	t = int(now.Unix()/60) % 1000
	e = t%3 + t%39 + t%42
	return t, e
}

// FetchClassData fetches and decodes the portal's section data for
// the given term, keeping only the wanted section codes. Records come
// back in document order. The term must be known and enrollable.
func (c *Client) FetchClassData(ctx context.Context, term string, courses []string, wantedSections []string) ([]SectionRecord, error) {
	return withRelogin(ctx, c, func(ctx context.Context) ([]SectionRecord, error) {
		return c.fetchClassData(ctx, term, courses, wantedSections)
	})
}

func (c *Client) fetchClassData(ctx context.Context, term string, courses []string, wantedSections []string) ([]SectionRecord, error) {
	ctx, span := tracer.Start(ctx, "client:fetchClassData")
	defer span.End()

	terms, err := c.Terms(ctx)
	if err != nil {
		return nil, err
	}
	termInfo, ok := terms[term]
	if !ok || !termInfo.Enrollable {
		err := fmt.Errorf("term %q is unknown or not open for enrollment", term)
		span.RecordError(err)
		span.SetStatus(codes.Error, "term not enrollable")
		return nil, err
	}

	sess, err := c.apiSession()
	if err != nil {
		return nil, err
	}

	colleges, err := c.resolveColleges(ctx, term, courses)
	if err != nil {
		return nil, err
	}
	if len(colleges) == 0 {
		slog.WarnContext(ctx, "no valid courses found for term", "term", termInfo.Name)
		return nil, nil
	}

	t, e := nWindow(c.now())
	params := map[string]string{
		"term": term,
		"t":    strconv.Itoa(t),
		"e":    strconv.Itoa(e),
	}
	for i, course := range courses {
		va, ok := colleges[course]
		if !ok {
			slog.WarnContext(ctx, "course not offered this term, skipping", "course", course)
			continue
		}
		params[fmt.Sprintf("course_%d_0", i)] = course
		params[fmt.Sprintf("va_%d_0", i)] = va
	}

	res, err := c.transport.get(ctx, sess, c.endpoints.ClassData, params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := checkSessionBody(res); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("parse class data: %w", err)
	}

	timeblocks := collectTimeblocks(doc)

	wanted := make(map[string]bool, len(wantedSections))
	for _, code := range wantedSections {
		wanted[code] = true
	}

	var records []SectionRecord
	doc.Find("block").Each(func(_ int, block *goquery.Selection) {
		sectionCode := block.AttrOr("key", "")
		if !wanted[sectionCode] {
			return
		}
		records = append(records, c.decodeSection(ctx, term, termInfo.Name, sectionCode, block, timeblocks))
	})
	return records, nil
}

func collectTimeblocks(doc *goquery.Document) map[string]Timeblock {
	timeblocks := map[string]Timeblock{}
	doc.Find("timeblock").Each(func(_ int, sel *goquery.Selection) {
		id := sel.AttrOr("id", "")
		if id == "" {
			return
		}
		start, _ := strconv.Atoi(sel.AttrOr("t1", "0"))
		end, _ := strconv.Atoi(sel.AttrOr("t2", "0"))
		timeblocks[id] = Timeblock{
			Id:    id,
			Day:   dayAbbr(sel.AttrOr("day", "")),
			Start: start,
			End:   end,
		}
	})
	return timeblocks
}

// decodeSection turns a section block element into a SectionRecord.
// Decoding never drops the record: seat counts that fail to parse
// degrade to the error sentinel with unknown availability.
func (c *Client) decodeSection(
	ctx context.Context,
	term, termName, sectionCode string,
	block *goquery.Selection,
	timeblocks map[string]Timeblock,
) SectionRecord {
	course := block.Closest("course")
	courseNumber := course.AttrOr("key", "N/A")
	college := course.Parent().Find("campus").First().AttrOr("v", "N/A")

	var timeblockIds []string
	for _, id := range strings.Split(block.AttrOr("timeblockids", ""), ",") {
		if id != "" {
			timeblockIds = append(timeblockIds, id)
		}
	}

	rec := SectionRecord{
		CourseNumber: courseNumber,
		SectionCode:  sectionCode,
		Term:         termName,
		College:      college,
		Instructor:   block.AttrOr("teacher", "N/A"),
		Time:         buildTimeText(timeblockIds, timeblocks, !c.hour24),
	}

	waitlistCap, err1 := strconv.Atoi(block.AttrOr("wc", "0"))
	waitlistFree, err2 := strconv.Atoi(block.AttrOr("ws", "0"))
	maxEnrollment, err3 := strconv.Atoi(block.AttrOr("me", "0"))
	openSeats, err4 := strconv.Atoi(block.AttrOr("os", "0"))
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		slog.WarnContext(ctx, "could not parse seat counts for section",
			"section", sectionCode, "err", err)
		rec.Waitlist = errSentinel
		rec.Seats = errSentinel
		rec.Availability = AvailabilityUnknown
		return rec
	}

	rec.Waitlist = fmt.Sprintf("%d/%d", waitlistCap-waitlistFree, waitlistCap)
	rec.Seats = fmt.Sprintf("%d/%d", maxEnrollment-openSeats, maxEnrollment)
	if waitlistFree > 0 || openSeats > 0 {
		rec.Availability = AvailabilityOpen
	} else {
		rec.Availability = AvailabilityClosed
	}

	if rec.Availability != AvailabilityOpen {
		return rec
	}

	enrolled, err := c.EnrollmentStatus(ctx, term, courseNumber)
	if err != nil {
		slog.WarnContext(ctx, "enrollment status lookup failed",
			"course", courseNumber, "err", err)
		return rec
	}
	if enrolled {
		rec.Enrolled = true
		return rec
	}
	if !c.autoEnroll {
		return rec
	}

	selection := block.Closest("selection")
	ok, err := c.AttemptEnroll(ctx, term,
		selection.AttrOr("key", "N/A"),
		selection.AttrOr("va", "N/A"),
	)
	if err != nil {
		slog.WarnContext(ctx, "enrollment attempt failed",
			"section", sectionCode, "err", err)
		return rec
	}
	rec.Enrolled = ok
	return rec
}
