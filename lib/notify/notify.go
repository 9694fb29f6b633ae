// Package notify carries section availability events to the places a
// student actually looks at.
package notify

import (
	"context"

	"seatwatch/lib/scrapers/cunyfirst"
)

type Kind int

const (
	// a watched section has open seats or waitlist room
	KindSectionOpen Kind = iota
	// the account holds (or just obtained) a seat in the section
	KindEnrolled
	// the watched section code was absent from the fetched data
	KindNotFound
)

// Notification is handed to each Notifier once per noteworthy section
// after a fetch. For KindNotFound only SectionCode and possibly
// Suggestion are set.
type Notification struct {
	Kind        Kind
	SectionCode string
	// closest known section code, set for KindNotFound when a
	// plausible near match exists
	Suggestion string
	Record     cunyfirst.SectionRecord
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
