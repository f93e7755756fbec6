package notify

import (
	"fmt"
	"time"
)

// Item is one actionable notification, typically an appointment awaiting confirmation.
type Item struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Ref        string    `json:"ref,omitempty"`
	PartyID    string    `json:"partyId,omitempty"`
	PartyLabel string    `json:"partyLabel"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	// Read is tracked locally and never sent upstream.
	Read bool `json:"read"`
}

// Age returns the relative age label of the item at now.
func (i Item) Age(now time.Time) string {
	return RelativeAge(i.CreatedAt, now)
}

// RelativeAge buckets the time since created: "just now" under a minute, then whole
// minutes, hours and days. Timestamps in the future read as "just now".
func RelativeAge(created, now time.Time) string {
	d := now.Sub(created)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
