package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the three moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Slot identifies one of the four image positions on a party. The poster is
// mandatory, the other three are optional.
type Slot string

const (
	SlotPoster Slot = "poster"
	SlotVenue  Slot = "venue"
	SlotParty  Slot = "party"
	SlotPeople Slot = "people"
)

// Slots lists every slot in upload order. The sequential upload loop and its
// progress accounting depend on this order being stable.
var Slots = []Slot{SlotPoster, SlotVenue, SlotParty, SlotPeople}

const localTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a wall-clock instant with no timezone conversion. Party start
// times are combined from separate date and time inputs and stored exactly as
// entered, so they round-trip through the record store as local wall-clock
// values.
type LocalTime struct {
	time.Time
}

// CombineDateTime joins a "2006-01-02" date and a "15:04" time into one
// LocalTime. Both parts are required.
func CombineDateTime(date, clock string) (LocalTime, error) {
	if date == "" || clock == "" {
		return LocalTime{}, fmt.Errorf("date and time are both required")
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", date+"T"+clock, time.Local)
	if err != nil {
		return LocalTime{}, fmt.Errorf("invalid date or time: %v", err)
	}
	return LocalTime{t}, nil
}

func (lt LocalTime) MarshalJSON() ([]byte, error) {
	if lt.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(lt.Format(localTimeLayout))
}

func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		lt.Time = time.Time{}
		return nil
	}
	// Tolerate the three shapes the store hands back: seconds, minutes-only
	// and full RFC3339 timestamps.
	for _, layout := range []string{localTimeLayout, "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			lt.Time = t
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as a party start time", s)
}

// Party is a user-submitted event record. Ownership is immutable after
// creation; every mutating call filters by both id and owner_id so users can
// only touch their own records.
type Party struct {
	ID          uuid.UUID `json:"id,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name" validate:"required"`
	StartsAt    LocalTime `json:"starts_at"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	TicketURL   string    `json:"ticket_url,omitempty"`
	Price       string    `json:"price,omitempty"`
	Contact     string    `json:"contact,omitempty"`

	PosterURL      string `json:"poster_url" validate:"required"`
	VenueImageURL  string `json:"venue_image_url,omitempty"`
	PartyImageURL  string `json:"party_image_url,omitempty"`
	PeopleImageURL string `json:"people_image_url,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Display-only counters from the engagement read model. Nothing in the
	// party lifecycle writes these.
	Views      int64 `json:"views,omitempty"`
	Interested int64 `json:"interested,omitempty"`
}

// ImageURL returns the stored URL for a slot, or "" when the slot is empty.
func (p *Party) ImageURL(slot Slot) string {
	switch slot {
	case SlotPoster:
		return p.PosterURL
	case SlotVenue:
		return p.VenueImageURL
	case SlotParty:
		return p.PartyImageURL
	case SlotPeople:
		return p.PeopleImageURL
	}
	return ""
}

// ImageURLs returns the non-empty image URLs across all slots.
func (p *Party) ImageURLs() []string {
	var urls []string
	for _, slot := range Slots {
		if url := p.ImageURL(slot); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// Expired reports whether the party's scheduled time is strictly in the past.
func (p *Party) Expired(now time.Time) bool {
	return p.StartsAt.Before(now)
}

// PartyEdit carries the fields the edit flow may change. Images are excluded
// here on purpose: editing them would risk half-replaced uploads.
type PartyEdit struct {
	Name        string    `json:"name"`
	StartsAt    LocalTime `json:"starts_at"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// Validate checks the edit form the same way the edit modal does: name,
// start time and location are all required.
func (e *PartyEdit) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("party name is required")
	}
	if e.StartsAt.IsZero() {
		return fmt.Errorf("party date and time are required")
	}
	if strings.TrimSpace(e.Location) == "" {
		return fmt.Errorf("party location is required")
	}
	return nil
}

// Fields returns the column map sent to the record store on update.
func (e *PartyEdit) Fields() map[string]interface{} {
	return map[string]interface{}{
		"name":        strings.TrimSpace(e.Name),
		"starts_at":   e.StartsAt,
		"location":    strings.TrimSpace(e.Location),
		"description": strings.TrimSpace(e.Description),
	}
}
