package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type PartiesRepo interface {
	ListPartiesByOwner(ctx context.Context, ownerID uuid.UUID, accessToken string) ([]*Party, error)
	ListUpcomingApproved(ctx context.Context, now time.Time) ([]*Party, error)
	InsertParty(ctx context.Context, party *Party, accessToken string) (*Party, error)
	UpdateParty(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}, accessToken string) (*Party, error)
	DeleteParty(ctx context.Context, id, ownerID uuid.UUID, accessToken string) error
}

// ErrPartyNotFound is returned when an update or delete matches no row,
// typically because the record was swept or removed concurrently.
var ErrPartyNotFound = fmt.Errorf("party not found")

// ListPartiesByOwner returns every party owned by the given user,
// newest-created first.
func (su *SupabaseRepo) ListPartiesByOwner(ctx context.Context, ownerID uuid.UUID, accessToken string) ([]*Party, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("invalid owner ID")
	}

	client, err := su.client(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(PartiesTable).
		Select("*", "exact", false).
		Eq("owner_id", ownerID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %v", err)
	}

	var parties []*Party
	if err := json.Unmarshal(raw, &parties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal party rows: %v", err)
	}
	return parties, nil
}

// ListUpcomingApproved returns the approved parties scheduled at or after
// now, soonest first. This feeds the public landing listing, which never
// shows expired events.
func (su *SupabaseRepo) ListUpcomingApproved(ctx context.Context, now time.Time) ([]*Party, error) {
	raw, _, err := su.supabaseClient.From(PartiesTable).
		Select("*", "exact", false).
		Eq("status", string(StatusApproved)).
		Gte("starts_at", now.Format(localTimeLayout)).
		Order("starts_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming parties: %v", err)
	}

	var parties []*Party
	if err := json.Unmarshal(raw, &parties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal party rows: %v", err)
	}
	return parties, nil
}

func (su *SupabaseRepo) InsertParty(ctx context.Context, party *Party, accessToken string) (*Party, error) {
	if party.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("invalid owner ID")
	}

	client, err := su.client(accessToken)
	if err != nil {
		return nil, err
	}

	partyData := map[string]interface{}{
		"owner_id":         party.OwnerID,
		"name":             party.Name,
		"starts_at":        party.StartsAt,
		"description":      party.Description,
		"location":         party.Location,
		"ticket_url":       party.TicketURL,
		"price":            party.Price,
		"contact":          party.Contact,
		"poster_url":       party.PosterURL,
		"venue_image_url":  party.VenueImageURL,
		"party_image_url":  party.PartyImageURL,
		"people_image_url": party.PeopleImageURL,
		"status":           party.Status,
		"created_at":       party.CreatedAt,
	}

	raw, count, err := client.From(PartiesTable).
		Insert(partyData, false, "", "", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert party: %v", err)
	}

	var created []*Party
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created party: %v", err)
	}
	if count == 0 || len(created) == 0 {
		return nil, fmt.Errorf("no party data returned after insert")
	}
	return created[0], nil
}

// UpdateParty updates fields on a single party, filtered by both record id
// and owner id so a user can only touch their own rows.
func (su *SupabaseRepo) UpdateParty(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}, accessToken string) (*Party, error) {
	if id == uuid.Nil || ownerID == uuid.Nil {
		return nil, fmt.Errorf("invalid party or owner ID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	client, err := su.client(accessToken)
	if err != nil {
		return nil, err
	}

	raw, count, err := client.From(PartiesTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Eq("owner_id", ownerID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update party: %v", err)
	}
	if count == 0 {
		return nil, ErrPartyNotFound
	}

	var updated []*Party
	if err := json.Unmarshal(raw, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated party: %v", err)
	}
	if len(updated) == 0 {
		return nil, ErrPartyNotFound
	}
	return updated[0], nil
}

// DeleteParty removes a single party, filtered by both record id and owner
// id.
func (su *SupabaseRepo) DeleteParty(ctx context.Context, id, ownerID uuid.UUID, accessToken string) error {
	if id == uuid.Nil || ownerID == uuid.Nil {
		return fmt.Errorf("invalid party or owner ID")
	}

	client, err := su.client(accessToken)
	if err != nil {
		return err
	}

	_, count, err := client.From(PartiesTable).
		Delete("", "exact").
		Eq("id", id.String()).
		Eq("owner_id", ownerID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete party: %v", err)
	}
	if count == 0 {
		return ErrPartyNotFound
	}
	return nil
}
