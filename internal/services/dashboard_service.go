package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agita-app/agita-server/internal/models"
)

// DashboardService serves the my-parties screen: load the owner's records,
// edit, delete (storage objects first, then the record), and the automatic
// expiry sweep that removes parties whose scheduled time has passed.
type DashboardService struct {
	parties    models.PartiesRepo
	store      models.ObjectStore
	engagement models.EngagementRepo
	logger     *slog.Logger
	bucket     string

	// now is injectable so expiry behaviour is testable with fixed clocks.
	now func() time.Time
}

func NewDashboardService(parties models.PartiesRepo, store models.ObjectStore, engagement models.EngagementRepo, bucket string, logger *slog.Logger) *DashboardService {
	if bucket == "" {
		bucket = models.DefaultBucket
	}
	return &DashboardService{
		parties:    parties,
		store:      store,
		engagement: engagement,
		logger:     logger,
		bucket:     bucket,
		now:        time.Now,
	}
}

// LoadParties fetches the owner's parties newest-created first, sweeps out
// the expired ones, and decorates the rest with engagement counters. A
// manual refresh runs exactly this and replaces local state wholesale.
func (ds *DashboardService) LoadParties(ctx context.Context, ownerID uuid.UUID, accessToken string) ([]*models.Party, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("invalid owner ID")
	}

	parties, err := ds.parties.ListPartiesByOwner(ctx, ownerID, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load parties: %v", err)
	}

	parties = ds.sweepExpired(ctx, parties, accessToken)
	ds.decorateCounters(ctx, parties)
	return parties, nil
}

// ListUpcoming returns the approved parties scheduled from now on, soonest
// first, for the public landing page.
func (ds *DashboardService) ListUpcoming(ctx context.Context) ([]*models.Party, error) {
	parties, err := ds.parties.ListUpcomingApproved(ctx, ds.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming parties: %v", err)
	}
	ds.decorateCounters(ctx, parties)
	return parties, nil
}

// DeletePartyByID resolves the record among the owner's parties before
// deleting, so the stored image paths are known to the delete flow.
func (ds *DashboardService) DeletePartyByID(ctx context.Context, id, ownerID uuid.UUID, accessToken string) error {
	if id == uuid.Nil || ownerID == uuid.Nil {
		return fmt.Errorf("invalid party or owner ID")
	}

	parties, err := ds.parties.ListPartiesByOwner(ctx, ownerID, accessToken)
	if err != nil {
		return fmt.Errorf("failed to load parties: %v", err)
	}
	for _, party := range parties {
		if party.ID == id {
			return ds.DeleteParty(ctx, party, accessToken)
		}
	}
	return models.ErrPartyNotFound
}

// sweepExpired deletes every party scheduled strictly before now and
// returns the survivors. Individual failures are logged and skipped so one
// bad record never aborts the rest of the sweep.
func (ds *DashboardService) sweepExpired(ctx context.Context, parties []*models.Party, accessToken string) []*models.Party {
	expired, remaining := models.SplitExpired(parties, ds.now())
	for _, party := range expired {
		if err := ds.DeleteParty(ctx, party, accessToken); err != nil {
			ds.logger.Error("expiry sweep: failed to delete party", "party_id", party.ID, "error", err)
			remaining = append(remaining, party)
		}
	}
	return remaining
}

// DeleteParty removes a party's stored images first, then the record
// itself. Storage failures are tolerated per object and logged; only a
// record-delete failure fails the operation.
func (ds *DashboardService) DeleteParty(ctx context.Context, party *models.Party, accessToken string) error {
	if party == nil || party.ID == uuid.Nil || party.OwnerID == uuid.Nil {
		return fmt.Errorf("invalid party")
	}

	for _, imageURL := range party.ImageURLs() {
		path := models.ObjectPathFromURL(imageURL, ds.bucket)
		if path == "" {
			continue
		}
		if err := ds.store.Remove(ctx, []string{path}, accessToken); err != nil {
			ds.logger.Warn("failed to remove party image", "party_id", party.ID, "path", path, "error", err)
		}
	}

	err := ds.parties.DeleteParty(ctx, party.ID, party.OwnerID, accessToken)
	if errors.Is(err, models.ErrPartyNotFound) {
		// Already gone, most likely removed by a concurrent sweep.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete party: %v", err)
	}
	return nil
}

// UpdateParty saves an edit to name, start time, location and description.
// The update is filtered by record id and owner id; images are never
// touched by this flow.
func (ds *DashboardService) UpdateParty(ctx context.Context, id, ownerID uuid.UUID, edit *models.PartyEdit, accessToken string) (*models.Party, error) {
	if id == uuid.Nil || ownerID == uuid.Nil {
		return nil, fmt.Errorf("invalid party or owner ID")
	}
	if err := edit.Validate(); err != nil {
		return nil, err
	}

	updated, err := ds.parties.UpdateParty(ctx, id, ownerID, edit.Fields(), accessToken)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MergeUpdated merges the editable fields of updated into the loaded list
// in place, leaving every image URL as it was. Returns false when the
// target record is no longer present, so callers can close their edit view
// gracefully.
func MergeUpdated(parties []*models.Party, updated *models.Party) bool {
	for _, p := range parties {
		if p.ID == updated.ID {
			p.Name = updated.Name
			p.StartsAt = updated.StartsAt
			p.Location = updated.Location
			p.Description = updated.Description
			return true
		}
	}
	return false
}

// decorateCounters attaches the read-only view and interested counts. A
// counter lookup failure is a lost decoration, never a failed load.
func (ds *DashboardService) decorateCounters(ctx context.Context, parties []*models.Party) {
	if ds.engagement == nil || len(parties) == 0 {
		return
	}

	ids := make([]string, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.ID.String())
	}

	views, err := ds.engagement.CountViews(ctx, ids)
	if err != nil {
		ds.logger.Warn("failed to load view counts", "error", err)
	}
	interested, err := ds.engagement.CountInterested(ctx, ids)
	if err != nil {
		ds.logger.Warn("failed to load interested counts", "error", err)
	}

	for _, p := range parties {
		id := p.ID.String()
		if views != nil {
			p.Views = views[id]
		}
		if interested != nil {
			p.Interested = interested[id]
		}
	}
}
