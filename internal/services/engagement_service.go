package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/agita-app/agita-server/internal/models"
)

// EngagementService maintains the non-authoritative view and interested
// counters shown on the dashboard.
type EngagementService struct {
	engagementRepo models.EngagementRepo
	logger         *slog.Logger
}

func NewEngagementService(engagementRepo models.EngagementRepo, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		engagementRepo: engagementRepo,
		logger:         logger,
	}
}

// TrackView records a dashboard-visible view. Duplicate views from the same
// session within the dedupe window are silently dropped by the repo.
func (es *EngagementService) TrackView(ctx context.Context, view *models.PartyView) error {
	if err := models.Validate.Struct(view); err != nil {
		return fmt.Errorf("invalid view payload: %v", err)
	}

	return es.engagementRepo.TrackPartyView(ctx, view)
}

func (es *EngagementService) MarkInterested(ctx context.Context, userID uuid.UUID, partyID string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user ID")
	}
	if strings.TrimSpace(partyID) == "" {
		return fmt.Errorf("party ID is required")
	}

	return es.engagementRepo.MarkInterested(ctx, userID, partyID)
}

func (es *EngagementService) RemoveInterested(ctx context.Context, userID uuid.UUID, partyID string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user ID")
	}
	if strings.TrimSpace(partyID) == "" {
		return fmt.Errorf("party ID is required")
	}

	return es.engagementRepo.RemoveInterested(ctx, userID, partyID)
}
