package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agita-app/agita-server/internal/helpers"
	"github.com/agita-app/agita-server/internal/imaging"
	"github.com/agita-app/agita-server/internal/models"
)

// SubmitPhase is the state of one submission attempt:
// idle -> validating -> uploading -> success | error.
type SubmitPhase string

const (
	PhaseIdle       SubmitPhase = "idle"
	PhaseValidating SubmitPhase = "validating"
	PhaseUploading  SubmitPhase = "uploading"
	PhaseSuccess    SubmitPhase = "success"
	PhaseError      SubmitPhase = "error"
)

// SubmitState is one observable step of a submission. Progress is only
// meaningful while uploading.
type SubmitState struct {
	Phase    SubmitPhase
	Progress int
}

// SuccessDisplayDelay is how long the success confirmation stays on screen
// before the client resets the form to idle.
const SuccessDisplayDelay = 3 * time.Second

// ErrSubmissionInFlight rejects a second submit while one is already
// running for the same owner; the submit control is disabled while not idle.
var ErrSubmissionInFlight = fmt.Errorf("a submission is already in progress")

// Draft is the registration form state for one submission attempt. On
// failure it is preserved untouched so the user never re-enters anything.
type Draft struct {
	Name        string
	Date        string // 2006-01-02
	Time        string // 15:04
	Description string
	Location    string
	TicketURL   string
	Price       string
	Contact     string
	Images      *imaging.Intake
}

// validate applies the pre-network checks. Any failure here means zero
// remote calls were made for the attempt.
func (d *Draft) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("party name is required")
	}
	if d.Date == "" || d.Time == "" {
		return fmt.Errorf("party date and time are required")
	}
	if d.TicketURL != "" && !isValidURL(d.TicketURL) {
		return fmt.Errorf("ticket link must be a valid URL")
	}
	if d.Images == nil || d.Images.Get(models.SlotPoster) == nil {
		return fmt.Errorf("a poster image is required")
	}
	return nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// RegistrationService drives the register-a-party flow: validate the draft,
// upload each selected image sequentially, then create the record. A record
// is only created after every upload has resolved.
type RegistrationService struct {
	parties models.PartiesRepo
	store   models.ObjectStore
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

func NewRegistrationService(parties models.PartiesRepo, store models.ObjectStore, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		parties:  parties,
		store:    store,
		logger:   logger,
		inFlight: make(map[uuid.UUID]bool),
	}
}

func (rs *RegistrationService) begin(ownerID uuid.UUID) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.inFlight[ownerID] {
		return false
	}
	rs.inFlight[ownerID] = true
	return true
}

func (rs *RegistrationService) end(ownerID uuid.UUID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.inFlight, ownerID)
}

// Submit runs one submission attempt. observe, when non-nil, receives each
// state transition including upload progress after every completed image.
func (rs *RegistrationService) Submit(ctx context.Context, ownerID uuid.UUID, draft *Draft, accessToken string, observe func(SubmitState)) (*models.Party, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("you must be signed in to register a party")
	}
	if !rs.begin(ownerID) {
		return nil, ErrSubmissionInFlight
	}
	defer rs.end(ownerID)

	emit := func(state SubmitState) {
		if observe != nil {
			observe(state)
		}
	}

	emit(SubmitState{Phase: PhaseValidating})
	if err := draft.validate(); err != nil {
		// Back to idle: validation failures never reach the network.
		emit(SubmitState{Phase: PhaseIdle})
		return nil, err
	}

	startsAt, err := models.CombineDateTime(draft.Date, draft.Time)
	if err != nil {
		emit(SubmitState{Phase: PhaseIdle})
		return nil, err
	}

	emit(SubmitState{Phase: PhaseUploading, Progress: 0})

	slots := draft.Images.Present()
	total := len(slots)
	urls := make(map[models.Slot]string, total)

	for done, slot := range slots {
		prepared := draft.Images.Get(slot)
		path := helpers.NewObjectPath(ownerID.String(), string(slot))

		publicURL, err := rs.store.Upload(ctx, path, prepared.Data, prepared.ContentType, accessToken)
		if err != nil {
			rs.logger.Error("image upload failed", "slot", slot, "path", path, "error", err)
			emit(SubmitState{Phase: PhaseError})
			return nil, fmt.Errorf("could not register the party, please try again")
		}
		urls[slot] = publicURL

		progress := int(math.Round(float64(done+1) / float64(total) * 100))
		emit(SubmitState{Phase: PhaseUploading, Progress: progress})
	}

	party := &models.Party{
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(draft.Name),
		StartsAt:       startsAt,
		Description:    draft.Description,
		Location:       draft.Location,
		TicketURL:      draft.TicketURL,
		Price:          draft.Price,
		Contact:        draft.Contact,
		PosterURL:      urls[models.SlotPoster],
		VenueImageURL:  urls[models.SlotVenue],
		PartyImageURL:  urls[models.SlotParty],
		PeopleImageURL: urls[models.SlotPeople],
		Status:         models.StatusApproved,
		CreatedAt:      time.Now(),
	}

	if err := models.Validate.Struct(party); err != nil {
		rs.logger.Error("assembled party failed validation", "owner_id", ownerID, "error", err)
		emit(SubmitState{Phase: PhaseError})
		return nil, fmt.Errorf("could not register the party, please try again")
	}

	created, err := rs.parties.InsertParty(ctx, party, accessToken)
	if err != nil {
		rs.logger.Error("party insert failed", "owner_id", ownerID, "error", err)
		emit(SubmitState{Phase: PhaseError})
		return nil, fmt.Errorf("could not register the party, please try again")
	}

	emit(SubmitState{Phase: PhaseSuccess})
	return created, nil
}
