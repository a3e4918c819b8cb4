package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agita-app/agita-server/internal/imaging"
	"github.com/agita-app/agita-server/internal/models"
)

type fakePartiesRepo struct {
	inserted []*models.Party
	updated  map[uuid.UUID]map[string]interface{}
	deleted  []uuid.UUID
	parties  []*models.Party

	insertErr error
	deleteErr map[uuid.UUID]error
}

func newFakePartiesRepo() *fakePartiesRepo {
	return &fakePartiesRepo{
		updated:   make(map[uuid.UUID]map[string]interface{}),
		deleteErr: make(map[uuid.UUID]error),
	}
}

func (f *fakePartiesRepo) ListPartiesByOwner(ctx context.Context, ownerID uuid.UUID, accessToken string) ([]*models.Party, error) {
	var mine []*models.Party
	for _, p := range f.parties {
		if p.OwnerID == ownerID {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

func (f *fakePartiesRepo) ListUpcomingApproved(ctx context.Context, now time.Time) ([]*models.Party, error) {
	var upcoming []*models.Party
	for _, p := range f.parties {
		if p.Status == models.StatusApproved && !p.Expired(now) {
			upcoming = append(upcoming, p)
		}
	}
	return upcoming, nil
}

func (f *fakePartiesRepo) InsertParty(ctx context.Context, party *models.Party, accessToken string) (*models.Party, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	created := *party
	created.ID = uuid.New()
	f.inserted = append(f.inserted, &created)
	return &created, nil
}

func (f *fakePartiesRepo) UpdateParty(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}, accessToken string) (*models.Party, error) {
	for _, p := range f.parties {
		if p.ID == id && p.OwnerID == ownerID {
			f.updated[id] = fields
			out := *p
			if name, ok := fields["name"].(string); ok {
				out.Name = name
			}
			if startsAt, ok := fields["starts_at"].(models.LocalTime); ok {
				out.StartsAt = startsAt
			}
			if location, ok := fields["location"].(string); ok {
				out.Location = location
			}
			if description, ok := fields["description"].(string); ok {
				out.Description = description
			}
			return &out, nil
		}
	}
	return nil, models.ErrPartyNotFound
}

func (f *fakePartiesRepo) DeleteParty(ctx context.Context, id, ownerID uuid.UUID, accessToken string) error {
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	for i, p := range f.parties {
		if p.ID == id && p.OwnerID == ownerID {
			f.parties = append(f.parties[:i], f.parties[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return models.ErrPartyNotFound
}

type fakeObjectStore struct {
	uploads   []string
	removed   []string
	uploadErr map[string]error // keyed by path substring
	removeErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploadErr: make(map[string]error)}
}

func (f *fakeObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string, accessToken string) (string, error) {
	for sub, err := range f.uploadErr {
		if strings.Contains(path, sub) {
			return "", err
		}
	}
	f.uploads = append(f.uploads, path)
	return "https://cdn.example/party-images/" + path, nil
}

func (f *fakeObjectStore) Remove(ctx context.Context, paths []string, accessToken string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, paths...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngReader(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return &buf
}

func draftWithImages(t *testing.T, slots ...models.Slot) *Draft {
	t.Helper()
	intake := imaging.NewIntake()
	for _, slot := range slots {
		if err := intake.Select(slot, pngReader(t)); err != nil {
			t.Fatalf("failed to select %s image: %v", slot, err)
		}
	}
	return &Draft{
		Name:     "Festa de Teste",
		Date:     "2027-05-01",
		Time:     "22:00",
		Location: "Centro",
		Images:   intake,
	}
}

func collectStates() (func(SubmitState), *[]SubmitState) {
	var states []SubmitState
	return func(s SubmitState) { states = append(states, s) }, &states
}

func TestSubmitRejectsMissingPosterWithoutNetwork(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	draft := draftWithImages(t) // no images at all
	observe, states := collectStates()

	_, err := svc.Submit(context.Background(), uuid.New(), draft, "token", observe)
	if err == nil {
		t.Fatal("submit without a poster must fail")
	}
	if len(store.uploads) != 0 || len(repo.inserted) != 0 {
		t.Error("validation failure must make zero remote calls")
	}
	last := (*states)[len(*states)-1]
	if last.Phase != PhaseIdle {
		t.Errorf("final phase = %s, want idle after validation failure", last.Phase)
	}
}

func TestSubmitRejectsInvalidTicketURL(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	draft := draftWithImages(t, models.SlotPoster)
	draft.TicketURL = "not a url"

	_, err := svc.Submit(context.Background(), uuid.New(), draft, "token", nil)
	if err == nil {
		t.Fatal("invalid ticket URL must fail validation")
	}
	if len(store.uploads) != 0 || len(repo.inserted) != 0 {
		t.Error("validation failure must make zero remote calls")
	}
}

func TestSubmitRejectsMissingDateOrTime(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	draft := draftWithImages(t, models.SlotPoster)
	draft.Time = ""

	if _, err := svc.Submit(context.Background(), uuid.New(), draft, "token", nil); err == nil {
		t.Fatal("missing time must fail validation")
	}
	if len(store.uploads) != 0 {
		t.Error("validation failure must make zero remote calls")
	}
}

func TestSubmitProgressSequence(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	draft := draftWithImages(t, models.SlotPoster, models.SlotVenue, models.SlotPeople)
	observe, states := collectStates()

	if _, err := svc.Submit(context.Background(), uuid.New(), draft, "token", observe); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	var progress []int
	for _, s := range *states {
		if s.Phase == PhaseUploading {
			progress = append(progress, s.Progress)
		}
	}
	// Three images: 0, round(100/3)=33, round(200/3)=67, 100.
	want := []int{0, 33, 67, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress steps = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress steps = %v, want %v", progress, want)
		}
	}

	last := (*states)[len(*states)-1]
	if last.Phase != PhaseSuccess {
		t.Errorf("final phase = %s, want success", last.Phase)
	}
}

func TestSubmitInsertsOnlyAfterAllUploads(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	store.uploadErr["venue"] = fmt.Errorf("bucket unavailable")
	svc := NewRegistrationService(repo, store, testLogger())

	draft := draftWithImages(t, models.SlotPoster, models.SlotVenue)
	observe, states := collectStates()

	_, err := svc.Submit(context.Background(), uuid.New(), draft, "token", observe)
	if err == nil {
		t.Fatal("upload failure must fail the submission")
	}
	if len(repo.inserted) != 0 {
		t.Error("no record may be created when an upload fails")
	}
	last := (*states)[len(*states)-1]
	if last.Phase != PhaseError {
		t.Errorf("final phase = %s, want error", last.Phase)
	}
}

func TestSubmitUploadsSequentiallyInSlotOrder(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	draft := draftWithImages(t, models.SlotPeople, models.SlotPoster, models.SlotParty)

	if _, err := svc.Submit(context.Background(), uuid.New(), draft, "token", nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(store.uploads) != 3 {
		t.Fatalf("uploads = %d, want 3", len(store.uploads))
	}
	for i, slot := range []models.Slot{models.SlotPoster, models.SlotParty, models.SlotPeople} {
		if !strings.Contains(store.uploads[i], "/"+string(slot)+"_") {
			t.Errorf("upload %d path = %q, want slot %s", i, store.uploads[i], slot)
		}
	}
}

func TestSubmitCreatesApprovedRecordWithURLs(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	ownerID := uuid.New()
	draft := draftWithImages(t, models.SlotPoster)
	draft.TicketURL = "https://tickets.example/festa"

	created, err := svc.Submit(context.Background(), ownerID, draft, "token", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if created.OwnerID != ownerID {
		t.Errorf("owner = %s, want %s", created.OwnerID, ownerID)
	}
	if created.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", created.Status)
	}
	if created.PosterURL == "" {
		t.Error("poster URL must be set from the upload result")
	}
	if created.VenueImageURL != "" {
		t.Error("unselected slots must stay empty")
	}
	if !strings.HasPrefix(store.uploads[0], ownerID.String()+"/") {
		t.Errorf("upload path %q must be namespaced by owner", store.uploads[0])
	}
}

func TestSubmitSingleFlightPerOwner(t *testing.T) {
	repo := newFakePartiesRepo()
	store := newFakeObjectStore()
	svc := NewRegistrationService(repo, store, testLogger())

	ownerID := uuid.New()
	if !svc.begin(ownerID) {
		t.Fatal("first begin must succeed")
	}

	draft := draftWithImages(t, models.SlotPoster)
	_, err := svc.Submit(context.Background(), ownerID, draft, "token", nil)
	if !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("error = %v, want ErrSubmissionInFlight", err)
	}

	svc.end(ownerID)
	if _, err := svc.Submit(context.Background(), ownerID, draft, "token", nil); err != nil {
		t.Fatalf("submit after release failed: %v", err)
	}
}
