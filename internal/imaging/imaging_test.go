package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/agita-app/agita-server/internal/models"
)

// encodePNG renders a solid test image of the given dimensions.
func encodePNG(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return &buf
}

func decodeJPEGSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode prepared image: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("prepared image format = %q, want jpeg", format)
	}
	return cfg.Width, cfg.Height
}

func TestProcessScalesWideImageDown(t *testing.T) {
	prepared, err := Process(encodePNG(t, 2400, 1600))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if prepared.Width != MaxWidth {
		t.Errorf("width = %d, want %d", prepared.Width, MaxWidth)
	}
	// 1600 * 1200/2400 = 800
	if prepared.Height != 800 {
		t.Errorf("height = %d, want 800", prepared.Height)
	}

	w, h := decodeJPEGSize(t, prepared.Data)
	if w != prepared.Width || h != prepared.Height {
		t.Errorf("encoded size = %dx%d, want %dx%d", w, h, prepared.Width, prepared.Height)
	}
	if prepared.ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", prepared.ContentType)
	}
}

func TestProcessKeepsSmallImageDimensions(t *testing.T) {
	prepared, err := Process(encodePNG(t, 640, 480))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if prepared.Width != 640 || prepared.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", prepared.Width, prepared.Height)
	}
}

func TestProcessRoundsScaledHeight(t *testing.T) {
	// 1300 wide, 977 tall: 977 * 1200/1300 = 901.84..., rounds to 902.
	prepared, err := Process(encodePNG(t, 1300, 977))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if prepared.Width != 1200 || prepared.Height != 902 {
		t.Errorf("size = %dx%d, want 1200x902", prepared.Width, prepared.Height)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Process(strings.NewReader("this is not an image"))
	if err != ErrProcessing {
		t.Fatalf("error = %v, want ErrProcessing", err)
	}
}

func TestIntakeReplaceReleasesPreviousPreview(t *testing.T) {
	intake := NewIntake()

	if err := intake.Select(models.SlotPoster, encodePNG(t, 100, 100)); err != nil {
		t.Fatalf("first Select failed: %v", err)
	}
	first := intake.Get(models.SlotPoster)

	if err := intake.Select(models.SlotPoster, encodePNG(t, 200, 200)); err != nil {
		t.Fatalf("second Select failed: %v", err)
	}
	second := intake.Get(models.SlotPoster)

	if !first.Preview.Released() {
		t.Error("replaced preview was not released")
	}
	if second.Preview.Released() {
		t.Error("current preview must stay live")
	}
	if second.Width != 200 {
		t.Errorf("current slot width = %d, want 200", second.Width)
	}
}

func TestIntakeFailedSelectKeepsExistingSlot(t *testing.T) {
	intake := NewIntake()
	if err := intake.Select(models.SlotPoster, encodePNG(t, 100, 100)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	existing := intake.Get(models.SlotPoster)

	if err := intake.Select(models.SlotPoster, strings.NewReader("junk")); err != ErrProcessing {
		t.Fatalf("error = %v, want ErrProcessing", err)
	}

	if intake.Get(models.SlotPoster) != existing {
		t.Error("failed selection must not replace the existing image")
	}
	if existing.Preview.Released() {
		t.Error("existing preview must survive a failed selection")
	}
}

func TestIntakeRemoveAndReset(t *testing.T) {
	intake := NewIntake()
	if err := intake.Select(models.SlotPoster, encodePNG(t, 100, 100)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := intake.Select(models.SlotVenue, encodePNG(t, 100, 100)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	poster := intake.Get(models.SlotPoster)
	venue := intake.Get(models.SlotVenue)

	intake.Remove(models.SlotPoster)
	if !poster.Preview.Released() {
		t.Error("removed slot preview was not released")
	}
	if intake.Get(models.SlotPoster) != nil {
		t.Error("removed slot still holds an image")
	}
	if intake.Count() != 1 {
		t.Errorf("count = %d, want 1", intake.Count())
	}

	intake.Reset()
	if !venue.Preview.Released() {
		t.Error("reset did not release remaining previews")
	}
	if intake.Count() != 0 {
		t.Errorf("count after reset = %d, want 0", intake.Count())
	}
}

func TestIntakePresentFollowsUploadOrder(t *testing.T) {
	intake := NewIntake()
	// Selected out of order on purpose.
	if err := intake.Select(models.SlotPeople, encodePNG(t, 50, 50)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := intake.Select(models.SlotPoster, encodePNG(t, 50, 50)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	present := intake.Present()
	if len(present) != 2 {
		t.Fatalf("present = %v, want 2 slots", present)
	}
	if present[0] != models.SlotPoster || present[1] != models.SlotPeople {
		t.Errorf("present order = %v, want [poster people]", present)
	}
}
