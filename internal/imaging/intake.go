package imaging

import (
	"io"

	"github.com/agita-app/agita-server/internal/models"
)

// Intake holds the per-slot image state of one registration form: raw
// selection in, prepared blob plus preview out. It is owned by a single
// form and is not safe for concurrent use.
type Intake struct {
	slots map[models.Slot]*Prepared
}

func NewIntake() *Intake {
	return &Intake{slots: make(map[models.Slot]*Prepared)}
}

// Select processes a newly chosen file into the slot. When processing
// fails the existing selection, if any, is left untouched. A successful
// re-selection releases the previous preview before replacing it.
func (in *Intake) Select(slot models.Slot, r io.Reader) error {
	prepared, err := Process(r)
	if err != nil {
		return err
	}
	if prev, ok := in.slots[slot]; ok {
		prev.Preview.Release()
	}
	in.slots[slot] = prepared
	return nil
}

// Remove clears a slot and releases its preview.
func (in *Intake) Remove(slot models.Slot) {
	if prepared, ok := in.slots[slot]; ok {
		prepared.Preview.Release()
		delete(in.slots, slot)
	}
}

// Reset clears every slot, releasing all previews. Called after a
// successful submission and on form teardown.
func (in *Intake) Reset() {
	for slot, prepared := range in.slots {
		prepared.Preview.Release()
		delete(in.slots, slot)
	}
}

// Get returns the prepared image for a slot, or nil when empty.
func (in *Intake) Get(slot models.Slot) *Prepared {
	return in.slots[slot]
}

// Present lists the filled slots in upload order.
func (in *Intake) Present() []models.Slot {
	var present []models.Slot
	for _, slot := range models.Slots {
		if _, ok := in.slots[slot]; ok {
			present = append(present, slot)
		}
	}
	return present
}

// Count reports how many slots are filled.
func (in *Intake) Count() int {
	return len(in.slots)
}
