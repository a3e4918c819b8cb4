package models

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FilterStatus is the dashboard's status filter. "all" passes everything,
// the other values match a moderation state exactly.
type FilterStatus string

const (
	FilterAll      FilterStatus = "all"
	FilterPending  FilterStatus = FilterStatus(StatusPending)
	FilterApproved FilterStatus = FilterStatus(StatusApproved)
	FilterRejected FilterStatus = FilterStatus(StatusRejected)
)

// SortKey selects one of the dashboard sort orders.
type SortKey string

const (
	SortByStartsAt  SortKey = "starts_at"  // scheduled datetime ascending
	SortByName      SortKey = "name"       // locale-aware lexicographic
	SortByCreatedAt SortKey = "created_at" // creation time descending
	SortByStatus    SortKey = "status"     // status label lexicographic
)

// FilterParties returns the parties whose name or location contains term
// (case-insensitive) and whose status matches the filter. It is a pure
// computation over the loaded set; no network calls happen per keystroke.
func FilterParties(parties []*Party, term string, status FilterStatus) []*Party {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]*Party, 0, len(parties))
	for _, p := range parties {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Location), term) {
			continue
		}
		if status != "" && status != FilterAll && Status(status) != p.Status {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortParties returns a sorted copy of parties in the given order. The input
// slice is left untouched so the backing list keeps its load order.
func SortParties(parties []*Party, key SortKey) []*Party {
	out := make([]*Party, len(parties))
	copy(out, parties)

	switch key {
	case SortByName:
		c := collate.New(language.Portuguese)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortByCreatedAt:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortByStatus:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Status < out[j].Status
		})
	default: // SortByStartsAt
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].StartsAt.Before(out[j].StartsAt.Time)
		})
	}
	return out
}

// SplitExpired partitions parties into those scheduled strictly before now
// and the rest, preserving order within each partition.
func SplitExpired(parties []*Party, now time.Time) (expired, remaining []*Party) {
	for _, p := range parties {
		if p.Expired(now) {
			expired = append(expired, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	return expired, remaining
}
