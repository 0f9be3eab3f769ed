package booking

import (
	"sort"
	"time"
)

// Slot is the minimal view of a confirmed event that conflict detection needs.
type Slot struct {
	EventID    string
	ResourceID string
	Start      time.Time
	End        time.Time
}

// Overlaps reports whether two half-open intervals [start, end) intersect.
// Adjacent slots, where one ends exactly when the other starts, do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DetectConflicts returns every existing slot on the candidate's resource whose
// interval overlaps the candidate, ordered by start time. Slots on other
// resources and the slot identified by excludeEventID are ignored.
func DetectConflicts(existing []Slot, candidate Slot, excludeEventID string) []Slot {
	var conflicts []Slot
	for _, slot := range existing {
		if slot.ResourceID != candidate.ResourceID {
			continue
		}
		if excludeEventID != "" && slot.EventID == excludeEventID {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, slot.Start, slot.End) {
			conflicts = append(conflicts, slot)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Start.Equal(conflicts[j].Start) {
			return conflicts[i].EventID < conflicts[j].EventID
		}
		return conflicts[i].Start.Before(conflicts[j].Start)
	})

	return conflicts
}
