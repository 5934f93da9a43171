package booking

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals (one ends exactly when the
// other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasConflict reports whether the requested [start, end) interval overlaps
// any ACTIVE booking in the snapshot. Completed and cancelled bookings do not
// hold their slot.
func HasConflict(existing []*Booking, start, end time.Time) bool {
	for _, b := range existing {
		if b.Status != StatusActive {
			continue
		}
		if Overlaps(b.StartTime, b.EndTime, start, end) {
			return true
		}
	}
	return false
}
