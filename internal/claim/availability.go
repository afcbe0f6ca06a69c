package claim

import "time"

type SlotStatus string

const (
	SlotFree   SlotStatus = "free"
	SlotHeld   SlotStatus = "held"
	SlotBooked SlotStatus = "booked"
)

// SlotAvailability pairs a slot with its projected status.
type SlotAvailability struct {
	Slot   Slot
	Status SlotStatus
}

// Project computes the status of every slot against the given claims:
// booked if covered by a confirmed claim, held if covered by an unexpired
// hold, free otherwise. Pure function; recomputed on every change event
// and on initial load, never the source of truth itself.
func Project(slots []Slot, claims []*Claim, now time.Time) []SlotAvailability {
	out := make([]SlotAvailability, len(slots))
	for i, slot := range slots {
		status := SlotFree
		for _, c := range claims {
			if !c.ActiveAt(now) {
				continue
			}
			if !c.Covers(slot.StartTime, slot.EndTime) {
				continue
			}
			if c.Status == StatusConfirmed {
				status = SlotBooked
			} else {
				status = SlotHeld
			}
			break
		}
		out[i] = SlotAvailability{Slot: slot, Status: status}
	}
	return out
}
