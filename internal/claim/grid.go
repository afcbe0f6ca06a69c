package claim

import "time"

// Slot is one bookable time unit on the grid. Slots are derived, never stored.
type Slot struct {
	RoomID    string
	StartTime time.Time
	EndTime   time.Time
}

// OperatingHours describes when rooms are bookable. Open and Close are
// offsets from midnight; Days lists the operating weekdays.
type OperatingHours struct {
	Open  time.Duration
	Close time.Duration
	Days  map[time.Weekday]bool
}

// Contains reports whether [start, end) falls inside the operating window
// of the day start belongs to.
func (h OperatingHours) Contains(start, end time.Time) bool {
	if !h.Days[start.Weekday()] {
		return false
	}
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	open := midnight.Add(h.Open)
	close := midnight.Add(h.Close)
	return !start.Before(open) && !end.After(close)
}

// GenerateSlots derives the bookable slots for a room on the current day.
// Slots run from the later of opening time and now (rounded up to the next
// grid boundary) through closing time. Outside operating hours, or on a
// non-operating day, there are no slots. Pure function of its inputs.
func GenerateSlots(roomID string, now time.Time, hours OperatingHours, interval time.Duration) []Slot {
	if interval <= 0 {
		return nil
	}
	if !hours.Days[now.Weekday()] {
		return nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	open := midnight.Add(hours.Open)
	close := midnight.Add(hours.Close)

	first := open
	if now.After(open) {
		// Round up to the next grid boundary so elapsed slots are excluded.
		elapsed := now.Sub(open)
		steps := elapsed / interval
		if elapsed%interval != 0 {
			steps++
		}
		first = open.Add(steps * interval)
	}

	var slots []Slot
	for start := first; !start.Add(interval).After(close); start = start.Add(interval) {
		slots = append(slots, Slot{
			RoomID:    roomID,
			StartTime: start,
			EndTime:   start.Add(interval),
		})
	}
	return slots
}
