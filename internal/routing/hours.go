package routing

import "time"

// BusinessHours is the weekday/time window during which calls go to a human agent.
//
// A day is open Monday through Friday, from StartHour (inclusive) to EndHour (exclusive),
// evaluated on the wall clock of Location.
type BusinessHours struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// DefaultBusinessHours is Monday to Friday 09:00 to 17:00 in loc (host local zone when nil).
func DefaultBusinessHours(loc *time.Location) BusinessHours {
	return BusinessHours{StartHour: 9, EndHour: 17, Location: loc}
}

// IsInHours reports whether now falls inside the window.
func (h BusinessHours) IsInHours(now time.Time) bool {
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := local.Hour()
	return hour >= h.StartHour && hour < h.EndHour
}
