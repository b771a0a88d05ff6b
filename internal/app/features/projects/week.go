package projects

import "time"

// WeekWindow returns the Monday 00:00 to Sunday 23:59:59.999 span that
// contains t, in t's location.
func WeekWindow(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	sinceMonday := (int(day.Weekday()) + 6) % 7
	start = day.AddDate(0, 0, -sinceMonday)
	end = start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}
