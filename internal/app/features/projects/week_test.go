package projects

import (
	"regexp"
	"testing"
	"time"
)

func TestWeekWindow(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2025, 3, 16, 23, 59, 59, int(999*time.Millisecond), loc)

	tests := []struct {
		name string
		at   time.Time
	}{
		{"monday midnight", monday},
		{"wednesday noon", time.Date(2025, 3, 12, 12, 0, 0, 0, loc)},
		{"sunday last ms", wantEnd},
		{"sunday evening", time.Date(2025, 3, 16, 21, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.at)
			if !start.Equal(monday) {
				t.Errorf("start: got %v, want %v", start, monday)
			}
			if !end.Equal(wantEnd) {
				t.Errorf("end: got %v, want %v", end, wantEnd)
			}
		})
	}

	next, _ := WeekWindow(time.Date(2025, 3, 17, 0, 0, 0, 0, loc))
	if !next.Equal(monday.AddDate(0, 0, 7)) {
		t.Errorf("next monday starts a new week, got %v", next)
	}
}

func TestNewGroupID(t *testing.T) {
	re := regexp.MustCompile(`^CSE-S5-25-[0-9A-Z]{4}$`)
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewGroupID("CSE", 5, now)
		if !re.MatchString(id) {
			t.Fatalf("unexpected group id %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 40 {
		t.Errorf("group ids are not random enough: %d distinct of 50", len(seen))
	}
	if got := ChatRoomID("CSE-S5-25-AB12"); got != "grp_CSE-S5-25-AB12" {
		t.Errorf("ChatRoomID: got %q", got)
	}
}
