package marketplace

import (
	"fmt"
	"strings"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/utils"
)

// DateWindow bounds exchanges to whole calendar days in a location.
// A zero Start or End leaves that side open.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow builds a window from optional "YYYY-MM-DD" (or RFC3339) dates.
// Start snaps to 00:00:00.000 and end to 23:59:59.999 of their days in loc.
// An end before the start is accepted and simply matches nothing.
func NewDateWindow(start, end string, loc *time.Location) (DateWindow, error) {
	var w DateWindow
	if s := strings.TrimSpace(start); s != "" {
		t, err := utils.ParseTimestamp(s, loc)
		if err != nil {
			return DateWindow{}, fmt.Errorf("start date: %w", err)
		}
		w.Start = utils.StartOfDay(t, loc)
	}
	if e := strings.TrimSpace(end); e != "" {
		t, err := utils.ParseTimestamp(e, loc)
		if err != nil {
			return DateWindow{}, fmt.Errorf("end date: %w", err)
		}
		w.End = utils.EndOfDay(t, loc)
	}
	return w, nil
}

// Open reports whether neither bound is set.
func (w DateWindow) Open() bool { return w.Start.IsZero() && w.End.IsZero() }

// BeforeStart reports whether t is older than the start bound.
func (w DateWindow) BeforeStart(t time.Time) bool {
	return !w.Start.IsZero() && t.Before(w.Start)
}

// Contains reports whether t lies within both bounds, inclusive.
func (w DateWindow) Contains(t time.Time) bool {
	if w.BeforeStart(t) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Filter returns the exchanges inside the window, keeping order.
func (w DateWindow) Filter(exchanges []Exchange) []Exchange {
	out := make([]Exchange, 0, len(exchanges))
	for _, ex := range exchanges {
		if w.Contains(ex.Timestamp) {
			out = append(out, ex)
		}
	}
	return out
}
