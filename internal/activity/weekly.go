package activity

import (
	"fmt"
	"strings"
	"time"
)

type Stats struct {
	Count           int      `json:"count"`
	DistanceKM      float64  `json:"distance_km"`
	MovingTimeMin   float64  `json:"moving_time_min"`
	ElevGainM       float64  `json:"elev_gain_m"`
	AvgPaceMinPerKM *float64 `json:"avg_pace_min_per_km"`
	AvgHR           *float64 `json:"avg_hr"`
}

type SportTotals struct {
	Count         int     `json:"count"`
	DistanceKM    float64 `json:"distance_km"`
	MovingTimeMin float64 `json:"moving_time_min"`
	ElevGainM     float64 `json:"elev_gain_m"`
}

type Window struct {
	StartUTC string `json:"start_utc"`
	EndUTC   string `json:"end_utc"`

	start, end time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

type Weekly struct {
	Window     Window                 `json:"window"`
	Summary    Stats                  `json:"summary"`
	BySport    map[string]SportTotals `json:"breakdown_by_sport"`
	Activities []Detail               `json:"activities"`
	Content    string                 `json:"content,omitempty"`
}

// WeekWindow is Monday 00:00:00Z through Sunday 23:59:59Z of the UTC week
// containing now.
func WeekWindow(now time.Time) Window {
	d := now.UTC()
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday starts on Sunday.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return Window{
		StartUTC: start.Format(time.RFC3339),
		EndUTC:   end.Format(time.RFC3339),
		start:    start,
		end:      end,
	}
}

func Summarize(acts []Normalized) Stats {
	var (
		km, mins, elev float64
		paces, hrs     []float64
	)
	for _, a := range acts {
		km += a.DistanceKM
		mins += a.MovingTimeMin
		elev += a.ElevGainM
		if FamilyOf(a.Sport) == FamilyRun {
			if p, ok := MMSSToMinutes(a.PaceMinPerKM); ok {
				paces = append(paces, p)
			}
		}
		if a.AvgHR != nil {
			hrs = append(hrs, *a.AvgHR)
		}
	}

	stats := Stats{
		Count:         len(acts),
		DistanceKM:    round(km, 2),
		MovingTimeMin: round(mins, 1),
		ElevGainM:     round(elev, 1),
	}
	if v, ok := mean(paces); ok {
		v = round(v, 2)
		stats.AvgPaceMinPerKM = &v
	}
	if v, ok := mean(hrs); ok {
		v = round(v, 1)
		stats.AvgHR = &v
	}
	return stats
}

func BySport(acts []Normalized) map[string]SportTotals {
	out := make(map[string]SportTotals)
	for _, a := range acts {
		k := a.Sport
		if k == "" {
			k = "Other"
		}
		t := out[k]
		t.Count++
		t.DistanceKM += a.DistanceKM
		t.MovingTimeMin += a.MovingTimeMin
		t.ElevGainM += a.ElevGainM
		out[k] = t
	}
	for k, t := range out {
		t.DistanceKM = round(t.DistanceKM, 2)
		t.MovingTimeMin = round(t.MovingTimeMin, 1)
		t.ElevGainM = round(t.ElevGainM, 1)
		out[k] = t
	}
	return out
}

// NewWeekly keeps the activities whose start date falls in the current UTC
// week. Activities with an unparseable start date are dropped.
func NewWeekly(now time.Time, raw []Raw, withContent bool) Weekly {
	window := WeekWindow(now)

	var week []Normalized
	for _, a := range raw {
		n := Normalize(a)
		started, err := ParseStartDate(n.StartDate)
		if err != nil || !window.Contains(started) {
			continue
		}
		week = append(week, n)
	}

	details := make([]Detail, 0, len(week))
	for _, n := range week {
		details = append(details, DetailOf(n))
	}

	w := Weekly{
		Window:     window,
		Summary:    Summarize(week),
		BySport:    BySport(week),
		Activities: details,
	}
	if withContent {
		w.Content = weeklyContent(w)
	}
	return w
}

func weeklyContent(w Weekly) string {
	s := w.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Week %s → %s\n", w.Window.StartUTC, w.Window.EndUTC)
	fmt.Fprintf(&b, "- Activities: %d\n", s.Count)
	fmt.Fprintf(&b, "- Distance: %s km\n", FormatFloat(s.DistanceKM))
	fmt.Fprintf(&b, "- Time: %s min\n", FormatFloat(s.MovingTimeMin))
	fmt.Fprintf(&b, "- Elev gain: %s m\n", FormatFloat(s.ElevGainM))
	fmt.Fprintf(&b, "- Avg pace: %s\n", optional(s.AvgPaceMinPerKM, " min/km"))
	fmt.Fprintf(&b, "- Avg HR: %s", optional(s.AvgHR, ""))
	return b.String()
}

func optional(v *float64, unit string) string {
	if v == nil {
		return "—"
	}
	return FormatFloat(*v) + unit
}

// ParseStartDate reads Strava's ISO-8601 start_date. Offsetless values are
// taken as UTC.
func ParseStartDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty start date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("start date %q: %w", s, err)
	}
	return t, nil
}

func mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}
