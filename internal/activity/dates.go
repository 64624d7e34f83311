package activity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// ParseDate accepts the fixed layouts YYYY-MM-DD, DD/MM/YYYY and DD-MM-YYYY,
// optionally followed by HH:MM. Results are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q: supported formats are YYYY-MM-DD, DD/MM/YYYY, DD-MM-YYYY", s)
}

// DateQuery selects either one day (Date) or a range (StartDate, EndDate).
type DateQuery struct {
	Date      string
	StartDate string
	EndDate   string
}

type DateRange struct {
	After       time.Time
	Before      time.Time
	Description string
}

var (
	ErrDateAndRange   = errors.New("use either date for a single day or start_date/end_date for a range, not both")
	ErrNoDate         = errors.New("either date or start_date is required")
	ErrEndBeforeStart = errors.New("end_date must be after start_date")
)

func (q DateQuery) Resolve() (DateRange, error) {
	if q.Date != "" && (q.StartDate != "" || q.EndDate != "") {
		return DateRange{}, ErrDateAndRange
	}
	if q.Date == "" && q.StartDate == "" {
		return DateRange{}, ErrNoDate
	}

	if q.Date != "" {
		day, err := ParseDate(q.Date)
		if err != nil {
			return DateRange{}, err
		}
		return DateRange{
			After:       day,
			Before:      endOfDay(day),
			Description: "on " + day.Format(time.DateOnly),
		}, nil
	}

	start, err := ParseDate(q.StartDate)
	if err != nil {
		return DateRange{}, err
	}
	end := start
	if q.EndDate != "" {
		end, err = ParseDate(q.EndDate)
		if err != nil {
			return DateRange{}, err
		}
		if end.Before(start) {
			return DateRange{}, ErrEndBeforeStart
		}
	}

	desc := "on " + start.Format(time.DateOnly)
	if q.EndDate != "" && q.EndDate != q.StartDate {
		desc = "from " + start.Format(time.DateOnly) + " to " + end.Format(time.DateOnly)
	}
	return DateRange{After: start, Before: endOfDay(end), Description: desc}, nil
}

type DateTotals struct {
	TotalDistanceKM float64  `json:"total_distance_km"`
	TotalTimeMin    float64  `json:"total_time_min"`
	Sports          []string `json:"sports"`
}

type DateReport struct {
	DateFilter string       `json:"date_filter"`
	Count      int          `json:"count"`
	Activities []Normalized `json:"activities"`
	Summary    DateTotals   `json:"summary"`
	Content    string       `json:"content"`
}

func NewDateReport(r DateRange, raw []Raw) DateReport {
	acts := make([]Normalized, 0, len(raw))
	var km, mins float64
	var sports []string
	seen := make(map[string]bool)
	for _, a := range raw {
		n := Normalize(a)
		acts = append(acts, n)
		km += n.DistanceKM
		mins += n.MovingTimeMin
		if !seen[n.Sport] {
			seen[n.Sport] = true
			sports = append(sports, n.Sport)
		}
	}

	report := DateReport{
		DateFilter: r.Description,
		Count:      len(acts),
		Activities: acts,
		Summary: DateTotals{
			TotalDistanceKM: round(km, 2),
			TotalTimeMin:    round(mins, 1),
			Sports:          sports,
		},
	}

	if len(acts) == 0 {
		report.Content = "No activities found " + r.Description
		return report
	}

	parts := []string{strconv.Itoa(len(acts)) + " activities " + r.Description}
	if km > 0 {
		parts = append(parts, strconv.FormatFloat(km, 'f', 1, 64)+" km total")
	}
	if mins > 0 {
		parts = append(parts, strconv.FormatFloat(mins, 'f', 0, 64)+" min total")
	}
	if len(sports) <= 3 {
		parts = append(parts, "Sports: "+strings.Join(sports, ", "))
	} else {
		parts = append(parts, fmt.Sprintf("Sports: %s +%d more", strings.Join(sports[:3], ", "), len(sports)-3))
	}
	report.Content = strings.Join(parts, separator)
	return report
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
