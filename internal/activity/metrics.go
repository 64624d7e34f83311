// Package activity turns raw Strava activities into the normalized metrics and
// one-line summaries used by the tool endpoints and webhook notifications.
package activity

import (
	"math"
	"strconv"
	"strings"
)

// Raw is the subset of Strava's activity representation the relay reads.
type Raw struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	SportType          string   `json:"sport_type"`
	Type               string   `json:"type"`
	StartDate          string   `json:"start_date"`
	Distance           float64  `json:"distance"`    // meters
	MovingTime         float64  `json:"moving_time"` // seconds
	ElapsedTime        float64  `json:"elapsed_time"`
	TotalElevationGain float64  `json:"total_elevation_gain"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
}

type Normalized struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Sport         string   `json:"sport"`
	StartDate     string   `json:"start_date"`
	DistanceKM    float64  `json:"distance_km"`
	MovingTimeMin float64  `json:"moving_time_min"`
	ElevGainM     float64  `json:"elev_gain_m"`
	AvgHR         *float64 `json:"avg_hr"`
	PaceMinPerKM  string   `json:"pace_min_per_km,omitempty"` // m:ss
	AvgSpeedKMH   *float64 `json:"avg_speed_kmh,omitempty"`
	PacePer100M   string   `json:"pace_per_100m,omitempty"` // m:ss
	Summary       string   `json:"summary"`
}

type Family int

const (
	FamilyOther Family = iota
	FamilyRun
	FamilyRide
	FamilySwim
	FamilyRow
	FamilyGym
)

var families = map[string]Family{
	"Run":              FamilyRun,
	"TrailRun":         FamilyRun,
	"VirtualRun":       FamilyRun,
	"Ride":             FamilyRide,
	"MountainBikeRide": FamilyRide,
	"GravelRide":       FamilyRide,
	"VirtualRide":      FamilyRide,
	"EBikeRide":        FamilyRide,
	"Swim":             FamilySwim,
	"Rowing":           FamilyRow,
	"Canoeing":         FamilyRow,
	"Kayaking":         FamilyRow,
	"WeightTraining":   FamilyGym,
	"Elliptical":       FamilyGym,
	"StairStepper":     FamilyGym,
	"Workout":          FamilyGym,
	"HIIT":             FamilyGym,
}

func FamilyOf(sport string) Family {
	return families[sport]
}

const separator = " • "

func Normalize(a Raw) Normalized {
	sport := a.SportType
	if sport == "" {
		sport = a.Type
	}
	if sport == "" {
		sport = "Workout"
	}

	out := Normalized{
		ID:            a.ID,
		Name:          a.Name,
		Sport:         sport,
		StartDate:     a.StartDate,
		DistanceKM:    round(a.Distance/1000, 2),
		MovingTimeMin: round(a.MovingTime/60, 1),
		ElevGainM:     round(a.TotalElevationGain, 1),
		AvgHR:         a.AverageHeartrate,
	}

	hasMotion := a.Distance > 0 && a.MovingTime > 0
	km := FormatFloat(out.DistanceKM) + " km"
	minutes := FormatFloat(out.MovingTimeMin) + " min"

	switch family := FamilyOf(sport); {
	case family == FamilyRun && hasMotion:
		out.PaceMinPerKM = SecondsToMMSS(a.MovingTime / (a.Distance / 1000))
		out.Summary = strings.Join([]string{km, minutes, out.PaceMinPerKM + "/km"}, separator)
	case (family == FamilyRide || family == FamilyRow) && hasMotion:
		speed := round((a.Distance/1000)/(a.MovingTime/3600), 1)
		out.AvgSpeedKMH = &speed
		out.Summary = strings.Join([]string{km, minutes, FormatFloat(speed) + " km/h"}, separator)
	case family == FamilySwim && hasMotion:
		out.PacePer100M = SecondsToMMSS(a.MovingTime / (a.Distance / 100))
		meters := strconv.Itoa(int(a.Distance)) + " m"
		out.Summary = strings.Join([]string{meters, minutes, out.PacePer100M + "/100m"}, separator)
	default:
		out.Summary = minutes
		if a.AverageHeartrate != nil && *a.AverageHeartrate != 0 {
			out.Summary += separator + FormatFloat(round(*a.AverageHeartrate, 1)) + " bpm"
		}
	}

	return out
}

// SecondsToMMSS renders a duration in seconds as m:ss, rounding to the
// nearest second first so 59.6s becomes "1:00".
func SecondsToMMSS(sec float64) string {
	total := int(math.Round(sec))
	return strconv.Itoa(total/60) + ":" + pad2(total%60)
}

// MMSSToMinutes converts "m:ss" to decimal minutes. ok is false for anything
// else.
func MMSSToMinutes(p string) (minutes float64, ok bool) {
	m, s, found := strings.Cut(p, ":")
	if !found {
		return 0, false
	}
	mi, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	si, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return float64(mi) + float64(si)/60, true
}

// FormatFloat prints the shortest decimal form, keeping ".0" on whole numbers
// ("12.0 km", not "12 km").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func round(f float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(f*p) / p
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
