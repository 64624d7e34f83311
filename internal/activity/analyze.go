package activity

import "strings"

// Detail is the machine-friendly view of one activity, with paces as decimal
// minutes instead of m:ss strings.
type Detail struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Sport          string   `json:"sport"`
	StartDateUTC   string   `json:"start_date_utc"`
	DistanceKM     float64  `json:"distance_km"`
	MovingTimeMin  float64  `json:"moving_time_min"`
	ElevGainM      float64  `json:"elev_gain_m"`
	AvgHR          *float64 `json:"avg_hr"`
	PaceMinPerKM   *float64 `json:"pace_min_per_km"`
	AvgSpeedKMH    *float64 `json:"avg_speed_kmh"`
	PacePer100MMin *float64 `json:"pace_per_100m_min"`
}

type Analysis struct {
	ActivityID int64  `json:"activity_id"`
	Activity   Detail `json:"activity"`
	Content    string `json:"content"`
	Prompt     string `json:"poke_prompt"`
}

const (
	uploadPrompt = "user just uploaded a new activity to strava. respond in casual poke style - brief and encouraging about their workout. be supportive but not overly formal. highlight something interesting about the performance."
	recentPrompt = "user asked for recent activities. respond in casual poke style - brief and friendly. mention the activities naturally, maybe highlight something interesting. keep it conversational."
)

// Analyze normalizes a and builds the one-line notification text:
// "<name> • <sport> • <km> km • <min> min • [pace/speed] • [hr bpm]".
func Analyze(a Raw) Analysis {
	n := Normalize(a)
	return Analysis{
		ActivityID: n.ID,
		Activity:   DetailOf(n),
		Content:    Content(n),
		Prompt:     uploadPrompt,
	}
}

func Content(n Normalized) string {
	name := n.Name
	if name == "" {
		name = "Activity"
	}

	parts := []string{
		name + separator + n.Sport,
		FormatFloat(n.DistanceKM) + " km",
		FormatFloat(n.MovingTimeMin) + " min",
	}
	if n.PaceMinPerKM != "" {
		parts = append(parts, n.PaceMinPerKM+"/km")
	}
	if n.AvgSpeedKMH != nil {
		parts = append(parts, FormatFloat(*n.AvgSpeedKMH)+" km/h")
	}
	if n.PacePer100M != "" {
		parts = append(parts, n.PacePer100M+"/100m")
	}
	if n.AvgHR != nil {
		parts = append(parts, FormatFloat(round(*n.AvgHR, 1))+" bpm")
	}
	return strings.Join(parts, separator)
}

func DetailOf(n Normalized) Detail {
	return Detail{
		ID:             n.ID,
		Name:           n.Name,
		Sport:          n.Sport,
		StartDateUTC:   n.StartDate,
		DistanceKM:     n.DistanceKM,
		MovingTimeMin:  n.MovingTimeMin,
		ElevGainM:      n.ElevGainM,
		AvgHR:          n.AvgHR,
		PaceMinPerKM:   decimalPace(n.PaceMinPerKM),
		AvgSpeedKMH:    n.AvgSpeedKMH,
		PacePer100MMin: decimalPace(n.PacePer100M),
	}
}

type Recent struct {
	Activities []Normalized `json:"activities"`
	Count      int          `json:"count"`
	Prompt     string       `json:"poke_prompt"`
}

func NewRecent(raw []Raw) Recent {
	acts := make([]Normalized, 0, len(raw))
	for _, a := range raw {
		acts = append(acts, Normalize(a))
	}
	return Recent{Activities: acts, Count: len(acts), Prompt: recentPrompt}
}

func decimalPace(p string) *float64 {
	if v, ok := MMSSToMinutes(p); ok {
		return &v
	}
	return nil
}
