package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UserProfile holds the birth data and request collected upstream.
// It is read-only input for prompt assembly and is never mutated here.
type UserProfile struct {
	Name      string   `json:"userName"`
	BirthDate string   `json:"birthDate"` // YYYY-MM-DD (solar)
	BirthHour string   `json:"birthHour"` // earthly branch, e.g. "子 (23:00-01:00)"
	Request   string   `json:"request"`
	DateRange string   `json:"dateRange,omitempty"` // 7d, 1m, 3m, 6m, 1y
	Tags      []string `json:"tags,omitempty"`
}

// ConsolidatedRequest joins the optional tags and the free-text request into
// the single request line used in prompts.
func (p UserProfile) ConsolidatedRequest() string {
	parts := make([]string, 0, len(p.Tags)+1)
	for _, t := range p.Tags {
		if t != "" {
			parts = append(parts, t)
		}
	}
	if p.Request != "" {
		parts = append(parts, p.Request)
	}
	return strings.Join(parts, " ")
}

// RecommendedDate is one scored auspicious date from a reading.
type RecommendedDate struct {
	Date        string   `json:"date"`    // YYYY-MM-DD
	WeekDay     string   `json:"weekDay"` // e.g. 周五
	LunarDate   string   `json:"lunarDate"`
	Reason      string   `json:"reason"`
	EnergyScore int      `json:"energyScore"`
	Tags        []string `json:"tags,omitempty"`
	Type        string   `json:"type"`     // rank label, e.g. 天赐吉日
	BestTime    string   `json:"bestTime"` // e.g. 巳时 (09:00-11:00)
	Direction   string   `json:"direction"`
	Taboo       string   `json:"taboo"` // daily clash, e.g. 冲鼠(壬子)煞北
}

// ReadingDates groups recommended dates by horizon.
type ReadingDates struct {
	Immediate []RecommendedDate `json:"immediate"`
	ShortTerm []RecommendedDate `json:"shortTerm"`
	LongTerm  []RecommendedDate `json:"longTerm"`
}

// Reading is the structured result of a date-selection analysis. Like the
// profile it is read-only input for the chat session.
type Reading struct {
	Title   string       `json:"title"`
	Summary string       `json:"summary"`
	Dates   ReadingDates `json:"dates"`
	Advice  string       `json:"advice"`
}

// AllDates returns the recommended dates in rank order across all horizons.
func (r Reading) AllDates() []RecommendedDate {
	out := make([]RecommendedDate, 0,
		len(r.Dates.Immediate)+len(r.Dates.ShortTerm)+len(r.Dates.LongTerm))
	out = append(out, r.Dates.Immediate...)
	out = append(out, r.Dates.ShortTerm...)
	out = append(out, r.Dates.LongTerm...)
	return out
}

// DateCount returns the total number of recommended dates.
func (r Reading) DateCount() int {
	return len(r.Dates.Immediate) + len(r.Dates.ShortTerm) + len(r.Dates.LongTerm)
}

// rawReading is the flat shape the model returns before reshaping.
type rawReading struct {
	Title   string            `json:"title"`
	Summary string            `json:"summary"`
	Dates   []RecommendedDate `json:"dates"`
	Advice  string            `json:"advice"`
}

// ParseReading decodes the model's JSON output and reshapes the flat,
// score-ranked date list into horizons: first date immediate, next two short
// term, remaining two long term. Missing per-date fields get safe defaults.
func ParseReading(data []byte) (Reading, error) {
	var raw rawReading
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reading{}, fmt.Errorf("parse reading: %w", err)
	}

	dates := make([]RecommendedDate, len(raw.Dates))
	for i, d := range raw.Dates {
		if d.EnergyScore == 0 {
			d.EnergyScore = 70
		}
		if d.Type == "" {
			d.Type = "吉日"
		}
		if d.BestTime == "" {
			d.BestTime = "吉时待定"
		}
		if d.Direction == "" {
			d.Direction = "正南"
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		dates[i] = d
	}

	reading := Reading{
		Title:   raw.Title,
		Summary: raw.Summary,
		Advice:  raw.Advice,
		Dates: ReadingDates{
			Immediate: sliceRange(dates, 0, 1),
			ShortTerm: sliceRange(dates, 1, 3),
			LongTerm:  sliceRange(dates, 3, 5),
		},
	}
	return reading, nil
}

func sliceRange(dates []RecommendedDate, lo, hi int) []RecommendedDate {
	if lo >= len(dates) {
		return []RecommendedDate{}
	}
	if hi > len(dates) {
		hi = len(dates)
	}
	return dates[lo:hi]
}
