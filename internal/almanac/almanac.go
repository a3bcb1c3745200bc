// Package almanac extracts BaZi chart data from birth dates using the
// lunar-go calendar library. The stem-branch and zodiac arithmetic lives
// entirely in that library; this package only reshapes its output.
package almanac

import (
	"fmt"
	"time"

	"github.com/6tail/lunar-go/calendar"
)

// BaZi is the four-pillar summary passed to prompt assembly.
type BaZi struct {
	Year       string // year pillar in GanZhi, e.g. 庚辰
	Month      string
	Day        string
	TimeBranch string // earthly branch of the birth hour, e.g. 子
	Animal     string // zodiac animal, e.g. 龙
	DayMaster  string // heavenly stem of the day pillar, e.g. 甲
}

// stemElements maps heavenly stems to their Wu Xing element.
var stemElements = map[string]string{
	"甲": "木", "乙": "木",
	"丙": "火", "丁": "火",
	"戊": "土", "己": "土",
	"庚": "金", "辛": "金",
	"壬": "水", "癸": "水",
}

// Default returns the safe fallback chart used when birth data is unusable.
func Default() BaZi {
	return BaZi{Year: "甲子", Month: "甲子", Day: "甲子", TimeBranch: "子", Animal: "鼠", DayMaster: "甲"}
}

// Analyze converts a solar birth date plus a Chinese hour label into a BaZi
// chart. birthHour may carry a clock-range suffix ("子 (23:00-01:00)"); only
// the leading branch character is used.
func Analyze(birthDate, birthHour string) (BaZi, error) {
	t, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return Default(), fmt.Errorf("parse birth date %q: %w", birthDate, err)
	}

	solar := calendar.NewSolarFromYmd(t.Year(), int(t.Month()), t.Day())
	lunar := solar.GetLunar()

	return BaZi{
		Year:       lunar.GetYearInGanZhi(),
		Month:      lunar.GetMonthInGanZhi(),
		Day:        lunar.GetDayInGanZhi(),
		TimeBranch: HourBranch(birthHour),
		Animal:     lunar.GetYearShengXiao(),
		DayMaster:  lunar.GetDayGan(),
	}, nil
}

// HourBranch extracts the earthly branch character from an hour label,
// defaulting to 子 when the label is empty.
func HourBranch(birthHour string) string {
	for _, r := range birthHour {
		return string(r)
	}
	return "子"
}

// DayMasterElement returns the Wu Xing element of the day-master stem, or an
// empty string for unknown stems.
func DayMasterElement(stem string) string {
	return stemElements[stem]
}

// Describe renders the day master with its element, e.g. "甲 (木)".
func (b BaZi) Describe() string {
	if el := DayMasterElement(b.DayMaster); el != "" {
		return fmt.Sprintf("%s (%s)", b.DayMaster, el)
	}
	return b.DayMaster
}
