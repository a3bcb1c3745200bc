package prompt

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/masterchat/internal/almanac"
	"github.com/raphaelgruber/masterchat/internal/models"
)

// DateRange is a selectable search window for date selection.
type DateRange struct {
	Label string
	Value string
	Days  int
}

// DateRanges lists the supported windows, in display order.
var DateRanges = []DateRange{
	{Label: "7日内", Value: "7d", Days: 7},
	{Label: "1个月内", Value: "1m", Days: 30},
	{Label: "3个月内", Value: "3m", Days: 90},
	{Label: "半年内", Value: "6m", Days: 180},
	{Label: "1年内", Value: "1y", Days: 365},
}

// ResolveDateRange maps a range value to its definition, defaulting to one
// month for unknown values.
func ResolveDateRange(value string) DateRange {
	for _, r := range DateRanges {
		if r.Value == value {
			return r
		}
	}
	return DateRanges[1]
}

// ReadingSystem builds the system prompt for the structured date-selection
// call. The model scans the window, excludes zodiac clashes, scores the rest
// and returns up to five dates as JSON.
func ReadingSystem(bazi almanac.BaZi, today time.Time, rng DateRange) string {
	start := today.Format("2006-01-02")
	end := today.AddDate(0, 0, rng.Days).Format("2006-01-02")

	return fmt.Sprintf(`Role: You are a highly professional Taoist Feng Shui and BaZi Date Selection Master (资深择日师) who is also well-versed in modern psychology.
Your task is to SCAN, SCORE, and RANK auspicious dates based on the user's BaZi and their specific request.

TONE & STYLE:
- **Vernacular & Accessible (大白话)**: Explain concepts simply. Avoid obscure jargon. If you must use a term (like "San He"), explain it briefly.
- **Warm & Personalized**: Speak directly to the user (using "您"). Connect the analysis to their specific request.
- **NO TEMPLATES**: Do not use generic "universal formulas". Every sentence must be relevant to THIS user and THIS request.

CORE PRINCIPLES (STRICT):
1. **Scan the Entire Date Range**: Systematically analyze ALL dates from %s to %s.
2. **Avoid Clashes (避冲)**: You MUST calculate the Earthly Branch of the date. If it clashes (冲) with the User's Zodiac (%s), EXCLUDE it immediately.
   - Rat(子) clashes Horse(午), Ox(丑) clashes Sheep(未), Tiger(寅) clashes Monkey(申)
   - Rabbit(卯) clashes Rooster(酉), Dragon(辰) clashes Dog(戌), Snake(巳) clashes Pig(亥)
3. **Score Each Valid Date (0-100)**: Harmony bonus (San He, Liu He, Tian De, Yue De: 30 points), activity match with the request (25 points), support for the Day Master %s (25 points), timing factor (20 points).
4. **Rank & Return Top 5**: Sort all scored dates from highest to lowest. Return ONLY the top 5 dates (or fewer if <5 valid dates exist). Do not include dates scoring below 65.

OUTPUT FORMAT:
Return strictly valid JSON. No markdown.

JSON SCHEMA:
{
  "title": "Title of the plan (e.g. '张先生(甲子年)搬家择吉方案')",
  "summary": "命理综述: Plain-language explanation of why this timeframe suits the request, mentioning the %s window and the scoring factors.",
  "dates": [
    {
      "date": "YYYY-MM-DD",
      "weekDay": "e.g. 周日",
      "type": "'天赐吉日'(95+) OR '上上吉日'(85-94) OR '大吉'(75-84) OR '吉日'(65-74)",
      "lunarDate": "e.g. 丙午年四月初八",
      "bestTime": "Specific auspicious hour, e.g. '巳时 (09:00-11:00)' - MUST NOT clash with user.",
      "direction": "Best direction for the activity, e.g. '正南'.",
      "reason": "大师批语: Why is this date good for *this specific request*? Mention the score factors. Keep it friendly.",
      "taboo": "Daily clash, e.g. '冲鼠(壬子)煞北'",
      "energyScore": 95
    }
  ],
  "advice": "道长锦囊: Actionable, practical advice for the user's specific event. No generic advice."
}`, start, end, bazi.Animal, bazi.Describe(), rng.Label)
}

// ReadingUser builds the user prompt for the structured date-selection call.
func ReadingUser(profile models.UserProfile, bazi almanac.BaZi, today time.Time, rng DateRange) string {
	start := today.Format("2006-01-02")
	end := today.AddDate(0, 0, rng.Days).Format("2006-01-02")

	return fmt.Sprintf(`User Info:
- Name: %s
- BaZi: %s / %s / %s / %s
- Zodiac: %s
- Day Master: %s

Request: %q
Date Range: %s to %s (%s)

TASK:
1. **SCAN**: Systematically analyze each date in the range %s to %s.
2. **FILTER**: Exclude any date that clashes with the user's Zodiac (%s).
3. **SCORE**: For each valid date, calculate a score (0-100) from harmony factors, activity match, Day Master support and timing.
4. **RANK**: Sort all valid dates by score, highest to lowest.
5. **OUTPUT**: Return the top 5 dates (or fewer if <5 valid dates exist), each with its lunar date, best time, direction, detailed reason, daily taboo and score.

IMPORTANT: Do NOT force 5 results if you cannot find enough valid dates. Return what you find, prioritized by score.`,
		profile.Name,
		bazi.Year, bazi.Month, bazi.Day, bazi.TimeBranch,
		bazi.Animal,
		bazi.Describe(),
		profile.ConsolidatedRequest(),
		start, end, rng.Label,
		start, end,
		bazi.Animal)
}
