package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"charm.land/bubbles/v2/progress"
	"github.com/raphaelgruber/masterchat/internal/almanac"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/prompt"
	"github.com/spf13/cobra"
)

var (
	readingName       string
	readingBirthDate  string
	readingBirthHour  string
	readingRequest    string
	readingDateRange  string
	readingTags       []string
	readingOutputFile string
)

var readingCmd = &cobra.Command{
	Use:   "reading",
	Short: "Generate an auspicious-date reading",
	Long: `Generate a structured auspicious-date reading from a birth profile.

The birth date and hour are converted to the Four Pillars, which anchor the
reading. Dates are grouped into immediate, short-term and long-term picks.

Examples:
  masterchat reading --name 张三 --birth-date 1990-05-20 --request 搬家
  masterchat reading --name 张三 --birth-date 1990-05-20 --birth-hour "辰 (07:00-09:00)" --request 开业 --range 3m
  masterchat reading --name 张三 --birth-date 1990-05-20 --request 搬家 -o reading.json`,
	RunE: runReading,
}

func init() {
	readingCmd.Flags().StringVar(&readingName, "name", "", "user name (required)")
	readingCmd.Flags().StringVar(&readingBirthDate, "birth-date", "", "solar birth date, YYYY-MM-DD (required)")
	readingCmd.Flags().StringVar(&readingBirthHour, "birth-hour", "", "birth hour branch, e.g. \"子 (23:00-01:00)\"")
	readingCmd.Flags().StringVar(&readingRequest, "request", "", "what the dates are for, e.g. 搬家 (required)")
	readingCmd.Flags().StringVar(&readingDateRange, "range", "1m", "date range: 7d, 1m, 3m, 6m or 1y")
	readingCmd.Flags().StringSliceVarP(&readingTags, "tags", "t", nil, "extra context tags")
	readingCmd.Flags().StringVarP(&readingOutputFile, "output", "o", "", "write the raw reading JSON to file")
	_ = readingCmd.MarkFlagRequired("name")
	_ = readingCmd.MarkFlagRequired("birth-date")
	_ = readingCmd.MarkFlagRequired("request")
}

func runReading(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	profile := models.UserProfile{
		Name:      readingName,
		BirthDate: readingBirthDate,
		BirthHour: readingBirthHour,
		Request:   readingRequest,
		DateRange: readingDateRange,
		Tags:      readingTags,
	}

	reading, raw, err := generateReading(ctx, profile)
	if err != nil {
		return err
	}

	if readingOutputFile != "" {
		if err := os.WriteFile(readingOutputFile, []byte(raw), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Reading written to %s\n", readingOutputFile)
	}

	printReading(reading)
	return nil
}

// generateReading builds the prompts locally and asks the server for the
// structured reading. Returns the parsed reading and the raw JSON payload.
func generateReading(ctx context.Context, profile models.UserProfile) (models.Reading, string, error) {
	bazi, err := almanac.Analyze(profile.BirthDate, profile.BirthHour)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: %v, using fallback pillars\n", err)
		}
		bazi = almanac.Default()
	}

	today := time.Now()
	rng := prompt.ResolveDateRange(profile.DateRange)

	raw, err := apiClient.GenerateReading(ctx,
		prompt.ReadingSystem(bazi, today, rng),
		prompt.ReadingUser(profile, bazi, today, rng))
	if err != nil {
		return models.Reading{}, "", fmt.Errorf("generate reading: %w", err)
	}

	reading, err := models.ParseReading([]byte(raw))
	if err != nil {
		return models.Reading{}, "", fmt.Errorf("parse reading: %w", err)
	}
	return reading, raw, nil
}

func printReading(r models.Reading) {
	theme := defaultTheme

	fmt.Println()
	fmt.Println(theme.titleStyle().Render(r.Title))
	if r.Summary != "" {
		fmt.Println(r.Summary)
	}
	fmt.Println()

	printDateGroup(theme, "即期吉日", r.Dates.Immediate)
	printDateGroup(theme, "短期吉日", r.Dates.ShortTerm)
	printDateGroup(theme, "长期吉日", r.Dates.LongTerm)

	if r.Advice != "" {
		fmt.Println(theme.hintStyle().Render(r.Advice))
		fmt.Println()
	}
}

func printDateGroup(theme Theme, label string, dates []models.RecommendedDate) {
	if len(dates) == 0 {
		return
	}

	// Energy score bar
	bar := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(20),
	)

	fmt.Println(theme.statusStyle().Render(label))
	for _, d := range dates {
		fmt.Printf("  %s %s  %s  %s\n", d.Date, d.WeekDay, d.Type, d.BestTime)
		fmt.Printf("    %s %d分\n", bar.ViewAs(float64(d.EnergyScore)/100), d.EnergyScore)
		if d.Reason != "" {
			fmt.Printf("    %s\n", d.Reason)
		}
	}
	fmt.Println()
}
