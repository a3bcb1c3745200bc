package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/session"
	"github.com/spf13/cobra"
)

var (
	chatName        string
	chatBirthDate   string
	chatBirthHour   string
	chatRequest     string
	chatDateRange   string
	chatTags        []string
	chatReadingFile string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open a chat session with the Master",
	Long: `Open a bounded chat session with the Master about a date reading.

A session starts from a reading: pass one with --reading (a JSON file written
by 'masterchat reading -o'), or a fresh one is generated first. The Master
greets you, then you may ask up to three follow-up questions.

Examples:
  masterchat chat --name 张三 --birth-date 1990-05-20 --request 搬家
  masterchat chat --name 张三 --birth-date 1990-05-20 --request 搬家 --reading reading.json`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatName, "name", "", "user name (required)")
	chatCmd.Flags().StringVar(&chatBirthDate, "birth-date", "", "solar birth date, YYYY-MM-DD (required)")
	chatCmd.Flags().StringVar(&chatBirthHour, "birth-hour", "", "birth hour branch, e.g. \"子 (23:00-01:00)\"")
	chatCmd.Flags().StringVar(&chatRequest, "request", "", "what the dates are for, e.g. 搬家 (required)")
	chatCmd.Flags().StringVar(&chatDateRange, "range", "1m", "date range: 7d, 1m, 3m, 6m or 1y")
	chatCmd.Flags().StringSliceVarP(&chatTags, "tags", "t", nil, "extra context tags")
	chatCmd.Flags().StringVar(&chatReadingFile, "reading", "", "reading JSON file (generated if omitted)")
	_ = chatCmd.MarkFlagRequired("name")
	_ = chatCmd.MarkFlagRequired("birth-date")
	_ = chatCmd.MarkFlagRequired("request")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	theme := defaultTheme

	profile := models.UserProfile{
		Name:      chatName,
		BirthDate: chatBirthDate,
		BirthHour: chatBirthHour,
		Request:   chatRequest,
		DateRange: chatDateRange,
		Tags:      chatTags,
	}

	reading, err := loadOrGenerateReading(ctx, profile)
	if err != nil {
		return err
	}
	fmt.Println(theme.titleStyle().Render(reading.Title))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	mgr := session.NewManager(apiClient, logger)

	var sess *session.Session
	greeting, err := runConsult("请教大师中", func(ctx context.Context) (models.ChatTurn, error) {
		s, err := mgr.Open(ctx, profile, reading)
		if err != nil {
			return models.ChatTurn{}, err
		}
		sess = s
		return s.Turns()[0], nil
	})
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			return nil
		}
		return fmt.Errorf("open session: %w", err)
	}
	defer mgr.Close(sess.ID())

	fmt.Printf("%s %s\n\n", theme.masterStyle().Render("大师:"), greeting.Content)
	fmt.Println(theme.hintStyle().Render("Ask up to 3 questions. Type 'exit' to leave."))

	scanner := bufio.NewScanner(os.Stdin)
	for sess.CanSubmit() {
		fmt.Printf("%s ", theme.statusStyle().Render(fmt.Sprintf("你 (%d/%d) >", sess.Remaining(), session.DefaultQuota)))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		reply, err := runConsult("大师思索中", func(ctx context.Context) (models.ChatTurn, error) {
			return sess.Send(ctx, question)
		})
		if err != nil {
			if errors.Is(err, ErrInterrupted) {
				fmt.Println(theme.hintStyle().Render("Aborted. The question still counted."))
				continue
			}
			if errors.Is(err, session.ErrQuotaExhausted) {
				break
			}
			fmt.Println(theme.errorStyle().Render(fmt.Sprintf("✗ %v", err)))
			continue
		}

		fmt.Printf("\n%s %s\n\n", theme.masterStyle().Render("大师:"), reply.Content)
	}

	fmt.Println(theme.hintStyle().Render("本次机缘已尽。解锁无限追问的功能暂未开放。"))
	return nil
}

// loadOrGenerateReading reads the reading file when given, otherwise asks the
// server for a fresh reading first.
func loadOrGenerateReading(ctx context.Context, profile models.UserProfile) (models.Reading, error) {
	if chatReadingFile != "" {
		data, err := os.ReadFile(chatReadingFile)
		if err != nil {
			return models.Reading{}, fmt.Errorf("read reading file: %w", err)
		}
		reading, err := models.ParseReading(data)
		if err != nil {
			return models.Reading{}, fmt.Errorf("parse reading file: %w", err)
		}
		return reading, nil
	}

	fmt.Println("No reading given, generating one first...")
	reading, _, err := generateReading(ctx, profile)
	return reading, err
}
