// Package telegram sends season run summaries via the Telegram Bot API.
// It formats a pipeline summary into a MarkdownV2 message and handles
// delivery with retry logic for reliability.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/racepace/internal/pipeline"
)

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendSummary sends the summary of a finished season run
func (c *Client) SendSummary(ctx context.Context, summary pipeline.Summary) error {
	msg := tgbotapi.NewMessage(c.chatID, formatSummary(summary))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatSummary formats a run summary into a Telegram message
func formatSummary(summary pipeline.Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🏁 *Season %d processed*\n\n", summary.Season))
	b.WriteString(fmt.Sprintf("🆔 Run: `%s`\n", escapeMarkdownV2(summary.RunID)))
	b.WriteString(fmt.Sprintf("✅ Processed: %d\n", summary.Count(pipeline.StatusProcessed)))
	b.WriteString(fmt.Sprintf("⏭ Skipped: %d\n", summary.Count(pipeline.StatusSkipped)))
	b.WriteString(fmt.Sprintf("❌ Failed: %d\n", summary.Count(pipeline.StatusFailed)))
	b.WriteString(fmt.Sprintf("⏱ Duration: %s\n", escapeMarkdownV2(formatDuration(summary.Duration))))

	if summary.OutputPath != "" {
		b.WriteString(fmt.Sprintf("💾 Output: `%s`\n", escapeMarkdownV2(summary.OutputPath)))
	}

	failures := summary.Failures()
	if len(failures) > 0 {
		b.WriteString("\n*Failures*\n")
		for i, f := range failures {
			b.WriteString(fmt.Sprintf("%d\\. %s \\(%s\\): %s\n",
				i+1, escapeMarkdownV2(f.Event.Name), escapeMarkdownV2(string(f.Err.Stage)),
				escapeMarkdownV2(f.Err.Err.Error())))
		}
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if hours := int(d.Hours()); hours >= 1 {
		return fmt.Sprintf("%dh%dm", hours, int(d.Minutes())%60)
	}
	if mins := int(d.Minutes()); mins >= 1 {
		return fmt.Sprintf("%dm%ds", mins, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
