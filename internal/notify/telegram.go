// Package notify delivers deficit alerts over Telegram.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fintrack/internal/storage"
)

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// NotifyDeficit sends one message for a month that closed negative.
func (n *TelegramNotifier) NotifyDeficit(ctx context.Context, s storage.ReportSnapshot) error {
	text := fmt.Sprintf(
		"Deficit alert for %04d-%02d: expenses %s exceed income %s by %s.",
		s.Year, s.Month,
		s.Expense.StringFixed(2),
		s.Income.StringFixed(2),
		s.Balance.Abs().StringFixed(2))

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	slog.InfoContext(ctx, "Deficit alert sent",
		"owner", s.OwnerID, "year", s.Year, "month", s.Month)
	return nil
}
