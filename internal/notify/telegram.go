package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/pkg/config"
)

// sender is the part of tgbotapi.BotAPI used here
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends run summaries to one chat
type Telegram struct {
	bot    sender
	chatID int64
	log    zerolog.Logger
}

// NewTelegram connects the bot (getMe) and returns the notifier
func NewTelegram(cfg config.TelegramConfig, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return newTelegram(bot, cfg.ChatID, log), nil
}

func newTelegram(bot sender, chatID int64, log zerolog.Logger) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		log:    log.With().Str("component", "notify.telegram").Logger(),
	}
}

// Notify implements Notifier
func (t *Telegram) Notify(ctx context.Context, summary RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, Format(summary))
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	t.log.Debug().Int64("chat_id", t.chatID).Msg("run summary sent")
	return nil
}
