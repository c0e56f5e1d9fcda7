// Package telegram implements the notify.Messenger interface on top of
// the Telegram Bot API.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"addresswatch/internal/notify"
	"addresswatch/internal/pkg/logger"
)

// botAPI is the slice of the Bot API client the messenger uses, extracted
// so tests can substitute a fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// messenger delivers notifications as Telegram messages. The user ID of a
// notification doubles as the private chat ID.
type messenger struct {
	bot botAPI
}

// Ensure messenger implements the notify.Messenger interface at compile time.
var _ notify.Messenger = (*messenger)(nil)

// NewMessenger authenticates against the Bot API with the given token.
func NewMessenger(token string) (*messenger, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info(context.Background(), "telegram bot authorized", "username", bot.Self.UserName)
	return &messenger{bot: bot}, nil
}

// Deliver implements the notify.Messenger interface. Messages are sent
// with Markdown formatting to match the notification templates.
func (m *messenger) Deliver(_ context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := m.bot.Send(msg)
	return err
}
