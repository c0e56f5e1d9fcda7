package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addresswatch/internal/pkg/logger"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error")) // Use error level to reduce test output
}

type botFake struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *botFake) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestMessenger_Deliver(t *testing.T) {
	t.Run("sends a markdown message to the user's chat", func(t *testing.T) {
		bot := &botFake{}
		m := &messenger{bot: bot}

		require.NoError(t, m.Deliver(t.Context(), 42, "*hello*"))

		require.Len(t, bot.sent, 1)
		msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, "*hello*", msg.Text)
		assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	})

	t.Run("surfaces send failures", func(t *testing.T) {
		m := &messenger{bot: &botFake{err: errors.New("blocked by user")}}

		err := m.Deliver(t.Context(), 42, "hello")

		assert.ErrorContains(t, err, "blocked by user")
	})
}
