package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier defines the interface for a Telegram notifier.
type Notifier interface {
	SendMessage(text string) error
	SendMessageUser(text string, chatID int64, cfg tgbotapi.MessageConfig) error
	SendPhotoUser(png []byte, name, caption string, chatID int64) error
}

// client is an implementation of Notifier.
type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a new Telegram notifier client.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendMessage sends a message to the configured alert chat.
func (c *client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

// SendMessageUser sends text to chatID; cfg carries optional parse mode and markup.
func (c *client) SendMessageUser(text string, chatID int64, cfg tgbotapi.MessageConfig) error {
	cfg.ChatID = chatID
	cfg.Text = text
	_, err := c.bot.Send(cfg)
	return err
}

// SendPhotoUser uploads an annotated chart.
func (c *client) SendPhotoUser(png []byte, name, caption string, chatID int64) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	photo.Caption = caption
	_, err := c.bot.Send(photo)
	return err
}

type nopNotifier struct{}

// NewNopNotifier returns a Notifier that drops everything, for deployments without a bot token.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) SendMessage(string) error                                      { return nil }
func (nopNotifier) SendMessageUser(string, int64, tgbotapi.MessageConfig) error { return nil }
func (nopNotifier) SendPhotoUser([]byte, string, string, int64) error           { return nil }
