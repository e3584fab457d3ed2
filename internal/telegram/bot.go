package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if c.APIEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(c.Token, c.APIEndpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(c.Token)
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug
	log.Debugf("authorized on account %s", bot.Self.UserName)

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// GetUpdatesChannel starts long polling for updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// StopReceivingUpdates stops long polling, the updates channel is closed afterwards
func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends an HTML formatted telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.ReplyToMessageID
	msg.DisableWebPagePreview = m.DisableLinkPreview
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}
