package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	// APIEndpoint overrides the Bot API url format, e.g. for a local server.
	APIEndpoint string
}

// Bot telegram interaction client
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig
}

// Message a telegram message struct
type Message struct {
	ChatID             int64
	ReplyToMessageID   int
	Text               string
	DisableLinkPreview bool
}
