package telegram

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"crypto-daddy-bot/internal/dispatcher"
)

// DefaultHandleTimeout bounds the handling of a single message.
const DefaultHandleTimeout = 2 * time.Minute

type Sender interface {
	SendMessage(m Message) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg dispatcher.Message) (dispatcher.Result, bool)
}

type Observer interface {
	ObserveMessage(chatID int64, chatName string)
	ObserveCommand()
}

// Handler feeds incoming messages to the dispatcher and sends the replies.
type Handler struct {
	sender     Sender
	dispatcher Dispatcher
	observer   Observer
	Timeout    time.Duration

	wg sync.WaitGroup
}

func NewHandler(sender Sender, d Dispatcher, observer Observer) *Handler {
	return &Handler{
		sender:     sender,
		dispatcher: d,
		observer:   observer,
		Timeout:    DefaultHandleTimeout,
	}
}

// Serve handles updates until ctx is cancelled or the channel is closed,
// then waits for the messages still being handled.
func (h *Handler) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer h.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Debug("stopped reading updates")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				log.Debug("received non-message or non-text update")
				continue
			}

			h.wg.Add(1)
			go h.handle(ctx, update.Message)
		}
	}
}

func (h *Handler) handle(ctx context.Context, m *tgbotapi.Message) {
	defer h.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("recovered from panic: %v\nstack trace: %s", r, stackTrace)
		}
	}()

	// a message being handled is finished even when shutdown begins
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.Timeout)
	defer cancel()

	msg := dispatcher.Message{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		msg.From = m.From.UserName
	}

	if h.observer != nil {
		h.observer.ObserveMessage(m.Chat.ID, m.Chat.Title)
	}

	res, ok := h.dispatcher.Dispatch(ctx, msg)
	if !ok {
		return
	}

	for i, reply := range res.Replies {
		if reply.Delay > 0 {
			time.Sleep(reply.Delay)
		}

		out := Message{
			ChatID:             m.Chat.ID,
			Text:               reply.Text,
			DisableLinkPreview: reply.DisableLinkPreview,
		}
		if i == 0 {
			out.ReplyToMessageID = m.MessageID
		}
		if err := h.sender.SendMessage(out); err != nil {
			log.Errorf("failed to send message: %v", err)
			return
		}
	}

	if h.observer != nil {
		h.observer.ObserveCommand()
	}
}
