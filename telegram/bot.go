// Package telegram answers Telegram messages by running one agent conversation per message.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	startReply = "👋 Hello! I can look up the current weather anywhere and search the web.\n\n" +
		"Just ask, for example \"What is the current weather in Bengaluru today?\""
	helpReply = "Available commands:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n\n" +
		"Or just ask me things like:\n" +
		"• \"Will it rain in Bengaluru today?\"\n" +
		"• \"Can you tell me about Kolkata?\"\n" +
		"• \"What are the recent news in India?\""
	failureReply = "Sorry, I couldn't process that. Please try again later."
)

// Chatter produces an answer for one user message.
type Chatter interface {
	Run(ctx context.Context, userMessage string) (string, error)
}

// Sender is the part of the Telegram API the bot replies through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot long-polls Telegram and replies to each message in turn.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	chatter Chatter
}

// New authorizes against Telegram with token.
func New(token string, chatter Chatter) (*Bot, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	zap.S().Infof("Authorized on account %s", api.Self.UserName)
	return &Bot{api: api, sender: api, chatter: chatter}, nil
}

// Run processes updates until ctx is cancelled. Messages are handled one at a
// time so conversations never overlap.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	from := ""
	if message.From != nil {
		from = message.From.UserName
	}
	zap.S().Infow("message", "from", from, "chat", message.Chat.ID, "text", message.Text)

	msg := tgbotapi.NewMessage(message.Chat.ID, b.reply(ctx, message))
	msg.ReplyToMessageID = message.MessageID

	if _, err := b.sender.Send(msg); err != nil {
		zap.S().Errorw("sending message", "error", err)
	}
}

func (b *Bot) reply(ctx context.Context, message *tgbotapi.Message) string {
	switch message.Command() {
	case "start":
		return startReply
	case "help":
		return helpReply
	case "":
		if message.Text == "" {
			return helpReply
		}
		response, err := b.chatter.Run(ctx, message.Text)
		if err != nil {
			zap.S().Errorw("agent error", "error", err)
			return failureReply
		}
		if strings.TrimSpace(response) == "" {
			zap.S().Warnw("agent returned an empty answer", "text", message.Text)
			return failureReply
		}
		return response
	default:
		return "Unknown command. Try /help"
	}
}
