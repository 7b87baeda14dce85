// Package telegram gives the household a chat channel to the assistant:
// messages from the allowed user go straight to the model, URLs are
// treated as recipes to clip.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meal-planner-dashboard/internal/assistant"
	"meal-planner-dashboard/internal/clipper"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/status"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot wraps the Telegram API, the assistant, and the clipper.
type Bot struct {
	api       *tgbotapi.BotAPI
	assistant *assistant.Service
	clipper   *clipper.Clipper
	status    *status.Refresher
	allowedID int64
	log       zerolog.Logger
}

// NewBot initializes the Telegram bot in long-polling mode.
func NewBot(token string, allowedID int64, assistantSvc *assistant.Service, clip *clipper.Clipper, st *status.Refresher, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	return &Bot{
		api:       api,
		assistant: assistantSvc,
		clipper:   clip,
		status:    st,
		allowedID: allowedID,
		log:       log,
	}, nil
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if b.allowedID != 0 && update.Message.From.ID != b.allowedID {
				b.log.Warn().Int64("user_id", update.Message.From.ID).Str("username", update.Message.From.UserName).Msg("unauthorized telegram message ignored")
				continue
			}
			go b.processMessage(update.Message)
		}
	}
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if text == "/status" {
		b.handleStatusRequest(msg.Chat.ID)
		return
	}

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(msg.Chat.ID, text)
		return
	}

	b.handleAssistantRequest(msg.Chat.ID, text)
}

func (b *Bot) handleClipperRequest(chatID int64, text string) {
	// Optional trailing day name: "https://... friday"
	url, day := text, "saturday"
	if i := strings.LastIndex(text, " "); i > 0 {
		url, day = text[:i], strings.ToLower(strings.TrimSpace(text[i+1:]))
	}

	sentMsg, err := b.send(chatID, "✂️ *Clipping recipe...*")
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	recipe, err := b.clipper.ClipURL(ctx, url, day)
	var finalText string
	if err != nil {
		b.log.Error().Err(err).Str("url", url).Msg("recipe clip failed")
		finalText = fmt.Sprintf("❌ *Error clipping recipe:*\n```\n%v\n```", escapeBackticks(err))
	} else {
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*%s* is now planned for %s.", recipe.Name, day)
	}
	b.edit(chatID, sentMsg.MessageID, finalText)
}

func (b *Bot) handleAssistantRequest(chatID int64, text string) {
	sentMsg, err := b.send(chatID, "🧑‍🍳 *Thinking...*")
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reply, tools, err := b.assistant.RunSync(ctx, text)
	if err != nil {
		b.log.Error().Err(err).Msg("assistant request failed")
		b.edit(chatID, sentMsg.MessageID, fmt.Sprintf("❌ *Error:*\n```\n%v\n```", escapeBackticks(err)))
		return
	}

	if len(tools) > 0 {
		reply = fmt.Sprintf("%s\n\n_%d document update(s) saved._", reply, len(tools))
	}
	b.edit(chatID, sentMsg.MessageID, reply)
}

func (b *Bot) handleStatusRequest(chatID int64) {
	st, err := b.status.Current()
	if err != nil {
		b.send(chatID, "❌ Error fetching status.")
		return
	}
	b.send(chatID, formatStatusMarkdown(st))
}

func formatStatusMarkdown(st status.Status) string {
	var sb strings.Builder
	sb.WriteString("📊 *Kitchen Status*\n\n")
	sb.WriteString(fmt.Sprintf("Banner: *%s*\n\n", st.Banner))

	if len(st.ExpiryAlerts.Red) > 0 {
		sb.WriteString("🔴 *Use immediately*\n")
		for _, a := range st.ExpiryAlerts.Red {
			sb.WriteString(fmt.Sprintf("• %s (%s)\n", a.Item, a.BestBefore))
		}
		sb.WriteString("\n")
	}
	if len(st.ExpiryAlerts.Amber) > 0 {
		sb.WriteString("🟡 *Use soon*\n")
		for _, a := range st.ExpiryAlerts.Amber {
			sb.WriteString(fmt.Sprintf("• %s (%s)\n", a.Item, a.BestBefore))
		}
		sb.WriteString("\n")
	}
	if len(st.ExpiryAlerts.Red) == 0 && len(st.ExpiryAlerts.Amber) == 0 {
		sb.WriteString("Nothing expiring soon. 🟢\n\n")
	}

	sb.WriteString("🍽 *This week*\n")
	for _, day := range mealplan.Days {
		readiness, ok := st.Meals[day]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("• *%s*: %s\n", capitalize(day), readiness))
	}
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to send telegram message")
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error().Err(err).Msg("failed to edit telegram message")
	}
}

func escapeBackticks(err error) string {
	return strings.ReplaceAll(err.Error(), "`", "'")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
