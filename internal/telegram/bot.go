// Package telegram exposes the classifier as a Telegram bot: send a photo,
// get the result card back.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/greenlens-app/greenlens/internal/analysis"
	"github.com/greenlens-app/greenlens/internal/export"
	"github.com/greenlens-app/greenlens/internal/models"
)

const (
	msgStart = `Hi! I check whether a cabbage or lettuce looks organic.

Send me a photo of the vegetable and I will reply with the analysis.

Commands:
/help - how to use the bot
/status - prediction service status`

	msgHelp = `How to use the bot:

1. Send a clear photo of a single cabbage or lettuce
2. Wait a moment while it is analyzed
3. You get back a result card with the classification and confidence

Tips:
- Use good lighting
- Keep the background plain`

	msgSendPhoto       = "Please send a photo of a cabbage or lettuce."
	msgUnknownCommand  = "Unknown command. Use /help for instructions."
	msgProcessing      = "Analyzing image..."
	msgBusy            = "Another image is being analyzed. Please try again in a moment."
	msgSlowDown        = "Too many photos. Please wait a few seconds before sending another."
	msgProcessingError = "Could not process the image. Please try another photo."
)

// botAPI is the part of tgbotapi.BotAPI the bot uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api      botAPI
	token    string
	service  *analysis.Service
	exporter *export.Exporter
	client   *http.Client

	// PhotoRate and PhotoBurst bound how often one chat may submit photos
	PhotoRate  rate.Limit
	PhotoBurst int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewBot(token string, service *analysis.Service, exporter *export.Exporter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	slog.Info("Authorized on Telegram", "account", api.Self.UserName)
	return newBot(api, token, service, exporter), nil
}

func newBot(api botAPI, token string, service *analysis.Service, exporter *export.Exporter) *Bot {
	return &Bot{
		api:        api,
		token:      token,
		service:    service,
		exporter:   exporter,
		client:     &http.Client{Timeout: 30 * time.Second},
		PhotoRate:  rate.Every(10 * time.Second),
		PhotoBurst: 3,
		limiters:   make(map[int64]*rate.Limiter),
	}
}

// Run processes updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping Telegram bot")
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

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)
	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)
	case "status":
		b.sendMessage(msg.Chat.ID, b.service.Probe(ctx).Message)
	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.limiter(chatID).Allow() {
		b.sendMessage(chatID, msgSlowDown)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	// Largest size is last
	photo := msg.Photo[len(msg.Photo)-1]
	data, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		slog.Error("Failed to download photo", "chat_id", chatID, "err", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	result, err := b.service.Analyze(ctx, models.Payload{Data: data})
	switch {
	case errors.Is(err, analysis.ErrBusy):
		b.sendMessage(chatID, msgBusy)
		return
	case err != nil:
		slog.Error("Failed to analyze photo", "chat_id", chatID, "err", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	if result.Notice != "" {
		b.sendMessage(chatID, result.Notice)
	}

	caption := Caption(result.Model)
	card, err := b.exporter.ExportModel(result.Model, export.FormatPNG)
	if err != nil {
		slog.Error("Failed to render result card", "chat_id", chatID, "err", err)
		b.sendMessage(chatID, caption)
		return
	}

	photoMsg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: card.Filename, Bytes: card.Data})
	photoMsg.Caption = caption
	if _, err := b.api.Send(photoMsg); err != nil {
		slog.Error("Failed to send result card", "chat_id", chatID, "err", err)
	}
}

// Caption is the text sent with the result card
func Caption(m models.DisplayModel) string {
	mode := "model"
	if m.Source == models.SourceDemo {
		mode = "demo mode"
	}
	return fmt.Sprintf("%s: %s (%.1f%% confidence)\nOrganic %.1f%% / Inorganic %.1f%%\n\n%s\n\nScored by %s",
		m.Subject, m.Label(), m.Classification.Confidence,
		m.Scores.Organic, m.Scores.Inorganic, m.Comment, mode)
}

func (b *Bot) limiter(chatID int64) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.limiters[chatID]
	if !ok {
		l = rate.NewLimiter(b.PhotoRate, b.PhotoBurst)
		b.limiters[chatID] = l
	}
	return l
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.token), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "err", err)
	}
}
