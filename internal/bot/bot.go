package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/pepelbot/internal/catalog"
	"github.com/example/pepelbot/internal/database"
	"github.com/example/pepelbot/internal/excel"
	"github.com/example/pepelbot/internal/registry"
	"github.com/example/pepelbot/internal/report"
	"github.com/example/pepelbot/internal/scheduler"
	"github.com/example/pepelbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	unrecognizedText = "Не понимаю тебя, смертный. Введи число от 0 до 5."
	storageFailText  = "Пепел попал в шестерни. Попробуй ещё раз, смертный."
	noPersonalData   = "У тебя пока нет данных, смертный."
	noTeamData       = "Нет данных по команде. Все живы?"
	adminOnlyText    = "Команда доступна только администраторам."
	emptyExportText  = "Журнал пуст, экспортировать нечего."
	unknownCommand   = "Не знаю такой команды. Попробуй /start, /report или /team_report."
)

// responseStore is the subset of the response repository the handlers need
type responseStore interface {
	Create(ctx context.Context, resp *models.Response) error
	RecentByUser(ctx context.Context, userID int64, limit int) ([]models.Response, error)
	CountsByLevel(ctx context.Context) (map[int]int, error)
	All(ctx context.Context) ([]models.Response, error)
}

// sender is the piece of the Telegram API the handlers use
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// broadcaster triggers a manual broadcast cycle
type broadcaster interface {
	RunBroadcast() (sent, failed int)
}

// Bot represents the Telegram bot application
type Bot struct {
	api              sender
	token            string
	responses        responseStore
	registry         *registry.Registry
	scheduler        *scheduler.Scheduler
	schedulerEnabled bool
	broadcaster      broadcaster
	config           *BotConfig
	adminUserIDs     map[int64]bool
}

// New creates a new bot instance
func New(reg *registry.Registry) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	bot := &Bot{
		token:            token,
		responses:        database.NewResponseRepository(),
		registry:         reg,
		schedulerEnabled: os.Getenv("ENABLE_SCHEDULER") != "false",
		config:           DefaultConfig(),
		adminUserIDs:     make(map[int64]bool),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminUserIDs[id] = true
		}
	}

	return bot, nil
}

// Start connects to Telegram, starts the broadcast scheduler and handles
// updates until ctx is cancelled. Each update runs in its own goroutine so a
// slow store write or send for one user never delays replies to others.
func (b *Bot) Start(ctx context.Context) error {
	// Bounded HTTP client: a hung recipient costs at most SendTimeout
	client := &http.Client{Timeout: b.config.SendTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(b.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = api
	log.Printf("Authorized on account %s", api.Self.UserName)

	if b.schedulerEnabled {
		b.startScheduler()
		defer b.stopScheduler()
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// startScheduler wires the weekly check-in broadcast. A scheduler failure
// degrades broadcasting only; message handling keeps working.
func (b *Bot) startScheduler() {
	b.scheduler = scheduler.New(b.registry, b, b.config.BroadcastCron)
	if err := b.scheduler.Start(); err != nil {
		log.Printf("Failed to start broadcast scheduler: %v", err)
		b.scheduler = nil
		return
	}
	b.broadcaster = b.scheduler
	log.Printf("Broadcast scheduler started (%s)", b.config.BroadcastCron)
}

func (b *Bot) stopScheduler() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate handles one incoming update from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	message := update.Message
	chatID := message.Chat.ID

	// Any contact makes the sender a broadcast recipient
	if err := b.registry.Add(ctx, chatID); err != nil {
		log.Printf("Error registering user %d: %v", chatID, err)
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(chatID)
		case "report":
			b.handleReport(ctx, chatID)
		case "team_report":
			b.handleTeamReport(ctx, chatID)
		case "export":
			if b.isAdmin(message.From.ID) {
				b.handleExport(ctx, chatID)
			} else {
				b.send(tgbotapi.NewMessage(chatID, adminOnlyText))
			}
		case "broadcast":
			if b.isAdmin(message.From.ID) {
				b.handleManualBroadcast(chatID)
			} else {
				b.send(tgbotapi.NewMessage(chatID, adminOnlyText))
			}
		default:
			b.send(tgbotapi.NewMessage(chatID, unknownCommand))
		}
		return
	}

	b.handleLevelMessage(ctx, message)
}

// handleStart sends the instructions and the level picker
func (b *Bot) handleStart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, catalog.Greeting())
	msg.ReplyMarkup = levelKeyboard()
	b.send(msg)
}

// handleLevelMessage records a reported level or rejects unrecognized input.
// Invalid input never touches the store.
func (b *Bot) handleLevelMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	entry, ok := catalog.Lookup(message.Text)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, unrecognizedText))
		return
	}

	resp := &models.Response{
		UserID:    chatID,
		Username:  senderName(message),
		Level:     entry.Level,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := b.responses.Create(ctx, resp); err != nil {
		log.Printf("Error recording level for user %d: %v", chatID, err)
		b.send(tgbotapi.NewMessage(chatID, storageFailText))
		return
	}

	b.send(tgbotapi.NewMessage(chatID, entry.Response))
}

// handleReport sends the user's recent history
func (b *Bot) handleReport(ctx context.Context, chatID int64) {
	rows, err := b.responses.RecentByUser(ctx, chatID, b.config.HistoryLimit)
	if err != nil {
		log.Printf("Error getting history for user %d: %v", chatID, err)
		b.send(tgbotapi.NewMessage(chatID, storageFailText))
		return
	}
	if len(rows) == 0 {
		b.send(tgbotapi.NewMessage(chatID, noPersonalData))
		return
	}
	b.send(tgbotapi.NewMessage(chatID, report.Personal(rows)))
}

// handleTeamReport sends the team-wide level distribution
func (b *Bot) handleTeamReport(ctx context.Context, chatID int64) {
	counts, err := b.responses.CountsByLevel(ctx)
	if err != nil {
		log.Printf("Error getting team counts: %v", err)
		b.send(tgbotapi.NewMessage(chatID, storageFailText))
		return
	}
	if len(counts) == 0 {
		b.send(tgbotapi.NewMessage(chatID, noTeamData))
		return
	}
	b.send(tgbotapi.NewMessage(chatID, report.Team(counts)))
}

// handleExport sends the whole response log as an xlsx document
func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	rows, err := b.responses.All(ctx)
	if err != nil {
		log.Printf("Error exporting responses: %v", err)
		b.send(tgbotapi.NewMessage(chatID, storageFailText))
		return
	}
	if len(rows) == 0 {
		b.send(tgbotapi.NewMessage(chatID, emptyExportText))
		return
	}

	buf, err := excel.BuildResponsesWorkbook(rows)
	if err != nil {
		log.Printf("Error building export workbook: %v", err)
		b.send(tgbotapi.NewMessage(chatID, storageFailText))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "responses.xlsx",
		Bytes: buf.Bytes(),
	})
	b.send(doc)
}

// handleManualBroadcast runs one broadcast cycle on demand
func (b *Bot) handleManualBroadcast(chatID int64) {
	if b.broadcaster == nil {
		b.send(tgbotapi.NewMessage(chatID, "Рассылка отключена."))
		return
	}
	sent, failed := b.broadcaster.RunBroadcast()
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Рассылка завершена: %d отправлено, %d не дошло.", sent, failed)))
}

// SendCheckIn implements the scheduler.Notifier interface: it delivers the
// weekly check-in prompt to one recipient.
func (b *Bot) SendCheckIn(userID int64) error {
	msg := tgbotapi.NewMessage(userID, catalog.Prompt())
	msg.ReplyMarkup = levelKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// send delivers a message and logs delivery failures
func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// levelKeyboard builds the digit reply keyboard from the catalog
func levelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, row := range catalog.KeyboardRows() {
		var buttons []tgbotapi.KeyboardButton
		for _, key := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(key))
		}
		rows = append(rows, buttons)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}

// senderName returns the display name to denormalize into the response row
func senderName(message *tgbotapi.Message) string {
	if message.From != nil && message.From.UserName != "" {
		return message.From.UserName
	}
	return models.DefaultUsername
}
