package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mathly/internal/app"
	"mathly/internal/clipper"
	"mathly/internal/config"
	"mathly/internal/graph"
	"mathly/internal/health"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/solution"
	"mathly/internal/solver"
)

const (
	// pendingTTL bounds how long a bare command waits for its argument.
	pendingTTL = 10 * time.Minute

	maxPhotoBytes = 10 << 20
	historySize   = 5
	graphPreview  = 5
)

// API is the subset of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Service is the application surface the bot drives. *app.App satisfies it.
type Service interface {
	SolveEquation(ctx context.Context, expression string, source solution.Source) (solution.Solution, error)
	SolveWordProblem(ctx context.Context, problem string) (solution.WordProblem, error)
	SolveImage(ctx context.Context, image []byte, mimeType string) (solution.Solution, error)
	SolveURL(ctx context.Context, url string) (solution.WordProblem, error)
	History(ctx context.Context, limit int) ([]solution.Solution, error)
	AnalyzeCalories(ctx context.Context, description string) (nutrition.CaloriesAnalysis, error)
	RecordBMI(ctx context.Context, m health.Measurement) (health.BMIRecord, error)
	CreateGraph(ctx context.Context, expression string, xMin, xMax float64) (graph.Graph, error)
	GraphPoints(ctx context.Context, id string, n int) (graph.Graph, []graph.Point, error)
	Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
	SysHealth() metrics.SysHealth
}

// SessionStore keeps the command a chat is waiting to complete.
type SessionStore interface {
	Begin(ctx context.Context, chatID, userID int64, command string, ttl time.Duration) error
	Active(ctx context.Context, chatID int64) (*Session, error)
	End(ctx context.Context, chatID int64) error
}

// Bot wraps the Telegram API and the Mathly application.
type Bot struct {
	api      API
	svc      Service
	sessions SessionStore
	cfg      config.TelegramConfig
	http     *http.Client
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewBotAPI authorizes the token and, when a webhook URL is configured,
// registers it with Telegram.
func NewBotAPI(cfg config.TelegramConfig, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	if cfg.WebhookURL == "" {
		return api, nil
	}
	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook %s: %w", cfg.WebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.WebhookURL, err)
	}
	logger.Info("telegram webhook set", zap.String("response", resp.Description))
	return api, nil
}

// New creates a Bot. sessions may be nil, in which case bare commands ask
// the user to repeat them with an argument.
func New(api API, svc Service, sessions SessionStore, cfg config.TelegramConfig, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:      api,
		svc:      svc,
		sessions: sessions,
		cfg:      cfg,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// WebhookHandler returns the handler Telegram posts updates to. Messages are
// processed in the background so the webhook answers immediately.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			b.logger.Warn("error parsing update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		msg := b.acceptedMessage(update)
		if msg == nil {
			return
		}
		ctx := context.WithoutCancel(r.Context())
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.HandleMessage(ctx, msg)
		}()
	})
}

// Run long-polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if msg := b.acceptedMessage(&update); msg != nil {
				b.HandleMessage(ctx, msg)
			}
		}
	}
}

// Wait blocks until messages accepted by the webhook have been handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) acceptedMessage(update *tgbotapi.Update) *tgbotapi.Message {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return nil
	}
	if !b.allowed(update.Message.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", update.Message.From.ID),
			zap.String("username", update.Message.From.UserName))
		return nil
	}
	return update.Message
}

// allowed reports whether userID may use the bot. An empty allow-list
// admits everyone.
func (b *Bot) allowed(userID int64) bool {
	if len(b.cfg.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HandleMessage routes one message and replies to its chat.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if pending := b.pendingCommand(ctx, chatID); pending != "" {
		b.run(ctx, chatID, pending, text)
		return
	}

	if isURL(text) {
		b.run(ctx, chatID, "url", text)
		return
	}
	if looksLikeEquation(text) {
		b.run(ctx, chatID, "solve", text)
		return
	}
	b.run(ctx, chatID, "word", text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "start", "help":
		b.reply(chatID, helpText)
	case "cancel":
		if b.sessions != nil {
			if err := b.sessions.End(ctx, chatID); err != nil {
				b.logger.Warn("failed to end chat session", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
		b.reply(chatID, "👌 Cancelled.")
	case "history":
		b.handleHistory(ctx, chatID)
	case "metrics":
		if msg.From.ID != b.cfg.AdminID {
			b.reply(chatID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(ctx, chatID)
	case "solve", "word", "calories", "graph", "bmi":
		if args != "" {
			b.run(ctx, chatID, cmd, args)
			return
		}
		b.awaitArgument(ctx, msg, cmd)
	default:
		b.reply(chatID, "🤔 Unknown command. Send /help for the list.")
	}
}

func (b *Bot) awaitArgument(ctx context.Context, msg *tgbotapi.Message, cmd string) {
	chatID := msg.Chat.ID
	if b.sessions == nil {
		b.reply(chatID, fmt.Sprintf("Usage: %s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, usage[cmd])))
		return
	}
	if err := b.sessions.Begin(ctx, chatID, msg.From.ID, cmd, pendingTTL); err != nil {
		b.logger.Error("failed to start chat session", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "❌ Something went wrong, please try again.")
		return
	}
	b.reply(chatID, prompts[cmd])
}

func (b *Bot) pendingCommand(ctx context.Context, chatID int64) string {
	if b.sessions == nil {
		return ""
	}
	s, err := b.sessions.Active(ctx, chatID)
	if err != nil {
		b.logger.Warn("failed to load chat session", zap.Int64("chat_id", chatID), zap.Error(err))
		return ""
	}
	if s == nil {
		return ""
	}
	if err := b.sessions.End(ctx, chatID); err != nil {
		b.logger.Warn("failed to end chat session", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return s.PendingCommand
}

// run executes cmd with its argument, showing a status message that is
// replaced by the result.
func (b *Bot) run(ctx context.Context, chatID int64, cmd, args string) {
	status := "🧮 *Thinking...*"
	if cmd == "url" {
		status = "✂️ *Reading page...*"
	}
	sent, err := b.send(tgbotapi.NewMessage(chatID, status))
	if err != nil {
		return
	}

	var text string
	switch cmd {
	case "solve":
		text = b.solveEquation(ctx, args)
	case "word":
		text = b.solveWordProblem(ctx, args)
	case "url":
		text = b.solveURL(ctx, args)
	case "calories":
		text = b.analyzeCalories(ctx, args)
	case "graph":
		text = b.createGraph(ctx, args)
	case "bmi":
		text = b.recordBMI(ctx, args)
	}

	b.edit(chatID, sent.MessageID, text)
}

func (b *Bot) solveEquation(ctx context.Context, expression string) string {
	sol, err := b.svc.SolveEquation(ctx, expression, solution.SourceManual)
	if err != nil {
		return b.errorText("solve", err)
	}
	return formatSolution(sol)
}

func (b *Bot) solveWordProblem(ctx context.Context, problem string) string {
	wp, err := b.svc.SolveWordProblem(ctx, problem)
	if err != nil {
		return b.errorText("word problem", err)
	}
	return formatWordProblem(wp)
}

func (b *Bot) solveURL(ctx context.Context, url string) string {
	wp, err := b.svc.SolveURL(ctx, url)
	if err != nil {
		return b.errorText("url", err)
	}
	return formatWordProblem(wp)
}

func (b *Bot) analyzeCalories(ctx context.Context, description string) string {
	a, err := b.svc.AnalyzeCalories(ctx, description)
	if err != nil {
		return b.errorText("calories", err)
	}
	return formatCalories(a)
}

func (b *Bot) recordBMI(ctx context.Context, args string) string {
	m, err := parseMeasurement(args)
	if err != nil {
		return "⚠️ " + escape(err.Error()) + "\nUsage: " + escape(usage["bmi"])
	}
	rec, err := b.svc.RecordBMI(ctx, m)
	if err != nil {
		return b.errorText("bmi", err)
	}
	return fmt.Sprintf("⚖️ *BMI:* %.1f (%s)\nHeight %.0f cm, weight %.1f kg",
		rec.BMI, escape(string(rec.Category)), rec.HeightCm, rec.WeightKg)
}

func (b *Bot) createGraph(ctx context.Context, args string) string {
	expression, xMin, xMax := parseGraphArgs(args)
	g, err := b.svc.CreateGraph(ctx, expression, xMin, xMax)
	if err != nil {
		return b.errorText("graph", err)
	}
	_, points, err := b.svc.GraphPoints(ctx, g.ID, graphPreview)
	if err != nil {
		return b.errorText("graph", err)
	}
	return formatGraph(g, points)
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sent, err := b.send(tgbotapi.NewMessage(chatID, "📷 *Reading equation...*"))
	if err != nil {
		return
	}

	// Telegram lists sizes smallest first.
	photo := msg.Photo[len(msg.Photo)-1]
	image, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("failed to download photo", zap.String("file_id", photo.FileID), zap.Error(err))
		b.edit(chatID, sent.MessageID, "❌ Could not download the photo.")
		return
	}

	sol, err := b.svc.SolveImage(ctx, image, "image/jpeg")
	if err != nil {
		b.edit(chatID, sent.MessageID, b.errorText("image", err))
		return
	}
	b.edit(chatID, sent.MessageID, formatSolution(sol))
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxPhotoBytes)
	}
	return data, nil
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) {
	sols, err := b.svc.History(ctx, historySize)
	if err != nil {
		b.reply(chatID, b.errorText("history", err))
		return
	}
	b.reply(chatID, formatHistory(sols))
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.svc.Usage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch usage", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatReport(usage, b.svc.SysHealth()))
}

// errorText turns a failure into a user-facing message. Model and storage
// details are logged, not shown.
func (b *Bot) errorText(op string, err error) string {
	switch {
	case solver.KindOf(err) == solver.KindValidation:
		return "⚠️ " + escape(userMessage(err))
	case errors.Is(err, app.ErrRecognizerUnavailable):
		return "📷 Image solving is not enabled on this bot."
	case errors.Is(err, clipper.ErrNoText):
		return "✂️ No readable text found on that page."
	}
	b.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	return "❌ *Error:* the solver could not answer right now. Please try again."
}

func userMessage(err error) string {
	var se *solver.Error
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

func (b *Bot) reply(chatID int64, text string) {
	_, _ = b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// SendAdminAlert notifies the configured admin. It is a no-op without one.
func (b *Bot) SendAdminAlert(text string) {
	if b.cfg.AdminID == 0 {
		return
	}
	b.reply(b.cfg.AdminID, text)
}

func isURL(text string) bool {
	return (strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")) &&
		!strings.ContainsAny(text, " \n")
}

// looksLikeEquation treats text containing "=" with at most three words as
// an equation and everything else as a word problem. Single letters are
// variables, not words.
func looksLikeEquation(text string) bool {
	if !strings.Contains(text, "=") {
		return false
	}
	words := 0
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if utf8.RuneCountInString(w) > 1 {
			words++
		}
	}
	return words <= 3
}

func parseMeasurement(args string) (health.Measurement, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return health.Measurement{}, errors.New("expected height and weight")
	}
	height, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return health.Measurement{}, fmt.Errorf("invalid height %q", fields[0])
	}
	weight, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return health.Measurement{}, fmt.Errorf("invalid weight %q", fields[1])
	}
	return health.Measurement{HeightCm: height, WeightKg: weight}, nil
}

// parseGraphArgs splits "expr [min max]". The range defaults to [-10, 10].
func parseGraphArgs(args string) (string, float64, float64) {
	fields := strings.Fields(args)
	if len(fields) >= 3 {
		xMin, errMin := strconv.ParseFloat(fields[len(fields)-2], 64)
		xMax, errMax := strconv.ParseFloat(fields[len(fields)-1], 64)
		if errMin == nil && errMax == nil {
			return strings.Join(fields[:len(fields)-2], " "), xMin, xMax
		}
	}
	return strings.TrimSpace(args), -10, 10
}

var usage = map[string]string{
	"solve":    "/solve 2x + 3 = 7",
	"word":     "/word Tom has 3 apples more than Ann...",
	"calories": "/calories two eggs and a toast",
	"graph":    "/graph x^2 - 4 -5 5",
	"bmi":      "/bmi 175 70",
}

var prompts = map[string]string{
	"solve":    "✏️ Send me the equation.",
	"word":     "📖 Send me the word problem.",
	"calories": "🍽 What did you eat?",
	"graph":    "📈 Send the function of x, optionally followed by min and max.",
	"bmi":      "⚖️ Send your height in cm and weight in kg, e.g. `175 70`.",
}

const helpText = "🧮 *Mathly*\n\n" +
	"Send an equation, a word problem, a link or a photo of an equation.\n\n" +
	"/solve - solve an equation\n" +
	"/word - solve a word problem\n" +
	"/history - recent solutions\n" +
	"/graph - plot a function\n" +
	"/bmi - record your BMI\n" +
	"/calories - estimate calories of a meal\n" +
	"/cancel - forget a pending command"
