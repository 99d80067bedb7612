// Package telegram drives the bot over the Telegram Bot API: long polling,
// per-chat ordered dispatch, command handling, the admin relay, and
// broadcast fan-out.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/batalabs/botd/internal/config"
	"github.com/batalabs/botd/internal/provider"
	"github.com/batalabs/botd/internal/session"
	"github.com/batalabs/botd/internal/stylize"
)

// workerQueueLen bounds the per-chat message backlog.
const workerQueueLen = 16

// Adapter manages the bot: it routes every inbound message to exactly one
// handler and owns the per-chat worker queues that keep a single user's
// messages in arrival order.
type Adapter struct {
	bot       *tgbotapi.BotAPI
	cfg       config.Config
	sessions  *session.Store
	known     *session.KnownUsers
	relay     *session.Relay
	completer *provider.Client
	stylizer  *stylize.Client
	http      *http.Client
	log       zerolog.Logger

	mu           sync.Mutex
	workers      map[int64]chan *tgbotapi.Message
	rateLimiters map[int64]*rate.Limiter
}

type telegramBotLogger struct {
	log zerolog.Logger
}

func (l *telegramBotLogger) Println(v ...interface{}) {
	l.log.Debug().Msg("telegram_api: " + strings.TrimSpace(fmt.Sprint(v...)))
}

func (l *telegramBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf("telegram_api: "+format, v...)
}

// NewAdapter connects to Telegram and wires the bot's collaborators.
func NewAdapter(
	cfg config.Config,
	sessions *session.Store,
	known *session.KnownUsers,
	relay *session.Relay,
	completer *provider.Client,
	stylizer *stylize.Client,
	log zerolog.Logger,
) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("connecting to Telegram: %w", err)
	}
	// Redirect library polling logs (e.g. transient 502/Bad Gateway) into
	// structured debug logs.
	if err := tgbotapi.SetLogger(&telegramBotLogger{log: log}); err != nil {
		log.Warn().Err(err).Msg("telegram: set logger")
	}

	return &Adapter{
		bot:          bot,
		cfg:          cfg,
		sessions:     sessions,
		known:        known,
		relay:        relay,
		completer:    completer,
		stylizer:     stylizer,
		http:         &http.Client{Timeout: 60 * time.Second},
		log:          log,
		workers:      make(map[int64]chan *tgbotapi.Message),
		rateLimiters: make(map[int64]*rate.Limiter),
	}, nil
}

// BotName returns the bot's username (without the @ prefix).
func (a *Adapter) BotName() string {
	return a.bot.Self.UserName
}

// Run starts the long-polling loop and blocks until the context is
// cancelled or the updates channel is closed. Messages are fanned out to
// per-chat workers: one chat's messages are handled serially in arrival
// order, different chats run in parallel.
func (a *Adapter) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		a.bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		a.enqueue(ctx, update.Message)
	}

	return ctx.Err()
}

// enqueue hands the message to its chat's worker without blocking the
// polling loop. A full queue drops the message with a notice; the rate
// limiter makes that rare.
func (a *Adapter) enqueue(ctx context.Context, msg *tgbotapi.Message) {
	w := a.workerFor(ctx, msg.Chat.ID)
	select {
	case w <- msg:
	default:
		a.log.Warn().Int64("chat_id", msg.Chat.ID).Msg("telegram: worker queue full, dropping message")
		a.send(tgbotapi.NewMessage(msg.Chat.ID, "Too many pending messages. Please slow down."))
	}
}

func (a *Adapter) workerFor(ctx context.Context, chatID int64) chan *tgbotapi.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.workers[chatID]; ok {
		return w
	}
	w := make(chan *tgbotapi.Message, workerQueueLen)
	a.workers[chatID] = w
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-w:
				a.handleMessage(ctx, msg)
			}
		}
	}()
	return w
}

// allowRequest checks the per-user rate limiter.
func (a *Adapter) allowRequest(userID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	rl, ok := a.rateLimiters[userID]
	if !ok {
		// 1 request per second, burst of 5
		rl = rate.NewLimiter(rate.Limit(1.0), 5)
		a.rateLimiters[userID] = rl
	}
	return rl.Allow()
}

// IsPrivateChat returns true if the chat is a private (one-on-one) chat.
func IsPrivateChat(chat *tgbotapi.Chat) bool {
	return chat != nil && chat.Type == "private"
}

// handleMessage routes one inbound message to exactly one handler. A panic
// in any handler is contained here: it is logged and converted into a
// generic failure message, never allowed to kill the process.
func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Int64("chat_id", chatID).Msg("telegram: handler panic")
			a.send(tgbotapi.NewMessage(chatID, "Something went wrong handling that message."))
		}
	}()

	if msg.From == nil {
		return
	}

	if !IsPrivateChat(msg.Chat) {
		a.log.Debug().Str("chat_type", msg.Chat.Type).Int64("chat_id", chatID).Msg("telegram: rejected non-private chat")
		a.send(tgbotapi.NewMessage(chatID, "This bot only works in private messages."))
		return
	}

	userID := msg.From.ID

	// Every inbound message makes its sender a broadcast target.
	a.known.Add(userID)

	if !a.allowRequest(userID) {
		a.send(tgbotapi.NewMessage(chatID, "Too many requests. Please wait a moment."))
		return
	}

	in := Inbound{
		IsAdmin:       userID == a.cfg.AdminID,
		IsReply:       msg.ReplyToMessage != nil,
		AwaitingAdmin: a.sessions.AwaitingAdmin(userID),
		IsCommand:     strings.HasPrefix(strings.TrimSpace(msg.Text), "/"),
		HasPhoto:      len(msg.Photo) > 0,
		HasDocument:   msg.Document != nil,
		Text:          msg.Text,
	}
	route := Decide(in)
	a.log.Debug().Int64("user_id", userID).Stringer("route", route).Msg("telegram: routed message")

	switch route {
	case RouteCommand:
		a.handleCommand(msg)
	case RouteAdminReply:
		a.handleAdminReply(msg)
	case RouteAdminForward:
		a.handleAdminForward(msg)
	case RoutePhoto:
		a.handlePhoto(ctx, msg)
	case RouteDocument:
		a.handleDocument(ctx, msg)
	case RouteChat:
		a.handleChat(ctx, msg)
	}
}

// send delivers a message and logs delivery failures; callers that need the
// sent message (for relay bookkeeping) use a.bot.Send directly.
func (a *Adapter) send(c tgbotapi.Chattable) {
	if _, err := a.bot.Send(c); err != nil {
		a.log.Warn().Err(err).Msg("telegram: send failed")
	}
}

// downloadFile fetches a Telegram-hosted file to dest.
func (a *Adapter) downloadFile(ctx context.Context, fileID, dest string) error {
	url, err := a.bot.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("resolving file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("downloading file: HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// sanitizeError returns a generic error message for user-facing output.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return "An internal error occurred."
}
