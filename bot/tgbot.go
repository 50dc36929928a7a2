// Package bot implements the Telegram admin channel for passcode
// requests: new submissions are pushed to every admin chat, and admins
// can inspect the queue and decide requests without leaving Telegram.
//
//	tgbot.go     — TgBot struct, lifecycle (Start/Stop), admin cache
//	commands.go  — /start, /pending, /approve, /deny, /help
//	messaging.go — alert formatting and fan-out to admin chats
//	helpers.go   — Sanitize, plainResponse, admin lookup
//
// Admins are the store's token users that carry a Telegram id; there is
// no self-registration flow.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"aprspass/entity"
	"aprspass/lib/sl"
)

// Database defines the storage operations the bot depends on.
type Database interface {
	GetTelegramAdmins() ([]*entity.Admin, error)
}

// Core defines the request operations the bot drives.
type Core interface {
	PendingRequests(ctx context.Context) ([]*entity.PasscodeRequest, error)
	ApproveByCallsign(ctx context.Context, callsign, actor string) (*entity.PasscodeRequest, error)
	DenyByCallsign(ctx context.Context, callsign, actor string) (*entity.PasscodeRequest, error)
}

type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	db      Database
	core    Core
	mu      sync.RWMutex // guards admins
	admins  map[int64]*entity.Admin
	updater *ext.Updater
}

func NewTgBot(apiKey string, db Database, core Core, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		db:     db,
		core:   core,
		admins: make(map[int64]*entity.Admin),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) Start() error {
	t.loadAdmins()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("pending", t.pending))
	dispatcher.AddHandler(handlers.NewCommand("approve", t.approve))
	dispatcher.AddHandler(handlers.NewCommand("deny", t.deny))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// loadAdmins refreshes the admin cache from the store. Called on startup
// and on /start so a freshly added admin can activate the chat.
func (t *TgBot) loadAdmins() {
	if t.db == nil {
		return
	}
	admins, err := t.db.GetTelegramAdmins()
	if err != nil {
		t.log.Error("loading admins", sl.Err(err))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.admins = make(map[int64]*entity.Admin)
	for _, admin := range admins {
		t.admins[admin.TelegramId] = admin
	}
	t.log.With(slog.Int("count", len(t.admins))).Debug("loaded admins")
}
