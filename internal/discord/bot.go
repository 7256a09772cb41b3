package discord

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brobot-gg/slots/internal/concurrency"
	"github.com/brobot-gg/slots/internal/engine"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/slots"
	"github.com/brobot-gg/slots/internal/store"
)

// Bot is the chat edge. It owns the persistent machine message, routes
// button presses into the engine, and renders results as ephemeral replies.
// Everything here is presentation; no economy state lives in this package.
type Bot struct {
	Session *discordgo.Session

	engine    engine.Service
	ledger    ledger.Service
	jackpot   jackpot.Service
	store     store.Store
	tables    *slots.Holder
	locks     *concurrency.LockManager
	usernames *lru.Cache[string, string]
	display   *Display

	channelID string
}

// Config holds the bot configuration
type Config struct {
	Token     string
	ChannelID string
}

// New creates a new Discord bot
func New(cfg Config, engineSvc engine.Service, ledgerSvc ledger.Service, jackpotSvc jackpot.Service, st store.Store, tables *slots.Holder) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	cache, err := lru.New[string, string](UsernameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating username cache: %w", err)
	}

	b := &Bot{
		Session:   s,
		engine:    engineSvc,
		ledger:    ledgerSvc,
		jackpot:   jackpotSvc,
		store:     st,
		tables:    tables,
		locks:     concurrency.NewLockManager(),
		usernames: cache,
		channelID: cfg.ChannelID,
	}
	b.display = NewDisplay(s, st, ledgerSvc, jackpotSvc, cfg.ChannelID, b.Username)
	return b, nil
}

// RequestRefresh implements engine.DisplayRefresher
func (b *Bot) RequestRefresh() {
	b.display.RequestRefresh()
}

// Start opens the session and brings up the persistent display
func (b *Bot) Start() error {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.interactionCreate)
	b.Session.AddHandler(b.messageCreate)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	b.display.Start()
	if err := b.display.Ensure(context.Background()); err != nil {
		slog.Warn("Failed to bring up display message", "error", err)
	}

	slog.Info("Discord bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() {
	b.display.Stop()
	b.Session.Close()
}

// Run runs the bot until a signal is received
func (b *Bot) Run() error {
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	return nil
}

func (b *Bot) ready(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Bot is ready", "user", s.State.User.Username)
}

// rememberUser keeps the id -> username mapping warm for feed rendering
func (b *Bot) rememberUser(u *discordgo.User) {
	if u != nil {
		b.usernames.Add(u.ID, u.Username)
	}
}

// Username resolves a cached username, falling back to the raw id
func (b *Bot) Username(userID string) string {
	if name, ok := b.usernames.Get(userID); ok {
		return name
	}
	return userID
}

// interactionUser extracts the user from an interaction. Handles both guild
// (i.Member.User) and DM (i.User) contexts.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
