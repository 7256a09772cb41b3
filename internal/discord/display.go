package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/metrics"
	"github.com/brobot-gg/slots/internal/store"
)

// Display owns the single persistent machine message: jackpot pool, top
// players, recent big wins, and the Spin/MEGA/Duel buttons. Refresh requests
// are debounced; a dropped refresh only means the board is briefly stale.
type Display struct {
	session   *discordgo.Session
	store     store.Store
	ledger    ledger.Service
	jackpot   jackpot.Service
	channelID string
	// resolve maps a user id to a display name
	resolve func(string) string

	refreshCh chan struct{}
	quit      chan struct{}
	wg        sync.WaitGroup
}

// NewDisplay creates the display manager
func NewDisplay(session *discordgo.Session, st store.Store, ledgerSvc ledger.Service, jackpotSvc jackpot.Service, channelID string, resolve func(string) string) *Display {
	return &Display{
		session:   session,
		store:     st,
		ledger:    ledgerSvc,
		jackpot:   jackpotSvc,
		channelID: channelID,
		resolve:   resolve,
		refreshCh: make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
}

// RequestRefresh schedules a re-render. Never blocks; coalesces bursts.
func (d *Display) RequestRefresh() {
	select {
	case d.refreshCh <- struct{}{}:
	default:
	}
}

// Start launches the debounced refresh loop
func (d *Display) Start() {
	d.wg.Add(1)
	go d.loop()
}

// Stop stops the refresh loop
func (d *Display) Stop() {
	close(d.quit)
	d.wg.Wait()
}

func (d *Display) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.refreshCh:
			// Let the burst settle before rendering once
			timer := time.NewTimer(RefreshDebounce)
			select {
			case <-timer.C:
			case <-d.quit:
				timer.Stop()
				return
			}
			if err := d.render(context.Background()); err != nil {
				metrics.DisplayRefreshFailures.Inc()
				slog.Warn("Display refresh failed", "error", err)
			}
		case <-d.quit:
			return
		}
	}
}

// Ensure edits the stored message if one exists, otherwise posts a fresh one
func (d *Display) Ensure(ctx context.Context) error {
	_, err := d.store.Get(ctx, KeyDisplayMessage)
	if errors.Is(err, store.ErrNotFound) {
		return d.Setup(ctx, d.channelID)
	}
	if err != nil {
		return fmt.Errorf("failed to read display message id: %w", err)
	}
	return d.render(ctx)
}

// Setup posts a new machine message in the given channel and remembers it
func (d *Display) Setup(ctx context.Context, channelID string) error {
	embed, components, err := d.build(ctx)
	if err != nil {
		return err
	}

	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return fmt.Errorf("failed to post display message: %w", err)
	}

	if err := d.store.Set(ctx, KeyDisplayChannel, channelID, 0); err != nil {
		return fmt.Errorf("failed to store display channel: %w", err)
	}
	if err := d.store.Set(ctx, KeyDisplayMessage, msg.ID, 0); err != nil {
		return fmt.Errorf("failed to store display message: %w", err)
	}
	d.channelID = channelID
	return nil
}

func (d *Display) render(ctx context.Context) error {
	channelID, err := d.store.Get(ctx, KeyDisplayChannel)
	if err != nil {
		return fmt.Errorf("failed to read display channel: %w", err)
	}
	messageID, err := d.store.Get(ctx, KeyDisplayMessage)
	if err != nil {
		return fmt.Errorf("failed to read display message id: %w", err)
	}

	embed, components, err := d.build(ctx)
	if err != nil {
		return err
	}

	_, err = d.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("failed to edit display message: %w", err)
	}
	return nil
}

func (d *Display) build(ctx context.Context) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	pool, err := d.jackpot.Peek(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read jackpot pool: %w", err)
	}
	rows, err := d.ledger.TopK(ctx, ledger.DefaultTopK)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	wins, err := d.ledger.BigWins(ctx, 5)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read big wins: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎰 Slots",
		Description: fmt.Sprintf("**Jackpot pool: %d points**\nSpin to win. MEGA spins cost 10%% of your points.", pool),
		Color:       ColorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Leaderboard", Value: formatLeaderboard(rows, d.resolve), Inline: false},
			{Name: "Recent big wins", Value: formatBigWins(wins), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Results are sent privately"},
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Spin", Style: discordgo.PrimaryButton, CustomID: CustomIDSpin, Emoji: &discordgo.ComponentEmoji{Name: "🎰"}},
				discordgo.Button{Label: "MEGA Spin", Style: discordgo.DangerButton, CustomID: CustomIDMegaSpin, Emoji: &discordgo.ComponentEmoji{Name: "💎"}},
				discordgo.Button{Label: "Duel", Style: discordgo.SecondaryButton, CustomID: CustomIDDuel, Emoji: &discordgo.ComponentEmoji{Name: "⚔️"}},
			},
		},
	}
	return embed, components, nil
}

func formatLeaderboard(rows []domain.LeaderboardRow, resolve func(string) string) string {
	if len(rows) == 0 {
		return "No players yet"
	}
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%d. **%s** — %d points (%d spins, %.1f avg)\n",
			row.Rank, resolve(row.UserID), row.TotalPoints, row.TotalSpins, row.AvgPerSpin)
	}
	return b.String()
}

func formatBigWins(wins []domain.FeedEntry) string {
	if len(wins) == 0 {
		return "None yet"
	}
	var b strings.Builder
	for _, w := range wins {
		tag := ""
		if w.Premium {
			tag = " 💎"
		}
		if w.Jackpot > 0 {
			tag += fmt.Sprintf(" 🎉 jackpot +%d", w.Jackpot)
		}
		fmt.Fprintf(&b, "**%s** won %d points%s (%s)\n", w.Username, w.Amount, tag, w.Date)
	}
	return b.String()
}
