package discord

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/slots"
)

func newRenderBot(t *testing.T) *Bot {
	t.Helper()
	table, err := slots.NewTable([]slots.Symbol{
		{Key: "cherry", Emoji: "🍒", Weight: 1, BaseValue: 5},
		{Key: "gem", Emoji: "💎", Weight: 1, BaseValue: 100},
		{Key: "mystery", Weight: 1, BaseValue: 1},
	})
	require.NoError(t, err)

	cache, err := lru.New[string, string](16)
	require.NoError(t, err)

	return &Bot{tables: slots.NewHolder(table), usernames: cache}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrNoSpinsLeft, "You're out of spins. They refill over time."},
		{domain.ErrQuotaExhausted, "No MEGA spins left today. They reset at midnight."},
		{domain.ErrInsufficientPoints, "You don't have enough points for that."},
		{domain.ErrSelfDuel, "You can't duel yourself."},
		{domain.ErrDuelActive, "You already have a duel going."},
		{domain.ErrNotInitiator, "Only whoever opened the duel can cancel it."},
		{domain.ErrDuelClosed, "That duel is already closed."},
		{domain.ErrDuelNotFound, "That duel no longer exists."},
		{errors.New("redis timeout"), "Something went wrong. Try again in a moment."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, friendlyError(tt.err))
	}
}

func TestFriendlyErrorUnwrapsWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), domain.ErrSelfDuel)
	assert.Equal(t, "You can't duel yourself.", friendlyError(wrapped))
}

func TestRenderGridUsesEmojis(t *testing.T) {
	b := newRenderBot(t)

	got := b.renderGrid([][]string{
		{"cherry", "gem"},
		{"mystery", "unknown"},
	})
	assert.Equal(t, "🍒 💎\nmystery unknown", got, "keys without emoji fall through as text")
}

func TestBuildSpinEmbed(t *testing.T) {
	b := newRenderBot(t)

	res := &domain.Result{
		Kind:      domain.OutcomeSpin,
		Remaining: 3,
		Outcome: &domain.SpinOutcome{
			Mode:        domain.ModeStandard,
			GridKeys:    [][]string{{"cherry", "cherry"}},
			TotalPayout: 40,
			NetDelta:    40,
			Breakdown:   []string{"row 1: 2x cherry"},
		},
	}
	embed := b.buildSpinEmbed(res)
	assert.Equal(t, "🎰 Spin", embed.Title)
	assert.Equal(t, ColorWin, embed.Color)
	assert.Equal(t, "🍒 🍒", embed.Description)
	assert.Equal(t, "3 spins left", embed.Footer.Text)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "40 points", embed.Fields[0].Value)
	assert.Equal(t, "+40 points", embed.Fields[1].Value)
}

func TestBuildSpinEmbedPremiumJackpot(t *testing.T) {
	b := newRenderBot(t)

	res := &domain.Result{
		Kind:      domain.OutcomeSpin,
		Remaining: 0,
		Outcome: &domain.SpinOutcome{
			Mode:           domain.ModePremium,
			GridKeys:       [][]string{{"gem"}},
			TotalPayout:    500,
			JackpotAwarded: 2000,
			Cost:           50,
			NetDelta:       2450,
		},
	}
	embed := b.buildSpinEmbed(res)
	assert.Equal(t, "💎 MEGA Spin — JACKPOT!", embed.Title)
	assert.Equal(t, ColorJackpot, embed.Color)
	assert.Equal(t, "0 MEGA spins left today", embed.Footer.Text)

	names := make([]string, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Payout", "Net", "Cost", "Jackpot"}, names)
}

func TestBuildSpinEmbedLoss(t *testing.T) {
	b := newRenderBot(t)

	res := &domain.Result{
		Outcome: &domain.SpinOutcome{
			Mode:     domain.ModeStandard,
			GridKeys: [][]string{{"mystery"}},
			NetDelta: 0,
		},
	}
	embed := b.buildSpinEmbed(res)
	assert.Equal(t, ColorLoss, embed.Color)
}

func TestBuildDeniedEmbed(t *testing.T) {
	res := &domain.Result{
		Kind:     domain.OutcomeDenied,
		NextIn:   90 * time.Second,
		Messages: []string{"no spins left"},
	}
	embed := buildDeniedEmbed(res)
	assert.Equal(t, ColorDenied, embed.Color)
	assert.Contains(t, embed.Description, "no spins left")
	assert.Contains(t, embed.Description, "Next spin in 1m30s.")

	// Quota denials carry no countdown
	embed = buildDeniedEmbed(&domain.Result{Messages: []string{"quota"}})
	assert.NotContains(t, embed.Description, "Next spin")
}

func TestBuildDuelEmbed(t *testing.T) {
	b := newRenderBot(t)
	b.usernames.Add("i1", "alice")
	b.usernames.Add("o1", "bob")

	out := &domain.DuelOutcome{
		Initiator:     "i1",
		Opponent:      "o1",
		InitiatorSpin: 300,
		OpponentSpin:  100,
		WinnerID:      "i1",
		Pot:           600,
		HouseCut:      60,
		Payout:        540,
	}
	embed := b.buildDuelEmbed(out)
	assert.Equal(t, ColorDuel, embed.Color)
	assert.Contains(t, embed.Description, "**alice** rolled **300**")
	assert.Contains(t, embed.Description, "**bob** rolled **100**")
	assert.Contains(t, embed.Description, "**alice** takes **540** points!")

	out.Tie = true
	out.WinnerID = ""
	embed = b.buildDuelEmbed(out)
	assert.Contains(t, embed.Description, "It's a tie!")
}

func TestFormatSigned(t *testing.T) {
	assert.Equal(t, "+5 points", formatSigned(5))
	assert.Equal(t, "0 points", formatSigned(0))
	assert.Equal(t, "-3 points", formatSigned(-3))
}

func TestUsernameFallsBackToID(t *testing.T) {
	b := newRenderBot(t)
	assert.Equal(t, "123", b.Username("123"))

	b.rememberUser(&discordgo.User{ID: "123", Username: "carol"})
	assert.Equal(t, "carol", b.Username("123"))

	b.rememberUser(nil)
}
