package discord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/brobot-gg/slots/internal/domain"
)

func formatPoints(n int64) string {
	return fmt.Sprintf("%d points", n)
}

// friendlyError maps domain errors to user-facing text. Anything not in the
// taxonomy gets a generic message; details stay in the logs.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoSpinsLeft):
		return "You're out of spins. They refill over time."
	case errors.Is(err, domain.ErrQuotaExhausted):
		return "No MEGA spins left today. They reset at midnight."
	case errors.Is(err, domain.ErrInsufficientPoints):
		return "You don't have enough points for that."
	case errors.Is(err, domain.ErrSelfDuel):
		return "You can't duel yourself."
	case errors.Is(err, domain.ErrDuelActive):
		return "You already have a duel going."
	case errors.Is(err, domain.ErrNotInitiator):
		return "Only whoever opened the duel can cancel it."
	case errors.Is(err, domain.ErrDuelClosed):
		return "That duel is already closed."
	case errors.Is(err, domain.ErrDuelNotFound):
		return "That duel no longer exists."
	default:
		return "Something went wrong. Try again in a moment."
	}
}

// buildSpinEmbed renders a scored grid as emoji rows plus the breakdown
func (b *Bot) buildSpinEmbed(res *domain.Result) *discordgo.MessageEmbed {
	out := res.Outcome

	color := ColorLoss
	title := "🎰 Spin"
	if out.Mode == domain.ModePremium {
		title = "💎 MEGA Spin"
	}
	if out.NetDelta > 0 {
		color = ColorWin
	}
	if out.JackpotAwarded > 0 {
		color = ColorJackpot
		title += " — JACKPOT!"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Payout", Value: formatPoints(out.TotalPayout), Inline: true},
		{Name: "Net", Value: formatSigned(out.NetDelta), Inline: true},
	}
	if out.Cost > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Cost", Value: formatPoints(out.Cost), Inline: true,
		})
	}
	if out.JackpotAwarded > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Jackpot", Value: formatPoints(out.JackpotAwarded), Inline: true,
		})
	}
	if len(out.Breakdown) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Lines", Value: strings.Join(out.Breakdown, "\n"), Inline: false,
		})
	}

	footer := ""
	if out.Mode == domain.ModePremium {
		footer = fmt.Sprintf("%d MEGA spins left today", res.Remaining)
	} else {
		footer = fmt.Sprintf("%d spins left", res.Remaining)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: b.renderGrid(out.GridKeys),
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

// renderGrid maps symbol keys to their configured emojis row by row
func (b *Bot) renderGrid(grid [][]string) string {
	table, err := b.tables.Load()
	var lines []string
	for _, row := range grid {
		cells := make([]string, 0, len(row))
		for _, key := range row {
			cell := key
			if err == nil {
				if sym, ok := table.Lookup(key); ok && sym.Emoji != "" {
					cell = sym.Emoji
				}
			}
			cells = append(cells, cell)
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func buildDeniedEmbed(res *domain.Result) *discordgo.MessageEmbed {
	desc := strings.Join(res.Messages, "\n")
	if res.NextIn > 0 {
		desc += fmt.Sprintf("\nNext spin in %s.", res.NextIn.Round(time.Second))
	}
	return &discordgo.MessageEmbed{
		Title:       "No spin for you",
		Description: desc,
		Color:       ColorDenied,
	}
}

func (b *Bot) buildDuelEmbed(out *domain.DuelOutcome) *discordgo.MessageEmbed {
	initiator := b.Username(out.Initiator)
	opponent := b.Username(out.Opponent)

	desc := fmt.Sprintf("**%s** rolled **%d**\n**%s** rolled **%d**\n\n",
		initiator, out.InitiatorSpin, opponent, out.OpponentSpin)
	if out.Tie {
		desc += fmt.Sprintf("It's a tie! The pot of %d is split after the house takes %d.",
			out.Pot, out.HouseCut)
	} else {
		desc += fmt.Sprintf("**%s** takes **%d** points! (house cut: %d)",
			b.Username(out.WinnerID), out.Payout, out.HouseCut)
	}

	return &discordgo.MessageEmbed{
		Title:       "⚔️ Duel result",
		Description: desc,
		Color:       ColorDuel,
	}
}

func formatSigned(n int64) string {
	if n > 0 {
		return fmt.Sprintf("+%d points", n)
	}
	return formatPoints(n)
}
