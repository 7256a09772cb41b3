package discord

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/logger"
)

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	user := interactionUser(i)
	if user == nil {
		return
	}
	b.rememberUser(user)

	customID := i.MessageComponentData().CustomID

	inv := domain.Invocation{
		UserID:   user.ID,
		Username: user.Username,
		Now:      time.Now(),
	}

	switch {
	case customID == CustomIDSpin:
		inv.Action = domain.ActionSpin
	case customID == CustomIDMegaSpin:
		inv.Action = domain.ActionPremiumSpin
	case customID == CustomIDDuel:
		inv.Action = domain.ActionStartDuel
	case strings.HasPrefix(customID, CustomIDDuelAccept):
		inv.Action = domain.ActionAcceptDuel
		inv.DuelID = strings.TrimPrefix(customID, CustomIDDuelAccept)
	case strings.HasPrefix(customID, CustomIDDuelCancel):
		inv.Action = domain.ActionCancelDuel
		inv.DuelID = strings.TrimPrefix(customID, CustomIDDuelCancel)
	default:
		return
	}

	// Acknowledge immediately; the 3 second interaction window is short
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		slog.Error("Failed to send deferred response", "error", err)
		return
	}

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	log := logger.FromContext(ctx)

	// One in-flight action per user; double clicks queue instead of racing
	var res *domain.Result
	var err error
	b.locks.Do(user.ID, func() {
		res, err = b.engine.Handle(ctx, inv)
	})

	if err != nil {
		log.Error("Action failed", "action", inv.Action, "user_id", user.ID, "error", err)
		b.respondEphemeralText(s, i, friendlyError(err))
		return
	}

	b.respondResult(s, i, user, res)
}

// respondResult renders an engine result as the ephemeral follow-up, and
// posts public announcements for duel lifecycle events.
func (b *Bot) respondResult(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User, res *domain.Result) {
	switch res.Kind {
	case domain.OutcomeSpin:
		b.respondEphemeralEmbed(s, i, b.buildSpinEmbed(res))
	case domain.OutcomeDenied:
		b.respondEphemeralEmbed(s, i, buildDeniedEmbed(res))
	case domain.OutcomeDuelOpen:
		b.respondEphemeralText(s, i, "Duel opened. Waiting for a challenger...")
		b.announceDuelOpen(s, user, res.Duel)
	case domain.OutcomeDuelDone:
		b.respondEphemeralText(s, i, "Duel resolved!")
		b.announceDuelDone(s, res.DuelOut)
	case domain.OutcomeDuelClosed:
		b.respondEphemeralText(s, i, "That duel is already closed.")
	default:
		b.respondEphemeralText(s, i, strings.Join(res.Messages, "\n"))
	}
}

func (b *Bot) respondEphemeralText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		slog.Error("Failed to send followup message", "error", err)
	}
}

func (b *Bot) respondEphemeralEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	}); err != nil {
		slog.Error("Failed to send followup embed", "error", err)
	}
}

// announceDuelOpen posts the public challenge with accept/cancel buttons
func (b *Bot) announceDuelOpen(s *discordgo.Session, initiator *discordgo.User, d *domain.Duel) {
	if d == nil {
		return
	}
	_, err := s.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "⚔️ Duel challenge",
			Description: initiator.Mention() + " has opened a duel! Entry fee: **" + formatPoints(d.Fee) + "** each. First challenger to accept plays.",
			Color:       ColorDuel,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Accept", Style: discordgo.SuccessButton, CustomID: CustomIDDuelAccept + d.ID},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: CustomIDDuelCancel + d.ID},
				},
			},
		},
	})
	if err != nil {
		slog.Warn("Failed to announce duel", "duelID", d.ID, "error", err)
	}
}

// announceDuelDone posts the public outcome
func (b *Bot) announceDuelDone(s *discordgo.Session, out *domain.DuelOutcome) {
	if out == nil {
		return
	}
	_, err := s.ChannelMessageSendEmbed(b.channelID, b.buildDuelEmbed(out))
	if err != nil {
		slog.Warn("Failed to announce duel outcome", "duelID", out.DuelID, "error", err)
	}
}
