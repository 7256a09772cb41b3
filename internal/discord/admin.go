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

// messageCreate handles the admin prefix commands. Only members with the
// Manage Server permission may use them.
func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, AdminPrefix) {
		return
	}
	b.rememberUser(m.Author)

	fields := strings.Fields(m.Content)
	if len(fields) < 2 {
		return
	}
	sub := strings.ToLower(fields[1])

	if !b.isAdmin(s, m) {
		slog.Warn("Admin command denied", "user_id", m.Author.ID, "command", sub)
		return
	}

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	log := logger.FromContext(ctx)
	log.Info("Admin command", "user_id", m.Author.ID, "command", sub)

	switch sub {
	case AdminCmdSetup:
		if err := b.display.Setup(ctx, m.ChannelID); err != nil {
			log.Error("Failed to set up display", "error", err)
			b.reply(s, m, "Setup failed.")
			return
		}
		b.channelID = m.ChannelID
		b.reply(s, m, "Machine is live in this channel.")
	case AdminCmdReload:
		b.runAdminAction(ctx, s, m, domain.ActionAdminReload)
	case AdminCmdRefill:
		b.runAdminAction(ctx, s, m, domain.ActionAdminRefill)
	case AdminCmdHardReset:
		b.runAdminAction(ctx, s, m, domain.ActionAdminReset)
	}
}

func (b *Bot) runAdminAction(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, action string) {
	res, err := b.engine.Handle(ctx, domain.Invocation{
		UserID:   m.Author.ID,
		Username: m.Author.Username,
		Action:   action,
		Now:      time.Now(),
	})
	if err != nil {
		logger.FromContext(ctx).Error("Admin action failed", "action", action, "error", err)
		b.reply(s, m, "Admin action failed.")
		return
	}
	b.reply(s, m, strings.Join(res.Messages, "\n"))
}

func (b *Bot) isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.Member == nil {
		return false
	}
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		slog.Warn("Failed to resolve permissions", "user_id", m.Author.ID, "error", err)
		return false
	}
	return perms&discordgo.PermissionManageServer != 0
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		slog.Error("Failed to send reply", "error", err)
	}
}
