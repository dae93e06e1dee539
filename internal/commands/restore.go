package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/restore"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// handleRestoreSnapshot runs a manual restore from the stored snapshot.
// The response is deferred because a rebuild of a large server takes
// well past the interaction deadline.
func (h *Handler) handleRestoreSnapshot(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := h.checkOwnerOnly(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondError(s, i, "Only the server owner can trigger a restore.")
		return nil
	}

	guildID := util.ParseSnowflake(i.GuildID)
	snap, err := h.store.Load(guildID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !snap.IsValid() {
		respondError(s, i, "No usable snapshot exists for this server.")
		return nil
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}

	surface, err := restore.NewDiscordSurface(s, i.GuildID)
	if err != nil {
		return fmt.Errorf("failed to prepare restore: %w", err)
	}

	go func() {
		result := h.engine.Restore(guildID, surface)
		h.metrics.RestoresRun.Add(1)

		var content string
		if result.OK {
			content = fmt.Sprintf("✅ Restore complete: **%d** roles and **%d** channels recreated.",
				result.CreatedRoles, result.CreatedChannels)
		} else {
			content = fmt.Sprintf("❌ Restore failed: %s.", result.Reason)
		}
		s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	}()
	return nil
}
