package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/database"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

func (h *Handler) handleSetLogChannel(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := h.checkAdmin(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondError(s, i, "You need Administrator permission to set the log channel.")
		return nil
	}

	var channel *discordgo.Channel
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" && opt.Type == discordgo.ApplicationCommandOptionChannel {
			channel = opt.ChannelValue(s)
		}
	}
	if channel == nil {
		return fmt.Errorf("a channel option is required")
	}
	if channel.Type != discordgo.ChannelTypeGuildText {
		respondError(s, i, "The log channel must be a text channel.")
		return nil
	}

	guildID := util.ParseSnowflake(i.GuildID)
	ws := h.registry.Get(guildID)
	if ws == nil {
		return fmt.Errorf("server is not registered yet")
	}

	channelID := util.ParseSnowflake(channel.ID)
	ws.SetLogChannel(channelID)
	if db := database.GetDB(); db != nil {
		if err := db.SetLogChannel(guildID, channelID); err != nil {
			return fmt.Errorf("failed to persist log channel: %w", err)
		}
	}

	respondText(s, i, fmt.Sprintf("✅ Protection alerts will be posted in <#%s>.", channel.ID))
	return nil
}

func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := h.checkAdmin(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondError(s, i, "You need Administrator permission to view the protection status.")
		return nil
	}

	guildID := util.ParseSnowflake(i.GuildID)
	ws := h.registry.Get(guildID)
	if ws == nil {
		return fmt.Errorf("server is not registered yet")
	}

	logValue := "Not configured (alerts fall back to DMs)"
	if chID := ws.LogChannel(); chID != 0 {
		logValue = fmt.Sprintf("<#%d>", chID)
	}

	snapValue := "None"
	if snap, err := h.store.Load(guildID); err == nil && snap.IsValid() {
		snapValue = fmt.Sprintf("Valid, usable for another %s", util.FormatHoursMinutes(snap.TimeRemaining()))
	}

	permanent, temporary, antiKick := ws.Exemptions()

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "🛡️ AntiNuke360 Status",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "⚙️ Rate Limits",
				Value: fmt.Sprintf("Standard: %d actions / %ds\nTemp-exempt: %d actions / %ds",
					config.MaxActions, config.WindowSeconds,
					config.TempExemptMaxActions, config.TempExemptWindowSeconds),
				Inline: false,
			},
			{Name: "📢 Log Channel", Value: logValue, Inline: false},
			{Name: "📸 Snapshot", Value: snapValue, Inline: false},
			{
				Name: "📋 Exemptions",
				Value: fmt.Sprintf("%d permanent, %d temporary, %d anti-kick",
					len(permanent), len(temporary), len(antiKick)),
				Inline: false,
			},
			{
				Name: "🌐 Global Lists",
				Value: fmt.Sprintf("%d deny-listed, %d allow-listed",
					h.lists.BlacklistSize(), h.lists.AllowlistSize()),
				Inline: false,
			},
		},
		Color:     0x2ECC71,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return nil
}
