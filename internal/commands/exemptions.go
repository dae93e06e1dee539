package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/database"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

const (
	tierTemporary = "temporary"
	tierPermanent = "permanent"
	tierAntiKick  = "antikick"
)

// handleExemption adds or removes a user on one of the three exemption
// tiers. Temporary grants need Administrator; the permanent and
// anti-kick tiers are owner only.
func (h *Handler) handleExemption(s *discordgo.Session, i *discordgo.InteractionCreate, tier string, add bool) error {
	var allowed bool
	var err error
	if tier == tierTemporary {
		allowed, err = h.checkAdmin(s, i)
	} else {
		allowed, err = h.checkOwnerOnly(s, i)
	}
	if err != nil {
		return err
	}
	if !allowed {
		if tier == tierTemporary {
			respondError(s, i, "You need Administrator permission to manage temporary exemptions.")
		} else {
			respondError(s, i, "Only the server owner can manage this exemption tier.")
		}
		return nil
	}

	user := h.userOption(s, i)
	if user == nil {
		return fmt.Errorf("a user option is required")
	}
	userID := util.ParseSnowflake(user.ID)
	guildID := util.ParseSnowflake(i.GuildID)

	ws := h.registry.Get(guildID)
	if ws == nil {
		return fmt.Errorf("server is not registered yet")
	}

	var expiry int64
	switch {
	case add && tier == tierTemporary:
		expiry = time.Now().Add(config.TempExemptTTL).Unix()
		ws.AddTemporaryUntil(userID, expiry)
	case !add && tier == tierTemporary:
		ws.RemoveTemporary(userID)
	case add && tier == tierPermanent:
		ws.AddPermanent(userID)
	case !add && tier == tierPermanent:
		ws.RemovePermanent(userID)
	case add && tier == tierAntiKick:
		ws.AddAntiKick(userID)
	case !add && tier == tierAntiKick:
		ws.RemoveAntiKick(userID)
	}

	if db := database.GetDB(); db != nil {
		if add {
			err = db.SaveExemption(guildID, userID, tier, expiry)
		} else {
			err = db.DeleteExemption(guildID, userID, tier)
		}
		if err != nil {
			logging.Error("Failed to persist exemption change for %d in guild %d: %v", userID, guildID, err)
		}
	}

	verb := "added to"
	if !add {
		verb = "removed from"
	}
	label := map[string]string{
		tierTemporary: "the temporary exemption list (1 hour)",
		tierPermanent: "the permanent exemption list",
		tierAntiKick:  "the anti-kick shield",
	}[tier]
	respondText(s, i, fmt.Sprintf("✅ **%s** %s %s.", user.Username, verb, label))
	return nil
}

// handleServerWhitelist shows every active exemption for this server.
func (h *Handler) handleServerWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := h.checkAdmin(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondError(s, i, "You need Administrator permission to view exemptions.")
		return nil
	}

	ws := h.registry.Get(util.ParseSnowflake(i.GuildID))
	if ws == nil {
		return fmt.Errorf("server is not registered yet")
	}

	permanent, temporary, antiKick := ws.Exemptions()

	format := func(ids []uint64) string {
		if len(ids) == 0 {
			return "None"
		}
		out := ""
		for _, id := range ids {
			out += fmt.Sprintf("<@%d>\n", id)
		}
		return out
	}
	formatTemp := func(m map[uint64]int64) string {
		if len(m) == 0 {
			return "None"
		}
		now := time.Now().Unix()
		out := ""
		for id, expiry := range m {
			out += fmt.Sprintf("<@%d> (%s left)\n", id, util.FormatHoursMinutes(expiry-now))
		}
		return out
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "📋 Server Exemptions",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "♾️ Permanent", Value: format(permanent), Inline: false},
			{Name: "⏱️ Temporary", Value: formatTemp(temporary), Inline: false},
			{Name: "🛡️ Anti-Kick", Value: format(antiKick), Inline: false},
		},
		Color: 0x3498DB,
	})
	return nil
}

func (h *Handler) userOption(s *discordgo.Session, i *discordgo.InteractionCreate) *discordgo.User {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func boolOption(i *discordgo.InteractionCreate, name string) bool {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionBoolean {
			return opt.BoolValue()
		}
	}
	return false
}
