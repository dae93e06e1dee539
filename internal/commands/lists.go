package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/enforce"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// scanTargets splits a member list into deny-listed accounts to remove
// and accounts shielded by the server's anti-kick exemption.
func scanTargets(lists *state.Lists, ws *state.Workspace, members []*discordgo.Member) (targets []enforce.Actor, shielded int) {
	for _, m := range members {
		if m.User == nil {
			continue
		}
		memberID := util.ParseSnowflake(m.User.ID)
		if !lists.IsBlacklisted(memberID) {
			continue
		}
		if ws.IsAntiKick(memberID) {
			shielded++
			continue
		}
		targets = append(targets, enforce.Actor{ID: memberID, Name: m.User.Username, Bot: m.User.Bot})
	}
	return targets, shielded
}

func (h *Handler) banScanTargets(ws *state.Workspace, targets []enforce.Actor) int {
	banned := 0
	for _, target := range targets {
		if h.enforcer.Ban(ws, target, "Deny-listed account found by scan") {
			h.metrics.BansIssued.Add(1)
			banned++
		}
	}
	return banned
}

// handleScanBlacklist sweeps the current member list against the global
// deny list and removes matches that are not shielded.
func (h *Handler) handleScanBlacklist(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if boolOption(i, "all-servers") {
		return h.handleScanAllServers(s, i)
	}

	allowed, err := h.checkAdmin(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondError(s, i, "You need Administrator permission to run a scan.")
		return nil
	}

	guildID := util.ParseSnowflake(i.GuildID)
	ws := h.registry.Get(guildID)
	if ws == nil {
		return fmt.Errorf("server is not registered yet")
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		return fmt.Errorf("failed to get guild: %w", err)
	}

	targets, shielded := scanTargets(h.lists, ws, guild.Members)
	banned := h.banScanTargets(ws, targets)

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "🔍 Deny-List Scan Complete",
		Description: fmt.Sprintf("Checked **%d** members.\nRemoved **%d** deny-listed accounts.\nSkipped **%d** shielded by anti-kick.",
			len(guild.Members), banned, shielded),
		Color: 0x3498DB,
	})
	return nil
}

func (h *Handler) handleScanAllServers(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "Scanning every server is restricted to the bot developer.")
		return nil
	}

	var servers, checked, banned, shielded int
	for _, g := range s.State.Guilds {
		ws := h.registry.Get(util.ParseSnowflake(g.ID))
		if ws == nil {
			continue
		}
		servers++
		checked += len(g.Members)

		targets, sh := scanTargets(h.lists, ws, g.Members)
		shielded += sh
		banned += h.banScanTargets(ws, targets)
	}

	logging.Warn("[LISTS] Developer scanned %d servers: %d removed, %d shielded", servers, banned, shielded)
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "🔍 Global Deny-List Scan Complete",
		Description: fmt.Sprintf("Scanned **%d** servers (**%d** members).\nRemoved **%d** deny-listed accounts.\nSkipped **%d** shielded by anti-kick.",
			servers, checked, banned, shielded),
		Color: 0x3498DB,
	})
	return nil
}

func (h *Handler) handleAddBlack(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "This command is restricted to the bot developer.")
		return nil
	}

	id := util.ParseSnowflake(stringOption(i, "id"))
	if id == 0 {
		return fmt.Errorf("invalid account ID")
	}
	reason := stringOption(i, "reason")
	if reason == "" {
		reason = "Manually deny-listed"
	}

	name := fmt.Sprintf("%d", id)
	if u, err := s.User(stringOption(i, "id")); err == nil {
		name = u.Username
	}

	_, created := h.lists.UpsertBlacklist(id, name, reason, 0)
	if !created {
		respondText(s, i, fmt.Sprintf("ℹ️ **%s** is already on the global deny list.", name))
		return nil
	}

	logging.Warn("[LISTS] Developer deny-listed %s (%d): %s", name, id, reason)
	respondText(s, i, fmt.Sprintf("✅ **%s** added to the global deny list.", name))
	return nil
}

func (h *Handler) handleRemoveBlack(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "This command is restricted to the bot developer.")
		return nil
	}

	id := util.ParseSnowflake(stringOption(i, "id"))
	if !h.lists.RemoveBlacklist(id) {
		respondText(s, i, "ℹ️ That account is not on the global deny list.")
		return nil
	}

	// Let every guild detect the account fresh if it misbehaves again.
	for _, ws := range h.registry.All() {
		ws.UnmarkBanned(id)
	}

	logging.Info("[LISTS] Developer removed %d from the global deny list", id)
	respondText(s, i, fmt.Sprintf("✅ `%d` removed from the global deny list.", id))
	return nil
}

func (h *Handler) handleCheckBlack(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "This command is restricted to the bot developer.")
		return nil
	}

	id := util.ParseSnowflake(stringOption(i, "id"))
	entry := h.lists.Blacklisted(id)
	if entry == nil {
		respondText(s, i, fmt.Sprintf("✅ `%d` is not on the global deny list.", id))
		return nil
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "🚫 Deny List Entry",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Account", Value: fmt.Sprintf("%s (`%d`)", entry.Name, entry.ID), Inline: false},
			{Name: "📋 Reason", Value: entry.Reason, Inline: false},
			{Name: "🕐 Flagged", Value: time.Unix(entry.Timestamp, 0).UTC().Format(time.RFC1123), Inline: false},
			{Name: "🌐 Detected In", Value: fmt.Sprintf("%d servers", len(entry.GuildsDetected)), Inline: false},
		},
		Color: 0xE74C3C,
	})
	return nil
}

func (h *Handler) handleAddWhite(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "This command is restricted to the bot developer.")
		return nil
	}

	id := util.ParseSnowflake(stringOption(i, "id"))
	if id == 0 {
		return fmt.Errorf("invalid account ID")
	}
	reason := stringOption(i, "reason")
	if reason == "" {
		reason = "Manually allow-listed"
	}

	name := fmt.Sprintf("%d", id)
	if u, err := s.User(stringOption(i, "id")); err == nil {
		name = u.Username
	}

	h.lists.AddAllow(id, name, reason)
	logging.Info("[LISTS] Developer allow-listed %s (%d): %s", name, id, reason)
	respondText(s, i, fmt.Sprintf("✅ **%s** added to the global allow list.", name))
	return nil
}

func (h *Handler) handleRemoveWhite(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "This command is restricted to the bot developer.")
		return nil
	}

	id := util.ParseSnowflake(stringOption(i, "id"))
	if !h.lists.RemoveAllow(id) {
		respondText(s, i, "ℹ️ That account is not on the global allow list.")
		return nil
	}

	logging.Info("[LISTS] Developer removed %d from the global allow list", id)
	respondText(s, i, fmt.Sprintf("✅ `%d` removed from the global allow list.", id))
	return nil
}
