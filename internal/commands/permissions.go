package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// checkAdmin reports whether the caller is the server owner or holds
// Administrator.
func (h *Handler) checkAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.Member == nil || i.Member.User == nil {
		return false, fmt.Errorf("command must be used in a server")
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
		if err != nil {
			return false, fmt.Errorf("failed to get guild: %w", err)
		}
	}
	if i.Member.User.ID == guild.OwnerID {
		return true, nil
	}

	permissions, err := s.State.UserChannelPermissions(i.Member.User.ID, i.ChannelID)
	if err != nil {
		permissions, err = s.UserChannelPermissions(i.Member.User.ID, i.ChannelID)
		if err != nil {
			return false, fmt.Errorf("failed to get permissions: %w", err)
		}
	}
	return permissions&discordgo.PermissionAdministrator != 0, nil
}

// checkOwnerOnly reports whether the caller owns the server.
func (h *Handler) checkOwnerOnly(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.Member == nil || i.Member.User == nil {
		return false, fmt.Errorf("command must be used in a server")
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
		if err != nil {
			return false, fmt.Errorf("failed to get guild: %w", err)
		}
	}
	return i.Member.User.ID == guild.OwnerID, nil
}

// checkDeveloper reports whether the caller operates the bot itself.
func (h *Handler) checkDeveloper(i *discordgo.InteractionCreate) bool {
	var userID string
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}
	return h.developerID != 0 && util.ParseSnowflake(userID) == h.developerID
}
