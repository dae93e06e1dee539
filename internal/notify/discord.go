package notify

import (
	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// DiscordTransport backs Transport with a live discordgo session.
type DiscordTransport struct {
	Session *discordgo.Session
}

func (t *DiscordTransport) CanSend(channelID string) bool {
	ch, err := t.Session.State.Channel(channelID)
	if err != nil {
		return false
	}
	perms, err := t.Session.State.UserChannelPermissions(t.Session.State.User.ID, ch.ID)
	if err != nil {
		return false
	}
	need := int64(discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks)
	return perms&discordgo.PermissionAdministrator != 0 || perms&need == need
}

func (t *DiscordTransport) SendText(channelID, content string) error {
	_, err := t.Session.ChannelMessageSend(channelID, content)
	return err
}

func (t *DiscordTransport) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := t.Session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (t *DiscordTransport) OpenDM(userID string) (string, error) {
	ch, err := t.Session.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// DiscordDirectory backs Directory with discordgo state, folding member
// roles and cached presences into the escalation view.
type DiscordDirectory struct {
	Session *discordgo.Session
}

func (d *DiscordDirectory) Owner(guildID uint64) uint64 {
	g, err := d.Session.State.Guild(util.FormatSnowflake(guildID))
	if err != nil {
		return 0
	}
	return util.ParseSnowflake(g.OwnerID)
}

func (d *DiscordDirectory) Members(guildID uint64) []Member {
	g, err := d.Session.State.Guild(util.FormatSnowflake(guildID))
	if err != nil {
		return nil
	}

	adminRoles := make(map[string]struct{})
	for _, r := range g.Roles {
		if r.Permissions&discordgo.PermissionAdministrator != 0 {
			adminRoles[r.ID] = struct{}{}
		}
	}

	presence := make(map[string]PresenceRank, len(g.Presences))
	for _, p := range g.Presences {
		if p.User == nil {
			continue
		}
		presence[p.User.ID] = rankStatus(p.Status)
	}

	members := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m.User == nil {
			continue
		}
		admin := false
		for _, rid := range m.Roles {
			if _, ok := adminRoles[rid]; ok {
				admin = true
				break
			}
		}
		rank, ok := presence[m.User.ID]
		if !ok {
			rank = PresenceOffline
		}
		members = append(members, Member{
			ID:       util.ParseSnowflake(m.User.ID),
			Bot:      m.User.Bot,
			Admin:    admin,
			Presence: rank,
			JoinedAt: m.JoinedAt,
		})
	}
	return members
}

func rankStatus(status discordgo.Status) PresenceRank {
	switch status {
	case discordgo.StatusOnline:
		return PresenceOnline
	case discordgo.StatusIdle:
		return PresenceIdle
	case discordgo.StatusDoNotDisturb:
		return PresenceDND
	default:
		return PresenceOffline
	}
}
