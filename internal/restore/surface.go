package restore

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Mutations retry transient REST failures. Permission and not-found
// responses are terminal, the engine handles those per item.
var restRetry = util.RetryPolicy{Attempts: 3, Backoff: 250 * time.Millisecond}

func retryableRESTError(err error) bool {
	return !util.IsPermissionDenied(err) && !util.IsNotFound(err)
}

// discordSurface adapts a live discordgo session to the Surface the
// engine mutates.
type discordSurface struct {
	s       *discordgo.Session
	guildID string
}

func NewDiscordSurface(s *discordgo.Session, guildID string) (Surface, error) {
	if _, err := s.State.Guild(guildID); err != nil {
		return nil, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}
	return &discordSurface{s: s, guildID: guildID}, nil
}

func (d *discordSurface) guild() *discordgo.Guild {
	g, err := d.s.State.Guild(d.guildID)
	if err != nil {
		return &discordgo.Guild{ID: d.guildID}
	}
	return g
}

// botPermissions ORs the guild-level permissions of every role the bot
// holds, including @everyone.
func (d *discordSurface) botPermissions() int64 {
	g := d.guild()
	member, err := d.s.State.Member(d.guildID, d.s.State.User.ID)
	if err != nil {
		return 0
	}

	roleByID := make(map[string]*discordgo.Role, len(g.Roles))
	for _, r := range g.Roles {
		roleByID[r.ID] = r
	}

	var perms int64
	if everyone, ok := roleByID[d.guildID]; ok {
		perms |= everyone.Permissions
	}
	for _, rid := range member.Roles {
		if r, ok := roleByID[rid]; ok {
			perms |= r.Permissions
		}
	}
	return perms
}

func (d *discordSurface) CanManage() bool {
	perms := d.botPermissions()
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	need := int64(discordgo.PermissionManageRoles | discordgo.PermissionManageChannels)
	return perms&need == need
}

func (d *discordSurface) TopRolePosition() int {
	g := d.guild()
	member, err := d.s.State.Member(d.guildID, d.s.State.User.ID)
	if err != nil {
		return -1
	}

	top := -1
	for _, rid := range member.Roles {
		for _, r := range g.Roles {
			if r.ID == rid && r.Position > top {
				top = r.Position
			}
		}
	}
	return top
}

func (d *discordSurface) DefaultRoleID() string {
	return d.guildID
}

func (d *discordSurface) Channels() []*discordgo.Channel {
	return d.guild().Channels
}

func (d *discordSurface) Roles() []*discordgo.Role {
	return d.guild().Roles
}

func (d *discordSurface) HasMember(id string) bool {
	_, err := d.s.State.Member(d.guildID, id)
	return err == nil
}

func (d *discordSurface) DeleteChannel(id string) error {
	return restRetry.Do(func() error {
		_, err := d.s.ChannelDelete(id)
		return err
	}, retryableRESTError)
}

func (d *discordSurface) DeleteRole(id string) error {
	return restRetry.Do(func() error {
		return d.s.GuildRoleDelete(d.guildID, id)
	}, retryableRESTError)
}

func (d *discordSurface) CreateRole(r snapshot.Role) (*discordgo.Role, error) {
	color := r.Color
	hoist := r.Hoist
	mentionable := r.Mentionable
	perms := r.Permissions

	var role *discordgo.Role
	err := restRetry.Do(func() error {
		var err error
		role, err = d.s.GuildRoleCreate(d.guildID, &discordgo.RoleParams{
			Name:        r.Name,
			Color:       &color,
			Hoist:       &hoist,
			Permissions: &perms,
			Mentionable: &mentionable,
		})
		return err
	}, retryableRESTError)
	return role, err
}

func (d *discordSurface) ReorderRoles(roles []*discordgo.Role) error {
	return restRetry.Do(func() error {
		_, err := d.s.GuildRoleReorder(d.guildID, roles)
		return err
	}, retryableRESTError)
}

func (d *discordSurface) CreateChannel(data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	var ch *discordgo.Channel
	err := restRetry.Do(func() error {
		var err error
		ch, err = d.s.GuildChannelCreateComplex(d.guildID, data)
		return err
	}, retryableRESTError)
	return ch, err
}

func (d *discordSurface) EditChannelPosition(id string, position int) error {
	return restRetry.Do(func() error {
		_, err := d.s.ChannelEditComplex(id, &discordgo.ChannelEdit{Position: &position})
		return err
	}, retryableRESTError)
}

func (d *discordSurface) EditChannelSlowmode(id string, seconds int) error {
	return restRetry.Do(func() error {
		_, err := d.s.ChannelEditComplex(id, &discordgo.ChannelEdit{RateLimitPerUser: &seconds})
		return err
	}, retryableRESTError)
}
