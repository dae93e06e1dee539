package snapshot

import (
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Snapshot is a structural baseline of a guild: roles, categories and
// channels with their permission overwrites, ordered by position. One
// snapshot exists per guild; a new capture replaces the old one.
type Snapshot struct {
	GuildID    uint64     `json:"guild_id"`
	Timestamp  int64      `json:"timestamp"`
	Roles      []Role     `json:"roles"`
	Categories []Category `json:"categories"`
	Channels   []Channel  `json:"channels"`
}

type Role struct {
	Name        string `json:"name"`
	Permissions int64  `json:"permissions"`
	Color       int    `json:"color"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
	Position    int    `json:"position"`
}

// Overwrite records a permission overlay. Role targets are keyed by
// name so they can be re-linked to recreated roles; member targets keep
// their ID.
type Overwrite struct {
	Kind     string `json:"type"` // "role" or "member"
	RoleName string `json:"role_name,omitempty"`
	MemberID uint64 `json:"member_id,omitempty"`
	Allow    int64  `json:"allow"`
	Deny     int64  `json:"deny"`
}

type Category struct {
	Name       string      `json:"name"`
	Position   int         `json:"position"`
	Overwrites []Overwrite `json:"overwrites"`
}

type Channel struct {
	Name       string      `json:"name"`
	Kind       string      `json:"type"` // "text", "voice" or "other"
	Position   int         `json:"position"`
	Parent     string      `json:"parent,omitempty"`
	Overwrites []Overwrite `json:"overwrites"`
	Topic      string      `json:"topic,omitempty"`
	NSFW       bool        `json:"nsfw,omitempty"`
	Slowmode   int         `json:"slowmode,omitempty"`
	Bitrate    int         `json:"bitrate,omitempty"`
	UserLimit  int         `json:"user_limit,omitempty"`
}

// Build reads the guild's cached structure into a snapshot. The implicit
// @everyone role (ID equal to the guild ID) is excluded.
func Build(g *discordgo.Guild) *Snapshot {
	snap := &Snapshot{
		GuildID:    util.ParseSnowflake(g.ID),
		Timestamp:  time.Now().Unix(),
		Roles:      make([]Role, 0, len(g.Roles)),
		Categories: make([]Category, 0),
		Channels:   make([]Channel, 0, len(g.Channels)),
	}

	roleNames := make(map[string]string, len(g.Roles))
	for _, r := range g.Roles {
		roleNames[r.ID] = r.Name
		if r.ID == g.ID {
			continue
		}
		snap.Roles = append(snap.Roles, Role{
			Name:        r.Name,
			Permissions: r.Permissions,
			Color:       r.Color,
			Hoist:       r.Hoist,
			Mentionable: r.Mentionable,
			Position:    r.Position,
		})
	}
	sort.Slice(snap.Roles, func(i, j int) bool {
		return snap.Roles[i].Position < snap.Roles[j].Position
	})

	categories := make([]*discordgo.Channel, 0)
	channels := make([]*discordgo.Channel, 0)
	categoryNames := make(map[string]string)
	for _, ch := range g.Channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories = append(categories, ch)
			categoryNames[ch.ID] = ch.Name
		} else {
			channels = append(channels, ch)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Position < categories[j].Position
	})
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})

	for _, c := range categories {
		snap.Categories = append(snap.Categories, Category{
			Name:       c.Name,
			Position:   c.Position,
			Overwrites: buildOverwrites(c.PermissionOverwrites, roleNames),
		})
	}

	for _, ch := range channels {
		entry := Channel{
			Name:       ch.Name,
			Kind:       channelKind(ch.Type),
			Position:   ch.Position,
			Parent:     categoryNames[ch.ParentID],
			Overwrites: buildOverwrites(ch.PermissionOverwrites, roleNames),
		}
		switch ch.Type {
		case discordgo.ChannelTypeGuildText:
			entry.Topic = ch.Topic
			entry.NSFW = ch.NSFW
			entry.Slowmode = ch.RateLimitPerUser
		case discordgo.ChannelTypeGuildVoice:
			entry.Bitrate = ch.Bitrate
			entry.UserLimit = ch.UserLimit
		}
		snap.Channels = append(snap.Channels, entry)
	}

	return snap
}

func buildOverwrites(src []*discordgo.PermissionOverwrite, roleNames map[string]string) []Overwrite {
	out := make([]Overwrite, 0, len(src))
	for _, ow := range src {
		switch ow.Type {
		case discordgo.PermissionOverwriteTypeRole:
			name, ok := roleNames[ow.ID]
			if !ok {
				continue
			}
			out = append(out, Overwrite{
				Kind:     "role",
				RoleName: name,
				Allow:    ow.Allow,
				Deny:     ow.Deny,
			})
		case discordgo.PermissionOverwriteTypeMember:
			out = append(out, Overwrite{
				Kind:     "member",
				MemberID: util.ParseSnowflake(ow.ID),
				Allow:    ow.Allow,
				Deny:     ow.Deny,
			})
		}
	}
	return out
}

func channelKind(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeGuildVoice:
		return "voice"
	default:
		return "other"
	}
}

// IsValid reports whether the snapshot is still inside its TTL.
func (s *Snapshot) IsValid() bool {
	if s == nil {
		return false
	}
	return time.Now().Unix()-s.Timestamp <= int64(config.SnapshotTTL.Seconds())
}

// TimeRemaining returns the seconds left before the snapshot expires,
// never negative.
func (s *Snapshot) TimeRemaining() int64 {
	if s == nil {
		return 0
	}
	expiresAt := s.Timestamp + int64(config.SnapshotTTL.Seconds())
	remaining := expiresAt - time.Now().Unix()
	if remaining < 0 {
		return 0
	}
	return remaining
}
