package notify

import (
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Transport is the outbound messaging slice of the platform. The
// discordgo implementation lives in discord.go; tests substitute fakes.
type Transport interface {
	CanSend(channelID string) bool
	SendText(channelID, content string) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
	// OpenDM returns the DM channel ID for a user.
	OpenDM(userID string) (string, error)
}

// Member is the escalation-relevant view of a guild member.
type Member struct {
	ID       uint64
	Bot      bool
	Admin    bool
	Presence PresenceRank
	JoinedAt time.Time
}

type PresenceRank int

const (
	PresenceOnline PresenceRank = iota
	PresenceIdle
	PresenceDND
	PresenceOffline
)

// Directory enumerates a guild's members with presence and permissions.
type Directory interface {
	Members(guildID uint64) []Member
	Owner(guildID uint64) uint64
}

// Router delivers alerts through the escalation chain: configured log
// channel first, ranked direct messages when the channel is unset or
// unsendable.
type Router struct {
	transport Transport
	directory Directory
}

var globalRouter *Router

func InitRouter(transport Transport, directory Directory) {
	globalRouter = NewRouter(transport, directory)
}

func GetRouter() *Router {
	return globalRouter
}

func NewRouter(transport Transport, directory Directory) *Router {
	return &Router{transport: transport, directory: directory}
}

const dmFooterNote = "You are seeing this in a DM because this server has no log channel configured."

// Escalate sends the embed to the guild's log channel, falling back to
// direct messages for the owner and the top-ranked administrators.
// Returns whether anything was delivered.
func (r *Router) Escalate(ws *state.Workspace, embed *discordgo.MessageEmbed) bool {
	if chID := ws.LogChannel(); chID != 0 {
		channelID := util.FormatSnowflake(chID)
		if r.transport.CanSend(channelID) {
			if err := r.transport.SendEmbed(channelID, embed); err == nil {
				return true
			}
		}
	}
	return r.escalateDM(ws, embed)
}

func (r *Router) escalateDM(ws *state.Workspace, embed *discordgo.MessageEmbed) bool {
	recipients := RankRecipients(r.directory.Owner(ws.ID), r.directory.Members(ws.ID), config.MaxEscalationRecipients)
	if len(recipients) == 0 {
		logging.Warn("[NOTIFY] Guild %d has no reachable owner or admins", ws.ID)
		return false
	}

	dmEmbed := *embed
	if dmEmbed.Footer != nil && dmEmbed.Footer.Text != "" {
		dmEmbed.Footer = &discordgo.MessageEmbedFooter{Text: dmEmbed.Footer.Text + " | " + dmFooterNote}
	} else {
		dmEmbed.Footer = &discordgo.MessageEmbedFooter{Text: dmFooterNote}
	}

	sent := false
	for _, id := range recipients {
		channelID, err := r.transport.OpenDM(util.FormatSnowflake(id))
		if err != nil {
			continue
		}
		if err := r.transport.SendEmbed(channelID, &dmEmbed); err != nil {
			continue
		}
		sent = true
	}
	return sent
}

// RankRecipients builds the DM fallback list: owner first, then
// administrators ordered by presence (online before idle before dnd
// before offline) and by earliest join, capped.
func RankRecipients(ownerID uint64, members []Member, cap int) []uint64 {
	admins := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Bot || m.ID == ownerID || !m.Admin {
			continue
		}
		admins = append(admins, m)
	}
	sort.Slice(admins, func(i, j int) bool {
		if admins[i].Presence != admins[j].Presence {
			return admins[i].Presence < admins[j].Presence
		}
		return admins[i].JoinedAt.Before(admins[j].JoinedAt)
	})

	recipients := make([]uint64, 0, cap)
	if ownerID != 0 {
		recipients = append(recipients, ownerID)
	}
	for _, m := range admins {
		if len(recipients) >= cap {
			break
		}
		recipients = append(recipients, m.ID)
	}
	return recipients
}
