package enforce

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/metrics"
	"github.com/hoyin666/AntiNuke360/internal/notify"
	"github.com/hoyin666/AntiNuke360/internal/permwatch"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Platform is the ban slice of the API. Tests substitute fakes; the
// live implementation is a discordgo session.
type Platform interface {
	BanMember(guildID, userID, reason string) error
	IsMember(guildID, userID string) bool
}

// Actor identifies an offender at the moment of enforcement.
type Actor struct {
	ID   uint64
	Name string
	Bot  bool
}

// Enforcer removes offenders and handles the bot-offender deny-list
// flow: a flagged bot is recorded globally and swept out of every
// guild it sits in.
type Enforcer struct {
	platform Platform
	registry *state.Registry
	lists    *state.Lists
	monitor  *permwatch.Monitor
	router   *notify.Router
}

var globalEnforcer *Enforcer

func InitEnforcer(platform Platform, registry *state.Registry, lists *state.Lists, monitor *permwatch.Monitor, router *notify.Router) {
	globalEnforcer = NewEnforcer(platform, registry, lists, monitor, router)
}

func GetEnforcer() *Enforcer {
	return globalEnforcer
}

func NewEnforcer(platform Platform, registry *state.Registry, lists *state.Lists, monitor *permwatch.Monitor, router *notify.Router) *Enforcer {
	return &Enforcer{
		platform: platform,
		registry: registry,
		lists:    lists,
		monitor:  monitor,
		router:   router,
	}
}

// Ban removes the actor from the workspace. The session-ban reservation
// guarantees at most one platform ban call per actor per guild per
// session, however many concurrent events fire. Returns whether this
// call performed (or owns the outcome of) the removal.
func (e *Enforcer) Ban(ws *state.Workspace, actor Actor, reason string) bool {
	if !ws.TryMarkBanned(actor.ID) {
		return false
	}

	err := e.platform.BanMember(util.FormatSnowflake(ws.ID), util.FormatSnowflake(actor.ID), reason)
	switch {
	case err == nil:
		logging.Info("[ENFORCE] Banned %s (%d) from guild %d: %s", actor.Name, actor.ID, ws.ID, reason)
	case util.IsNotFound(err):
		// Already gone counts as removed.
		logging.Debug("[ENFORCE] Actor %d already absent from guild %d", actor.ID, ws.ID)
	case util.IsPermissionDenied(err):
		ws.UnmarkBanned(actor.ID)
		logging.Warn("[ENFORCE] Not authorized to ban %d in guild %d", actor.ID, ws.ID)
		e.monitor.RecordFailure(ws.ID)
		return false
	default:
		ws.UnmarkBanned(actor.ID)
		logging.Error("[ENFORCE] Ban of %d in guild %d failed: %v", actor.ID, ws.ID, err)
		return false
	}

	if actor.Bot {
		entry, created := e.lists.UpsertBlacklist(actor.ID, actor.Name, reason, ws.ID)
		if created {
			logging.Warn("[ENFORCE] Bot %s (%d) added to the global deny list", actor.Name, actor.ID)
		}
		go e.sweep(entry, ws.ID)
	}

	e.alert(ws, actor, reason)
	return true
}

// sweep bans a newly deny-listed bot from every other guild it is in,
// except where an owner explicitly shields it with anti-kick.
func (e *Enforcer) sweep(entry *state.BlacklistEntry, originID uint64) {
	botID := util.FormatSnowflake(entry.ID)
	for _, ws := range e.registry.All() {
		if ws.ID == originID {
			continue
		}
		if ws.IsAntiKick(entry.ID) {
			continue
		}
		if !e.platform.IsMember(util.FormatSnowflake(ws.ID), botID) {
			continue
		}
		if !ws.TryMarkBanned(entry.ID) {
			continue
		}
		err := e.platform.BanMember(util.FormatSnowflake(ws.ID), botID,
			fmt.Sprintf("Deny-listed bot (flagged in guild %d)", originID))
		if err != nil {
			ws.UnmarkBanned(entry.ID)
			if util.IsPermissionDenied(err) {
				e.monitor.RecordFailure(ws.ID)
			}
			logging.Warn("[ENFORCE] Sweep ban of %d in guild %d failed: %v", entry.ID, ws.ID, err)
			continue
		}
		e.lists.UpsertBlacklist(entry.ID, entry.Name, entry.Reason, ws.ID)
		e.alert(ws, Actor{ID: entry.ID, Name: entry.Name, Bot: true}, "Deny-listed bot removed")
	}
}

// alert escalates a removal notice once per actor per guild session.
func (e *Enforcer) alert(ws *state.Workspace, actor Actor, reason string) {
	if !ws.TryMarkNotified(actor.ID) {
		return
	}

	kind := "User"
	if actor.Bot {
		kind = "Bot"
	}
	embed := &discordgo.MessageEmbed{
		Title: "🛡️ Threat Removed",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Offender", Value: fmt.Sprintf("%s (`%d`)", actor.Name, actor.ID), Inline: true},
			{Name: "🏷️ Type", Value: kind, Inline: true},
			{Name: "📋 Reason", Value: reason, Inline: false},
		},
		Color:     0xE74C3C,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if e.router.Escalate(ws, embed) {
		metrics.GetRegistry().Escalations.Add(1)
	} else {
		logging.Warn("[ENFORCE] Could not deliver removal alert for guild %d", ws.ID)
	}
}
