package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/audit"
	"github.com/hoyin666/AntiNuke360/internal/database"
	"github.com/hoyin666/AntiNuke360/internal/enforce"
	"github.com/hoyin666/AntiNuke360/internal/guard"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/metrics"
	"github.com/hoyin666/AntiNuke360/internal/notify"
	"github.com/hoyin666/AntiNuke360/internal/permwatch"
	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Deps bundles the subsystems the event handlers drive.
type Deps struct {
	Registry   *state.Registry
	Lists      *state.Lists
	Tracker    *guard.Tracker
	Enforcer   *enforce.Enforcer
	Confirmer  *notify.Confirmer
	Announcer  *notify.Announcer
	Resolver   *audit.Resolver
	Store      *snapshot.Store
	Monitor    *permwatch.Monitor
	Reconciler *permwatch.Reconciler
	Metrics    *metrics.Registry
}

// SetupEventHandlers wires gateway events into the protection pipeline.
func (s *Session) SetupEventHandlers(deps *Deps) {
	logging.Info("Setting up Discord event handlers...")

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot ready! Connected as %s, serving %d guilds", r.User.Username, len(r.Guilds))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		s.onGuildCreate(sess, g, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildDelete) {
		s.onGuildDelete(g, deps)
	})

	// Gateway audit entries carry the actor directly. Feeding them into
	// the resolver cache spares an audit log fetch on the matching
	// direct event.
	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildAuditLogEntryCreate) {
		if e.GuildID == "" || e.ActionType == nil {
			return
		}
		actor := audit.Resolved{ID: util.ParseSnowflake(e.UserID)}
		if member, err := sess.State.Member(e.GuildID, e.UserID); err == nil && member.User != nil {
			actor.Name = member.User.Username
			actor.Bot = member.User.Bot
		}
		deps.Resolver.Observe(e.GuildID, int(*e.ActionType), util.ParseSnowflake(e.TargetID), actor)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelCreate) {
		if c.GuildID == "" {
			return
		}
		s.trackAudited(c.GuildID, int(discordgo.AuditLogActionChannelCreate), util.ParseSnowflake(c.ID), guard.ActionChannelCreate, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelDelete) {
		if c.GuildID == "" {
			return
		}
		s.trackAudited(c.GuildID, int(discordgo.AuditLogActionChannelDelete), util.ParseSnowflake(c.ID), guard.ActionChannelDelete, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.GuildRoleCreate) {
		if r.GuildID == "" {
			return
		}
		s.trackAudited(r.GuildID, int(discordgo.AuditLogActionRoleCreate), util.ParseSnowflake(r.Role.ID), guard.ActionRoleCreate, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, b *discordgo.GuildBanAdd) {
		if b.GuildID == "" || b.User == nil {
			return
		}
		s.trackAudited(b.GuildID, int(discordgo.AuditLogActionMemberBanAdd), util.ParseSnowflake(b.User.ID), guard.ActionMemberBan, deps)
	})

	// A member remove is only a kick when the audit log says so.
	// Voluntary leaves resolve to no matching entry and are ignored.
	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.GuildID == "" || m.User == nil {
			return
		}
		s.trackAudited(m.GuildID, int(discordgo.AuditLogActionMemberKick), util.ParseSnowflake(m.User.ID), guard.ActionMemberKick, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, w *discordgo.WebhooksUpdate) {
		if w.GuildID == "" {
			return
		}
		s.trackAudited(w.GuildID, int(discordgo.AuditLogActionWebhookCreate), 0, guard.ActionWebhookCreate, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
		s.onMemberAdd(sess, m, deps)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		s.onMessage(m, deps)
	})

	logging.Info("Event handlers registered")
}

func (s *Session) onGuildCreate(sess *discordgo.Session, g *discordgo.GuildCreate, deps *Deps) {
	logging.Info("Bot joined/loaded guild: %s (ID: %s)", g.Name, g.ID)

	guildID := util.ParseSnowflake(g.ID)
	ownerID := util.ParseSnowflake(g.OwnerID)

	ws := deps.Registry.GetOrCreate(guildID)
	ws.SetOwner(ownerID)
	ws.ResetSession()

	db := database.GetDB()
	firstJoin := false
	if db != nil {
		settings, err := db.LoadGuild(guildID)
		if err != nil {
			logging.Error("Failed to load settings for guild %s: %v", g.ID, err)
		}
		firstJoin = settings == nil && err == nil
		if settings != nil {
			ws.SetLogChannel(settings.LogChannelID)
			ws.SetWelcomeChannel(settings.WelcomeChannelID)
		}
		if err := db.EnsureGuild(guildID, ownerID); err != nil {
			logging.Error("Failed to persist guild %s: %v", g.ID, err)
		}
	}

	// Baseline snapshot so a restore is possible even if no bot ever
	// joins before an incident.
	if !deps.Store.HasValid(guildID) {
		if _, err := deps.Store.Capture(g.Guild); err != nil {
			logging.Warn("Failed to capture baseline snapshot for guild %s: %v", g.ID, err)
		} else {
			deps.Metrics.SnapshotsCaptured.Add(1)
		}
	}

	if firstJoin {
		s.sendWelcome(sess, g.Guild, ws)
	}

	deps.Reconciler.ScheduleJoinCheck(g.ID)
}

func (s *Session) onGuildDelete(g *discordgo.GuildDelete, deps *Deps) {
	if g.Unavailable {
		return
	}
	guildID := util.ParseSnowflake(g.ID)
	logging.Info("Bot removed from guild %s, clearing state", g.ID)

	deps.Confirmer.Cancel(guildID)
	deps.Announcer.CancelWait(guildID)
	deps.Registry.Remove(guildID)
	deps.Tracker.ClearGuild(guildID)
	deps.Monitor.Forget(guildID)
	deps.Store.Forget(guildID)
	if db := database.GetDB(); db != nil {
		if err := db.RemoveGuild(guildID); err != nil {
			logging.Error("Failed to remove guild %s from database: %v", g.ID, err)
		}
	}
}

// onMemberAdd refreshes the structure snapshot whenever a bot joins,
// and intercepts deny-listed accounts at the door.
func (s *Session) onMemberAdd(sess *discordgo.Session, m *discordgo.GuildMemberAdd, deps *Deps) {
	if m.GuildID == "" || m.User == nil {
		return
	}
	guildID := util.ParseSnowflake(m.GuildID)
	userID := util.ParseSnowflake(m.User.ID)

	ws := deps.Registry.Get(guildID)
	if ws == nil {
		return
	}

	if m.User.Bot && userID != s.BotID {
		if g, err := sess.State.Guild(m.GuildID); err == nil {
			if _, err := deps.Store.Capture(g); err != nil {
				logging.Warn("Snapshot capture on bot join failed for guild %s: %v", m.GuildID, err)
			} else {
				deps.Metrics.SnapshotsCaptured.Add(1)
				logging.Info("[SNAPSHOT] Captured guild %s before bot %s settles in", m.GuildID, m.User.Username)
			}
		}
	}

	if deps.Lists.IsBlacklisted(userID) && !ws.IsAntiKick(userID) {
		deps.Metrics.DenyListHits.Add(1)
		go func() {
			if deps.Enforcer.Ban(ws, enforce.Actor{ID: userID, Name: m.User.Username, Bot: m.User.Bot}, "Deny-listed account joined") {
				deps.Metrics.BansIssued.Add(1)
			}
		}()
	}
}

func (s *Session) onMessage(m *discordgo.MessageCreate, deps *Deps) {
	if m.Author == nil || util.ParseSnowflake(m.Author.ID) == s.BotID {
		return
	}
	authorID := util.ParseSnowflake(m.Author.ID)

	if m.GuildID == "" {
		deps.Confirmer.HandleDirectMessage(authorID, m.ChannelID, m.Content)
		return
	}

	guildID := util.ParseSnowflake(m.GuildID)
	if deps.Confirmer.HandleMessage(guildID, authorID, m.ChannelID, m.Content) {
		return
	}

	ws := deps.Registry.Get(guildID)
	if ws == nil {
		return
	}
	actor := audit.Resolved{ID: authorID, Name: m.Author.Username, Bot: m.Author.Bot}
	s.track(ws, actor, guard.ActionMessageBurst, deps)
}

// trackAudited resolves the actor behind an audited event and feeds the
// tracker. Events with no attributable actor are dropped.
func (s *Session) trackAudited(guildID string, actionType int, targetID uint64, action guard.Action, deps *Deps) {
	ws := deps.Registry.Get(util.ParseSnowflake(guildID))
	if ws == nil {
		return
	}

	actor, ok := deps.Resolver.ResolveActor(guildID, actionType, targetID)
	if !ok {
		logging.Debug("[EVENT] %s in guild %s with no attributable actor", action, guildID)
		return
	}

	s.track(ws, actor, action, deps)
}

func (s *Session) track(ws *state.Workspace, actor audit.Resolved, action guard.Action, deps *Deps) {
	deps.Metrics.EventsTracked.Add(1)

	offender := enforce.Actor{ID: actor.ID, Name: actor.Name, Bot: actor.Bot}
	switch deps.Tracker.Record(ws, actor.ID, action) {
	case guard.OutcomeDenylisted:
		deps.Metrics.DenyListHits.Add(1)
		go func() {
			if deps.Enforcer.Ban(ws, offender, "Deny-listed actor activity") {
				deps.Metrics.BansIssued.Add(1)
			}
		}()

	case guard.OutcomeExceeded:
		deps.Metrics.RateLimitTrips.Add(1)
		logging.Warn("[GUARD] Actor %d exceeded %s rate limit in guild %d", actor.ID, action, ws.ID)
		go func() {
			if deps.Enforcer.Ban(ws, offender, fmt.Sprintf("Rate limit exceeded: %s", action)) {
				deps.Metrics.BansIssued.Add(1)
				deps.Confirmer.PromptRestore(ws, actor.Name)
			}
		}()
	}
}

func (s *Session) sendWelcome(sess *discordgo.Session, g *discordgo.Guild, ws *state.Workspace) {
	embed := &discordgo.MessageEmbed{
		Title: "🛡️ AntiNuke360 Active",
		Description: "Thanks for adding AntiNuke360!\n\n" +
			"Your server is now protected against mass channel, role and member abuse. " +
			"A structure snapshot has been taken and stays refreshed automatically.\n\n" +
			"Run `/set-log-channel` so alerts land in one place, and `/status` to review the protection state.",
		Color: 0x2ECC71,
	}

	for _, ch := range g.Channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		perms, err := sess.State.UserChannelPermissions(sess.State.User.ID, ch.ID)
		if err != nil || perms&discordgo.PermissionSendMessages == 0 {
			continue
		}
		if _, err := sess.ChannelMessageSendEmbed(ch.ID, embed); err == nil {
			ws.SetWelcomeChannel(util.ParseSnowflake(ch.ID))
			if db := database.GetDB(); db != nil {
				db.SetWelcomeChannel(ws.ID, ws.WelcomeChannel())
			}
			return
		}
	}
	logging.Debug("No writable channel for welcome message in guild %s", g.ID)
}
