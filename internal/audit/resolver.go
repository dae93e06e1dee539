package audit

import (
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

const cacheTTL = 5 * time.Second

// memberTargeted reports whether audit entries of this action type name
// the affected member. Kicks and bans resolve per target so one
// legitimate removal is never charged for an unrelated leave.
func memberTargeted(action int) bool {
	return action == int(discordgo.AuditLogActionMemberKick) ||
		action == int(discordgo.AuditLogActionMemberBanAdd)
}

func cacheKey(guildID string, action int, targetID uint64) string {
	key := guildID + ":" + strconv.Itoa(action)
	if memberTargeted(action) && targetID != 0 {
		key += ":" + strconv.FormatUint(targetID, 10)
	}
	return key
}

// entryCache stores recent audit resolutions so a burst of identical
// events does not hammer the audit log endpoint.
type entryCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedActor
}

type cachedActor struct {
	actor     Resolved
	timestamp time.Time
}

func (c *entryCache) store(guildID string, action int, targetID uint64, actor Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(guildID, action, targetID)] = &cachedActor{
		actor:     actor,
		timestamp: time.Now(),
	}

	for k, v := range c.entries {
		if time.Since(v.timestamp) > cacheTTL {
			delete(c.entries, k)
		}
	}
}

func (c *entryCache) get(guildID string, action int, targetID uint64) (Resolved, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, exists := c.entries[cacheKey(guildID, action, targetID)]; exists {
		if time.Since(entry.timestamp) < cacheTTL {
			return entry.actor, true
		}
	}
	return Resolved{}, false
}

// Resolved is the actor behind an audited event.
type Resolved struct {
	ID   uint64
	Name string
	Bot  bool
}

// Resolver answers "who did this" for events the gateway reports
// without an actor, by reading the guild audit log.
type Resolver struct {
	session *discordgo.Session
	lists   *state.Lists
	cache   *entryCache
	fetch   func(guildID, userID, beforeID string, actionType, limit int) (*discordgo.GuildAuditLog, error)
}

var globalResolver *Resolver

func InitResolver(session *discordgo.Session, lists *state.Lists) {
	globalResolver = NewResolver(session, lists)
}

func GetResolver() *Resolver {
	return globalResolver
}

func NewResolver(session *discordgo.Session, lists *state.Lists) *Resolver {
	r := &Resolver{
		session: session,
		lists:   lists,
		cache:   &entryCache{entries: make(map[string]*cachedActor)},
	}
	if session != nil {
		r.fetch = func(guildID, userID, beforeID string, actionType, limit int) (*discordgo.GuildAuditLog, error) {
			return session.GuildAuditLog(guildID, userID, beforeID, actionType, limit)
		}
	}
	return r
}

// Observe records an actor seen directly on a gateway audit entry, so
// the next matching event resolves without an API call.
func (r *Resolver) Observe(guildID string, action int, targetID uint64, actor Resolved) {
	r.cache.store(guildID, action, targetID, actor)
}

// ResolveActor finds the audit entry behind an event of the given
// action type. Kicks and bans only attribute when an entry names the
// target, so a voluntary leave resolves to nothing; structural actions
// attribute the newest entry of the type. Returns ok=false when the
// actor cannot be determined or should not be counted: the bot itself,
// and bots on the global allow list, are never actors.
func (r *Resolver) ResolveActor(guildID string, actionType int, targetID uint64) (Resolved, bool) {
	if actor, found := r.cache.get(guildID, actionType, targetID); found {
		return r.filter(actor)
	}

	audit, err := r.fetch(guildID, "", "", actionType, config.AuditLookback)
	if err != nil {
		logging.Warn("[AUDIT] Failed to fetch audit log for guild %s action %d: %v", guildID, actionType, err)
		return Resolved{}, false
	}
	if len(audit.AuditLogEntries) == 0 {
		return Resolved{}, false
	}

	userByID := make(map[string]*discordgo.User, len(audit.Users))
	for _, u := range audit.Users {
		userByID[u.ID] = u
	}

	if targetID != 0 {
		target := util.FormatSnowflake(targetID)
		for _, entry := range audit.AuditLogEntries {
			if entry.TargetID != target {
				continue
			}
			actor := resolvedFrom(entry, userByID)
			r.cache.store(guildID, actionType, targetID, actor)
			return r.filter(actor)
		}
		if memberTargeted(actionType) {
			return Resolved{}, false
		}
	}

	entry := audit.AuditLogEntries[0]
	actor := resolvedFrom(entry, userByID)
	r.cache.store(guildID, actionType, targetID, actor)
	return r.filter(actor)
}

func resolvedFrom(entry *discordgo.AuditLogEntry, users map[string]*discordgo.User) Resolved {
	actor := Resolved{ID: util.ParseSnowflake(entry.UserID)}
	if u, ok := users[entry.UserID]; ok {
		actor.Name = u.Username
		actor.Bot = u.Bot
	}
	return actor
}

func (r *Resolver) filter(actor Resolved) (Resolved, bool) {
	if actor.ID == 0 {
		return Resolved{}, false
	}
	if r.session != nil && r.session.State != nil && r.session.State.User != nil &&
		util.FormatSnowflake(actor.ID) == r.session.State.User.ID {
		return Resolved{}, false
	}
	if actor.Bot && r.lists.IsAllowed(actor.ID) {
		return Resolved{}, false
	}
	return actor, true
}
