package restore

import (
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Surface is the slice of the platform the engine mutates. The discord
// implementation lives in surface.go; tests substitute a fake.
type Surface interface {
	CanManage() bool
	TopRolePosition() int
	DefaultRoleID() string
	Channels() []*discordgo.Channel
	Roles() []*discordgo.Role
	HasMember(id string) bool

	DeleteChannel(id string) error
	DeleteRole(id string) error
	CreateRole(r snapshot.Role) (*discordgo.Role, error)
	ReorderRoles(roles []*discordgo.Role) error
	CreateChannel(data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	EditChannelPosition(id string, position int) error
	EditChannelSlowmode(id string, seconds int) error
}

// Result summarizes a restore run. OK reflects the preconditions only:
// partial per-item failures are the normal terminal state, never an
// error.
type Result struct {
	OK              bool
	Reason          string
	CreatedRoles    int
	CreatedChannels int
}

const (
	ReasonNoSnapshot  = "no valid snapshot"
	ReasonNoAuthority = "insufficient authority"
	paceRoleOps       = 150 * time.Millisecond
	paceChannelOps    = 120 * time.Millisecond
	paceRepositionOps = 80 * time.Millisecond
)

// Engine rebuilds a guild's structure from its snapshot. Mutations are
// issued serially with a small pacing delay; each step tolerates
// per-item failure and continues.
type Engine struct {
	store *snapshot.Store
	sleep func(time.Duration)
}

var globalEngine *Engine

func InitEngine(store *snapshot.Store) {
	globalEngine = NewEngine(store)
}

func GetEngine() *Engine {
	return globalEngine
}

func NewEngine(store *snapshot.Store) *Engine {
	return &Engine{
		store: store,
		sleep: time.Sleep,
	}
}

// Restore tears down the current structure and rebuilds it from the
// stored snapshot.
func (e *Engine) Restore(guildID uint64, surface Surface) Result {
	snap, err := e.store.Load(guildID)
	if err != nil {
		logging.Error("[RESTORE] Failed to load snapshot for guild %d: %v", guildID, err)
		return Result{Reason: ReasonNoSnapshot}
	}
	if !snap.IsValid() {
		return Result{Reason: ReasonNoSnapshot}
	}
	if !surface.CanManage() {
		return Result{Reason: ReasonNoAuthority}
	}

	logging.Info("[RESTORE] Starting restore for guild %d", guildID)

	e.clearChannels(surface)
	e.clearRoles(surface)

	roleMap, createdRoles := e.rebuildRoles(surface, snap)
	e.repositionRoles(surface, snap, roleMap)
	categoryMap := e.rebuildCategories(surface, snap, roleMap)
	createdChannels := e.rebuildChannels(surface, snap, roleMap, categoryMap)

	logging.Info("[RESTORE] Guild %d done: %d roles, %d channels created",
		guildID, createdRoles, createdChannels)

	return Result{
		OK:              true,
		CreatedRoles:    createdRoles,
		CreatedChannels: createdChannels,
	}
}

// clearChannels deletes every channel the bot is authorized to delete.
func (e *Engine) clearChannels(surface Surface) {
	for _, ch := range surface.Channels() {
		if err := surface.DeleteChannel(ch.ID); err != nil {
			logging.Warn("[RESTORE] Failed to delete channel %s: %v", ch.Name, err)
			continue
		}
		e.sleep(paceRoleOps)
	}
}

// clearRoles deletes roles ranked strictly below the bot's highest role.
// The implicit default role and anything at or above the bot's own rank
// are never touched.
func (e *Engine) clearRoles(surface Surface) {
	topPos := surface.TopRolePosition()
	defaultID := surface.DefaultRoleID()

	roles := surface.Roles()
	sort.Slice(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })

	for _, role := range roles {
		if role.ID == defaultID {
			continue
		}
		if role.Position >= topPos {
			logging.Debug("[RESTORE] Skipping role at or above bot rank: %s", role.Name)
			continue
		}
		if err := surface.DeleteRole(role.ID); err != nil {
			logging.Warn("[RESTORE] Failed to delete role %s: %v", role.Name, err)
			continue
		}
		e.sleep(paceRoleOps)
	}
}

// rebuildRoles recreates snapshot roles in ascending original rank. An
// existing role of identical name is reused instead of duplicated, so
// at most one role exists per distinct snapshot name.
func (e *Engine) rebuildRoles(surface Surface, snap *snapshot.Snapshot) (map[string]*discordgo.Role, int) {
	existing := make(map[string]*discordgo.Role)
	for _, r := range surface.Roles() {
		if _, ok := existing[r.Name]; !ok {
			existing[r.Name] = r
		}
	}

	ordered := make([]snapshot.Role, len(snap.Roles))
	copy(ordered, snap.Roles)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	roleMap := make(map[string]*discordgo.Role)
	created := 0
	for _, rdata := range ordered {
		if _, ok := roleMap[rdata.Name]; ok {
			continue
		}
		if role, ok := existing[rdata.Name]; ok {
			roleMap[rdata.Name] = role
			continue
		}
		role, err := surface.CreateRole(rdata)
		if err != nil {
			logging.Warn("[RESTORE] Failed to create role %s: %v", rdata.Name, err)
			continue
		}
		roleMap[rdata.Name] = role
		created++
		e.sleep(paceRoleOps)
	}
	return roleMap, created
}

// repositionRoles bulk-moves mapped roles to their recorded ranks. Pure
// best effort: a failure never fails the run.
func (e *Engine) repositionRoles(surface Surface, snap *snapshot.Snapshot, roleMap map[string]*discordgo.Role) {
	if len(roleMap) == 0 {
		return
	}

	positions := make(map[string]int, len(snap.Roles))
	for _, r := range snap.Roles {
		positions[r.Name] = r.Position
	}

	reordered := make([]*discordgo.Role, 0, len(roleMap))
	for name, role := range roleMap {
		if pos, ok := positions[name]; ok {
			moved := *role
			moved.Position = pos
			reordered = append(reordered, &moved)
		}
	}
	sort.Slice(reordered, func(i, j int) bool { return reordered[i].Position < reordered[j].Position })

	if err := surface.ReorderRoles(reordered); err != nil {
		logging.Warn("[RESTORE] Bulk role reposition failed: %v", err)
	}
}

// rebuildCategories recreates categories in recorded rank order,
// reusing same-name survivors. Overwrite targets that cannot be
// resolved are dropped, not fatal.
func (e *Engine) rebuildCategories(surface Surface, snap *snapshot.Snapshot, roleMap map[string]*discordgo.Role) map[string]*discordgo.Channel {
	existing := make(map[string]*discordgo.Channel)
	for _, ch := range surface.Channels() {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			if _, ok := existing[ch.Name]; !ok {
				existing[ch.Name] = ch
			}
		}
	}

	ordered := make([]snapshot.Category, len(snap.Categories))
	copy(ordered, snap.Categories)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	categoryMap := make(map[string]*discordgo.Channel)
	for _, cdata := range ordered {
		if _, ok := categoryMap[cdata.Name]; ok {
			continue
		}
		if cat, ok := existing[cdata.Name]; ok {
			categoryMap[cdata.Name] = cat
			continue
		}
		cat, err := surface.CreateChannel(discordgo.GuildChannelCreateData{
			Name:                 cdata.Name,
			Type:                 discordgo.ChannelTypeGuildCategory,
			PermissionOverwrites: e.resolveOverwrites(surface, cdata.Overwrites, roleMap),
		})
		if err != nil {
			logging.Warn("[RESTORE] Failed to create category %s: %v", cdata.Name, err)
			continue
		}
		categoryMap[cdata.Name] = cat
		e.sleep(paceChannelOps)
	}
	return categoryMap
}

// rebuildChannels recreates channels in recorded rank order, linked to
// their rebuilt parent category by name. Creation APIs cannot set the
// final intra-category order atomically, so a trailing reposition pass
// runs afterwards.
func (e *Engine) rebuildChannels(surface Surface, snap *snapshot.Snapshot, roleMap map[string]*discordgo.Role, categoryMap map[string]*discordgo.Channel) int {
	ordered := make([]snapshot.Channel, len(snap.Channels))
	copy(ordered, snap.Channels)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	type placed struct {
		id       string
		position int
	}

	var createdList []placed
	seen := make(map[string]struct{})
	for _, chdata := range ordered {
		if chdata.Kind != "text" && chdata.Kind != "voice" {
			continue
		}
		if _, ok := seen[chdata.Name]; ok {
			continue
		}
		seen[chdata.Name] = struct{}{}

		data := discordgo.GuildChannelCreateData{
			Name:                 chdata.Name,
			PermissionOverwrites: e.resolveOverwrites(surface, chdata.Overwrites, roleMap),
		}
		if parent, ok := categoryMap[chdata.Parent]; ok && chdata.Parent != "" {
			data.ParentID = parent.ID
		}
		switch chdata.Kind {
		case "text":
			data.Type = discordgo.ChannelTypeGuildText
			data.Topic = chdata.Topic
			data.NSFW = chdata.NSFW
		case "voice":
			data.Type = discordgo.ChannelTypeGuildVoice
			data.Bitrate = chdata.Bitrate
			data.UserLimit = chdata.UserLimit
		}

		ch, err := surface.CreateChannel(data)
		if err != nil {
			logging.Warn("[RESTORE] Failed to create channel %s: %v", chdata.Name, err)
			continue
		}
		if chdata.Kind == "text" && chdata.Slowmode > 0 {
			if err := surface.EditChannelSlowmode(ch.ID, chdata.Slowmode); err != nil {
				logging.Debug("[RESTORE] Failed to set slowmode on %s: %v", chdata.Name, err)
			}
		}
		createdList = append(createdList, placed{id: ch.ID, position: chdata.Position})
		e.sleep(paceChannelOps)
	}

	for _, p := range createdList {
		if err := surface.EditChannelPosition(p.id, p.position); err != nil {
			logging.Debug("[RESTORE] Failed to reposition channel %s: %v", p.id, err)
		}
		e.sleep(paceRepositionOps)
	}

	return len(createdList)
}

// resolveOverwrites maps snapshot overwrites back to live targets: role
// names through the rebuild map, member IDs only when the member is
// still present.
func (e *Engine) resolveOverwrites(surface Surface, src []snapshot.Overwrite, roleMap map[string]*discordgo.Role) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(src))
	for _, ow := range src {
		switch ow.Kind {
		case "role":
			role, ok := roleMap[ow.RoleName]
			if !ok {
				continue
			}
			out = append(out, &discordgo.PermissionOverwrite{
				ID:    role.ID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: ow.Allow,
				Deny:  ow.Deny,
			})
		case "member":
			id := util.FormatSnowflake(ow.MemberID)
			if !surface.HasMember(id) {
				continue
			}
			out = append(out, &discordgo.PermissionOverwrite{
				ID:    id,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: ow.Allow,
				Deny:  ow.Deny,
			})
		}
	}
	return out
}
