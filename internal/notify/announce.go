package notify

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Announcer fans an operator broadcast out to every guild. Guilds with
// a log channel get it immediately; otherwise the first online admin
// gets a DM; failing both, delivery waits up to the announce timeout
// for an admin to come online, polling on a fixed interval.
type Announcer struct {
	router *Router

	mu      sync.Mutex
	waiting map[uint64]chan struct{}

	timeout  time.Duration
	interval time.Duration
}

var globalAnnouncer *Announcer

func InitAnnouncer(router *Router) {
	globalAnnouncer = NewAnnouncer(router)
}

func GetAnnouncer() *Announcer {
	return globalAnnouncer
}

func NewAnnouncer(router *Router) *Announcer {
	return &Announcer{
		router:   router,
		waiting:  make(map[uint64]chan struct{}),
		timeout:  config.AnnounceWaitTimeout,
		interval: config.AnnounceCheckInterval,
	}
}

// Broadcast dispatches the embed to every registered workspace.
// Returns how many guilds received it immediately and how many entered
// the wait loop.
func (a *Announcer) Broadcast(registry *state.Registry, embed *discordgo.MessageEmbed) (delivered, deferred int) {
	for _, ws := range registry.All() {
		if a.deliver(ws, embed) {
			delivered++
			continue
		}
		deferred++
		a.scheduleWait(ws, embed)
	}
	logging.Info("[ANNOUNCE] Broadcast sent to %d guilds, %d waiting for an online admin", delivered, deferred)
	return delivered, deferred
}

// deliver tries the immediate paths: log channel, then a DM to the
// best-ranked currently online admin or owner.
func (a *Announcer) deliver(ws *state.Workspace, embed *discordgo.MessageEmbed) bool {
	if chID := ws.LogChannel(); chID != 0 {
		channelID := util.FormatSnowflake(chID)
		if a.router.transport.CanSend(channelID) {
			if a.router.transport.SendEmbed(channelID, embed) == nil {
				return true
			}
		}
	}
	return a.dmOnlineAdmin(ws, embed)
}

func (a *Announcer) dmOnlineAdmin(ws *state.Workspace, embed *discordgo.MessageEmbed) bool {
	ownerID := a.router.directory.Owner(ws.ID)
	for _, id := range RankRecipients(ownerID, a.router.directory.Members(ws.ID), config.MaxEscalationRecipients) {
		if !a.isOnline(ws.ID, id) {
			continue
		}
		dmID, err := a.router.transport.OpenDM(util.FormatSnowflake(id))
		if err != nil {
			continue
		}
		if a.router.transport.SendEmbed(dmID, embed) == nil {
			return true
		}
	}
	return false
}

func (a *Announcer) isOnline(guildID, userID uint64) bool {
	for _, m := range a.router.directory.Members(guildID) {
		if m.ID == userID {
			return m.Presence == PresenceOnline
		}
	}
	return false
}

// scheduleWait starts the polling loop for one guild. A newer broadcast
// for the same guild replaces an older waiter.
func (a *Announcer) scheduleWait(ws *state.Workspace, embed *discordgo.MessageEmbed) {
	stop := make(chan struct{})

	a.mu.Lock()
	if prev, ok := a.waiting[ws.ID]; ok {
		close(prev)
	}
	a.waiting[ws.ID] = stop
	a.mu.Unlock()

	go func() {
		defer a.clearWait(ws.ID, stop)

		deadline := time.NewTimer(a.timeout)
		defer deadline.Stop()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if a.dmOnlineAdmin(ws, embed) {
					return
				}
			case <-deadline.C:
				logging.Warn("[ANNOUNCE] Guild %d: no admin came online within %s, dropping announcement", ws.ID, a.timeout)
				return
			case <-stop:
				return
			}
		}
	}()
}

// CancelWait aborts a pending delivery, typically on guild departure.
func (a *Announcer) CancelWait(guildID uint64) {
	a.mu.Lock()
	stop, ok := a.waiting[guildID]
	if ok {
		delete(a.waiting, guildID)
	}
	a.mu.Unlock()
	if ok {
		close(stop)
	}
}

func (a *Announcer) clearWait(guildID uint64, stop chan struct{}) {
	a.mu.Lock()
	if cur, ok := a.waiting[guildID]; ok && cur == stop {
		delete(a.waiting, guildID)
	}
	a.mu.Unlock()
}
