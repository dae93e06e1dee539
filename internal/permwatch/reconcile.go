package permwatch

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

const (
	reconcileInterval = time.Hour
	joinCheckDelay    = 10 * time.Minute
)

// Reconciler periodically verifies the bot still holds Administrator in
// every guild. A guild that dropped the permission gets the same
// alert-then-detach treatment as a failure burst.
type Reconciler struct {
	session *discordgo.Session
	monitor *Monitor
	stop    chan struct{}
}

func NewReconciler(session *discordgo.Session, monitor *Monitor) *Reconciler {
	return &Reconciler{
		session: session,
		monitor: monitor,
		stop:    make(chan struct{}),
	}
}

func (r *Reconciler) Start() {
	go r.loop()
}

func (r *Reconciler) Stop() {
	close(r.stop)
}

func (r *Reconciler) loop() {
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.checkAll()
		case <-r.stop:
			return
		}
	}
}

func (r *Reconciler) checkAll() {
	for _, g := range r.session.State.Guilds {
		r.CheckGuild(g.ID)
	}
}

// ScheduleJoinCheck runs a one-shot authority check shortly after the
// bot joins a guild, catching invites that skipped the Administrator
// grant before an attack can expose it.
func (r *Reconciler) ScheduleJoinCheck(guildID string) {
	go func() {
		select {
		case <-time.After(joinCheckDelay):
			r.CheckGuild(guildID)
		case <-r.stop:
		}
	}()
}

// CheckGuild alerts and detaches when baseline authority is gone.
func (r *Reconciler) CheckGuild(guildID string) {
	if r.hasAdministrator(guildID) {
		return
	}

	logging.Warn("[PERMISSION CHECK] Guild %s lost Administrator, alerting and leaving", guildID)
	gid := util.ParseSnowflake(guildID)
	if r.monitor.alert != nil {
		r.monitor.alert(gid)
	}
	if r.monitor.detach != nil {
		r.monitor.detach(gid)
	}
}

func (r *Reconciler) hasAdministrator(guildID string) bool {
	g, err := r.session.State.Guild(guildID)
	if err != nil {
		return true // unknown guilds are not our call to leave
	}
	member, err := r.session.State.Member(guildID, r.session.State.User.ID)
	if err != nil {
		return true
	}
	for _, rid := range member.Roles {
		for _, role := range g.Roles {
			if role.ID == rid && role.Permissions&discordgo.PermissionAdministrator != 0 {
				return true
			}
		}
	}
	return false
}
