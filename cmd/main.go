package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/audit"
	"github.com/hoyin666/AntiNuke360/internal/bot"
	"github.com/hoyin666/AntiNuke360/internal/commands"
	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/database"
	"github.com/hoyin666/AntiNuke360/internal/enforce"
	"github.com/hoyin666/AntiNuke360/internal/guard"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/metrics"
	"github.com/hoyin666/AntiNuke360/internal/notify"
	"github.com/hoyin666/AntiNuke360/internal/permwatch"
	"github.com/hoyin666/AntiNuke360/internal/presence"
	"github.com/hoyin666/AntiNuke360/internal/restore"
	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

func main() {
	fmt.Println("Starting AntiNuke360")

	cfg := loadConfig()

	if err := logging.InitGlobalLogger(logging.LevelInfo, cfg.Storage.LogPath); err != nil {
		panic(err)
	}

	if err := database.Initialize(cfg.Storage.DatabasePath); err != nil {
		panic(err)
	}

	if err := initializeState(); err != nil {
		panic(err)
	}

	snapshot.InitStore(database.GetDB())
	restore.InitEngine(snapshot.GetStore())

	if cfg.Bot.Token == "" {
		panic("no Discord token configured")
	}
	if err := bot.Initialize(cfg.Bot.Token); err != nil {
		panic(err)
	}
	session := bot.GetSession()
	discord := session.GetDiscord()

	notify.InitRouter(&notify.DiscordTransport{Session: discord}, &notify.DiscordDirectory{Session: discord})
	notify.InitConfirmer(notify.GetRouter(), snapshot.GetStore(), restoreByGuild(discord))
	notify.InitAnnouncer(notify.GetRouter())

	permwatch.InitMonitor(alertPermissionLoss(), detachFromGuild(session))
	audit.InitResolver(discord, state.GetLists())
	enforce.InitEnforcer(session, state.GetRegistry(), state.GetLists(), permwatch.GetMonitor(), notify.GetRouter())

	tracker := guard.NewTracker(guard.NewResolver(state.GetLists()))
	reconciler := permwatch.NewReconciler(discord, permwatch.GetMonitor())

	deps := &bot.Deps{
		Registry:   state.GetRegistry(),
		Lists:      state.GetLists(),
		Tracker:    tracker,
		Enforcer:   enforce.GetEnforcer(),
		Confirmer:  notify.GetConfirmer(),
		Announcer:  notify.GetAnnouncer(),
		Resolver:   audit.GetResolver(),
		Store:      snapshot.GetStore(),
		Monitor:    permwatch.GetMonitor(),
		Reconciler: reconciler,
		Metrics:    metrics.GetRegistry(),
	}
	session.SetupEventHandlers(deps)

	if err := session.Connect(); err != nil {
		panic(err)
	}

	if err := commands.Initialize(
		session,
		state.GetRegistry(),
		state.GetLists(),
		snapshot.GetStore(),
		restore.GetEngine(),
		enforce.GetEnforcer(),
		notify.GetAnnouncer(),
		metrics.GetRegistry(),
		util.ParseSnowflake(cfg.Bot.DeveloperID),
	); err != nil {
		panic(err)
	}

	reconciler.Start()
	rotator := presence.NewRotator(discord)
	rotator.Start()

	var ops *metrics.OpsServer
	if cfg.Ops.Enabled {
		ops = metrics.NewOpsServer(metrics.GetRegistry())
		ops.Start(cfg.Ops.ListenAddr)
	}

	logging.Info("All components started successfully")

	waitForShutdown()

	rotator.Stop()
	reconciler.Stop()
	if ops != nil {
		ops.Stop()
	}
	session.Close()
	database.Close()

	logging.Info("Shutdown complete")
}

func loadConfig() *config.Config {
	cfg, err := config.Load("config.json")
	if err != nil {
		fmt.Printf("Config load failed, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}
	return cfg
}

// initializeState builds the in-memory registry and lists and reloads
// everything the database remembers from previous runs.
func initializeState() error {
	state.InitRegistry()
	state.InitLists(database.GetDB())

	db := database.GetDB()

	black, err := db.LoadBlacklist()
	if err != nil {
		return fmt.Errorf("failed to load deny list: %w", err)
	}
	allow, err := db.LoadAllowlist()
	if err != nil {
		return fmt.Errorf("failed to load allow list: %w", err)
	}
	state.GetLists().Preload(black, allow)
	logging.Info("Loaded %d deny-listed and %d allow-listed accounts", len(black), len(allow))

	guilds, err := db.LoadAllGuilds()
	if err != nil {
		return fmt.Errorf("failed to load guild settings: %w", err)
	}
	registry := state.GetRegistry()
	for _, g := range guilds {
		ws := registry.GetOrCreate(g.GuildID)
		ws.SetOwner(g.OwnerID)
		ws.SetLogChannel(g.LogChannelID)
		ws.SetWelcomeChannel(g.WelcomeChannelID)
	}

	exemptions, err := db.LoadExemptions()
	if err != nil {
		return fmt.Errorf("failed to load exemptions: %w", err)
	}
	now := time.Now().Unix()
	for _, row := range exemptions {
		ws := registry.GetOrCreate(row.GuildID)
		switch row.Tier {
		case "permanent":
			ws.AddPermanent(row.UserID)
		case "temporary":
			if row.Expiry > now {
				ws.AddTemporaryUntil(row.UserID, row.Expiry)
			} else {
				db.DeleteExemption(row.GuildID, row.UserID, row.Tier)
			}
		case "antikick":
			ws.AddAntiKick(row.UserID)
		}
	}

	logging.Info("State initialized for %d guilds", len(guilds))
	return nil
}

// restoreByGuild adapts the engine to the confirmer's callback shape.
func restoreByGuild(discord *discordgo.Session) notify.RestoreFunc {
	return func(guildID uint64) (int, int, bool, string) {
		surface, err := restore.NewDiscordSurface(discord, util.FormatSnowflake(guildID))
		if err != nil {
			return 0, 0, false, restore.ReasonNoAuthority
		}
		result := restore.GetEngine().Restore(guildID, surface)
		metrics.GetRegistry().RestoresRun.Add(1)
		return result.CreatedRoles, result.CreatedChannels, result.OK, result.Reason
	}
}

// alertPermissionLoss tells the guild that protection is going dark
// before the detach happens.
func alertPermissionLoss() func(guildID uint64) {
	return func(guildID uint64) {
		ws := state.GetRegistry().Get(guildID)
		if ws == nil {
			return
		}
		metrics.GetRegistry().PermFailures.Add(1)
		embed := &discordgo.MessageEmbed{
			Title: "⚠️ Protection Disabled",
			Description: "AntiNuke360 has lost the permissions it needs to protect this server " +
				"and is leaving. Re-invite it with Administrator to resume protection.",
			Color:     0xE67E22,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		notify.GetRouter().Escalate(ws, embed)
	}
}

func detachFromGuild(session *bot.Session) func(guildID uint64) {
	return func(guildID uint64) {
		if err := session.LeaveGuild(util.FormatSnowflake(guildID)); err != nil {
			logging.Error("Failed to leave guild %d: %v", guildID, err)
		}
	}
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("Shutdown signal received")
}
