package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/bot"
	"github.com/hoyin666/AntiNuke360/internal/enforce"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/metrics"
	"github.com/hoyin666/AntiNuke360/internal/notify"
	"github.com/hoyin666/AntiNuke360/internal/restore"
	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/internal/state"
)

// Handler manages all command interactions
type Handler struct {
	session     *bot.Session
	registry    *state.Registry
	lists       *state.Lists
	store       *snapshot.Store
	engine      *restore.Engine
	enforcer    *enforce.Enforcer
	announcer   *notify.Announcer
	metrics     *metrics.Registry
	developerID uint64
}

var globalHandler *Handler

// Initialize creates the command handler and registers the command set.
func Initialize(session *bot.Session, registry *state.Registry, lists *state.Lists, store *snapshot.Store, engine *restore.Engine, enforcer *enforce.Enforcer, announcer *notify.Announcer, reg *metrics.Registry, developerID uint64) error {
	globalHandler = &Handler{
		session:     session,
		registry:    registry,
		lists:       lists,
		store:       store,
		engine:      engine,
		enforcer:    enforcer,
		announcer:   announcer,
		metrics:     reg,
		developerID: developerID,
	}

	session.GetDiscord().AddHandler(globalHandler.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

func GetHandler() *Handler {
	return globalHandler
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	h.handleCommand(s, i)
}

// handleCommand routes slash commands to their handlers
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var err error
	switch data.Name {
	case "status":
		err = h.handleStatus(s, i)
	case "stats":
		err = h.handleStats(s, i)
	case "set-log-channel":
		err = h.handleSetLogChannel(s, i)
	case "add-server-temp":
		err = h.handleExemption(s, i, tierTemporary, true)
	case "remove-server-temp":
		err = h.handleExemption(s, i, tierTemporary, false)
	case "add-server-perm":
		err = h.handleExemption(s, i, tierPermanent, true)
	case "remove-server-perm":
		err = h.handleExemption(s, i, tierPermanent, false)
	case "add-server-anti-kick":
		err = h.handleExemption(s, i, tierAntiKick, true)
	case "remove-server-anti-kick":
		err = h.handleExemption(s, i, tierAntiKick, false)
	case "server-whitelist":
		err = h.handleServerWhitelist(s, i)
	case "scan-blacklist":
		err = h.handleScanBlacklist(s, i)
	case "restore-snapshot":
		err = h.handleRestoreSnapshot(s, i)
	case "add-black":
		err = h.handleAddBlack(s, i)
	case "remove-black":
		err = h.handleRemoveBlack(s, i)
	case "check-black":
		err = h.handleCheckBlack(s, i)
	case "add-white":
		err = h.handleAddWhite(s, i)
	case "remove-white":
		err = h.handleRemoveWhite(s, i)
	case "announce-all":
		err = h.handleAnnounceAll(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ Error: %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
