package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Session wraps the Discord connection and owns handler registration.
type Session struct {
	discord *discordgo.Session
	token   string
	BotID   uint64
}

var globalSession *Session

// Initialize creates the Discord session with the intents the
// protection pipeline needs.
func Initialize(token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsAll
	dg.StateEnabled = true

	globalSession = &Session{
		discord: dg,
		token:   token,
	}
	return nil
}

func GetSession() *Session {
	return globalSession
}

func (s *Session) GetDiscord() *discordgo.Session {
	return s.discord
}

// Connect opens the gateway connection and records the bot's own ID.
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		s.BotID = util.ParseSnowflake(s.discord.State.User.ID)
		logging.Info("Bot ID: %d", s.BotID)
	}

	logging.Info("Discord bot connected successfully")
	return nil
}

func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// RegisterCommands registers the slash command set globally.
func (s *Session) RegisterCommands(commands []*discordgo.ApplicationCommand) error {
	logging.Info("Registering %d slash commands...", len(commands))

	for _, cmd := range commands {
		if _, err := s.discord.ApplicationCommandCreate(s.discord.State.User.ID, "", cmd); err != nil {
			logging.Error("Failed to register command %s: %v", cmd.Name, err)
			return err
		}
	}

	logging.Info("All slash commands registered")
	return nil
}

// BanMember implements the enforcement platform with zero-day message
// pruning so the offender's spam survives for evidence.
func (s *Session) BanMember(guildID, userID, reason string) error {
	return s.discord.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

// IsMember reports cached guild membership.
func (s *Session) IsMember(guildID, userID string) bool {
	_, err := s.discord.State.Member(guildID, userID)
	return err == nil
}

// LeaveGuild detaches the bot from a guild.
func (s *Session) LeaveGuild(guildID string) error {
	return s.discord.GuildLeave(guildID)
}
