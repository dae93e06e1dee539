package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
)

// handleAnnounceAll broadcasts a developer notice to every server. The
// announcer handles per-guild delivery, including the wait for an
// online admin where no immediate route exists.
func (h *Handler) handleAnnounceAll(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.checkDeveloper(i) {
		respondError(s, i, "This command is restricted to the bot developer.")
		return nil
	}

	message := stringOption(i, "message")
	if message == "" {
		return fmt.Errorf("a message is required")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📣 AntiNuke360 Announcement",
		Description: message,
		Color:       0x9B59B6,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	delivered, deferred := h.announcer.Broadcast(h.registry, embed)
	logging.Info("[ANNOUNCE] Developer broadcast: %d delivered, %d deferred", delivered, deferred)

	respondText(s, i, fmt.Sprintf("📣 Announcement sent to **%d** servers immediately; **%d** are waiting for an online admin.",
		delivered, deferred))
	return nil
}
