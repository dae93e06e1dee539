package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/logging"
	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/internal/state"
	"github.com/hoyin666/AntiNuke360/pkg/util"
)

// Outcome is the terminal state of a restore confirmation prompt.
type Outcome int

const (
	OutcomeConfirmed Outcome = iota
	OutcomeDeclined
	OutcomeTimedOut
	OutcomeCancelled
)

// RestoreFunc executes the restore and reports created counts.
type RestoreFunc func(guildID uint64) (roles, channels int, ok bool, reason string)

type pendingPrompt struct {
	ownerID   uint64
	channelID string // guarded by Confirmer.mu
	answer    chan string
	done      chan struct{}
}

// Confirmer runs the ask-the-owner flow after an offender ban: it posts
// a Y/N prompt, waits for the owner's reply, and either triggers the
// restore or reports how long the snapshot stays usable. Only one
// prompt per guild may be awaiting an answer at a time.
type Confirmer struct {
	router  *Router
	store   *snapshot.Store
	restore RestoreFunc

	mu      sync.Mutex
	pending map[uint64]*pendingPrompt

	timeout time.Duration
}

var globalConfirmer *Confirmer

func InitConfirmer(router *Router, store *snapshot.Store, restore RestoreFunc) {
	globalConfirmer = NewConfirmer(router, store, restore)
}

func GetConfirmer() *Confirmer {
	return globalConfirmer
}

func NewConfirmer(router *Router, store *snapshot.Store, restore RestoreFunc) *Confirmer {
	return &Confirmer{
		router:  router,
		store:   store,
		restore: restore,
		pending: make(map[uint64]*pendingPrompt),
		timeout: config.RestoreConfirmTimeout,
	}
}

// PromptRestore offers the guild owner a restore after an offender was
// removed. Skipped when no valid snapshot exists, when a prompt is
// already pending, or inside the per-guild cooldown.
func (c *Confirmer) PromptRestore(ws *state.Workspace, offenderName string) {
	snap, err := c.store.Load(ws.ID)
	if err != nil {
		logging.Error("[CONFIRM] Failed to load snapshot for guild %d: %v", ws.ID, err)
		return
	}
	if !snap.IsValid() {
		return
	}
	if !ws.TryStampRestorePrompt(config.RestorePromptCooldown) {
		return
	}

	c.mu.Lock()
	if _, exists := c.pending[ws.ID]; exists {
		c.mu.Unlock()
		return
	}
	p := &pendingPrompt{
		ownerID: ws.Owner(),
		answer:  make(chan string, 1),
		done:    make(chan struct{}),
	}
	c.pending[ws.ID] = p
	c.mu.Unlock()

	go c.run(ws, p, offenderName, snap)
}

func (c *Confirmer) run(ws *state.Workspace, p *pendingPrompt, offenderName string, snap *snapshot.Snapshot) {
	defer c.drop(ws.ID, p)

	channelID, ok := c.deliverPrompt(ws, p, offenderName, snap)
	if !ok {
		return
	}
	c.mu.Lock()
	p.channelID = channelID
	c.mu.Unlock()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case reply := <-p.answer:
		if reply == "y" {
			c.finish(ws, channelID, OutcomeConfirmed, snap)
		} else {
			c.finish(ws, channelID, OutcomeDeclined, snap)
		}
	case <-timer.C:
		c.finish(ws, channelID, OutcomeTimedOut, snap)
	case <-p.done:
		logging.Info("[CONFIRM] Prompt for guild %d cancelled", ws.ID)
	}
}

// deliverPrompt posts the Y/N question to the log channel or the
// owner's DM and returns the channel the answer must arrive on.
func (c *Confirmer) deliverPrompt(ws *state.Workspace, p *pendingPrompt, offenderName string, snap *snapshot.Snapshot) (string, bool) {
	embed := &discordgo.MessageEmbed{
		Title: "🚨 Suspicious Activity Stopped",
		Description: fmt.Sprintf(
			"**%s** was removed after crossing the rate limit.\n\n"+
				"A structure snapshot from before the incident is available "+
				"for another **%s**.\n"+
				"Reply **Y** to restore the server now or **N** to keep it as is.\n"+
				"This prompt expires in %d minutes.",
			offenderName, util.FormatHoursMinutes(snap.TimeRemaining()), int(c.timeout.Minutes())),
		Color: 0xE74C3C,
	}

	if chID := ws.LogChannel(); chID != 0 {
		channelID := util.FormatSnowflake(chID)
		if c.router.transport.CanSend(channelID) {
			if err := c.router.transport.SendEmbed(channelID, embed); err == nil {
				return channelID, true
			}
		}
	}

	dmID, err := c.router.transport.OpenDM(util.FormatSnowflake(p.ownerID))
	if err != nil {
		logging.Warn("[CONFIRM] Cannot reach owner of guild %d: %v", ws.ID, err)
		return "", false
	}
	if err := c.router.transport.SendEmbed(dmID, embed); err != nil {
		return "", false
	}
	return dmID, true
}

func (c *Confirmer) finish(ws *state.Workspace, channelID string, outcome Outcome, snap *snapshot.Snapshot) {
	switch outcome {
	case OutcomeConfirmed:
		roles, channels, ok, reason := c.restore(ws.ID)
		var embed *discordgo.MessageEmbed
		if ok {
			embed = &discordgo.MessageEmbed{
				Title:       "✅ Restore Complete",
				Description: fmt.Sprintf("Recreated **%d** roles and **%d** channels.", roles, channels),
				Color:       0x2ECC71,
			}
		} else {
			embed = &discordgo.MessageEmbed{
				Title:       "❌ Restore Failed",
				Description: fmt.Sprintf("Could not restore: %s.", reason),
				Color:       0xE74C3C,
			}
		}
		c.reply(channelID, embed)

	case OutcomeDeclined, OutcomeTimedOut:
		title := "Restore Declined"
		if outcome == OutcomeTimedOut {
			title = "Restore Prompt Expired"
		}
		c.reply(channelID, &discordgo.MessageEmbed{
			Title: title,
			Description: fmt.Sprintf(
				"The snapshot stays usable for another **%s**.\n"+
					"Run `/restore-snapshot` any time before then.",
				util.FormatHoursMinutes(snap.TimeRemaining())),
			Color: 0xF1C40F,
		})
	}
}

func (c *Confirmer) reply(channelID string, embed *discordgo.MessageEmbed) {
	if channelID == "" {
		return
	}
	if err := c.router.transport.SendEmbed(channelID, embed); err != nil {
		logging.Warn("[CONFIRM] Failed to send prompt outcome: %v", err)
	}
}

// HandleMessage feeds an incoming message to a pending prompt. Only the
// guild owner answering on the prompt's own channel counts; everything
// else is ignored. Returns true when the message was consumed.
func (c *Confirmer) HandleMessage(guildID, authorID uint64, channelID, content string) bool {
	c.mu.Lock()
	p, ok := c.pending[guildID]
	var promptChannel string
	var ownerID uint64
	if ok {
		promptChannel = p.channelID
		ownerID = p.ownerID
	}
	c.mu.Unlock()
	if !ok || promptChannel == "" {
		return false
	}
	if authorID != ownerID || channelID != promptChannel {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(content)) {
	case "y", "yes":
		select {
		case p.answer <- "y":
		default:
		}
		return true
	case "n", "no":
		select {
		case p.answer <- "n":
		default:
		}
		return true
	}
	return false
}

// HandleDirectMessage matches DM replies, where no guild ID is on the
// message. The pending prompt is located by its DM channel.
func (c *Confirmer) HandleDirectMessage(authorID uint64, channelID, content string) bool {
	c.mu.Lock()
	var guildID uint64
	for gid, p := range c.pending {
		if p.channelID == channelID && p.ownerID == authorID {
			guildID = gid
			break
		}
	}
	c.mu.Unlock()
	if guildID == 0 {
		return false
	}
	return c.HandleMessage(guildID, authorID, channelID, content)
}

// Cancel aborts a pending prompt, typically when the bot leaves the
// guild mid-wait.
func (c *Confirmer) Cancel(guildID uint64) {
	c.mu.Lock()
	p, ok := c.pending[guildID]
	if ok {
		delete(c.pending, guildID)
	}
	c.mu.Unlock()
	if ok {
		close(p.done)
	}
}

func (c *Confirmer) drop(guildID uint64, p *pendingPrompt) {
	c.mu.Lock()
	if cur, ok := c.pending[guildID]; ok && cur == p {
		delete(c.pending, guildID)
	}
	c.mu.Unlock()
}
