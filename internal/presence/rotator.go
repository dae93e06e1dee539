package presence

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
)

const rotateInterval = 10 * time.Second

// Rotator cycles the bot's custom status on a fixed interval.
type Rotator struct {
	session *discordgo.Session
	stop    chan struct{}
}

func NewRotator(session *discordgo.Session) *Rotator {
	return &Rotator{
		session: session,
		stop:    make(chan struct{}),
	}
}

func (r *Rotator) Start() {
	go r.loop()
}

func (r *Rotator) Stop() {
	close(r.stop)
}

func (r *Rotator) loop() {
	ticker := time.NewTicker(rotateInterval)
	defer ticker.Stop()

	idx := 0
	for {
		select {
		case <-ticker.C:
			statuses := []string{
				fmt.Sprintf("Guarding %d servers", len(r.session.State.Guilds)),
				"Watching for nukes 24/7",
				"Snapshots keep you safe",
				"Rate limits armed",
			}
			if err := r.session.UpdateCustomStatus(statuses[idx%len(statuses)]); err != nil {
				logging.Debug("[PRESENCE] Status update failed: %v", err)
			}
			idx++
		case <-r.stop:
			return
		}
	}
}
