package state

import (
	"sync"
	"time"
)

// Workspace holds the per-guild runtime state the detection and
// enforcement paths share: exemption tiers, the session ban cache, the
// alert dedup set and the restore prompt stamp. All access goes through
// the embedded mutex so concurrent event handlers for the same guild
// never lose updates.
type Workspace struct {
	ID      uint64
	OwnerID uint64

	mu                sync.Mutex
	logChannelID      uint64
	welcomeChannelID  uint64
	permanent         map[uint64]struct{}
	temporary         map[uint64]int64 // actor id -> expiry unix
	antiKick          map[uint64]struct{}
	sessionBans       map[uint64]struct{}
	notified          map[uint64]struct{}
	lastRestorePrompt int64
}

func newWorkspace(id uint64) *Workspace {
	return &Workspace{
		ID:          id,
		permanent:   make(map[uint64]struct{}),
		temporary:   make(map[uint64]int64),
		antiKick:    make(map[uint64]struct{}),
		sessionBans: make(map[uint64]struct{}),
		notified:    make(map[uint64]struct{}),
	}
}

func (w *Workspace) SetOwner(ownerID uint64) {
	w.mu.Lock()
	w.OwnerID = ownerID
	w.mu.Unlock()
}

func (w *Workspace) Owner() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.OwnerID
}

func (w *Workspace) SetLogChannel(channelID uint64) {
	w.mu.Lock()
	w.logChannelID = channelID
	w.mu.Unlock()
}

func (w *Workspace) LogChannel() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.logChannelID
}

func (w *Workspace) SetWelcomeChannel(channelID uint64) {
	w.mu.Lock()
	w.welcomeChannelID = channelID
	w.mu.Unlock()
}

func (w *Workspace) WelcomeChannel() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.welcomeChannelID
}

// AddPermanent grants the strongest per-guild exemption tier.
func (w *Workspace) AddPermanent(actorID uint64) {
	w.mu.Lock()
	w.permanent[actorID] = struct{}{}
	w.mu.Unlock()
}

func (w *Workspace) RemovePermanent(actorID uint64) {
	w.mu.Lock()
	delete(w.permanent, actorID)
	w.mu.Unlock()
}

func (w *Workspace) IsPermanent(actorID uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.permanent[actorID]
	return ok
}

// AddTemporaryUntil registers a temporary exemption with an explicit
// expiry timestamp.
func (w *Workspace) AddTemporaryUntil(actorID uint64, expiry int64) {
	w.mu.Lock()
	w.temporary[actorID] = expiry
	w.mu.Unlock()
}

func (w *Workspace) RemoveTemporary(actorID uint64) {
	w.mu.Lock()
	delete(w.temporary, actorID)
	w.mu.Unlock()
}

// TemporaryActive reports whether the actor holds an unexpired temporary
// exemption. Expired entries are purged on the way through.
func (w *Workspace) TemporaryActive(actorID uint64) bool {
	now := time.Now().Unix()
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, expiry := range w.temporary {
		if expiry <= now {
			delete(w.temporary, id)
		}
	}
	_, ok := w.temporary[actorID]
	return ok
}

func (w *Workspace) AddAntiKick(actorID uint64) {
	w.mu.Lock()
	w.antiKick[actorID] = struct{}{}
	w.mu.Unlock()
}

func (w *Workspace) RemoveAntiKick(actorID uint64) {
	w.mu.Lock()
	delete(w.antiKick, actorID)
	w.mu.Unlock()
}

func (w *Workspace) IsAntiKick(actorID uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.antiKick[actorID]
	return ok
}

// Exemptions returns copies of the three tier sets for display.
func (w *Workspace) Exemptions() (permanent []uint64, temporary map[uint64]int64, antiKick []uint64) {
	now := time.Now().Unix()
	w.mu.Lock()
	defer w.mu.Unlock()
	for id := range w.permanent {
		permanent = append(permanent, id)
	}
	temporary = make(map[uint64]int64, len(w.temporary))
	for id, expiry := range w.temporary {
		if expiry > now {
			temporary[id] = expiry
		}
	}
	for id := range w.antiKick {
		antiKick = append(antiKick, id)
	}
	return permanent, temporary, antiKick
}

// TryMarkBanned reserves the actor in the session ban cache. Returns
// false when a ban for this actor is already in flight or done, so two
// racing threshold breaches yield exactly one platform call.
func (w *Workspace) TryMarkBanned(actorID uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sessionBans[actorID]; ok {
		return false
	}
	w.sessionBans[actorID] = struct{}{}
	return true
}

// UnmarkBanned releases a reservation after a failed ban call.
func (w *Workspace) UnmarkBanned(actorID uint64) {
	w.mu.Lock()
	delete(w.sessionBans, actorID)
	w.mu.Unlock()
}

func (w *Workspace) IsSessionBanned(actorID uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.sessionBans[actorID]
	return ok
}

// TryMarkNotified returns true the first time an alert fires for this
// actor in this guild; repeat triggers stay silent.
func (w *Workspace) TryMarkNotified(actorID uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.notified[actorID]; ok {
		return false
	}
	w.notified[actorID] = struct{}{}
	return true
}

// TryStampRestorePrompt enforces the per-guild prompt cooldown. Returns
// false while a previous prompt is still within the cooldown window.
func (w *Workspace) TryStampRestorePrompt(cooldown time.Duration) bool {
	now := time.Now().Unix()
	w.mu.Lock()
	defer w.mu.Unlock()
	if now-w.lastRestorePrompt < int64(cooldown.Seconds()) {
		return false
	}
	w.lastRestorePrompt = now
	return true
}

// ResetSession clears session-scoped state (ban cache, alert dedup) when
// the bot is re-added to a guild, so previously handled actors can be
// detected again.
func (w *Workspace) ResetSession() {
	w.mu.Lock()
	w.sessionBans = make(map[uint64]struct{})
	w.notified = make(map[uint64]struct{})
	w.mu.Unlock()
}
