package guard

import (
	"github.com/hoyin666/AntiNuke360/internal/state"
)

type Verdict uint8

const (
	// VerdictRateLimited means the actor is counted against a window.
	VerdictRateLimited Verdict = iota
	// VerdictExempt means the actor is never counted or enforced here.
	VerdictExempt
	// VerdictDenylisted means the actor must be banned without counting.
	VerdictDenylisted
)

// Resolution carries the verdict plus whether the actor holds an active
// temporary exemption, which relaxes the profile for sensitive actions.
type Resolution struct {
	Verdict    Verdict
	TempExempt bool
}

// Resolver decides how an actor's events are treated in a guild.
type Resolver struct {
	Lists *state.Lists
}

func NewResolver(lists *state.Lists) *Resolver {
	return &Resolver{Lists: lists}
}

// Classify applies the exemption tiers in fixed order:
// owner, global deny-list (with the anti-kick carve-out), global
// allow-list / permanent tier, then the temporary tier. The anti-kick
// tier only shields an actor from deny-list enforcement; it never
// shields from rate-based detection.
func (r *Resolver) Classify(ws *state.Workspace, actorID uint64) Resolution {
	if actorID == ws.Owner() {
		return Resolution{Verdict: VerdictExempt}
	}

	if r.Lists != nil && r.Lists.IsBlacklisted(actorID) {
		if !ws.IsAntiKick(actorID) {
			return Resolution{Verdict: VerdictDenylisted}
		}
		// Anti-kick exempt from the deny-list ban, still rate limited.
	}

	if r.Lists != nil && r.Lists.IsAllowed(actorID) {
		return Resolution{Verdict: VerdictExempt}
	}
	if ws.IsPermanent(actorID) {
		return Resolution{Verdict: VerdictExempt}
	}

	if ws.TemporaryActive(actorID) {
		return Resolution{Verdict: VerdictRateLimited, TempExempt: true}
	}

	return Resolution{Verdict: VerdictRateLimited}
}
