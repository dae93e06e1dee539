package config

import "time"

// Protection parameters are fixed on purpose: every guarded server runs
// the same tuned sensitivity, so operators cannot weaken detection by
// misconfiguration.

// Normal profile applied to every tracked actor by default.
const (
	MaxActions    = 7
	WindowSeconds = 10
)

// Relaxed profile for actors holding an active temporary exemption,
// applied only to the sensitive action set.
const (
	TempExemptMaxActions    = 15
	TempExemptWindowSeconds = 15
)

// TempExemptTTL is how long a temporary exemption stays active.
const TempExemptTTL = time.Hour

// SnapshotTTL bounds how long a structural snapshot stays restorable.
const SnapshotTTL = 72 * time.Hour

// Restore confirmation prompts are rate limited per guild, and the
// owner gets a fixed window to reply.
const (
	RestorePromptCooldown = 600 * time.Second
	RestoreConfirmTimeout = 300 * time.Second
)

// Permission failure monitoring: this many authorization failures inside
// the rolling window force the bot to alert and leave the guild.
const (
	PermFailureLimit  = 10
	PermFailureWindow = 60 * time.Second
)

// Announcement delivery waits up to this long for an administrator to
// come online, polling at the check interval.
const (
	AnnounceWaitTimeout   = 12 * time.Hour
	AnnounceCheckInterval = 60 * time.Second
)

// MaxEscalationRecipients caps how many people get a direct message when
// no log channel is usable.
const MaxEscalationRecipients = 6

// AuditLookback is how many audit log entries are examined when
// resolving the actor behind an event.
const AuditLookback = 5
