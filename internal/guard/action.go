package guard

// Action identifies the tracked structural event kinds.
type Action uint8

const (
	ActionChannelCreate Action = iota
	ActionChannelDelete
	ActionMemberKick
	ActionMemberBan
	ActionRoleCreate
	ActionWebhookCreate
	ActionMessageBurst
)

// Sensitive reports whether the action belongs to the fixed sensitive
// set eligible for the relaxed temporary-exemption profile.
func (a Action) Sensitive() bool {
	switch a {
	case ActionChannelCreate, ActionChannelDelete, ActionMemberKick,
		ActionMemberBan, ActionRoleCreate, ActionWebhookCreate:
		return true
	}
	return false
}

func (a Action) String() string {
	switch a {
	case ActionChannelCreate:
		return "channel_create"
	case ActionChannelDelete:
		return "channel_delete"
	case ActionMemberKick:
		return "member_kick"
	case ActionMemberBan:
		return "member_ban"
	case ActionRoleCreate:
		return "role_create"
	case ActionWebhookCreate:
		return "webhook_create"
	case ActionMessageBurst:
		return "message_burst"
	default:
		return "unknown"
	}
}
