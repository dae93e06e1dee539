package commands

import "github.com/bwmarrin/discordgo"

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	userOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Name:        "user",
			Description: desc,
			Type:        discordgo.ApplicationCommandOptionUser,
			Required:    true,
		}
	}
	idOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Name:        "id",
			Description: desc,
			Type:        discordgo.ApplicationCommandOptionString,
			Required:    true,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "status",
			Description: "Show the protection state of this server",
		},
		{
			Name:        "stats",
			Description: "Show bot and host statistics",
		},
		{
			Name:        "set-log-channel",
			Description: "Set the channel where protection alerts are posted",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "channel",
					Description: "Channel for alerts",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Required:    true,
				},
			},
		},
		{
			Name:        "add-server-temp",
			Description: "Grant a user a 1 hour relaxed rate limit",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to exempt temporarily")},
		},
		{
			Name:        "remove-server-temp",
			Description: "Revoke a user's temporary exemption",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to revoke")},
		},
		{
			Name:        "add-server-perm",
			Description: "Exempt a user from rate limits permanently (owner only)",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to exempt")},
		},
		{
			Name:        "remove-server-perm",
			Description: "Revoke a user's permanent exemption (owner only)",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to revoke")},
		},
		{
			Name:        "add-server-anti-kick",
			Description: "Shield a user from deny-list bans in this server (owner only)",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to shield")},
		},
		{
			Name:        "remove-server-anti-kick",
			Description: "Remove a user's deny-list shield (owner only)",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to unshield")},
		},
		{
			Name:        "server-whitelist",
			Description: "View this server's exemptions",
		},
		{
			Name:        "scan-blacklist",
			Description: "Scan current members against the global deny list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "all-servers",
					Description: "Scan every protected server (developer only)",
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Required:    false,
				},
			},
		},
		{
			Name:        "restore-snapshot",
			Description: "Rebuild channels and roles from the stored snapshot",
		},
		{
			Name:        "add-black",
			Description: "Add an account to the global deny list (developer only)",
			Options: []*discordgo.ApplicationCommandOption{
				idOption("Account ID to deny-list"),
				{
					Name:        "reason",
					Description: "Why the account is denied",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "remove-black",
			Description: "Remove an account from the global deny list (developer only)",
			Options:     []*discordgo.ApplicationCommandOption{idOption("Account ID to remove")},
		},
		{
			Name:        "check-black",
			Description: "Look up an account on the global deny list (developer only)",
			Options:     []*discordgo.ApplicationCommandOption{idOption("Account ID to look up")},
		},
		{
			Name:        "add-white",
			Description: "Add a bot to the global allow list (developer only)",
			Options: []*discordgo.ApplicationCommandOption{
				idOption("Bot ID to allow-list"),
				{
					Name:        "reason",
					Description: "Why the bot is trusted",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "remove-white",
			Description: "Remove a bot from the global allow list (developer only)",
			Options:     []*discordgo.ApplicationCommandOption{idOption("Bot ID to remove")},
		},
		{
			Name:        "announce-all",
			Description: "Broadcast a notice to every server (developer only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "message",
					Description: "Announcement text",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
	}
}
