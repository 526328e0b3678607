package commands

import "github.com/bwmarrin/discordgo"

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	guildOnly := false

	return []*discordgo.ApplicationCommand{
		{
			Name:         "alert",
			Description:  "Raise an alert about a problematic user.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user_id",
					Description: "The Discord User ID of the user you're raising an alert for",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "reason",
					Description: "The reason for the alert",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
				{
					Name:        "attachment",
					Description: "A screenshot or other attachment you might want to include with the alert",
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Required:    false,
				},
			},
		},
		{
			Name:         "recent-bans",
			Description:  "Show the most recent bans in this server",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "limit",
					Description: "How many bans to show (default 5)",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    false,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show bot and system status",
		},
		{
			Name:        "ping",
			Description: "Check Discord API latency and connection quality",
		},
	}
}
