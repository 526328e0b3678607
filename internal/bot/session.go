package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/logging"
)

type Session struct {
	discord   *discordgo.Session
	token     string
	BotUserID string
	StartedAt time.Time
}

var globalSession *Session

// Initialize creates and initializes the Discord session
func Initialize(token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildModeration

	// Members of the monitored guilds are never cached locally; presence
	// is probed per-user instead. Guild and role state stays tracked for
	// the origin-role lookups.
	dg.State.TrackMembers = false
	dg.State.TrackPresences = false

	globalSession = &Session{
		discord:   dg,
		token:     token,
		StartedAt: time.Now(),
	}

	return nil
}

// GetSession returns the global Discord session
func GetSession() *Session {
	return globalSession
}

// GetDiscord returns the underlying discordgo session
func (s *Session) GetDiscord() *discordgo.Session {
	return s.discord
}

// Connect opens the Discord websocket connection
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		s.BotUserID = s.discord.State.User.ID
		logging.Info("Bot user ID: %s", s.BotUserID)
	}

	logging.Info("Discord bot connected successfully")
	return nil
}

// Close closes the Discord connection
func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// RegisterCommands registers all slash commands with Discord
func (s *Session) RegisterCommands(commands []*discordgo.ApplicationCommand) error {
	logging.Info("Registering %d slash commands...", len(commands))

	for _, cmd := range commands {
		_, err := s.discord.ApplicationCommandCreate(s.discord.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		logging.Info("Registered command: /%s", cmd.Name)
	}

	return nil
}

// AddHandler adds an event handler to the Discord session
func (s *Session) AddHandler(handler interface{}) {
	s.discord.AddHandler(handler)
}
