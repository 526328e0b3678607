package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/alert"
	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/membership"
	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/internal/platform"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// EventDeps carries the components driven by gateway events.
type EventDeps struct {
	Registry   *registry.Registry
	Index      *membership.Index
	Platform   *platform.Discord
	Composer   *alert.Composer
	Dispatcher *alert.Dispatcher

	// AutoAlerts gates the automatic ban-detection path.
	AutoAlerts bool
}

// SetupEventHandlers wires the gateway events that drive the membership
// index and the automatic ban path. Call before Connect.
func (s *Session) SetupEventHandlers(deps EventDeps) {
	logging.Info("Setting up Discord event handlers...")

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot ready! Connected as %s", r.User.Username)

		joined := make(map[string]bool, len(r.Guilds))
		for _, g := range r.Guilds {
			joined[g.ID] = true
		}
		for _, g := range deps.Registry.All(registry.FilterAll) {
			if g.Enabled && !joined[g.ID] {
				logging.Error("The bot is configured for guild %s (%s), but is not installed in that guild", g.ID, g.Name)
			}
		}

		// Roster fetches are unbounded; the gateway must not wait on them.
		// Until population finishes, the moderator-exclusion guard runs
		// against a partial index - an accepted startup window.
		go func() {
			if err := deps.Index.BulkPopulate(context.Background(), deps.Platform); err != nil {
				logging.Error("Failed to populate the alert guild membership index: %v", err)
				return
			}
			logging.Info("Alert guild membership index populated (%d members)", deps.Index.Size())
		}()
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
		deps.Index.RecordJoin(m.User.ID, m.GuildID)
	})

	// The raw remove event carries the user directly; no reliance on a
	// member cache we deliberately do not keep.
	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
		deps.Index.RecordLeave(m.User.ID, m.GuildID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, b *discordgo.GuildBanAdd) {
		go handleBanAdd(sess, b, deps)
	})
}

// handleBanAdd is the automatic ban-detection path: on a ban in an enabled
// monitored guild, the matching audit log entry supplies the moderator and
// reason, and the guild's classifier decides whether to alert.
func handleBanAdd(sess *discordgo.Session, b *discordgo.GuildBanAdd, deps EventDeps) {
	if !deps.AutoAlerts {
		return
	}

	mg, ok := deps.Registry.MonitoredGuild(b.GuildID)
	if !ok {
		return
	}

	ban := models.BanEvent{
		GuildID:      b.GuildID,
		TargetUserID: b.User.ID,
	}

	audit, err := sess.GuildAuditLog(b.GuildID, "", "", int(discordgo.AuditLogActionMemberBanAdd), 10)
	if err != nil {
		logging.Warn("Failed to fetch ban audit log for guild %s: %v", b.GuildID, err)
	} else {
		for _, entry := range audit.AuditLogEntries {
			if entry.TargetID == b.User.ID {
				ban.ModeratorID = entry.UserID
				ban.Reason = entry.Reason
				break
			}
		}
	}

	if !mg.Classifier.Classify(ban) {
		logging.Debug("Ban of %s in %s classified as non-alerting", b.User.ID, mg.Name)
		return
	}

	ctx := context.Background()
	env := deps.Composer.ComposeEnvelope(ctx, platform.ActorFromUser(b.User), mg.Name,
		ban.Reason, "A new permanent ban has been detected!", nil)
	deps.Dispatcher.Dispatch(ctx, env, mg.Testing)
}
