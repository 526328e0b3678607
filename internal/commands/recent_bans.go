package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/platform"
	"github.com/jshumphrey/full-course-yellow/internal/resolver"
	"github.com/jshumphrey/full-course-yellow/pkg/util"
)

const (
	defaultRecentBans = 5
	maxRecentBans     = 25

	// Discord caps audit log reasons and embed-ish listings; keep each
	// line within the same bound the select-option labels use.
	banLineMaxLen = 100
)

// handleRecentBans lists the most recent bans of the invoking monitored
// guild, each pretty-printed as "name (reason)".
func (h *Handler) handleRecentBans(s *discordgo.Session, i *discordgo.InteractionCreate, responder *platform.InteractionResponder) error {
	ctx := context.Background()

	mg, ok := h.deps.Registry.MonitoredGuild(i.GuildID)
	if !ok {
		return responder.Finish(ctx, "Sorry, this command can only be used from a monitored server.")
	}

	limit := defaultRecentBans
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "limit" {
			limit = int(opt.IntValue())
		}
	}
	if limit < 1 || limit > maxRecentBans {
		limit = defaultRecentBans
	}

	// Resolving each banned user is remote work; answer by edit.
	if err := responder.Defer(ctx); err != nil {
		return err
	}

	audit, err := s.GuildAuditLog(mg.ID, "", "", int(discordgo.AuditLogActionMemberBanAdd), limit,
		discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("fetching recent bans for guild %s: %w", mg.ID, err)
	}

	var lines []string
	for _, entry := range audit.AuditLogEntries {
		lines = append(lines, h.decorateBan(ctx, entry))
	}

	if len(lines) == 0 {
		return responder.Finish(ctx, fmt.Sprintf("No recent bans found in %s.", mg.Name))
	}
	return responder.Finish(ctx, fmt.Sprintf("Most recent bans in %s:\n%s", mg.Name, strings.Join(lines, "\n")))
}

// decorateBan pretty-prints one ban audit entry so a human can recognize
// the banned user.
func (h *Handler) decorateBan(ctx context.Context, entry *discordgo.AuditLogEntry) string {
	reason := entry.Reason
	if reason == "" {
		reason = "[No reason provided]"
	}

	actor, err := h.deps.Resolver.Resolve(ctx, resolver.Textual(entry.TargetID))
	if err != nil {
		if !errors.Is(err, resolver.ErrActorNotFound) {
			return util.Truncate(fmt.Sprintf("[unresolved user %s] (%s)", entry.TargetID, reason), banLineMaxLen)
		}
		return util.Truncate(fmt.Sprintf("[deleted user %s] (%s)", entry.TargetID, reason), banLineMaxLen)
	}
	return util.Truncate(fmt.Sprintf("%s (%s)", actor.PrettyName(), reason), banLineMaxLen)
}
