// Package platform implements the narrow platform-collaborator interfaces
// consumed by the core packages, on top of discordgo and fasthttp.
package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/alert"
	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/internal/probe"
	"github.com/jshumphrey/full-course-yellow/internal/resolver"
)

const rosterPageSize = 1000

// Discord adapts a discordgo session to the collaborator interfaces:
// resolver.UserFetcher, membership.RosterLister, probe.PresenceChecker,
// alert.MessageSender and origin.RoleDirectory.
type Discord struct {
	s *discordgo.Session
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

// ActorFromUser converts a discordgo user into an Actor record.
func ActorFromUser(u *discordgo.User) *models.Actor {
	return &models.Actor{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		AvatarURL:  u.AvatarURL(""),
	}
}

// FetchUser looks a user up by ID. Unknown users and out-of-range IDs both
// come back as resolver.ErrActorNotFound.
func (d *Discord) FetchUser(ctx context.Context, userID string) (*models.Actor, error) {
	u, err := d.s.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		var rerr *discordgo.RESTError
		if errors.As(err, &rerr) && rerr.Response != nil {
			switch rerr.Response.StatusCode {
			case http.StatusNotFound, http.StatusBadRequest:
				return nil, fmt.Errorf("%w: %s", resolver.ErrActorNotFound, userID)
			}
		}
		return nil, err
	}
	return ActorFromUser(u), nil
}

// ListRoster streams every member ID of a guild, paginating the member
// list endpoint.
func (d *Discord) ListRoster(ctx context.Context, guildID string, fn func(actorID string) error) error {
	after := ""
	for {
		members, err := d.s.GuildMembers(guildID, after, rosterPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("listing members of guild %s: %w", guildID, err)
		}
		for _, m := range members {
			if err := fn(m.User.ID); err != nil {
				return err
			}
			after = m.User.ID
		}
		if len(members) < rosterPageSize {
			return nil
		}
	}
}

// CheckPresence reports whether the actor is a member of the guild,
// classifying REST failures into the probe outcomes.
func (d *Discord) CheckPresence(ctx context.Context, guildID, actorID string) probe.Presence {
	_, err := d.s.GuildMember(guildID, actorID, discordgo.WithContext(ctx))
	if err == nil {
		return probe.Present
	}

	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return probe.NotPresent
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return probe.PermissionDenied
		}
	}
	return probe.TransientFailure
}

// GuildRoles returns the role ID -> name mapping for a guild, from the
// session state cache when available.
func (d *Discord) GuildRoles(ctx context.Context, guildID string) (map[string]string, error) {
	var roles []*discordgo.Role
	if g, err := d.s.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		roles = g.Roles
	} else {
		fetched, err := d.s.GuildRoles(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetching roles of guild %s: %w", guildID, err)
		}
		roles = fetched
	}

	names := make(map[string]string, len(roles))
	for _, role := range roles {
		names[role.ID] = role.Name
	}
	return names, nil
}

// SendAlert delivers a decorated alert to a channel. Role mentions are the
// only mentions allowed to fire.
func (d *Discord) SendAlert(ctx context.Context, channelID string, msg *alert.DecoratedAlert) error {
	send := &discordgo.MessageSend{
		Content: msg.Content,
		Embeds:  []*discordgo.MessageEmbed{msg.Embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles},
		},
	}
	if msg.Attachment != nil {
		send.Files = []*discordgo.File{attachmentFile(msg.Attachment)}
	}

	if _, err := d.s.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending alert to channel %s: %w", channelID, err)
	}
	return nil
}

func attachmentFile(att *models.Attachment) *discordgo.File {
	return &discordgo.File{
		Name:        att.Filename,
		ContentType: att.ContentType,
		Reader:      bytes.NewReader(att.Data),
	}
}
