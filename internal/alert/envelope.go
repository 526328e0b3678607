// Package alert composes alert envelopes, decorates them per destination,
// and fans them out to the alert guilds.
package alert

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/internal/probe"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// NoMutualGuildsMarker is rendered when the subject was found in no
// monitored guild. Absence of evidence must read differently from a blank
// field.
const NoMutualGuildsMarker = "[User was not found in any monitored server]"

const noReasonMarker = "[No reason provided]"

const scannedGuildsFooter = "\n\nTo include your server in this list, message Lux in #bot."

// Envelope is the destination-agnostic alert content. Built once per alert
// request, then decorated per destination without re-probing.
type Envelope struct {
	ID           string // correlation id, for log lines only
	Subject      *models.Actor
	OriginLabel  string
	Reason       string
	Body         string
	Attachment   *models.Attachment
	MutualGuilds []*registry.MonitoredGuild
}

// DecoratedAlert is an envelope rendered for one destination.
type DecoratedAlert struct {
	Content    string
	Embed      *discordgo.MessageEmbed
	Attachment *models.Attachment
}

// Composer builds envelopes and decorates them for destinations.
type Composer struct {
	reg    *registry.Registry
	prober *probe.Prober
}

func NewComposer(reg *registry.Registry, prober *probe.Prober) *Composer {
	return &Composer{reg: reg, prober: prober}
}

// ComposeEnvelope assembles the shared alert content for a subject. The
// presence probe runs exactly once here; everything after is pure.
func (c *Composer) ComposeEnvelope(ctx context.Context, subject *models.Actor, originLabel, reason, body string, attachment *models.Attachment) *Envelope {
	return &Envelope{
		ID:           uuid.NewString(),
		Subject:      subject,
		OriginLabel:  originLabel,
		Reason:       reason,
		Body:         body,
		Attachment:   attachment,
		MutualGuilds: c.prober.MutualGuilds(ctx, subject),
	}
}

// Decorate renders the envelope for a destination, substituting the
// destination's origin-notification role mentions into the mutual-guild
// list and prefixing its general mention role. A nil destination renders
// plain names with no mentions (the self-alert path outside alert guilds).
func (c *Composer) Decorate(env *Envelope, dest *registry.AlertGuild) *DecoratedAlert {
	return &DecoratedAlert{
		Content:    decorateBody(env.Body, dest),
		Embed:      c.buildEmbed(env, dest),
		Attachment: env.Attachment,
	}
}

func decorateBody(body string, dest *registry.AlertGuild) string {
	if dest == nil || dest.GeneralRoleID == "" {
		return body
	}
	return "<@&" + dest.GeneralRoleID + "> " + body
}

func decorateMutualGuilds(mutual []*registry.MonitoredGuild, dest *registry.AlertGuild) string {
	if len(mutual) == 0 {
		return NoMutualGuildsMarker
	}

	parts := make([]string, 0, len(mutual))
	for _, mg := range mutual {
		if dest != nil {
			if roleID, ok := dest.OriginRoles[mg.ID]; ok {
				parts = append(parts, "<@&"+roleID+">")
				continue
			}
		}
		parts = append(parts, mg.Name)
	}
	return strings.Join(parts, ", ")
}

func (c *Composer) buildEmbed(env *Envelope, dest *registry.AlertGuild) *discordgo.MessageEmbed {
	reason := env.Reason
	if reason == "" {
		reason = noReasonMarker
	}

	scanned := make([]string, 0)
	for _, mg := range c.reg.Monitored(registry.FilterProduction) {
		scanned = append(scanned, mg.Name)
	}

	return &discordgo.MessageEmbed{
		Type:      discordgo.EmbedTypeRich,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    env.Subject.PrettyName(),
			IconURL: env.Subject.AvatarURL,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Offending user's ID: " + env.Subject.ID,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Relevant server", Value: env.OriginLabel},
			{Name: "Reason for alert", Value: reason},
			{Name: "Servers scanned for offending user", Value: strings.Join(scanned, ", ") + scannedGuildsFooter},
			{Name: "Scanned servers with user", Value: decorateMutualGuilds(env.MutualGuilds, dest)},
		},
	}
}
