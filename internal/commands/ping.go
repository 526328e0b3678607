package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/platform"
)

// handlePing shows gateway and REST latency to Discord
func (h *Handler) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate, responder *platform.InteractionResponder) error {
	if err := responder.Defer(context.Background()); err != nil {
		return err
	}

	apiStart := time.Now()
	_, err := s.Channel(i.ChannelID)
	apiLatency := time.Since(apiStart)
	if err != nil {
		apiLatency = 0
	}

	wsLatency := s.HeartbeatLatency()

	avgLatency := (wsLatency.Milliseconds() + apiLatency.Milliseconds()) / 2
	var statusColor int
	switch {
	case avgLatency < 60:
		statusColor = 0x00FF00
	case avgLatency < 150:
		statusColor = 0xFFFF00
	default:
		statusColor = 0xFF0000
	}

	embed := &discordgo.MessageEmbed{
		Title: "Pong!",
		Color: statusColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gateway heartbeat", Value: fmt.Sprintf("%d ms", wsLatency.Milliseconds()), Inline: true},
			{Name: "REST round trip", Value: fmt.Sprintf("%d ms", apiLatency.Milliseconds()), Inline: true},
		},
	}

	embeds := []*discordgo.MessageEmbed{embed}
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}
