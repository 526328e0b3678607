package commands

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jshumphrey/full-course-yellow/internal/platform"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// handleStatus shows bot health: uptime, gateway latency, registry and
// index sizes, and host CPU/memory.
func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate, responder *platform.InteractionResponder) error {
	ctx := context.Background()

	// Gathering CPU stats samples for a moment; defer first.
	if err := responder.Defer(ctx); err != nil {
		return err
	}

	uptime := time.Since(h.session.StartedAt).Round(time.Second)

	cpuField := "unavailable"
	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		cpuField = fmt.Sprintf("%.1f%%", percents[0])
	}

	memField := "unavailable"
	if vm, err := mem.VirtualMemory(); err == nil {
		memField = fmt.Sprintf("%.1f%% of %d MB", vm.UsedPercent, vm.Total/1024/1024)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Full Course Yellow status",
		Color: 0xFDD835,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Uptime", Value: uptime.String(), Inline: true},
			{Name: "Gateway latency", Value: s.HeartbeatLatency().Round(time.Millisecond).String(), Inline: true},
			{Name: "Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "Monitored servers", Value: fmt.Sprintf("%d", len(h.deps.Registry.Monitored(registry.FilterAll))), Inline: true},
			{Name: "Alert servers", Value: fmt.Sprintf("%d", len(h.deps.Registry.Alerts(registry.FilterAll))), Inline: true},
			{Name: "Indexed alert-server members", Value: fmt.Sprintf("%d", h.deps.Index.Size()), Inline: true},
			{Name: "Host CPU", Value: cpuField, Inline: true},
			{Name: "Host memory", Value: memField, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	embeds := []*discordgo.MessageEmbed{embed}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}
