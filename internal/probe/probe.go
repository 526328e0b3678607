// Package probe answers "which monitored guilds contain this actor" by
// fanning out one presence check per enabled monitored guild. Presence is
// always probed, never cached: the monitored guilds are far too large to
// roster locally.
package probe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// Presence is the per-guild outcome of a presence check.
type Presence uint8

const (
	NotPresent Presence = iota
	Present
	PermissionDenied
	TransientFailure
)

// PresenceChecker performs a single presence check against one guild.
// Implemented by the platform adapter; it never returns an error, it
// classifies failures into the Presence outcomes instead.
type PresenceChecker interface {
	CheckPresence(ctx context.Context, guildID, actorID string) Presence
}

// Prober runs the fan-out across the registry's monitored guilds.
type Prober struct {
	reg         *registry.Registry
	checker     PresenceChecker
	concurrency int
}

func New(reg *registry.Registry, checker PresenceChecker, concurrency int) *Prober {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Prober{reg: reg, checker: checker, concurrency: concurrency}
}

// MutualGuilds returns the enabled monitored guilds that currently contain
// the actor, preserving registry order. Checks run concurrently; no
// individual failure aborts the probe. PermissionDenied is a configuration
// problem and is logged as an error; transient failures are logged and
// treated as absence.
func (p *Prober) MutualGuilds(ctx context.Context, actor *models.Actor) []*registry.MonitoredGuild {
	guilds := p.reg.Monitored(registry.FilterAll)
	results := make([]Presence, len(guilds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, mg := range guilds {
		i, mg := i, mg
		g.Go(func() error {
			results[i] = p.checker.CheckPresence(ctx, mg.ID, actor.ID)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	var mutual []*registry.MonitoredGuild
	for i, mg := range guilds {
		switch results[i] {
		case Present:
			mutual = append(mutual, mg)
		case PermissionDenied:
			logging.Error("Permission denied fetching member %s from monitored guild %s", actor.ID, mg.Name)
		case TransientFailure:
			logging.Warn("Presence check for %s in monitored guild %s failed transiently", actor.ID, mg.Name)
		}
	}

	logging.Debug("Mutual monitored guilds for actor %s: %d of %d", actor.ID, len(mutual), len(guilds))
	return mutual
}
