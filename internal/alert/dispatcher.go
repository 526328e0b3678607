package alert

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// MessageSender delivers a decorated alert to one channel. Implemented by
// the platform adapter.
type MessageSender interface {
	SendAlert(ctx context.Context, channelID string, msg *DecoratedAlert) error
}

// Outcome is the per-destination result of a dispatch.
type Outcome struct {
	Guild *registry.AlertGuild
	Err   error
}

// Dispatcher fans a composed envelope out to the enabled alert guilds.
type Dispatcher struct {
	reg      *registry.Registry
	composer *Composer
	sender   MessageSender
}

func NewDispatcher(reg *registry.Registry, composer *Composer, sender MessageSender) *Dispatcher {
	return &Dispatcher{reg: reg, composer: composer, sender: sender}
}

// Dispatch decorates and delivers the envelope to every enabled alert
// guild. With testingOnly set, non-testing destinations are skipped
// outright - they receive zero calls, so self-tests make no production
// noise. Deliveries run concurrently; a failure on one destination never
// cancels the others, and each failure is reported in its own outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope, testingOnly bool) []Outcome {
	var targets []*registry.AlertGuild
	for _, ag := range d.reg.Alerts(registry.FilterAll) {
		if testingOnly && !ag.Testing {
			continue
		}
		targets = append(targets, ag)
	}

	outcomes := make([]Outcome, len(targets))
	var g errgroup.Group
	for i, ag := range targets {
		i, ag := i, ag
		g.Go(func() error {
			msg := d.composer.Decorate(env, ag)
			err := d.sender.SendAlert(ctx, ag.ChannelID, msg)
			if err != nil {
				logging.Error("Alert %s: delivery to guild %s (channel %s) failed: %v", env.ID, ag.Name, ag.ChannelID, err)
			}
			outcomes[i] = Outcome{Guild: ag, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	logging.Info("Alert %s dispatched to %d destination(s) (testingOnly=%v)", env.ID, len(targets), testingOnly)
	return outcomes
}
