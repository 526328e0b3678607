// Package membership maintains the process-wide index of users known to be
// members of any alert guild. Only alert guilds are indexed: monitored
// guilds are enormous, so their rosters are never fetched or cached, only
// probed per-user.
package membership

import (
	"context"
	"fmt"
	"sync"

	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// RosterLister streams the member IDs of a guild. Implemented by the
// Discord platform adapter; rosters may be large, hence the callback form.
type RosterLister interface {
	ListRoster(ctx context.Context, guildID string, fn func(actorID string) error) error
}

// Index tracks, per actor, which enabled alert guilds they belong to. The
// per-guild sets matter: a moderator who staffs two alert guilds stays
// indexed until they have left both. All operations are serialized under
// one lock; readers never observe a half-applied join or leave.
type Index struct {
	mu          sync.RWMutex
	members     map[string]map[string]struct{} // actorID -> alert guild IDs
	alertGuilds map[string]struct{}
}

// New builds an empty index scoped to the registry's enabled alert guilds.
func New(reg *registry.Registry) *Index {
	alertGuilds := make(map[string]struct{})
	for _, ag := range reg.Alerts(registry.FilterAll) {
		alertGuilds[ag.ID] = struct{}{}
	}
	return &Index{
		members:     make(map[string]map[string]struct{}),
		alertGuilds: alertGuilds,
	}
}

// RecordJoin adds an actor's membership in one guild. No-op unless the
// guild is an enabled alert guild.
func (x *Index) RecordJoin(actorID, guildID string) {
	if !x.isAlertGuild(guildID) {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.record(actorID, guildID)
}

// RecordLeave removes an actor's membership in one guild; the actor stays
// indexed while any other alert guild still holds them. No-op unless the
// guild is an enabled alert guild. A membership that was never recorded is
// tolerated: it may have been removed by an earlier event, or never seen
// due to a startup race.
func (x *Index) RecordLeave(actorID, guildID string) {
	if !x.isAlertGuild(guildID) {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	guilds, present := x.members[actorID]
	if !present {
		logging.Info("Member %s left alert guild %s but was not in the membership index", actorID, guildID)
		return
	}
	if _, present := guilds[guildID]; !present {
		logging.Info("Member %s left alert guild %s but was not indexed as one of its members", actorID, guildID)
		return
	}
	delete(guilds, guildID)
	if len(guilds) == 0 {
		delete(x.members, actorID)
	}
}

// Contains reports whether the actor is known to belong to any alert
// guild. Never blocks beyond lock acquisition and never fails.
func (x *Index) Contains(actorID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.members[actorID]
	return ok
}

// Size returns the number of indexed actors.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.members)
}

// record must be called with the write lock held.
func (x *Index) record(actorID, guildID string) {
	guilds, ok := x.members[actorID]
	if !ok {
		guilds = make(map[string]struct{}, 1)
		x.members[actorID] = guilds
	}
	guilds[guildID] = struct{}{}
}

// BulkPopulate fills the index from a full roster fetch of every enabled
// alert guild. Runs once at startup; rosters are unbounded, so this can
// take a while and the rest of the system does not wait on it.
func (x *Index) BulkPopulate(ctx context.Context, lister RosterLister) error {
	for guildID := range x.alertGuilds {
		count := 0
		err := lister.ListRoster(ctx, guildID, func(actorID string) error {
			x.mu.Lock()
			x.record(actorID, guildID)
			x.mu.Unlock()
			count++
			return nil
		})
		if err != nil {
			return fmt.Errorf("populating members of alert guild %s: %w", guildID, err)
		}
		logging.Info("Indexed %d members of alert guild %s", count, guildID)
	}
	return nil
}

func (x *Index) isAlertGuild(guildID string) bool {
	_, ok := x.alertGuilds[guildID]
	return ok
}
