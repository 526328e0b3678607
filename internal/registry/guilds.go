package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jshumphrey/full-course-yellow/internal/config"
	"github.com/jshumphrey/full-course-yellow/internal/logging"
)

// ErrDuplicateGuild is returned when two enabled guilds of the same role
// share an ID. Surfaced at startup; the process must not come up with an
// ambiguous registry.
var ErrDuplicateGuild = errors.New("duplicate enabled guild id")

// InstalledGuild is a guild the bot is installed in, in either role.
type InstalledGuild struct {
	ID      string
	Name    string
	Enabled bool
	Testing bool
}

func (g *InstalledGuild) String() string {
	return g.Name
}

// MonitoredGuild is watched for new bans and probed for actor presence.
// Its membership is never cached locally.
type MonitoredGuild struct {
	InstalledGuild
	Classifier BanClassifier
}

// AlertGuild receives formatted alert messages in its alert channel.
type AlertGuild struct {
	InstalledGuild
	ChannelID     string
	GeneralRoleID string
	// OriginRoles maps a monitored guild ID to the role in this guild
	// that should be mentioned when that guild is the alert's origin.
	OriginRoles map[string]string
}

// Filter narrows a registry view by the testing flag.
type Filter uint8

const (
	FilterAll Filter = iota
	FilterProduction
	FilterTesting
)

func (f Filter) match(g *InstalledGuild) bool {
	switch f {
	case FilterProduction:
		return !g.Testing
	case FilterTesting:
		return g.Testing
	default:
		return true
	}
}

// Registry holds the static guild configuration. Immutable after
// construction and shared read-only by every other component.
type Registry struct {
	monitored     []*MonitoredGuild
	alerts        []*AlertGuild
	monitoredByID map[string]*MonitoredGuild
	alertsByID    map[string]*AlertGuild
}

// FromConfig builds and validates a Registry from the typed configuration
// list. The same guild ID may appear as both a monitored and an alert
// guild; a duplicate within one role is a hard configuration error.
func FromConfig(guilds config.GuildsConfig, classifiers config.ClassifiersConfig) (*Registry, error) {
	set := NewClassifierSet(classifiers)

	r := &Registry{
		monitoredByID: make(map[string]*MonitoredGuild),
		alertsByID:    make(map[string]*AlertGuild),
	}

	for _, mc := range guilds.Monitored {
		classifier, err := set.Resolve(mc.Classifier)
		if err != nil {
			return nil, fmt.Errorf("monitored guild %s (%s): %w", mc.Name, mc.ID, err)
		}

		mg := &MonitoredGuild{
			InstalledGuild: InstalledGuild{ID: mc.ID, Name: mc.Name, Enabled: mc.Enabled, Testing: mc.Testing},
			Classifier:     classifier,
		}
		if mg.Enabled {
			if _, dup := r.monitoredByID[mg.ID]; dup {
				return nil, fmt.Errorf("%w: monitored guild %s", ErrDuplicateGuild, mg.ID)
			}
			r.monitoredByID[mg.ID] = mg
			if classifier.IsPlaceholder() {
				logging.Warn("Monitored guild %s is enabled, but its ban classifier is a placeholder", mg.Name)
			}
		}
		r.monitored = append(r.monitored, mg)
	}

	for _, ac := range guilds.Alert {
		ag := &AlertGuild{
			InstalledGuild: InstalledGuild{ID: ac.ID, Name: ac.Name, Enabled: ac.Enabled, Testing: ac.Testing},
			ChannelID:      ac.ChannelID,
			GeneralRoleID:  ac.GeneralRoleID,
			OriginRoles:    ac.OriginRoles,
		}
		if ag.Enabled {
			if _, dup := r.alertsByID[ag.ID]; dup {
				return nil, fmt.Errorf("%w: alert guild %s", ErrDuplicateGuild, ag.ID)
			}
			r.alertsByID[ag.ID] = ag
			for originID := range ag.OriginRoles {
				if _, known := r.monitoredByID[originID]; !known {
					logging.Debug("Alert guild %s maps origin role for unconfigured guild %s", ag.Name, originID)
				}
			}
		}
		r.alerts = append(r.alerts, ag)
	}

	sortByName(r.monitored, func(g *MonitoredGuild) string { return g.Name })
	sortByName(r.alerts, func(g *AlertGuild) string { return g.Name })

	return r, nil
}

func sortByName[T any](s []T, name func(T) string) {
	sort.SliceStable(s, func(i, j int) bool {
		return strings.ToLower(name(s[i])) < strings.ToLower(name(s[j]))
	})
}

// Monitored returns the enabled monitored guilds matching the filter, in
// case-insensitive name order.
func (r *Registry) Monitored(f Filter) []*MonitoredGuild {
	var out []*MonitoredGuild
	for _, g := range r.monitored {
		if g.Enabled && f.match(&g.InstalledGuild) {
			out = append(out, g)
		}
	}
	return out
}

// Alerts returns the enabled alert guilds matching the filter, in
// case-insensitive name order.
func (r *Registry) Alerts(f Filter) []*AlertGuild {
	var out []*AlertGuild
	for _, g := range r.alerts {
		if g.Enabled && f.match(&g.InstalledGuild) {
			out = append(out, g)
		}
	}
	return out
}

// All returns every configured guild record, including disabled ones, in
// case-insensitive name order. Guilds configured in both roles appear once.
func (r *Registry) All(f Filter) []*InstalledGuild {
	seen := make(map[string]bool)
	var out []*InstalledGuild
	for _, g := range r.monitored {
		if f.match(&g.InstalledGuild) && !seen[g.ID] {
			seen[g.ID] = true
			out = append(out, &g.InstalledGuild)
		}
	}
	for _, g := range r.alerts {
		if f.match(&g.InstalledGuild) && !seen[g.ID] {
			seen[g.ID] = true
			out = append(out, &g.InstalledGuild)
		}
	}
	sortByName(out, func(g *InstalledGuild) string { return g.Name })
	return out
}

// MonitoredGuild looks up an enabled monitored guild by ID.
func (r *Registry) MonitoredGuild(id string) (*MonitoredGuild, bool) {
	g, ok := r.monitoredByID[id]
	return g, ok
}

// AlertGuild looks up an enabled alert guild by ID.
func (r *Registry) AlertGuild(id string) (*AlertGuild, bool) {
	g, ok := r.alertsByID[id]
	return g, ok
}

// Installed looks up an enabled guild of either role by ID. When a guild is
// configured in both roles, the testing flag of the record is the same by
// configuration convention and either record answers.
func (r *Registry) Installed(id string) (*InstalledGuild, bool) {
	if g, ok := r.monitoredByID[id]; ok {
		return &g.InstalledGuild, true
	}
	if g, ok := r.alertsByID[id]; ok {
		return &g.InstalledGuild, true
	}
	return nil, false
}
