// Package origin determines which monitored guild (or role proxy thereof)
// is credited as the source of an alert. Usually the origin falls out of
// the invocation context; when it does not, the user is asked through a
// single-choice dropdown.
package origin

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

var (
	// ErrUnknownContext means the command was invoked somewhere that is
	// neither a monitored nor an alert guild. No alert is produced.
	ErrUnknownContext = errors.New("invocation context is not a recognized guild")
	// ErrSelectionAbandoned means the user never completed the origin
	// dropdown. No alert is produced and no destination is contacted.
	ErrSelectionAbandoned = errors.New("origin selection was abandoned")
)

// SelectPrompter dispatches an interactive single-choice prompt and blocks
// until the user picks an option or ctx expires. Implementations return
// ErrSelectionAbandoned when the exchange is dismissed or times out.
type SelectPrompter interface {
	PromptSelect(ctx context.Context, prompt string, options []string) (string, error)
}

// RoleDirectory exposes the role ID -> role name mapping of a guild.
type RoleDirectory interface {
	GuildRoles(ctx context.Context, guildID string) (map[string]string, error)
}

// Invocation is the context an alert was raised from.
type Invocation struct {
	GuildID       string
	MemberRoleIDs []string
}

const selectPrompt = "I wasn't able to automatically determine which server is raising this alert.\n" +
	"Please use the dropdown below to tell me which server this alert is coming from."

// Resolver infers or asks for the origin of an alert.
type Resolver struct {
	reg     *registry.Registry
	roles   RoleDirectory
	timeout time.Duration
}

func New(reg *registry.Registry, roles RoleDirectory, timeout time.Duration) *Resolver {
	return &Resolver{reg: reg, roles: roles, timeout: timeout}
}

// Resolve returns the origin label for an alert raised from inv.
//
//   - Invoked from a non-testing monitored guild: that guild's name,
//     directly. (Testing guilds fall through so that the dropdown flow
//     stays exercisable from the dev guild.)
//   - Invoked from an alert guild: intersect the invoker's roles with the
//     guild's origin-notification roles. Exactly one match resolves
//     directly to that role's name; zero or several dispatches the
//     dropdown, offering the matches when there are any and otherwise
//     every mapped role.
//   - Anywhere else: ErrUnknownContext.
func (r *Resolver) Resolve(ctx context.Context, inv Invocation, prompter SelectPrompter) (string, error) {
	if mg, ok := r.reg.MonitoredGuild(inv.GuildID); ok && !mg.Testing {
		return mg.Name, nil
	}

	ag, ok := r.reg.AlertGuild(inv.GuildID)
	if !ok {
		return "", ErrUnknownContext
	}

	roleNames, err := r.roles.GuildRoles(ctx, ag.ID)
	if err != nil {
		return "", err
	}

	mapped := make(map[string]bool, len(ag.OriginRoles))
	for _, roleID := range ag.OriginRoles {
		mapped[roleID] = true
	}

	var matches []string
	for _, roleID := range inv.MemberRoleIDs {
		if mapped[roleID] {
			matches = append(matches, roleNames[roleID])
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}

	options := matches
	if len(options) == 0 {
		for roleID := range mapped {
			if name, known := roleNames[roleID]; known {
				options = append(options, name)
			}
		}
	}
	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i]) < strings.ToLower(options[j])
	})

	logging.Debug("Origin ambiguous in alert guild %s (%d role matches); dispatching selection", ag.Name, len(matches))

	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	label, err := prompter.PromptSelect(waitCtx, selectPrompt, options)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", ErrSelectionAbandoned
		}
		return "", err
	}
	return label, nil
}
