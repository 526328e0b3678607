package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshumphrey/full-course-yellow/internal/alert"
	"github.com/jshumphrey/full-course-yellow/internal/config"
	"github.com/jshumphrey/full-course-yellow/internal/membership"
	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/internal/origin"
	"github.com/jshumphrey/full-course-yellow/internal/probe"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
	"github.com/jshumphrey/full-course-yellow/internal/resolver"
)

// fakeResponder records the interaction response sequence.
type fakeResponder struct {
	deferred   bool
	deferredAt int // position in the call sequence, 1-based
	calls      int
	finished   string
	followups  []*alert.DecoratedAlert
}

func (r *fakeResponder) Defer(context.Context) error {
	r.calls++
	if !r.deferred {
		r.deferred = true
		r.deferredAt = r.calls
	}
	return nil
}

func (r *fakeResponder) Finish(_ context.Context, content string) error {
	r.calls++
	r.finished = content
	return nil
}

func (r *fakeResponder) Followup(_ context.Context, msg *alert.DecoratedAlert) error {
	r.calls++
	r.followups = append(r.followups, msg)
	return nil
}

type fakeUserDirectory struct {
	users map[string]*models.Actor
}

func (d *fakeUserDirectory) FetchUser(_ context.Context, userID string) (*models.Actor, error) {
	if a, ok := d.users[userID]; ok {
		return a, nil
	}
	return nil, resolver.ErrActorNotFound
}

type fakePresence struct {
	present map[string]bool
}

func (p *fakePresence) CheckPresence(_ context.Context, guildID, _ string) probe.Presence {
	if p.present[guildID] {
		return probe.Present
	}
	return probe.NotPresent
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string // channel IDs, in delivery order
}

func (s *fakeSender) SendAlert(_ context.Context, channelID string, _ *alert.DecoratedAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, channelID)
	return nil
}

type fakeRoleDirectory struct{}

func (fakeRoleDirectory) GuildRoles(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

type autoPrompter struct{ choice string }

func (p autoPrompter) PromptSelect(_ context.Context, _ string, options []string) (string, error) {
	if p.choice != "" {
		return p.choice, nil
	}
	return options[0], nil
}

type harness struct {
	pipeline *Pipeline
	sender   *fakeSender
	index    *membership.Index
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg, err := registry.FromConfig(config.GuildsConfig{
		Monitored: []config.MonitoredGuildConfig{
			{ID: "M1", Name: "Alpha", Enabled: true, Classifier: "always"},
		},
		Alert: []config.AlertGuildConfig{
			{ID: "A1", Name: "Staff Hub", Enabled: true, ChannelID: "chan-prod",
				OriginRoles: map[string]string{"M1": "R1"}},
			{ID: "A2", Name: "Dev Hub", Enabled: true, Testing: true, ChannelID: "chan-test"},
		},
	}, config.ClassifiersConfig{})
	require.NoError(t, err)

	users := &fakeUserDirectory{users: map[string]*models.Actor{
		"555": {ID: "555", Username: "offender"},
	}}
	checker := &fakePresence{present: map[string]bool{"M1": true}}
	sender := &fakeSender{}
	index := membership.New(reg)

	composer := alert.NewComposer(reg, probe.New(reg, checker, 2))

	return &harness{
		pipeline: &Pipeline{
			Registry:       reg,
			Index:          index,
			Resolver:       resolver.New(users),
			Origin:         origin.New(reg, fakeRoleDirectory{}, time.Second),
			Composer:       composer,
			Dispatcher:     alert.NewDispatcher(reg, composer, sender),
			TestingUserIDs: map[string]struct{}{"424242": {}},
		},
		sender: sender,
		index:  index,
	}
}

func invoker() *models.Actor {
	return &models.Actor{ID: "1000", Username: "lux"}
}

func TestHandleAlertHappyPath(t *testing.T) {
	h := newHarness(t)
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "M1",
		Invoker: invoker(),
		UserID:  "555",
		Reason:  "spamming",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.True(t, resp.deferred)
	assert.Equal(t, 1, resp.deferredAt, "deferral happens before any slow work answers")
	assert.Equal(t, msgSuccess, resp.finished)
	assert.ElementsMatch(t, []string{"chan-prod", "chan-test"}, h.sender.sent)
}

func TestHandleAlertOutsideInstalledGuilds(t *testing.T) {
	h := newHarness(t)
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "elsewhere",
		Invoker: invoker(),
		UserID:  "555",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.Equal(t, msgInvalidLocation, resp.finished)
	assert.False(t, resp.deferred, "guard failures respond directly, never deferred")
	assert.Empty(t, h.sender.sent)
}

func TestHandleAlertNonDigitUserID(t *testing.T) {
	h := newHarness(t)
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "M1",
		Invoker: invoker(),
		UserID:  "lux#0001",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.Equal(t, msgNonIDUserID, resp.finished)
	assert.False(t, resp.deferred)
	assert.Empty(t, h.sender.sent)
}

func TestHandleAlertAgainstModeratorIsRejected(t *testing.T) {
	h := newHarness(t)
	h.index.RecordJoin("555", "A1")
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "M1",
		Invoker: invoker(),
		UserID:  "555",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.Equal(t, msgModeratorUserID, resp.finished)
	assert.Empty(t, h.sender.sent, "no destination is contacted for a rejected alert")
}

func TestHandleAlertTestingUserBypassesModeratorGuard(t *testing.T) {
	h := newHarness(t)
	h.index.RecordJoin("424242", "A1")
	h.pipeline.Resolver = resolver.New(&fakeUserDirectory{users: map[string]*models.Actor{
		"424242": {ID: "424242", Username: "canary"},
	}})
	resp := &fakeResponder{}

	// The target is indexed as a moderator, but the testing allowlist wins.
	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "M1",
		Invoker: invoker(),
		UserID:  "424242",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.Equal(t, msgSuccess, resp.finished)
	assert.NotEmpty(t, h.sender.sent)
}

func TestHandleAlertUnknownUser(t *testing.T) {
	h := newHarness(t)
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "M1",
		Invoker: invoker(),
		UserID:  "999999",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.Contains(t, resp.finished, "couldn't find any Discord user")
	assert.Contains(t, resp.finished, "999999")
	assert.Empty(t, h.sender.sent)
}

func TestHandleSelfAlert(t *testing.T) {
	h := newHarness(t)
	// The invoker is an indexed moderator; self-alerts must still go through.
	h.index.RecordJoin("1000", "A1")
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "M1",
		Invoker: invoker(),
		UserID:  "1000",
	}, resp, autoPrompter{})

	require.NoError(t, err)
	assert.Equal(t, msgSelfAlertNotice, resp.finished)
	require.Len(t, resp.followups, 1, "the decorated preview arrives as a followup")
	assert.Empty(t, h.sender.sent, "self-alerts never reach the alert channels")
}

func TestHandleAlertFromTestingGuildStaysInTesting(t *testing.T) {
	h := newHarness(t)
	resp := &fakeResponder{}

	err := h.pipeline.HandleAlert(context.Background(), Request{
		GuildID: "A2", // testing alert guild
		Invoker: invoker(),
		UserID:  "555",
	}, resp, autoPrompter{choice: "anything"})

	require.NoError(t, err)
	assert.Equal(t, msgSuccess, resp.finished)
	assert.Equal(t, []string{"chan-test"}, h.sender.sent,
		"alerts raised from testing guilds only reach testing destinations")
}
