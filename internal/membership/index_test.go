package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshumphrey/full-course-yellow/internal/config"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
)

// fakeLister serves canned rosters keyed by guild ID.
type fakeLister struct {
	rosters map[string][]string
	err     error
}

func (l *fakeLister) ListRoster(_ context.Context, guildID string, fn func(string) error) error {
	if l.err != nil {
		return l.err
	}
	for _, id := range l.rosters[guildID] {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	reg, err := registry.FromConfig(config.GuildsConfig{
		Alert: []config.AlertGuildConfig{
			{ID: "A", Name: "Alert A", Enabled: true, ChannelID: "1"},
			{ID: "B", Name: "Alert B", Enabled: true, ChannelID: "2"},
		},
	}, config.ClassifiersConfig{})
	require.NoError(t, err)
	return New(reg)
}

func TestIndexBulkPopulate(t *testing.T) {
	x := testIndex(t)
	lister := &fakeLister{rosters: map[string][]string{
		"A": {"1", "2"},
		"B": {"2", "3"},
	}}

	require.NoError(t, x.BulkPopulate(context.Background(), lister))

	assert.True(t, x.Contains("1"))
	assert.True(t, x.Contains("2"))
	assert.True(t, x.Contains("3"))
	assert.False(t, x.Contains("4"))
	assert.Equal(t, 3, x.Size())
}

func TestIndexBulkPopulateError(t *testing.T) {
	x := testIndex(t)
	lister := &fakeLister{err: errors.New("missing access")}

	err := x.BulkPopulate(context.Background(), lister)
	assert.Error(t, err)
}

func TestIndexJoinAndLeave(t *testing.T) {
	x := testIndex(t)

	x.RecordJoin("42", "A")
	assert.True(t, x.Contains("42"))

	x.RecordLeave("42", "A")
	assert.False(t, x.Contains("42"))
}

func TestIndexIgnoresNonAlertGuilds(t *testing.T) {
	x := testIndex(t)

	x.RecordJoin("42", "unconfigured")
	assert.False(t, x.Contains("42"))
	assert.Equal(t, 0, x.Size())

	// Must not panic or mutate anything either.
	x.RecordLeave("42", "unconfigured")
	assert.Equal(t, 0, x.Size())
}

func TestIndexMemberOfTwoGuildsSurvivesOneLeave(t *testing.T) {
	x := testIndex(t)
	lister := &fakeLister{rosters: map[string][]string{
		"A": {"1", "2"},
		"B": {"2", "3"},
	}}
	require.NoError(t, x.BulkPopulate(context.Background(), lister))

	// Actor 2 staffs both guilds; leaving one of them must not drop them
	// from the index.
	x.RecordLeave("2", "A")
	assert.True(t, x.Contains("2"))

	x.RecordLeave("2", "B")
	assert.False(t, x.Contains("2"))
	assert.Equal(t, 2, x.Size())
}

func TestIndexLeaveOfUnknownMemberIsTolerated(t *testing.T) {
	x := testIndex(t)

	// Leaving twice is the startup-race shape: the second leave finds
	// nothing to remove and must be a quiet no-op.
	x.RecordJoin("7", "A")
	x.RecordLeave("7", "A")
	assert.NotPanics(t, func() { x.RecordLeave("7", "B") })
	assert.False(t, x.Contains("7"))
}
